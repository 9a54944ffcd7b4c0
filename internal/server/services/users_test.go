package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/server/config"
	"github.com/avealov/rulehub/internal/server/models"
	"github.com/avealov/rulehub/internal/server/repositories/repotest"
	"github.com/avealov/rulehub/internal/server/tokens"
)

type userFixture struct {
	svc    *UserService
	engine *tokens.Engine
	rm     *repotest.Manager
	mailer *fakeMailer
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	rm := repotest.NewManager()
	engine := tokens.NewEngine(db, rm, nil, nopLogger{})
	mailer := &fakeMailer{}

	return &userFixture{
		svc:    NewUserService(db, rm, engine, mailer, nopLogger{}, cfg),
		engine: engine,
		rm:     rm,
		mailer: mailer,
	}
}

func (f *userFixture) seedUser(t *testing.T, username, email string) *models.User {
	t.Helper()
	user, err := f.rm.UsersRepo.Create(context.Background(), &models.User{
		Username:        username,
		Email:           email,
		PasswordHash:    "hashed:Password1",
		Role:            models.RoleUser,
		IsEmailVerified: true,
	})
	require.NoError(t, err)
	return user
}

func TestChangeUsername(t *testing.T) {
	f := newUserFixture(t)
	alice := f.seedUser(t, "alice", "alice@example.com")
	f.seedUser(t, "bob", "bob@example.com")

	err := f.svc.ChangeUsername(context.Background(), alice, "bob")
	assert.ErrorIs(t, err, common.ErrorConflict)

	require.NoError(t, f.svc.ChangeUsername(context.Background(), alice, "alice2"))
	assert.Equal(t, "alice2", alice.Username)

	got, err := f.rm.UsersRepo.GetByUsername(context.Background(), "alice2")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
}

func TestChangeEmail(t *testing.T) {
	f := newUserFixture(t)
	alice := f.seedUser(t, "alice", "alice@example.com")
	f.seedUser(t, "bob", "bob@example.com")

	err := f.svc.ChangeEmail(context.Background(), alice, "BOB@example.com")
	assert.ErrorIs(t, err, common.ErrorConflict)

	require.NoError(t, f.svc.ChangeEmail(context.Background(), alice, "New@Example.com"))
	assert.Equal(t, "new@example.com", alice.Email)
	assert.False(t, alice.IsEmailVerified, "a new address needs re-verification")

	require.Equal(t, 1, f.mailer.count())
	m, _ := f.mailer.last()
	assert.Equal(t, "new@example.com", m.to)
	assert.Contains(t, m.body, "/auth/verify-email?token=")
	assert.Equal(t, 1, f.rm.TokensRepo.CountLive(models.TokenKindEmailVerify))

	// Changing to the current address is a no-op.
	require.NoError(t, f.svc.ChangeEmail(context.Background(), alice, "new@example.com"))
	assert.Equal(t, 1, f.mailer.count())
}

func TestUpdateProfilePartial(t *testing.T) {
	f := newUserFixture(t)
	alice := f.seedUser(t, "alice", "alice@example.com")

	bio := "I collect dungeon crawlers."
	private := false
	require.NoError(t, f.svc.UpdateProfile(context.Background(), alice, ProfileUpdate{
		Bio:             &bio,
		IsProfilePublic: &private,
	}))

	got, err := f.rm.UsersRepo.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Bio)
	assert.Equal(t, bio, *got.Bio)
	assert.False(t, got.IsProfilePublic)
	assert.True(t, got.IsCollectionPublic, "untouched fields keep their values")

	require.NoError(t, f.svc.UpdateProfile(context.Background(), alice, ProfileUpdate{
		IsCollectionPublic: &private,
	}))

	got, err = f.rm.UsersRepo.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Bio)
	assert.Equal(t, bio, *got.Bio)
	assert.False(t, got.IsCollectionPublic)
}

func TestDeleteAccount(t *testing.T) {
	f := newUserFixture(t)
	alice := f.seedUser(t, "alice", "alice@example.com")

	secret, err := f.engine.Mint(context.Background(), nil, alice.ID, models.TokenKindAccess, time.Minute)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), alice.ID))

	_, err = f.rm.UsersRepo.GetByID(context.Background(), alice.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.engine.Validate(context.Background(), secret, models.TokenKindAccess)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestListVisibility(t *testing.T) {
	f := newUserFixture(t)

	f.seedUser(t, "alice", "alice@example.com")
	private := false
	bob := f.seedUser(t, "bob", "bob@example.com")
	require.NoError(t, f.svc.UpdateProfile(context.Background(), bob, ProfileUpdate{IsProfilePublic: &private}))

	admin := f.seedUser(t, "root", "root@example.com")
	admin.Role = models.RoleAdmin
	require.NoError(t, f.rm.UsersRepo.Mutate(admin.ID, func(u *models.User) {
		u.Role = models.RoleAdmin
		u.IsProfilePublic = false
	}))

	listed, err := f.svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, listed, 1, "anonymous callers see only public profiles")

	listed, err = f.svc.List(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, listed, 3, "admins see everyone")
}

func TestGetProfileVisibility(t *testing.T) {
	f := newUserFixture(t)
	alice := f.seedUser(t, "alice", "alice@example.com")
	bob := f.seedUser(t, "bob", "bob@example.com")

	// Fresh profiles are public until the owner opts out.
	got, err := f.svc.GetProfile(context.Background(), nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	private := false
	require.NoError(t, f.svc.UpdateProfile(context.Background(), alice, ProfileUpdate{IsProfilePublic: &private}))

	_, err = f.svc.GetProfile(context.Background(), nil, "alice")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.svc.GetProfile(context.Background(), bob, "alice")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	got, err = f.svc.GetProfile(context.Background(), alice, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	require.NoError(t, f.rm.UsersRepo.Mutate(bob.ID, func(u *models.User) { u.Role = models.RoleAdmin }))
	bob.Role = models.RoleAdmin
	_, err = f.svc.GetProfile(context.Background(), bob, "alice")
	assert.NoError(t, err)

	_, err = f.svc.GetProfile(context.Background(), nil, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
