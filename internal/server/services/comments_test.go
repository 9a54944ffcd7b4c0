package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/server/models"
	"github.com/avealov/rulehub/internal/server/repositories/repotest"
)

func newCommentFixture(t *testing.T) (*CommentService, *repotest.Manager) {
	t.Helper()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rm := repotest.NewManager()
	return NewCommentService(db, rm), rm
}

func seedCommentUser(t *testing.T, rm *repotest.Manager, username string, role string) *models.User {
	t.Helper()
	user, err := rm.UsersRepo.Create(context.Background(), &models.User{
		Username:        username,
		Email:           username + "@example.com",
		PasswordHash:    "hashed:Password1",
		Role:            role,
		IsEmailVerified: true,
	})
	require.NoError(t, err)
	return user
}

func TestCommentCreateAndList(t *testing.T) {
	svc, rm := newCommentFixture(t)
	alice := seedCommentUser(t, rm, "alice", models.RoleUser)

	created, err := svc.Create(context.Background(), alice, "gloomhaven", "12", "Check the jump rules here.")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, alice.ID, created.UserID)
	assert.Equal(t, "alice", created.Username)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = svc.Create(context.Background(), alice, "gloomhaven", "13", "Different page.")
	require.NoError(t, err)

	listed, err := svc.List(context.Background(), "gloomhaven", "12")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	listed, err = svc.List(context.Background(), "gloomhaven", "99")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCommentUpdateOwnership(t *testing.T) {
	svc, rm := newCommentFixture(t)
	alice := seedCommentUser(t, rm, "alice", models.RoleUser)
	bob := seedCommentUser(t, rm, "bob", models.RoleUser)
	admin := seedCommentUser(t, rm, "root", models.RoleAdmin)

	created, err := svc.Create(context.Background(), alice, "gloomhaven", "12", "original")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), bob, created.ID, "hijacked")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	updated, err := svc.Update(context.Background(), alice, created.ID, "edited by author")
	require.NoError(t, err)
	assert.Equal(t, "edited by author", updated.CommentText)

	updated, err = svc.Update(context.Background(), admin, created.ID, "edited by admin")
	require.NoError(t, err)
	assert.Equal(t, "edited by admin", updated.CommentText)

	_, err = svc.Update(context.Background(), alice, "no-such-id", "text")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCommentDeleteOwnership(t *testing.T) {
	svc, rm := newCommentFixture(t)
	alice := seedCommentUser(t, rm, "alice", models.RoleUser)
	bob := seedCommentUser(t, rm, "bob", models.RoleUser)

	created, err := svc.Create(context.Background(), alice, "gloomhaven", "12", "to be deleted")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), bob, created.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	require.NoError(t, svc.Delete(context.Background(), alice, created.ID))

	err = svc.Delete(context.Background(), alice, created.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
