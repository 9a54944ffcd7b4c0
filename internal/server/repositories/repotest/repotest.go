// Package repotest provides in-memory repository implementations with the
// same uniqueness and revocation semantics as the PostgreSQL ones. They back
// the service and HTTP tests, which run real flows without a database.
package repotest

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/dbx"
	"github.com/avealov/rulehub/internal/server/models"
	"github.com/avealov/rulehub/internal/server/repositories/comments"
	"github.com/avealov/rulehub/internal/server/repositories/tokens"
	"github.com/avealov/rulehub/internal/server/repositories/users"
)

// Manager vends the in-memory repositories regardless of the DBTX handle, so
// transactional flows can run against a mocked sql.DB.
type Manager struct {
	UsersRepo    *UsersRepo
	TokensRepo   *TokensRepo
	CommentsRepo *CommentsRepo
}

func NewManager() *Manager {
	return &Manager{
		UsersRepo:    &UsersRepo{users: make(map[string]*models.User)},
		TokensRepo:   &TokensRepo{},
		CommentsRepo: &CommentsRepo{},
	}
}

func (m *Manager) RunMigrations(_ context.Context, _ *sql.DB) error { return nil }
func (m *Manager) Users(_ dbx.DBTX) users.Repository               { return m.UsersRepo }
func (m *Manager) Tokens(_ dbx.DBTX) tokens.Repository             { return m.TokensRepo }
func (m *Manager) Comments(_ dbx.DBTX) comments.Repository         { return m.CommentsRepo }

// UsersRepo implements users.Repository in memory.
type UsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (r *UsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, common.ErrorConflict
		}
	}
	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	// The users INSERT omits the visibility columns, so the schema
	// defaults apply and every fresh account starts public.
	stored.IsProfilePublic = true
	stored.IsCollectionPublic = true
	stored.CreatedAt = time.Now()
	r.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepo) List(_ context.Context, publicOnly bool) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if publicOnly && !u.IsProfilePublic {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

// Mutate applies fn to the stored user under the lock; a test helper for
// setting up roles and flags directly.
func (r *UsersRepo) Mutate(id string, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

func (r *UsersRepo) UpdateUsername(_ context.Context, id, username string) error {
	return r.Mutate(id, func(u *models.User) { u.Username = username })
}

func (r *UsersRepo) UpdateEmail(_ context.Context, id, email string) error {
	return r.Mutate(id, func(u *models.User) {
		u.Email = email
		u.IsEmailVerified = false
	})
}

func (r *UsersRepo) SetEmailVerified(_ context.Context, id string) error {
	return r.Mutate(id, func(u *models.User) { u.IsEmailVerified = true })
}

func (r *UsersRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.Mutate(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r *UsersRepo) UpdateProfile(_ context.Context, id string, bio *string, profilePublic, collectionPublic bool) error {
	return r.Mutate(id, func(u *models.User) {
		u.Bio = bio
		u.IsProfilePublic = profilePublic
		u.IsCollectionPublic = collectionPublic
	})
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.users, id)
	return nil
}

// TokensRepo implements tokens.Repository in memory, enforcing the same
// token_hash uniqueness as the real table.
type TokensRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.Token
}

func (r *TokensRepo) Create(_ context.Context, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.TokenHash == token.TokenHash {
			return common.ErrorConflict
		}
	}
	r.nextID++
	stored := *token
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.rows = append(r.rows, &stored)
	token.ID = stored.ID
	return nil
}

func (r *TokensRepo) FindValid(_ context.Context, hash, kind string, now time.Time) (*models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.TokenHash == hash && row.Kind == kind && !row.Revoked && now.Before(row.ExpiresAt) {
			out := *row
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *TokensRepo) Revoke(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.Revoked = true
		}
	}
	return nil
}

func (r *TokensRepo) RevokeByHashForUser(_ context.Context, hash, userID, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.TokenHash == hash && row.UserID == userID && row.Kind == kind {
			row.Revoked = true
		}
	}
	return nil
}

func (r *TokensRepo) RevokeAllForUser(_ context.Context, userID string, kinds ...string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var hashes []string
	for _, row := range r.rows {
		if row.UserID != userID || row.Revoked {
			continue
		}
		for _, kind := range kinds {
			if row.Kind == kind {
				row.Revoked = true
				hashes = append(hashes, row.TokenHash)
				break
			}
		}
	}
	return hashes, nil
}

// All returns a copy of every stored token row.
func (r *TokensRepo) All() []models.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Token, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, *row)
	}
	return out
}

// CountLive returns the number of unrevoked, stored tokens of a kind.
func (r *TokensRepo) CountLive(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.Kind == kind && !row.Revoked {
			n++
		}
	}
	return n
}

// CommentsRepo implements comments.Repository in memory.
type CommentsRepo struct {
	mu   sync.Mutex
	rows []*models.Comment
}

func (r *CommentsRepo) Create(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *comment
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.rows = append(r.rows, &stored)
	out := stored
	return &out, nil
}

func (r *CommentsRepo) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			out := *row
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *CommentsRepo) ListForPage(_ context.Context, gameName, page string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for _, row := range r.rows {
		if row.GameName == gameName && row.Page == page {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *CommentsRepo) UpdateText(_ context.Context, id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.CommentText = text
			row.UpdatedAt = time.Now()
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *CommentsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}
