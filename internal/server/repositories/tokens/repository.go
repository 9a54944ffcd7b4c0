// Package tokens provides the PostgreSQL-backed token store for opaque
// bearer credentials: lookup-hash persistence, single-read validity checks
// and revocation.
package tokens

import (
	"context"
	"time"

	"github.com/avealov/rulehub/internal/server/models"
)

// Repository is the storage contract for token rows. The token_hash column
// is unique across all kinds; Create returns common.ErrorConflict when a
// hash collides instead of overwriting.
type Repository interface {
	Create(ctx context.Context, token *models.Token) error

	// FindValid returns the token matching hash and kind that is not revoked
	// and not expired at the given instant. The check is a single read; any
	// miss (absent, wrong kind, revoked, expired) is common.ErrorNotFound.
	FindValid(ctx context.Context, hash, kind string, now time.Time) (*models.Token, error)

	// Revoke marks one token revoked. Revoking an already-revoked token is a
	// no-op, not an error.
	Revoke(ctx context.Context, id int64) error

	// RevokeByHashForUser revokes the token with the exact hash only when it
	// belongs to userID and has the given kind. Missing tokens are ignored.
	RevokeByHashForUser(ctx context.Context, hash, userID, kind string) error

	// RevokeAllForUser revokes every live token of the given kinds owned by
	// userID and returns the affected hashes so callers can purge caches.
	RevokeAllForUser(ctx context.Context, userID string, kinds ...string) ([]string, error)
}
