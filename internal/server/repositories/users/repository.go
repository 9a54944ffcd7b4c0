// Package users provides the user directory: storage-backed lookups,
// mutations and the uniqueness guarantees the auth flows rely on.
package users

import (
	"context"

	"github.com/avealov/rulehub/internal/server/models"
)

// Repository is the storage contract for user accounts. Username and email
// uniqueness is enforced by the store; Create and the Update* methods return
// common.ErrorConflict when a unique constraint rejects the write.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, publicOnly bool) ([]models.User, error)

	UpdateUsername(ctx context.Context, id, username string) error
	// UpdateEmail stores the new address and clears the verified flag in the
	// same statement.
	UpdateEmail(ctx context.Context, id, email string) error
	SetEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, bio *string, profilePublic, collectionPublic bool) error

	// Delete removes the account; owned tokens and comments go with it via
	// foreign-key cascade.
	Delete(ctx context.Context, id string) error
}
