// Package comments stores user comments attached to rulebook pages.
package comments

import (
	"context"

	"github.com/avealov/rulehub/internal/server/models"
)

// Repository is the storage contract for comments.
type Repository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)

	// ListForPage returns the comments for one page of one game, oldest
	// first, with the author username joined in.
	ListForPage(ctx context.Context, gameName, page string) ([]models.Comment, error)

	UpdateText(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
}
