package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/server/models"
	"github.com/avealov/rulehub/internal/server/repositories/repomanager"
)

// CommentService implements the comment operations on rulebook pages.
type CommentService struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

func NewCommentService(db *sql.DB, rm repomanager.RepositoryManager) *CommentService {
	return &CommentService{db: db, rm: rm}
}

// List returns the comments on one page of one game, oldest first.
func (s *CommentService) List(ctx context.Context, gameName, page string) ([]models.Comment, error) {
	return s.rm.Comments(s.db).ListForPage(ctx, gameName, page)
}

// Create attaches a comment by user to a game page.
func (s *CommentService) Create(ctx context.Context, user *models.User, gameName, page, text string) (*models.Comment, error) {
	comment := &models.Comment{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		GameName:    gameName,
		Page:        page,
		CommentText: text,
	}
	return s.rm.Comments(s.db).Create(ctx, comment)
}

// Update replaces a comment's text. Only the author or an admin may edit.
func (s *CommentService) Update(ctx context.Context, user *models.User, id, text string) (*models.Comment, error) {
	repo := s.rm.Comments(s.db)

	comment, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		return nil, common.ErrorForbidden
	}

	if err := repo.UpdateText(ctx, id, text); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

// Delete removes a comment. Only the author or an admin may delete.
func (s *CommentService) Delete(ctx context.Context, user *models.User, id string) error {
	repo := s.rm.Comments(s.db)

	comment, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		return common.ErrorForbidden
	}

	return repo.Delete(ctx, id)
}
