package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/logging"
	"github.com/avealov/rulehub/internal/server/config"
	"github.com/avealov/rulehub/internal/server/mail"
	"github.com/avealov/rulehub/internal/server/models"
	"github.com/avealov/rulehub/internal/server/repositories/repomanager"
	"github.com/avealov/rulehub/internal/server/tokens"
)

// ProfileUpdate carries the optional fields of a profile change; nil fields
// keep their current values.
type ProfileUpdate struct {
	Bio                *string
	IsProfilePublic    *bool
	IsCollectionPublic *bool
}

// UserService implements the user directory operations: identity changes,
// profile visibility and account removal.
type UserService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	engine *tokens.Engine
	mailer mail.Sender
	log    logging.Logger
	cfg    *config.Config
}

func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, engine *tokens.Engine,
	mailer mail.Sender, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{db: db, rm: rm, engine: engine, mailer: mailer, log: log, cfg: cfg}
}

// ChangeUsername renames the account. Uniqueness is enforced by the store;
// the pre-check only turns the common case into a cheaper read.
func (s *UserService) ChangeUsername(ctx context.Context, user *models.User, newUsername string) error {
	if newUsername == user.Username {
		return nil
	}

	repo := s.rm.Users(s.db)

	if _, err := repo.GetByUsername(ctx, newUsername); err == nil {
		return common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("checking username: %w", err)
	}

	if err := repo.UpdateUsername(ctx, user.ID, newUsername); err != nil {
		return err
	}
	user.Username = newUsername
	return nil
}

// ChangeEmail replaces the account email, drops the verified flag and sends
// a fresh verification mail to the new address.
func (s *UserService) ChangeEmail(ctx context.Context, user *models.User, newEmail string) error {
	newEmail = NormalizeEmail(newEmail)
	if newEmail == user.Email {
		return nil
	}

	repo := s.rm.Users(s.db)

	if _, err := repo.GetByEmail(ctx, newEmail); err == nil {
		return common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("checking email: %w", err)
	}

	if err := repo.UpdateEmail(ctx, user.ID, newEmail); err != nil {
		return err
	}
	user.Email = newEmail
	user.IsEmailVerified = false

	secret, err := s.engine.Mint(ctx, s.db, user.ID, models.TokenKindEmailVerify, s.cfg.EmailVerifyTokenTTL)
	if err != nil {
		s.log.Error(ctx, "minting email verification token", "error", err, "user_id", user.ID)
		return nil
	}
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.cfg.BaseURL, secret)
	body := fmt.Sprintf("Follow the link to confirm your new email address: %s", link)
	if err := s.mailer.Send(ctx, newEmail, "Confirm your email", body); err != nil {
		s.log.Error(ctx, "sending verification email", "error", err, "user_id", user.ID)
	}

	return nil
}

// UpdateProfile applies the non-nil fields of upd on top of the current
// profile.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, upd ProfileUpdate) error {
	bio := user.Bio
	profilePublic := user.IsProfilePublic
	collectionPublic := user.IsCollectionPublic

	if upd.Bio != nil {
		bio = upd.Bio
	}
	if upd.IsProfilePublic != nil {
		profilePublic = *upd.IsProfilePublic
	}
	if upd.IsCollectionPublic != nil {
		collectionPublic = *upd.IsCollectionPublic
	}

	if err := s.rm.Users(s.db).UpdateProfile(ctx, user.ID, bio, profilePublic, collectionPublic); err != nil {
		return err
	}

	user.Bio = bio
	user.IsProfilePublic = profilePublic
	user.IsCollectionPublic = collectionPublic
	return nil
}

// Delete removes the account. The store cascades the delete to the user's
// tokens and comments; cached access tokens die at validation time because
// the user lookup behind them fails.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.engine.RevokeAll(ctx, s.db, userID, models.TokenKindAccess, models.TokenKindRefresh); err != nil {
		s.log.Warn(ctx, "revoking tokens before delete", "error", err, "user_id", userID)
	}
	return s.rm.Users(s.db).Delete(ctx, userID)
}

// List returns the user directory. Admins see every account; everyone else
// sees only accounts with a public profile.
func (s *UserService) List(ctx context.Context, requester *models.User) ([]models.User, error) {
	publicOnly := requester == nil || !requester.IsAdmin()
	return s.rm.Users(s.db).List(ctx, publicOnly)
}

// GetProfile resolves a username to its profile. Private profiles are only
// visible to their owner and to admins.
func (s *UserService) GetProfile(ctx context.Context, requester *models.User, username string) (*models.User, error) {
	user, err := s.rm.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if !user.IsProfilePublic {
		allowed := requester != nil && (requester.ID == user.ID || requester.IsAdmin())
		if !allowed {
			return nil, common.ErrorForbidden
		}
	}

	return user, nil
}
