// Package services contains the application services built on top of the
// repositories and the token lifecycle engine: the auth flow orchestrator,
// the user directory operations and the comment operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/dbx"
	"github.com/avealov/rulehub/internal/logging"
	"github.com/avealov/rulehub/internal/password"
	"github.com/avealov/rulehub/internal/server/config"
	"github.com/avealov/rulehub/internal/server/mail"
	"github.com/avealov/rulehub/internal/server/metrics"
	"github.com/avealov/rulehub/internal/server/models"
	"github.com/avealov/rulehub/internal/server/repositories/repomanager"
	"github.com/avealov/rulehub/internal/server/tokens"
)

const resetCodeDigits = 6

// TokenPair is the result of login and refresh: a short-lived access token
// and a one-time-use refresh token. ExpiresIn is the access-token lifetime
// in seconds.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// AuthService orchestrates the register / login / refresh / logout /
// verify-email / password-reset flows.
type AuthService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	engine *tokens.Engine
	hasher password.Hasher
	mailer mail.Sender
	log    logging.Logger
	cfg    *config.Config
}

func NewAuthService(db *sql.DB, rm repomanager.RepositoryManager, engine *tokens.Engine,
	hasher password.Hasher, mailer mail.Sender, log logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:     db,
		rm:     rm,
		engine: engine,
		hasher: hasher,
		mailer: mailer,
		log:    log,
		cfg:    cfg,
	}
}

// NormalizeEmail lower-cases and trims an email address. All email inputs
// pass through here before touching the store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and mints an email-verification token. The
// pre-insert existence checks are an optimization; the store's unique
// constraints are the correctness guarantee and surface as ErrorConflict.
//
// Whether the account starts verified is a deployment policy
// (Config.RequireEmailVerification); the verification mail is sent either
// way.
func (s *AuthService) Register(ctx context.Context, username, email, plainPassword string) (*models.User, error) {
	email = NormalizeEmail(email)

	usersRepo := s.rm.Users(s.db)

	if _, err := usersRepo.GetByUsername(ctx, username); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if _, err := usersRepo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := usersRepo.Create(ctx, &models.User{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		Role:            models.RoleUser,
		IsEmailVerified: !s.cfg.RequireEmailVerification,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.sendVerificationMail(ctx, user)

	return user, nil
}

func (s *AuthService) sendVerificationMail(ctx context.Context, user *models.User) {
	secret, err := s.engine.Mint(ctx, s.db, user.ID, models.TokenKindEmailVerify, s.cfg.EmailVerifyTokenTTL)
	if err != nil {
		s.log.Error(ctx, "minting email verification token", "error", err, "user_id", user.ID)
		return
	}

	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.cfg.BaseURL, secret)
	body := fmt.Sprintf("Follow the link to confirm your email address: %s", link)
	if err := s.mailer.Send(ctx, user.Email, "Confirm your email", body); err != nil {
		// Best-effort: the token stays valid server-side, the user can
		// request a resend out of band.
		s.log.Error(ctx, "sending verification email", "error", err, "user_id", user.ID)
	}
}

// Login verifies credentials and issues an access+refresh pair. Unknown
// username and wrong password produce the same error. An unverified email
// is Forbidden when the deployment requires verification.
func (s *AuthService) Login(ctx context.Context, username, plainPassword string) (*TokenPair, *models.User, error) {
	user, err := s.rm.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			metrics.Logins.WithLabelValues("fail").Inc()
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}

	if !s.hasher.Check(plainPassword, user.PasswordHash) {
		metrics.Logins.WithLabelValues("fail").Inc()
		return nil, nil, common.ErrorUnauthorized
	}

	if s.cfg.RequireEmailVerification && !user.IsEmailVerified {
		metrics.Logins.WithLabelValues("forbidden").Inc()
		return nil, nil, common.ErrorForbidden
	}

	pair, err := s.mintPair(ctx, s.db, user.ID)
	if err != nil {
		return nil, nil, err
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	return pair, user, nil
}

func (s *AuthService) mintPair(ctx context.Context, db dbx.DBTX, userID string) (*TokenPair, error) {
	access, err := s.engine.Mint(ctx, db, userID, models.TokenKindAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}
	refresh, err := s.engine.Mint(ctx, db, userID, models.TokenKindRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("minting refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the presented secret is consumed
// (validated and revoked) and a fresh access+refresh pair is minted, all in
// one transaction. After a successful call the old secret is dead, which
// makes refresh tokens one-time-use.
func (s *AuthService) Refresh(ctx context.Context, refreshSecret string) (*TokenPair, error) {
	var pair *TokenPair

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.engine.Consume(ctx, tx, refreshSecret, models.TokenKindRefresh)
		if err != nil {
			return err
		}

		pair, err = s.mintPair(ctx, tx, token.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the presented refresh token, scoped to the caller's user
// id so other sessions stay alive. An unknown or already-revoked token is
// swallowed into the same success response.
func (s *AuthService) Logout(ctx context.Context, userID, refreshSecret string) error {
	if refreshSecret == "" {
		return nil
	}
	if err := s.engine.RevokeRefresh(ctx, userID, refreshSecret); err != nil {
		return err
	}
	return nil
}

// VerifyEmail consumes an email_verify token and marks the email verified.
// Both happen in one transaction: either the flag is set and the token is
// dead, or neither.
func (s *AuthService) VerifyEmail(ctx context.Context, secret string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.engine.Consume(ctx, tx, secret, models.TokenKindEmailVerify)
		if err != nil {
			return err
		}
		return s.rm.Users(tx).SetEmailVerified(ctx, token.UserID)
	})
}

// RequestPasswordReset mints a reset link secret plus an independent short
// numeric code (same kind and TTL, either one redeemable) and mails them.
// It returns nil whether or not the email exists, so callers cannot probe
// for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.rm.Users(s.db).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("looking up email: %w", err)
	}

	secret, err := s.engine.Mint(ctx, s.db, user.ID, models.TokenKindReset, s.cfg.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("minting reset token: %w", err)
	}

	code, err := s.mintResetCode(ctx, user.ID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/reset-password?token=%s", s.cfg.BaseURL, secret)
	body := fmt.Sprintf("To reset your password follow the link: %s\nOr enter the code: %s", link, code)
	if err := s.mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		s.log.Error(ctx, "sending reset email", "error", err, "user_id", user.ID)
	}

	return nil
}

// mintResetCode stores a short numeric code as a reset token. The code space
// is small, so a hash collision with an outstanding code is possible; one
// retry with a fresh code mirrors the engine's own collision policy.
func (s *AuthService) mintResetCode(ctx context.Context, userID string) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		code, err := tokens.GenerateNumericCode(resetCodeDigits)
		if err != nil {
			return "", fmt.Errorf("generating reset code: %w", err)
		}
		err = s.engine.MintWith(ctx, s.db, userID, models.TokenKindReset, code, s.cfg.ResetTokenTTL)
		if errors.Is(err, common.ErrorConflict) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("minting reset code: %w", err)
		}
		return code, nil
	}
	return "", fmt.Errorf("minting reset code: %w", common.ErrorConflict)
}

// ResetPassword redeems either the link secret or the numeric code, updates
// the password hash and revokes the consumed token atomically. All
// outstanding access and refresh tokens die in the same transaction: the
// old password's sessions do not survive it.
func (s *AuthService) ResetPassword(ctx context.Context, linkSecret, code, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.engine.ConsumeAny(ctx, tx, []string{linkSecret, code}, models.TokenKindReset)
		if err != nil {
			return err
		}

		if err := s.rm.Users(tx).UpdatePassword(ctx, token.UserID, hash); err != nil {
			return fmt.Errorf("updating password: %w", err)
		}

		return s.engine.RevokeAll(ctx, tx, token.UserID,
			models.TokenKindAccess, models.TokenKindRefresh)
	})
}

// ChangePassword re-verifies the current password before accepting the new
// one. A wrong current password never alters the stored hash.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if !s.hasher.Check(currentPassword, user.PasswordHash) {
		return common.ErrorUnauthorized
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.rm.Users(s.db).UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// ValidateAccess resolves an access-token secret to its user; used by the
// HTTP bearer middleware.
func (s *AuthService) ValidateAccess(ctx context.Context, secret string) (*models.User, error) {
	return s.engine.Validate(ctx, secret, models.TokenKindAccess)
}
