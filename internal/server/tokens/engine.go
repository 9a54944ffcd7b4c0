package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/dbx"
	"github.com/avealov/rulehub/internal/logging"
	"github.com/avealov/rulehub/internal/server/metrics"
	"github.com/avealov/rulehub/internal/server/models"
	"github.com/avealov/rulehub/internal/server/repositories/repomanager"
)

// Engine is the opaque-token lifecycle engine. It mints tokens of each kind,
// validates presented secrets against the store in a single read, supports
// rotation and revokes tokens. It holds no mutable state of its own; all
// coordination goes through the store.
type Engine struct {
	db    *sql.DB
	rm    repomanager.RepositoryManager
	cache *Cache
	log   logging.Logger
}

// NewEngine constructs the lifecycle engine. cache may be nil to disable
// access-token caching.
func NewEngine(db *sql.DB, rm repomanager.RepositoryManager, cache *Cache, log logging.Logger) *Engine {
	return &Engine{db: db, rm: rm, cache: cache, log: log}
}

// Mint creates a token of the given kind for userID, persists its lookup
// hash with expires_at = now + ttl, and returns the raw secret. The secret
// is never retrievable again. A hash collision (practically unreachable)
// triggers exactly one retry with a fresh secret before failing.
func (e *Engine) Mint(ctx context.Context, db dbx.DBTX, userID, kind string, ttl time.Duration) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		secret, err := GenerateSecret()
		if err != nil {
			return "", fmt.Errorf("generating secret: %w", err)
		}
		err = e.insert(ctx, db, userID, kind, secret, ttl)
		if errors.Is(err, common.ErrorConflict) {
			e.log.Warn(ctx, "token hash collision, retrying", "kind", kind)
			continue
		}
		if err != nil {
			return "", err
		}
		return secret, nil
	}
	return "", fmt.Errorf("minting %s token: %w", kind, common.ErrorConflict)
}

// MintWith persists a caller-supplied secret, used only for short numeric
// reset codes delivered alongside the link token. No collision retry: the
// caller owns the secret.
func (e *Engine) MintWith(ctx context.Context, db dbx.DBTX, userID, kind, secret string, ttl time.Duration) error {
	return e.insert(ctx, db, userID, kind, secret, ttl)
}

func (e *Engine) insert(ctx context.Context, db dbx.DBTX, userID, kind, secret string, ttl time.Duration) error {
	token := &models.Token{
		UserID:    userID,
		TokenHash: HashSecret(secret),
		Kind:      kind,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := e.rm.Tokens(db).Create(ctx, token); err != nil {
		return err
	}
	metrics.TokensMinted.WithLabelValues(kind).Inc()
	return nil
}

// Validate resolves a presented secret of the given kind to its owning user.
// The store check covers hash, kind, revocation and expiry in one read.
// Every failure mode collapses to common.ErrorUnauthorized so callers cannot
// distinguish expired from unknown tokens.
func (e *Engine) Validate(ctx context.Context, secret, kind string) (*models.User, error) {
	hash := HashSecret(secret)

	if kind == models.TokenKindAccess && e.cache != nil {
		if userID := e.cache.Get(ctx, hash); userID != "" {
			user, err := e.rm.Users(e.db).GetByID(ctx, userID)
			if err != nil {
				metrics.TokenValidations.WithLabelValues(kind, "fail").Inc()
				return nil, common.ErrorUnauthorized
			}
			metrics.TokenValidations.WithLabelValues(kind, "ok").Inc()
			return user, nil
		}
	}

	token, err := e.rm.Tokens(e.db).FindValid(ctx, hash, kind, time.Now())
	if err != nil {
		metrics.TokenValidations.WithLabelValues(kind, "fail").Inc()
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("validating token: %w", err)
	}

	user, err := e.rm.Users(e.db).GetByID(ctx, token.UserID)
	if err != nil {
		metrics.TokenValidations.WithLabelValues(kind, "fail").Inc()
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("validating token: %w", err)
	}

	if kind == models.TokenKindAccess && e.cache != nil {
		e.cache.Put(ctx, hash, user.ID, token.ExpiresAt, time.Now())
	}

	metrics.TokenValidations.WithLabelValues(kind, "ok").Inc()
	return user, nil
}

// Consume validates a single-use secret and revokes it in the same
// operation, using the caller's transactional handle. The caller wraps
// Consume together with the state change the token authorizes, so either
// both happen or neither.
func (e *Engine) Consume(ctx context.Context, tx dbx.DBTX, secret, kind string) (*models.Token, error) {
	repo := e.rm.Tokens(tx)

	token, err := repo.FindValid(ctx, HashSecret(secret), kind, time.Now())
	if err != nil {
		metrics.TokenValidations.WithLabelValues(kind, "fail").Inc()
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("consuming token: %w", err)
	}

	if err := repo.Revoke(ctx, token.ID); err != nil {
		return nil, fmt.Errorf("consuming token: %w", err)
	}

	metrics.TokenValidations.WithLabelValues(kind, "ok").Inc()
	return token, nil
}

// ConsumeAny tries each candidate secret in order and consumes the first one
// that validates; used for reset redemption where either the link secret or
// the numeric code is acceptable.
func (e *Engine) ConsumeAny(ctx context.Context, tx dbx.DBTX, secrets []string, kind string) (*models.Token, error) {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		token, err := e.Consume(ctx, tx, secret, kind)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
	}
	return nil, common.ErrorUnauthorized
}

// RevokeRefresh revokes the refresh token with the exact hash of secret,
// scoped to userID so one user cannot log out another user's session.
// Revoking an unknown or already-revoked token is a no-op.
func (e *Engine) RevokeRefresh(ctx context.Context, userID, secret string) error {
	err := e.rm.Tokens(e.db).RevokeByHashForUser(ctx, HashSecret(secret), userID, models.TokenKindRefresh)
	if err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

// RevokeAll revokes every live token of the given kinds owned by userID and
// purges the affected entries from the access-token cache.
func (e *Engine) RevokeAll(ctx context.Context, db dbx.DBTX, userID string, kinds ...string) error {
	hashes, err := e.rm.Tokens(db).RevokeAllForUser(ctx, userID, kinds...)
	if err != nil {
		return fmt.Errorf("revoking tokens: %w", err)
	}
	if e.cache != nil {
		e.cache.Invalidate(ctx, hashes...)
	}
	return nil
}
