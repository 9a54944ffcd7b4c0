package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/dbx"
	"github.com/avealov/rulehub/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (user_id, token_hash, kind, expires_at, revoked)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		token.UserID, token.TokenHash, token.Kind, token.ExpiresAt).Scan(&token.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindValid checks hash, kind, revocation and expiry in one statement so
// there is no window between sequential reads.
func (r *PostgresRepository) FindValid(ctx context.Context, hash, kind string, now time.Time) (*models.Token, error) {
	query := `
		SELECT id, user_id, token_hash, kind, expires_at, revoked, created_at
		FROM tokens
		WHERE token_hash = $1 AND kind = $2 AND NOT revoked AND expires_at > $3
	`
	t := &models.Token{}
	err := r.db.QueryRowContext(ctx, query, hash, kind, now).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Kind, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, id int64) error {
	query := `UPDATE tokens SET revoked = true WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeByHashForUser(ctx context.Context, hash, userID, kind string) error {
	query := `UPDATE tokens SET revoked = true WHERE token_hash = $1 AND user_id = $2 AND kind = $3`
	if _, err := r.db.ExecContext(ctx, query, hash, userID, kind); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string, kinds ...string) ([]string, error) {
	query := `
		UPDATE tokens SET revoked = true
		WHERE user_id = $1 AND kind = ANY($2) AND NOT revoked
		RETURNING token_hash
	`
	rows, err := r.db.QueryContext(ctx, query, userID, kinds)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return hashes, nil
}
