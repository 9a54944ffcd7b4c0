package tokens

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/server/models"
)

// passthroughConverter lets slice arguments (kind = ANY($2)) through the
// sqlmock driver the way the pgx stdlib driver does.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) { return driver.Value(v), nil }

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(passthroughConverter{}),
	)
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*false\)\s*RETURNING\s+id`

	expires := time.Now().Add(time.Hour)
	mock.ExpectQuery(q).
		WithArgs("u1", "hash1", models.TokenKindAccess, expires).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	token := &models.Token{UserID: "u1", TokenHash: "hash1", Kind: models.TokenKindAccess, ExpiresAt: expires}
	if err := repo.Create(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.ID != 7 {
		t.Fatalf("expected id 7, got %d", token.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_HashCollision(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+tokens\b`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_tokens_token_hash"})

	err := repo.Create(context.Background(), &models.Token{UserID: "u1", TokenHash: "dup"})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("expected ErrorConflict, got %v", err)
	}
}

func TestFindValid_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,\s*user_id,\s*token_hash,\s*kind,\s*expires_at,\s*revoked,\s*created_at\s+FROM\s+tokens\s+WHERE\s+token_hash\s*=\s*\$1\s+AND\s+kind\s*=\s*\$2\s+AND\s+NOT\s+revoked\s+AND\s+expires_at\s*>\s*\$3`

	now := time.Now()
	expires := now.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "kind", "expires_at", "revoked", "created_at"}).
		AddRow(int64(7), "u1", "hash1", models.TokenKindRefresh, expires, false, now)

	mock.ExpectQuery(q).
		WithArgs("hash1", models.TokenKindRefresh, now).
		WillReturnRows(rows)

	got, err := repo.FindValid(context.Background(), "hash1", models.TokenKindRefresh, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 7 || got.UserID != "u1" || got.Kind != models.TokenKindRefresh {
		t.Fatalf("unexpected token: %+v", got)
	}
}

func TestFindValid_Miss(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\s+id,\s*user_id\b.*FROM\s+tokens\b`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindValid(context.Background(), "hash1", models.TokenKindAccess, time.Now())
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestRevoke_Idempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+tokens\s+SET\s+revoked\s*=\s*true\s+WHERE\s+id\s*=\s*\$1$`

	// Zero affected rows is still a success.
	mock.ExpectExec(q).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Revoke(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRevokeByHashForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+tokens\s+SET\s+revoked\s*=\s*true\s+WHERE\s+token_hash\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s+AND\s+kind\s*=\s*\$3$`

	mock.ExpectExec(q).
		WithArgs("hash1", "u1", models.TokenKindRefresh).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RevokeByHashForUser(context.Background(), "hash1", "u1", models.TokenKindRefresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevokeAllForUser_ReturnsHashes(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+tokens\s+SET\s+revoked\s*=\s*true\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+kind\s*=\s*ANY\(\$2\)\s+AND\s+NOT\s+revoked\s+RETURNING\s+token_hash`

	rows := sqlmock.NewRows([]string{"token_hash"}).AddRow("h1").AddRow("h2")
	mock.ExpectQuery(q).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	hashes, err := repo.RevokeAllForUser(context.Background(), "u1",
		models.TokenKindAccess, models.TokenKindRefresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hashes) != 2 || hashes[0] != "h1" || hashes[1] != "h2" {
		t.Fatalf("unexpected hashes: %v", hashes)
	}
}
