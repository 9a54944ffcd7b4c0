// Package repomanager vends repository implementations bound to a DBTX, so
// services can run the same repository code against a plain connection or
// inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/avealov/rulehub/internal/dbx"
	"github.com/avealov/rulehub/internal/server/repositories/comments"
	"github.com/avealov/rulehub/internal/server/repositories/tokens"
	"github.com/avealov/rulehub/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Comments(db dbx.DBTX) comments.Repository
}
