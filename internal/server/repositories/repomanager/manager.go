package repomanager

import (
	"context"
	"database/sql"

	"github.com/taxdesk/taxdocs/internal/dbx"
	"github.com/taxdesk/taxdocs/internal/server/repositories/documents"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes the schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Documents(db dbx.DBTX) documents.Repository
}
