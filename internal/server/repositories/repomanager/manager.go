package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkrasnov/consentvault/internal/dbx"
	"github.com/dkrasnov/consentvault/internal/server/repositories/consents"
	"github.com/dkrasnov/consentvault/internal/server/repositories/keypointers"
	"github.com/dkrasnov/consentvault/internal/server/repositories/records"
)

// RepositoryManager vends repository implementations bound to a DBTX, so a
// ledger write can run all of its repository calls inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Records(db dbx.DBTX) records.Repository
	Consents(db dbx.DBTX) consents.Repository
	KeyPointers(db dbx.DBTX) keypointers.Repository
}
