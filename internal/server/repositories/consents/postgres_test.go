package consents

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/ledger"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var consentColumns = []string{"id", "owner", "requester", "record_id", "purpose", "expires_at", "active"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+consents\s*\(owner,\s*requester,\s*record_id,\s*purpose,\s*expires_at,\s*active\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id;\s*$`

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(3))
	mock.ExpectQuery(q).
		WithArgs("0xab01", "0xab02", int64(1), "research", int64(1800000000), true).
		WillReturnRows(rows)

	id, err := repo.Create(context.Background(), ledger.Consent{
		Owner:     "0xab01",
		Requester: "0xab02",
		RecordID:  1,
		Purpose:   "research",
		ExpiresAt: 1800000000,
		Active:    true,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if id != 3 {
		t.Fatalf("unexpected id: %d", id)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT\s+id,\s*owner,\s*requester,.*FROM\s+consents\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs(int64(404)).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 404)
	if !errors.Is(err, common.ErrConsentNotFound) {
		t.Fatalf("expected ErrConsentNotFound, got %v", err)
	}
}

func TestListByOwnerAndRequester(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT\s+id,\s*owner,\s*requester,.*FROM\s+consents\s+WHERE\s+owner\s*=\s*\$1\s+AND\s+requester\s*=\s*\$2\s+ORDER\s+BY\s+id;`

	rows := sqlmock.NewRows(consentColumns).
		AddRow(int64(1), "0xab01", "0xab02", int64(5), "p1", int64(100), true).
		AddRow(int64(2), "0xab01", "0xab02", int64(5), "p2", int64(200), false)
	mock.ExpectQuery(q).WithArgs("0xab01", "0xab02").WillReturnRows(rows)

	consents, err := repo.ListByOwnerAndRequester(context.Background(), "0xab01", "0xab02")
	if err != nil {
		t.Fatalf("ListByOwnerAndRequester error: %v", err)
	}
	if len(consents) != 2 {
		t.Fatalf("expected 2 consents, got %d", len(consents))
	}
	if consents[1].Active {
		t.Fatalf("expected second consent inactive: %+v", consents[1])
	}
}

func TestDeactivate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+consents\s+SET\s+active\s*=\s*FALSE\s+WHERE\s+id\s*=\s*\$1;\s*$`
	mock.ExpectExec(q).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Deactivate(context.Background(), 3); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}
}

func TestDeactivate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)UPDATE\s+consents\s+SET\s+active\s*=\s*FALSE`
	mock.ExpectExec(q).WithArgs(int64(404)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), 404)
	if !errors.Is(err, common.ErrConsentNotFound) {
		t.Fatalf("expected ErrConsentNotFound, got %v", err)
	}
}
