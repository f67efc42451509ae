package snippets

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func snippetRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "content", "password", "timestamp",
		"hidden", "is_encrypted", "content_type", "file_name", "file_type", "storage_path",
	})
}

func TestCreateOrUpdate_SuccessRowsAffected1(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO code_snippets .* ON CONFLICT \(id\) DO UPDATE SET .*;`)

	mock.ExpectExec(q.String()).
		WithArgs(
			int64(1700000000000), "Report", "line one", "pw", "1/2/2026, 3:04:05 PM",
			false, false, "text",
			sql.NullString{}, sql.NullString{}, sql.NullString{},
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateOrUpdate(context.Background(), &models.Snippet{
		ID:          1700000000000,
		Title:       "Report",
		ContentType: models.ContentTypeText,
		Content:     "line one",
		Password:    "pw",
		Timestamp:   "1/2/2026, 3:04:05 PM",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrUpdate_UnexpectedRowsAffected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO code_snippets`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.CreateOrUpdate(context.Background(), &models.Snippet{
		ID:          1,
		Title:       "x",
		ContentType: models.ContentTypeText,
		Content:     "y",
		Password:    "pw",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestList_MapsNullableColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := snippetRows().
		AddRow(int64(2), "Diagram", "", "pw", "ts", false, false, "image",
			"diagram.png", "image/png", "2/1700.png").
		AddRow(int64(1), "Note", "hello", "pw", "ts", true, true, "text",
			nil, nil, nil)

	mock.ExpectQuery(`SELECT .* FROM code_snippets ORDER BY id DESC OFFSET \$1 LIMIT \$2`).
		WithArgs(0, 50).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), 0, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(got))
	}
	if got[0].StoragePath != "2/1700.png" || got[0].FileName != "diagram.png" {
		t.Errorf("file columns not mapped: %+v", got[0])
	}
	if got[1].StoragePath != "" || got[1].FileName != "" {
		t.Errorf("NULL columns must map to empty strings: %+v", got[1])
	}
	if !got[1].Hidden || !got[1].IsEncrypted {
		t.Errorf("boolean columns not mapped: %+v", got[1])
	}
}

func TestGetByID_NoRowsIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM code_snippets WHERE id=\$1`).
		WithArgs(int64(42)).
		WillReturnRows(snippetRows())

	_, err := repo.GetByID(context.Background(), 42)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_ZeroRowsIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM code_snippets WHERE id=\$1`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 42)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM code_snippets`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}
