package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/database"
	"github.com/licenseguard/licenseguard-backend/pkg/errors"
	"github.com/licenseguard/licenseguard-backend/pkg/testutil"
)

func newTestRepo(t *testing.T) (*LicenseRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	db := database.FromSqlx(mockDB.DB, testutil.NewTestLogger())
	return NewLicenseRepository(db), mockDB
}

func TestLicenseRepository_Create(t *testing.T) {
	repo, mockDB := newTestRepo(t)

	now := time.Now()
	mockDB.ExpectQuery("INSERT INTO licenses").
		WithArgs("DL123456", "JANE DOE", testutil.AnyTime{}, "static/uploads/cropped_20260828120000.jpg").
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(1), now))

	rec := &domain.LicenseRecord{
		DLNumber:  "DL123456",
		Name:      "JANE DOE",
		ValidTill: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		ImagePath: "static/uploads/cropped_20260828120000.jpg",
	}

	err := repo.Create(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, now, rec.CreatedAt)

	mockDB.ExpectationsWereMet(t)
}

func TestLicenseRepository_Create_Duplicate(t *testing.T) {
	repo, mockDB := newTestRepo(t)

	mockDB.ExpectQuery("INSERT INTO licenses").
		WillReturnError(&pq.Error{
			Code:       "23505",
			Constraint: "licenses_dl_number_key",
		})

	rec := &domain.LicenseRecord{
		DLNumber:  "DL123456",
		Name:      "JANE DOE",
		ValidTill: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err := repo.Create(context.Background(), rec)
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected an AppError, got %T", err)
	assert.Equal(t, 409, appErr.StatusCode)

	mockDB.ExpectationsWereMet(t)
}

func TestLicenseRepository_GetByNumber_NotFound(t *testing.T) {
	repo, mockDB := newTestRepo(t)

	mockDB.ExpectQuery("SELECT id, dl_number, name, valid_till, image_path, created_at").
		WithArgs("MISSING").
		WillReturnRows(testutil.MockRows("id", "dl_number", "name", "valid_till", "image_path", "created_at"))

	_, err := repo.GetByNumber(context.Background(), "MISSING")
	require.Error(t, err)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))

	mockDB.ExpectationsWereMet(t)
}

func TestLicenseRepository_Match(t *testing.T) {
	repo, mockDB := newTestRepo(t)

	validTill := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := testutil.MockRows("id", "dl_number", "name", "valid_till", "image_path", "created_at").
		AddRow(int64(7), "DL123456", "JANE ELIZABETH DOE", validTill, "", time.Now())

	mockDB.ExpectQuery("SELECT id, dl_number, name, valid_till, image_path, created_at").
		WithArgs("DL123456", "JANE", "2030-01-01").
		WillReturnRows(rows)

	rec, err := repo.Match(context.Background(), "DL123456", "JANE", "2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, "DL123456", rec.DLNumber)
	assert.Equal(t, "JANE ELIZABETH DOE", rec.Name)

	mockDB.ExpectationsWereMet(t)
}

func TestLicenseRepository_Match_NoRows(t *testing.T) {
	repo, mockDB := newTestRepo(t)

	mockDB.ExpectQuery("SELECT id, dl_number, name, valid_till, image_path, created_at").
		WithArgs("DL123456", "JOHN", "2030-01-01").
		WillReturnRows(testutil.MockRows("id", "dl_number", "name", "valid_till", "image_path", "created_at"))

	_, err := repo.Match(context.Background(), "DL123456", "JOHN", "2030-01-01")
	require.Error(t, err)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))

	mockDB.ExpectationsWereMet(t)
}

func TestLicenseRepository_Match_QueryError(t *testing.T) {
	repo, mockDB := newTestRepo(t)

	mockDB.ExpectQuery("SELECT id, dl_number, name, valid_till, image_path, created_at").
		WillReturnError(assert.AnError)

	_, err := repo.Match(context.Background(), "DL123456", "JANE", "not-a-date")
	require.Error(t, err)
	assert.NotEqual(t, errors.KindNotFound, errors.KindOf(err))

	mockDB.ExpectationsWereMet(t)
}

func TestEnsureSchema(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("CREATE TABLE IF NOT EXISTS licenses").
		WillReturnResult(sqlmock.NewResult(0, 0))

	db := database.FromSqlx(mockDB.DB, testutil.NewTestLogger())
	require.NoError(t, EnsureSchema(context.Background(), db))

	mockDB.ExpectationsWereMet(t)
}
