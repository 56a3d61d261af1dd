package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

type QRCodeRepositoryTestSuite struct {
	suite.Suite
	columns []string
	mock    sqlmock.Sqlmock
	repo    *QRCodeRepository
}

func (suite *QRCodeRepositoryTestSuite) SetupSuite() {
	suite.columns = []string{
		"id", "user_id", "name", "target_url", "foreground_color", "background_color", "dot_style", "logo_url", "template",
		"is_active", "expires_at", "max_scans", "password_hash", "created_at", "updated_at", "scan_count",
	}
}

func (suite *QRCodeRepositoryTestSuite) SetupSubTest() {
	db, mock := newSQLMock(suite.T())

	suite.mock = mock
	suite.repo = NewQRCodeRepository(db)
}

func (suite *QRCodeRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *QRCodeRepositoryTestSuite) row(id string, scans int64) []driver.Value {
	return []driver.Value{
		id, 1, "Menu", "https://example.com", "#000000", "#ffffff", "square", "", "classic",
		true, nil, nil, nil, time.Time{}, time.Time{}, scans,
	}
}

func (suite *QRCodeRepositoryTestSuite) TestSave() {
	qr := &entity.QRCode{
		ID:        "qr12345678",
		UserID:    1,
		Name:      "Menu",
		TargetURL: "https://example.com",
		Style: entity.QRStyle{
			ForegroundColor: "#000000",
			BackgroundColor: "#ffffff",
			DotStyle:        "square",
			Template:        "classic",
		},
	}

	suite.Run("id exists", func() {
		suite.mock.ExpectQuery(`INSERT INTO qr_codes`).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		saved, err := suite.repo.Save(context.Background(), qr)

		suite.ErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(saved)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns[:15]).AddRow(suite.row("qr12345678", 0)[:15]...)

		suite.mock.ExpectQuery(`INSERT INTO qr_codes`).
			WithArgs("qr12345678", 1, "Menu", "https://example.com", "#000000", "#ffffff", "square", "", "classic", nil, nil, nil).
			WillReturnRows(rows)

		saved, err := suite.repo.Save(context.Background(), qr)

		suite.NoError(err)
		suite.Equal("qr12345678", saved.ID)
		suite.Equal("classic", saved.Style.Template)
		suite.False(saved.IsProtected())
	})
}

func (suite *QRCodeRepositoryTestSuite) TestGetByID() {
	suite.Run("qr code not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM qr_codes q WHERE q.id`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		qr, err := suite.repo.GetByID(context.Background(), "missing")

		suite.ErrorIs(err, entity.ErrNotFound)
		suite.Nil(qr)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM qr_codes q WHERE q.id`).
			WithArgs("qr12345678").
			WillReturnError(errUnknown)

		qr, err := suite.repo.GetByID(context.Background(), "qr12345678")

		suite.ErrorIs(err, errUnknown)
		suite.Nil(qr)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM qr_codes q WHERE q.id`).
			WithArgs("qr12345678").
			WillReturnRows(sqlmock.NewRows(suite.columns).AddRow(suite.row("qr12345678", 9)...))

		qr, err := suite.repo.GetByID(context.Background(), "qr12345678")

		suite.NoError(err)
		suite.Equal(int64(9), qr.ScanCount)
		suite.Equal("#ffffff", qr.Style.BackgroundColor)
	})
}

func (suite *QRCodeRepositoryTestSuite) TestListByUser() {
	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(suite.row("b", 0)...).
			AddRow(suite.row("a", 3)...)

		suite.mock.ExpectQuery(`SELECT (.+) FROM qr_codes q WHERE q.user_id`).
			WithArgs(1, 10, 10).
			WillReturnRows(rows)

		qrs, err := suite.repo.ListByUser(context.Background(), 1, 10, 10)

		suite.NoError(err)
		suite.Len(qrs, 2)
		suite.Equal(int64(3), qrs[1].ScanCount)
	})
}

func (suite *QRCodeRepositoryTestSuite) TestUpdate() {
	suite.Run("qr code not found", func() {
		suite.mock.ExpectQuery(`UPDATE qr_codes`).
			WillReturnError(sql.ErrNoRows)

		qr, err := suite.repo.Update(context.Background(), &entity.QRCode{ID: "missing"})

		suite.ErrorIs(err, entity.ErrNotFound)
		suite.Nil(qr)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`UPDATE qr_codes`).
			WillReturnRows(sqlmock.NewRows(suite.columns[:15]).AddRow(suite.row("qr12345678", 0)[:15]...))

		qr, err := suite.repo.Update(context.Background(), &entity.QRCode{ID: "qr12345678", ScanCount: 2})

		suite.NoError(err)
		suite.Equal(int64(2), qr.ScanCount)
	})
}

func (suite *QRCodeRepositoryTestSuite) TestDeactivate() {
	suite.Run("success", func() {
		suite.mock.ExpectExec(`UPDATE qr_codes SET is_active = FALSE`).
			WithArgs("qr12345678").
			WillReturnResult(sqlmock.NewResult(0, 1))

		suite.NoError(suite.repo.Deactivate(context.Background(), "qr12345678"))
	})
}

func (suite *QRCodeRepositoryTestSuite) TestDelete() {
	suite.Run("qr code not found", func() {
		suite.mock.ExpectExec(`DELETE FROM qr_codes`).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		suite.ErrorIs(suite.repo.Delete(context.Background(), "missing"), entity.ErrNotFound)
	})

	suite.Run("success", func() {
		suite.mock.ExpectExec(`DELETE FROM qr_codes`).
			WithArgs("qr12345678").
			WillReturnResult(sqlmock.NewResult(0, 1))

		suite.NoError(suite.repo.Delete(context.Background(), "qr12345678"))
	})
}

func (suite *QRCodeRepositoryTestSuite) TestSaveScan() {
	variantID := "v1"
	visit := entity.Visit{UserAgent: "iPhone", IP: "2.2.2.2", Country: "BE"}

	suite.Run("with variant", func() {
		suite.mock.ExpectExec(`INSERT INTO scans`).
			WithArgs("qr12345678", "v1", "iPhone", "2.2.2.2", "", "BE").
			WillReturnResult(sqlmock.NewResult(1, 1))

		suite.NoError(suite.repo.SaveScan(context.Background(), "qr12345678", &variantID, visit))
	})

	suite.Run("without variant", func() {
		suite.mock.ExpectExec(`INSERT INTO scans`).
			WithArgs("qr12345678", nil, "iPhone", "2.2.2.2", "", "BE").
			WillReturnResult(sqlmock.NewResult(1, 1))

		suite.NoError(suite.repo.SaveScan(context.Background(), "qr12345678", nil, visit))
	})
}

func (suite *QRCodeRepositoryTestSuite) TestCountScansByUserSince() {
	since := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scans s JOIN qr_codes`).
			WithArgs(1, since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(250))

		count, err := suite.repo.CountScansByUserSince(context.Background(), 1, since)

		suite.NoError(err)
		suite.Equal(int64(250), count)
	})
}

func (suite *QRCodeRepositoryTestSuite) TestStats() {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scans`).
			WithArgs("qr12345678").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
		suite.mock.ExpectQuery(`SELECT date_trunc`).
			WithArgs("qr12345678", since).
			WillReturnRows(sqlmock.NewRows([]string{"day", "count"}))
		suite.mock.ExpectQuery(`SELECT country AS key`).
			WithArgs("qr12345678", since).
			WillReturnRows(sqlmock.NewRows([]string{"key", "count"}))
		suite.mock.ExpectQuery(`SELECT COALESCE\(variant_id, ''\) AS key`).
			WithArgs("qr12345678", since).
			WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("v1", 6).AddRow("v2", 4))

		stats, err := suite.repo.Stats(context.Background(), "qr12345678", since)

		suite.NoError(err)
		suite.Equal(int64(10), stats.Total)
		suite.Empty(stats.ByDay)
		suite.Equal([]entity.KeyCount{{Key: "v1", Count: 6}, {Key: "v2", Count: 4}}, stats.ByVariant)
	})
}

func TestQRCodeRepository(t *testing.T) {
	suite.Run(t, new(QRCodeRepositoryTestSuite))
}
