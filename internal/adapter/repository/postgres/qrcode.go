package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

type qrCodeDB struct {
	ID              string     `db:"id"`
	UserID          int64      `db:"user_id"`
	Name            string     `db:"name"`
	TargetURL       string     `db:"target_url"`
	ForegroundColor string     `db:"foreground_color"`
	BackgroundColor string     `db:"background_color"`
	DotStyle        string     `db:"dot_style"`
	LogoURL         string     `db:"logo_url"`
	Template        string     `db:"template"`
	IsActive        bool       `db:"is_active"`
	ExpiresAt       *time.Time `db:"expires_at"`
	MaxScans        *int64     `db:"max_scans"`
	PasswordHash    *string    `db:"password_hash"`
	ScanCount       int64      `db:"scan_count"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (q *qrCodeDB) toEntity() *entity.QRCode {
	return &entity.QRCode{
		ID:        q.ID,
		UserID:    q.UserID,
		Name:      q.Name,
		TargetURL: q.TargetURL,
		Style: entity.QRStyle{
			ForegroundColor: q.ForegroundColor,
			BackgroundColor: q.BackgroundColor,
			DotStyle:        q.DotStyle,
			LogoURL:         q.LogoURL,
			Template:        q.Template,
		},
		IsActive:     q.IsActive,
		ExpiresAt:    q.ExpiresAt,
		MaxScans:     q.MaxScans,
		PasswordHash: q.PasswordHash,
		ScanCount:    q.ScanCount,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

const selectQRCodeWithScans = `SELECT q.*, (SELECT COUNT(*) FROM scans s WHERE s.qr_code_id = q.id) AS scan_count FROM qr_codes q`

var scanVisitQueries = newVisitQueries("scans", "qr_code_id", "scanned_at")

type QRCodeRepository struct {
	db *sqlx.DB
}

func NewQRCodeRepository(db *sqlx.DB) *QRCodeRepository {
	return &QRCodeRepository{db: db}
}

func (r *QRCodeRepository) Save(ctx context.Context, qr *entity.QRCode) (*entity.QRCode, error) {
	const op = "adapter.repository.postgres.QRCodeRepository.Save"
	const query = `INSERT INTO qr_codes(id, user_id, name, target_url, foreground_color, background_color, dot_style, logo_url, template,
expires_at, max_scans, password_hash) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING *`

	var saved qrCodeDB

	err := r.db.GetContext(ctx, &saved, query,
		qr.ID, qr.UserID, qr.Name, qr.TargetURL,
		qr.Style.ForegroundColor, qr.Style.BackgroundColor, qr.Style.DotStyle, qr.Style.LogoURL, qr.Style.Template,
		qr.ExpiresAt, qr.MaxScans, qr.PasswordHash,
	)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into qr_codes table: %w", op, err)
	}

	return saved.toEntity(), nil
}

// GetByID returns the QR code together with its live scan count.
func (r *QRCodeRepository) GetByID(ctx context.Context, id string) (*entity.QRCode, error) {
	const op = "adapter.repository.postgres.QRCodeRepository.GetByID"
	const query = selectQRCodeWithScans + ` WHERE q.id = $1`

	var qr qrCodeDB

	if err := r.db.GetContext(ctx, &qr, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from qr_codes table: %w", op, err)
	}

	return qr.toEntity(), nil
}

func (r *QRCodeRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.QRCode, error) {
	const op = "adapter.repository.postgres.QRCodeRepository.ListByUser"
	const query = selectQRCodeWithScans + ` WHERE q.user_id = $1 ORDER BY q.created_at DESC, q.id LIMIT $2 OFFSET $3`

	var rows []qrCodeDB

	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("%s: failed to select from qr_codes table: %w", op, err)
	}

	qrs := make([]entity.QRCode, 0, len(rows))
	for i := range rows {
		qrs = append(qrs, *rows[i].toEntity())
	}

	return qrs, nil
}

func (r *QRCodeRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	const op = "adapter.repository.postgres.QRCodeRepository.CountByUser"
	const query = `SELECT COUNT(*) FROM qr_codes WHERE user_id = $1`

	var count int64

	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("%s: failed to count qr_codes rows: %w", op, err)
	}

	return count, nil
}

func (r *QRCodeRepository) Update(ctx context.Context, qr *entity.QRCode) (*entity.QRCode, error) {
	const op = "adapter.repository.postgres.QRCodeRepository.Update"
	const query = `UPDATE qr_codes SET name = $1, target_url = $2, foreground_color = $3, background_color = $4, dot_style = $5,
logo_url = $6, template = $7, is_active = $8, expires_at = $9, max_scans = $10, password_hash = $11, updated_at = NOW()
WHERE id = $12 RETURNING *`

	var updated qrCodeDB

	err := r.db.GetContext(ctx, &updated, query,
		qr.Name, qr.TargetURL,
		qr.Style.ForegroundColor, qr.Style.BackgroundColor, qr.Style.DotStyle, qr.Style.LogoURL, qr.Style.Template,
		qr.IsActive, qr.ExpiresAt, qr.MaxScans, qr.PasswordHash, qr.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update qr_codes table row: %w", op, err)
	}

	updated.ScanCount = qr.ScanCount

	return updated.toEntity(), nil
}

// Deactivate flips an active QR code to inactive. It never reactivates.
func (r *QRCodeRepository) Deactivate(ctx context.Context, id string) error {
	const op = "adapter.repository.postgres.QRCodeRepository.Deactivate"
	const query = `UPDATE qr_codes SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: failed to update qr_codes table row: %w", op, err)
	}

	return nil
}

func (r *QRCodeRepository) Delete(ctx context.Context, id string) error {
	const op = "adapter.repository.postgres.QRCodeRepository.Delete"
	const query = `DELETE FROM qr_codes WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from qr_codes table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrNotFound)
	}

	return nil
}

func (r *QRCodeRepository) SaveScan(ctx context.Context, qrCodeID string, variantID *string, visit entity.Visit) error {
	const op = "adapter.repository.postgres.QRCodeRepository.SaveScan"
	const query = `INSERT INTO scans(qr_code_id, variant_id, user_agent, ip, referer, country) VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query, qrCodeID, variantID, visit.UserAgent, visit.IP, visit.Referer, visit.Country); err != nil {
		return fmt.Errorf("%s: failed to insert into scans table: %w", op, err)
	}

	return nil
}

// CountScansByUserSince counts the scans of every QR code owned by the user since the given time.
func (r *QRCodeRepository) CountScansByUserSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	const op = "adapter.repository.postgres.QRCodeRepository.CountScansByUserSince"
	const query = `SELECT COUNT(*) FROM scans s JOIN qr_codes q ON q.id = s.qr_code_id WHERE q.user_id = $1 AND s.scanned_at >= $2`

	var count int64

	if err := r.db.GetContext(ctx, &count, query, userID, since); err != nil {
		return 0, fmt.Errorf("%s: failed to count scans rows: %w", op, err)
	}

	return count, nil
}

func (r *QRCodeRepository) Stats(ctx context.Context, qrCodeID string, since time.Time) (*entity.VisitStats, error) {
	const op = "adapter.repository.postgres.QRCodeRepository.Stats"
	const byVariantQuery = `SELECT COALESCE(variant_id, '') AS key, COUNT(*) AS count FROM scans
WHERE qr_code_id = $1 AND scanned_at >= $2 GROUP BY key ORDER BY count DESC, key`

	var (
		stats     entity.VisitStats
		byDay     []dayCountDB
		byCountry []keyCountDB
		byVariant []keyCountDB
	)

	if err := r.db.GetContext(ctx, &stats.Total, scanVisitQueries.total, qrCodeID); err != nil {
		return nil, fmt.Errorf("%s: failed to count scans rows: %w", op, err)
	}

	if err := r.db.SelectContext(ctx, &byDay, scanVisitQueries.byDay, qrCodeID, since); err != nil {
		return nil, fmt.Errorf("%s: failed to group scans by day: %w", op, err)
	}

	if err := r.db.SelectContext(ctx, &byCountry, scanVisitQueries.byCountry, qrCodeID, since); err != nil {
		return nil, fmt.Errorf("%s: failed to group scans by country: %w", op, err)
	}

	if err := r.db.SelectContext(ctx, &byVariant, byVariantQuery, qrCodeID, since); err != nil {
		return nil, fmt.Errorf("%s: failed to group scans by variant: %w", op, err)
	}

	stats.ByDay = toDayCounts(byDay)
	stats.ByCountry = toKeyCounts(byCountry)
	stats.ByVariant = toKeyCounts(byVariant)

	return &stats, nil
}
