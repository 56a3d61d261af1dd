package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

type variantJSON struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Name   string  `json:"name,omitempty"`
	Weight float64 `json:"weight"`
}

// variantsDB stores the variants of a test in a JSONB column.
type variantsDB []variantJSON

func (v variantsDB) Value() (driver.Value, error) {
	if v == nil {
		v = variantsDB{}
	}

	b, err := json.Marshal([]variantJSON(v))
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

func (v *variantsDB) Scan(src any) error {
	var data []byte

	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("unsupported variants column type %T", src)
	}

	return json.Unmarshal(data, (*[]variantJSON)(v))
}

func fromVariants(variants []entity.Variant) variantsDB {
	out := make(variantsDB, 0, len(variants))
	for _, v := range variants {
		out = append(out, variantJSON(v))
	}
	return out
}

func (v variantsDB) toEntity() []entity.Variant {
	out := make([]entity.Variant, 0, len(v))
	for _, vj := range v {
		out = append(out, entity.Variant(vj))
	}
	return out
}

type abTestDB struct {
	ID        int64      `db:"id"`
	QRCodeID  string     `db:"qr_code_id"`
	Variants  variantsDB `db:"variants"`
	IsActive  bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (t *abTestDB) toEntity() *entity.ABTest {
	return &entity.ABTest{
		ID:        t.ID,
		QRCodeID:  t.QRCodeID,
		Variants:  t.Variants.toEntity(),
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type ABTestRepository struct {
	db *sqlx.DB
}

func NewABTestRepository(db *sqlx.DB) *ABTestRepository {
	return &ABTestRepository{db: db}
}

// Upsert creates the test of a QR code or replaces its variants and state.
func (r *ABTestRepository) Upsert(ctx context.Context, qrCodeID string, variants []entity.Variant, isActive bool) (*entity.ABTest, error) {
	const op = "adapter.repository.postgres.ABTestRepository.Upsert"
	const query = `INSERT INTO ab_tests(qr_code_id, variants, is_active) VALUES ($1, $2, $3)
ON CONFLICT (qr_code_id) DO UPDATE SET variants = EXCLUDED.variants, is_active = EXCLUDED.is_active, updated_at = NOW()
RETURNING *`

	var test abTestDB

	if err := r.db.GetContext(ctx, &test, query, qrCodeID, fromVariants(variants), isActive); err != nil {
		return nil, fmt.Errorf("%s: failed to upsert into ab_tests table: %w", op, err)
	}

	return test.toEntity(), nil
}

func (r *ABTestRepository) GetByQRCode(ctx context.Context, qrCodeID string) (*entity.ABTest, error) {
	const op = "adapter.repository.postgres.ABTestRepository.GetByQRCode"
	const query = `SELECT * FROM ab_tests WHERE qr_code_id = $1`

	var test abTestDB

	if err := r.db.GetContext(ctx, &test, query, qrCodeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from ab_tests table: %w", op, err)
	}

	return test.toEntity(), nil
}

func (r *ABTestRepository) Delete(ctx context.Context, qrCodeID string) error {
	const op = "adapter.repository.postgres.ABTestRepository.Delete"
	const query = `DELETE FROM ab_tests WHERE qr_code_id = $1`

	res, err := r.db.ExecContext(ctx, query, qrCodeID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from ab_tests table: %w", op, err)
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
