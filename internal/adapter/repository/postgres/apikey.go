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

type apiKeyDB struct {
	ID         int64      `db:"id"`
	UserID     int64      `db:"user_id"`
	Name       string     `db:"name"`
	Prefix     string     `db:"prefix"`
	KeyHash    string     `db:"key_hash"`
	CreatedAt  time.Time  `db:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at"`
}

func (k *apiKeyDB) toEntity() *entity.APIKey {
	return &entity.APIKey{
		ID:         k.ID,
		UserID:     k.UserID,
		Name:       k.Name,
		Prefix:     k.Prefix,
		KeyHash:    k.KeyHash,
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
	}
}

type APIKeyRepository struct {
	db *sqlx.DB
}

func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Save(ctx context.Context, userID int64, name, prefix, keyHash string) (*entity.APIKey, error) {
	const op = "adapter.repository.postgres.APIKeyRepository.Save"
	const query = `INSERT INTO api_keys(user_id, name, prefix, key_hash) VALUES ($1, $2, $3, $4) RETURNING *`

	var key apiKeyDB

	if err := r.db.GetContext(ctx, &key, query, userID, name, prefix, keyHash); err != nil {
		return nil, fmt.Errorf("%s: failed to insert into api_keys table: %w", op, err)
	}

	return key.toEntity(), nil
}

func (r *APIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*entity.APIKey, error) {
	const op = "adapter.repository.postgres.APIKeyRepository.GetByHash"
	const query = `SELECT * FROM api_keys WHERE key_hash = $1`

	var key apiKeyDB

	if err := r.db.GetContext(ctx, &key, query, keyHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from api_keys table: %w", op, err)
	}

	return key.toEntity(), nil
}

func (r *APIKeyRepository) ListByUser(ctx context.Context, userID int64) ([]entity.APIKey, error) {
	const op = "adapter.repository.postgres.APIKeyRepository.ListByUser"
	const query = `SELECT * FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	var rows []apiKeyDB

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("%s: failed to select from api_keys table: %w", op, err)
	}

	keys := make([]entity.APIKey, 0, len(rows))
	for i := range rows {
		keys = append(keys, *rows[i].toEntity())
	}

	return keys, nil
}

func (r *APIKeyRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	const op = "adapter.repository.postgres.APIKeyRepository.Touch"
	const query = `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("%s: failed to update api_keys table row: %w", op, err)
	}

	return nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id, userID int64) error {
	const op = "adapter.repository.postgres.APIKeyRepository.Delete"
	const query = `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from api_keys table: %w", op, err)
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
