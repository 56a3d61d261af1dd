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

type userDB struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Plan         string    `db:"plan"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *userDB) toEntity() *entity.User {
	return &entity.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Plan:         entity.Plan(u.Plan),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Save(ctx context.Context, email, name, passwordHash string) (*entity.User, error) {
	const op = "adapter.repository.postgres.UserRepository.Save"
	const query = `INSERT INTO users(email, name, password_hash) VALUES ($1, $2, $3) RETURNING *`

	var user userDB

	if err := r.db.GetContext(ctx, &user, query, email, name, passwordHash); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrEmailExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into users table: %w", op, err)
	}

	return user.toEntity(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	const op = "adapter.repository.postgres.UserRepository.GetByID"
	const query = `SELECT * FROM users WHERE id = $1`

	var user userDB

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from users table: %w", op, err)
	}

	return user.toEntity(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const op = "adapter.repository.postgres.UserRepository.GetByEmail"
	const query = `SELECT * FROM users WHERE lower(email) = lower($1)`

	var user userDB

	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from users table: %w", op, err)
	}

	return user.toEntity(), nil
}
