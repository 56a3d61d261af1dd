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

type linkDB struct {
	ID           int64      `db:"id"`
	UserID       int64      `db:"user_id"`
	ShortCode    string     `db:"short_code"`
	TargetURL    string     `db:"target_url"`
	IsActive     bool       `db:"is_active"`
	ExpiresAt    *time.Time `db:"expires_at"`
	MaxClicks    *int64     `db:"max_clicks"`
	PasswordHash *string    `db:"password_hash"`
	UTMSource    string     `db:"utm_source"`
	UTMMedium    string     `db:"utm_medium"`
	UTMCampaign  string     `db:"utm_campaign"`
	ClickCount   int64      `db:"click_count"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (l *linkDB) toEntity() *entity.ShortLink {
	return &entity.ShortLink{
		ID:           l.ID,
		UserID:       l.UserID,
		ShortCode:    l.ShortCode,
		TargetURL:    l.TargetURL,
		IsActive:     l.IsActive,
		ExpiresAt:    l.ExpiresAt,
		MaxClicks:    l.MaxClicks,
		PasswordHash: l.PasswordHash,
		UTM: entity.UTMParams{
			Source:   l.UTMSource,
			Medium:   l.UTMMedium,
			Campaign: l.UTMCampaign,
		},
		ClickCount: l.ClickCount,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

const selectLinkWithClicks = `SELECT l.*, (SELECT COUNT(*) FROM link_clicks c WHERE c.link_id = l.id) AS click_count FROM short_links l`

var linkVisitQueries = newVisitQueries("link_clicks", "link_id", "clicked_at")

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Save(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.LinkRepository.Save"
	const query = `INSERT INTO short_links(user_id, short_code, target_url, expires_at, max_clicks, password_hash, utm_source, utm_medium, utm_campaign)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING *`

	var saved linkDB

	err := r.db.GetContext(ctx, &saved, query,
		link.UserID, link.ShortCode, link.TargetURL, link.ExpiresAt, link.MaxClicks, link.PasswordHash,
		link.UTM.Source, link.UTM.Medium, link.UTM.Campaign,
	)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into short_links table: %w", op, err)
	}

	return saved.toEntity(), nil
}

// GetByCode returns the link together with its live click count.
func (r *LinkRepository) GetByCode(ctx context.Context, shortCode string) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.LinkRepository.GetByCode"
	const query = selectLinkWithClicks + ` WHERE l.short_code = $1`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from short_links table: %w", op, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.ShortLink, error) {
	const op = "adapter.repository.postgres.LinkRepository.ListByUser"
	const query = selectLinkWithClicks + ` WHERE l.user_id = $1 ORDER BY l.created_at DESC, l.id DESC LIMIT $2 OFFSET $3`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("%s: failed to select from short_links table: %w", op, err)
	}

	links := make([]entity.ShortLink, 0, len(rows))
	for i := range rows {
		links = append(links, *rows[i].toEntity())
	}

	return links, nil
}

func (r *LinkRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	const op = "adapter.repository.postgres.LinkRepository.CountByUser"
	const query = `SELECT COUNT(*) FROM short_links WHERE user_id = $1`

	var count int64

	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("%s: failed to count short_links rows: %w", op, err)
	}

	return count, nil
}

func (r *LinkRepository) Update(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.LinkRepository.Update"
	const query = `UPDATE short_links SET target_url = $1, is_active = $2, expires_at = $3, max_clicks = $4, password_hash = $5,
utm_source = $6, utm_medium = $7, utm_campaign = $8, updated_at = NOW() WHERE id = $9 RETURNING *`

	var updated linkDB

	err := r.db.GetContext(ctx, &updated, query,
		link.TargetURL, link.IsActive, link.ExpiresAt, link.MaxClicks, link.PasswordHash,
		link.UTM.Source, link.UTM.Medium, link.UTM.Campaign, link.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update short_links table row: %w", op, err)
	}

	updated.ClickCount = link.ClickCount

	return updated.toEntity(), nil
}

// Deactivate flips an active link to inactive. It never reactivates.
func (r *LinkRepository) Deactivate(ctx context.Context, id int64) error {
	const op = "adapter.repository.postgres.LinkRepository.Deactivate"
	const query = `UPDATE short_links SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: failed to update short_links table row: %w", op, err)
	}

	return nil
}

func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	const op = "adapter.repository.postgres.LinkRepository.Delete"
	const query = `DELETE FROM short_links WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from short_links table: %w", op, err)
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

func (r *LinkRepository) SaveClick(ctx context.Context, linkID int64, visit entity.Visit) error {
	const op = "adapter.repository.postgres.LinkRepository.SaveClick"
	const query = `INSERT INTO link_clicks(link_id, user_agent, ip, referer, country) VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, linkID, visit.UserAgent, visit.IP, visit.Referer, visit.Country); err != nil {
		return fmt.Errorf("%s: failed to insert into link_clicks table: %w", op, err)
	}

	return nil
}

func (r *LinkRepository) Stats(ctx context.Context, linkID int64, since time.Time) (*entity.VisitStats, error) {
	const op = "adapter.repository.postgres.LinkRepository.Stats"

	var (
		stats     entity.VisitStats
		byDay     []dayCountDB
		byCountry []keyCountDB
	)

	if err := r.db.GetContext(ctx, &stats.Total, linkVisitQueries.total, linkID); err != nil {
		return nil, fmt.Errorf("%s: failed to count link_clicks rows: %w", op, err)
	}

	if err := r.db.SelectContext(ctx, &byDay, linkVisitQueries.byDay, linkID, since); err != nil {
		return nil, fmt.Errorf("%s: failed to group link_clicks by day: %w", op, err)
	}

	if err := r.db.SelectContext(ctx, &byCountry, linkVisitQueries.byCountry, linkID, since); err != nil {
		return nil, fmt.Errorf("%s: failed to group link_clicks by country: %w", op, err)
	}

	stats.ByDay = toDayCounts(byDay)
	stats.ByCountry = toKeyCounts(byCountry)

	return &stats, nil
}
