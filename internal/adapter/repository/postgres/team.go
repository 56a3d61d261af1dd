package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/qrlink/internal/entity"

	pgutil "github.com/vadimbarashkov/qrlink/pkg/postgres"
)

type teamDB struct {
	ID        int64     `db:"id"`
	OwnerID   int64     `db:"owner_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (t *teamDB) toEntity() *entity.Team {
	return &entity.Team{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
	}
}

type teamMemberDB struct {
	TeamID   int64     `db:"team_id"`
	UserID   int64     `db:"user_id"`
	Email    string    `db:"email"`
	Role     string    `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

func (m *teamMemberDB) toEntity() *entity.TeamMember {
	return &entity.TeamMember{
		TeamID:   m.TeamID,
		UserID:   m.UserID,
		Email:    m.Email,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
}

type invitationDB struct {
	ID        int64     `db:"id"`
	TeamID    int64     `db:"team_id"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (i *invitationDB) toEntity() *entity.Invitation {
	return &entity.Invitation{
		ID:        i.ID,
		TeamID:    i.TeamID,
		Email:     i.Email,
		Role:      i.Role,
		Token:     i.Token,
		ExpiresAt: i.ExpiresAt,
		CreatedAt: i.CreatedAt,
	}
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts the team and its owner membership in one transaction.
func (r *TeamRepository) Create(ctx context.Context, ownerID int64, name string) (*entity.Team, error) {
	const op = "adapter.repository.postgres.TeamRepository.Create"
	const insertTeam = `INSERT INTO teams(owner_id, name) VALUES ($1, $2) RETURNING *`
	const insertOwner = `INSERT INTO team_members(team_id, user_id, role) VALUES ($1, $2, $3)`

	var team teamDB

	err := pgutil.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &team, insertTeam, ownerID, name); err != nil {
			return fmt.Errorf("failed to insert into teams table: %w", err)
		}

		if _, err := tx.ExecContext(ctx, insertOwner, team.ID, ownerID, entity.RoleOwner); err != nil {
			return fmt.Errorf("failed to insert into team_members table: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return team.toEntity(), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*entity.Team, error) {
	const op = "adapter.repository.postgres.TeamRepository.GetByID"
	const query = `SELECT * FROM teams WHERE id = $1`

	var team teamDB

	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from teams table: %w", op, err)
	}

	return team.toEntity(), nil
}

func (r *TeamRepository) ListMembers(ctx context.Context, teamID int64) ([]entity.TeamMember, error) {
	const op = "adapter.repository.postgres.TeamRepository.ListMembers"
	const query = `SELECT m.team_id, m.user_id, u.email, m.role, m.joined_at FROM team_members m
JOIN users u ON u.id = m.user_id WHERE m.team_id = $1 ORDER BY m.joined_at, m.user_id`

	var rows []teamMemberDB

	if err := r.db.SelectContext(ctx, &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("%s: failed to select from team_members table: %w", op, err)
	}

	members := make([]entity.TeamMember, 0, len(rows))
	for i := range rows {
		members = append(members, *rows[i].toEntity())
	}

	return members, nil
}

// CountSeats returns the members of the team plus its invitations that have not expired yet.
func (r *TeamRepository) CountSeats(ctx context.Context, teamID int64, now time.Time) (int64, error) {
	const op = "adapter.repository.postgres.TeamRepository.CountSeats"
	const query = `SELECT (SELECT COUNT(*) FROM team_members WHERE team_id = $1)
+ (SELECT COUNT(*) FROM team_invitations WHERE team_id = $1 AND expires_at > $2)`

	var count int64

	if err := r.db.GetContext(ctx, &count, query, teamID, now); err != nil {
		return 0, fmt.Errorf("%s: failed to count seats: %w", op, err)
	}

	return count, nil
}

func (r *TeamRepository) IsMemberEmail(ctx context.Context, teamID int64, email string) (bool, error) {
	const op = "adapter.repository.postgres.TeamRepository.IsMemberEmail"
	const query = `SELECT EXISTS (SELECT 1 FROM team_members m JOIN users u ON u.id = m.user_id
WHERE m.team_id = $1 AND lower(u.email) = lower($2))`

	var exists bool

	if err := r.db.GetContext(ctx, &exists, query, teamID, email); err != nil {
		return false, fmt.Errorf("%s: failed to check team membership: %w", op, err)
	}

	return exists, nil
}

func (r *TeamRepository) SaveInvitation(ctx context.Context, inv *entity.Invitation) (*entity.Invitation, error) {
	const op = "adapter.repository.postgres.TeamRepository.SaveInvitation"
	const query = `INSERT INTO team_invitations(team_id, email, role, token, expires_at) VALUES ($1, $2, $3, $4, $5) RETURNING *`

	var saved invitationDB

	if err := r.db.GetContext(ctx, &saved, query, inv.TeamID, inv.Email, inv.Role, inv.Token, inv.ExpiresAt); err != nil {
		return nil, fmt.Errorf("%s: failed to insert into team_invitations table: %w", op, err)
	}

	return saved.toEntity(), nil
}

func (r *TeamRepository) GetInvitationByToken(ctx context.Context, token string) (*entity.Invitation, error) {
	const op = "adapter.repository.postgres.TeamRepository.GetInvitationByToken"
	const query = `SELECT * FROM team_invitations WHERE token = $1`

	var inv invitationDB

	if err := r.db.GetContext(ctx, &inv, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from team_invitations table: %w", op, err)
	}

	return inv.toEntity(), nil
}

// AcceptInvitation adds the user to the team and consumes the invitation in one transaction.
func (r *TeamRepository) AcceptInvitation(ctx context.Context, inv *entity.Invitation, userID int64) (*entity.TeamMember, error) {
	const op = "adapter.repository.postgres.TeamRepository.AcceptInvitation"
	const insertMember = `INSERT INTO team_members(team_id, user_id, role) VALUES ($1, $2, $3) RETURNING team_id, user_id, role, joined_at`
	const deleteInvitation = `DELETE FROM team_invitations WHERE id = $1`

	var member teamMemberDB

	err := pgutil.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &member, insertMember, inv.TeamID, userID, inv.Role); err != nil {
			if isUniqueViolationError(err) {
				return entity.ErrAlreadyMember
			}
			return fmt.Errorf("failed to insert into team_members table: %w", err)
		}

		res, err := tx.ExecContext(ctx, deleteInvitation, inv.ID)
		if err != nil {
			return fmt.Errorf("failed to delete from team_invitations table: %w", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get number of affected rows: %w", err)
		}

		if rowsAffected != 1 {
			return entity.ErrNotFound
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	member.Email = inv.Email

	return member.toEntity(), nil
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	const op = "adapter.repository.postgres.TeamRepository.RemoveMember"
	const query = `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from team_members table: %w", op, err)
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
