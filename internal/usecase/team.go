package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vadimbarashkov/qrlink/internal/entitlement"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

const InvitationTTL = 7 * 24 * time.Hour

type TeamUseCase struct {
	teamRepo teamRepository
	now      func() time.Time
}

func NewTeamUseCase(teamRepo teamRepository) *TeamUseCase {
	return &TeamUseCase{
		teamRepo: teamRepo,
		now:      time.Now,
	}
}

// Create makes a team owned by the user, who takes the first seat.
func (uc *TeamUseCase) Create(ctx context.Context, user *entity.User, name string) (*entity.Team, error) {
	const op = "usecase.TeamUseCase.Create"

	if err := entitlement.Allow(user.Plan, entitlement.FeatureTeamManagement); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	team, err := uc.teamRepo.Create(ctx, user.ID, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create team: %w", op, err)
	}

	return team, nil
}

// Members lists the team. Only members can see it.
func (uc *TeamUseCase) Members(ctx context.Context, user *entity.User, teamID int64) ([]entity.TeamMember, error) {
	const op = "usecase.TeamUseCase.Members"

	members, err := uc.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list members: %w", op, err)
	}

	if len(members) == 0 {
		if _, err := uc.teamRepo.GetByID(ctx, teamID); err != nil {
			return nil, fmt.Errorf("%s: failed to get team: %w", op, err)
		}
	}

	for _, m := range members {
		if m.UserID == user.ID {
			return members, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrForbidden)
}

// Invite offers a seat to an email. Pending invitations count as taken seats.
func (uc *TeamUseCase) Invite(ctx context.Context, user *entity.User, teamID int64, email, role string) (*entity.Invitation, error) {
	const op = "usecase.TeamUseCase.Invite"

	if _, err := uc.ownedTeam(ctx, user, teamID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := entitlement.Allow(user.Plan, entitlement.FeatureTeamManagement); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	email = strings.TrimSpace(email)

	isMember, err := uc.teamRepo.IsMemberEmail(ctx, teamID, email)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to check membership: %w", op, err)
	}

	if isMember {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrAlreadyMember)
	}

	now := uc.now()

	seats, err := uc.teamRepo.CountSeats(ctx, teamID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count seats: %w", op, err)
	}

	if err := entitlement.AllowCount(user.Plan, entitlement.ResourceTeamSeats, seats); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if role == "" {
		role = entity.RoleMember
	}

	inv, err := uc.teamRepo.SaveInvitation(ctx, &entity.Invitation{
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(InvitationTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to save invitation: %w", op, err)
	}

	return inv, nil
}

// Accept joins the team of the invitation. The invitation must target the user's email.
func (uc *TeamUseCase) Accept(ctx context.Context, user *entity.User, token string) (*entity.TeamMember, error) {
	const op = "usecase.TeamUseCase.Accept"

	inv, err := uc.teamRepo.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get invitation: %w", op, err)
	}

	if !inv.ExpiresAt.After(uc.now()) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvitationExpired)
	}

	if !strings.EqualFold(inv.Email, user.Email) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrForbidden)
	}

	member, err := uc.teamRepo.AcceptInvitation(ctx, inv, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to accept invitation: %w", op, err)
	}

	return member, nil
}

// RemoveMember frees a seat. The owner cannot be removed.
func (uc *TeamUseCase) RemoveMember(ctx context.Context, user *entity.User, teamID, memberID int64) error {
	const op = "usecase.TeamUseCase.RemoveMember"

	team, err := uc.ownedTeam(ctx, user, teamID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if memberID == team.OwnerID {
		return fmt.Errorf("%s: cannot remove team owner: %w", op, entity.ErrForbidden)
	}

	if err := uc.teamRepo.RemoveMember(ctx, teamID, memberID); err != nil {
		return fmt.Errorf("%s: failed to remove member: %w", op, err)
	}

	return nil
}

func (uc *TeamUseCase) ownedTeam(ctx context.Context, user *entity.User, teamID int64) (*entity.Team, error) {
	team, err := uc.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	if err := checkOwner(team.OwnerID, user); err != nil {
		return nil, err
	}

	return team, nil
}
