package entity

import "time"

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Team groups users sharing the seats of the owner's plan.
type Team struct {
	ID        int64
	OwnerID   int64
	Name      string
	CreatedAt time.Time
}

// TeamMember is a user occupying a seat in a team.
type TeamMember struct {
	TeamID   int64
	UserID   int64
	Email    string
	Role     string
	JoinedAt time.Time
}

// Invitation is a pending offer to join a team.
type Invitation struct {
	ID        int64
	TeamID    int64
	Email     string
	Role      string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
