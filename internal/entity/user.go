package entity

import (
	"fmt"
	"strings"
	"time"
)

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree     Plan = "FREE"
	PlanPro      Plan = "PRO"
	PlanBusiness Plan = "BUSINESS"
)

// ParsePlan converts a raw value into a Plan. It is case-insensitive.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(strings.ToUpper(strings.TrimSpace(s))); p {
	case PlanFree, PlanPro, PlanBusiness:
		return p, nil
	default:
		return "", fmt.Errorf("unknown plan %q", s)
	}
}

// User is an account owning links, QR codes and teams.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Plan         Plan
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// APIKey grants programmatic access on behalf of a user. Only the hash of the key is stored.
type APIKey struct {
	ID         int64
	UserID     int64
	Name       string
	Prefix     string
	KeyHash    string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}
