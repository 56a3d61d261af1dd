// Package entity defines the domain types of the service: users and their plans,
// short links, QR codes, A/B tests, visits and teams, together with the errors
// shared between the use case, repository and delivery layers.
package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrShortCodeExists is returned when a short link is created with a short code that is already taken.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrEmailExists is returned when an account is registered with an email that is already taken.
	ErrEmailExists = errors.New("email exists")
	// ErrInvalidCredentials is returned when login data does not match an account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a request carries no valid session or API key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller does not own the requested resource.
	ErrForbidden = errors.New("forbidden")
	// ErrFeatureNotAvailable is returned when the caller's plan does not include a feature.
	ErrFeatureNotAvailable = errors.New("feature not available on plan")
	// ErrPlanLimit is returned when a counted resource reached the plan limit.
	ErrPlanLimit = errors.New("plan limit reached")
	// ErrPasswordRequired is returned by the resolver when a protected resource was not unlocked.
	ErrPasswordRequired = errors.New("password required")
	// ErrInvalidPassword is returned when an unlock attempt carries a wrong password.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrRateLimited is returned when too many attempts were made in the current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrTooFewVariants is returned when an A/B test is configured with less than two variants.
	ErrTooFewVariants = errors.New("at least two variants are required")
	// ErrInvalidVariant is returned when a variant has a malformed weight or id.
	ErrInvalidVariant = errors.New("invalid variant")
	// ErrAlreadyMember is returned when a user is already part of the team.
	ErrAlreadyMember = errors.New("already a team member")
	// ErrInvitationExpired is returned when an invitation is accepted after its expiry.
	ErrInvitationExpired = errors.New("invitation expired")
)

// ExpiredReason explains why a redirect was refused.
type ExpiredReason string

const (
	ExpiredInactive ExpiredReason = "inactive"
	ExpiredDate     ExpiredReason = "date"
	ExpiredCount    ExpiredReason = "count"
)

// ExpiredError is the outcome of resolving a deactivated, outdated or exhausted resource.
type ExpiredError struct {
	Reason ExpiredReason
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("expired: %s", e.Reason)
}
