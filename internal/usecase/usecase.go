// Package usecase holds the application logic of the service. Each use case depends on
// small repository interfaces declared next to it and is wired to the Postgres
// adapters in internal/app.
package usecase

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vadimbarashkov/qrlink/internal/entity"
)

var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating identifier")

const (
	maxRetries = 5

	DefaultPageSize = 20
	MaxPageSize     = 100

	DefaultStatsDays = 30
	MaxStatsDays     = 365
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeURL prefixes https:// to targets stored without a scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || schemeRe.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// appendUTM adds the UTM parameters that the target does not carry already.
func appendUTM(target string, utm entity.UTMParams) string {
	if utm.IsZero() {
		return target
	}

	u, err := url.Parse(target)
	if err != nil {
		return target
	}

	q := u.Query()
	for key, value := range map[string]string{
		"utm_source":   utm.Source,
		"utm_medium":   utm.Medium,
		"utm_campaign": utm.Campaign,
	} {
		if value != "" && !q.Has(key) {
			q.Set(key, value)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into the accepted range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

func statsSince(now time.Time, days int) time.Time {
	if days < 1 {
		days = DefaultStatsDays
	}
	if days > MaxStatsDays {
		days = MaxStatsDays
	}

	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
}

func stripAdvancedStats(stats *entity.VisitStats) *entity.VisitStats {
	return &entity.VisitStats{Total: stats.Total}
}

func checkOwner(ownerID int64, user *entity.User) error {
	if ownerID != user.ID {
		return entity.ErrForbidden
	}
	return nil
}

// expiry applies the shared lifecycle rules of links and QR codes.
// It reports the reason a resource can no longer be resolved and whether
// the resource must be deactivated as a consequence.
func expiry(isActive bool, expiresAt *time.Time, max *int64, count int64, now time.Time) (reason entity.ExpiredReason, deactivate bool) {
	switch {
	case !isActive:
		return entity.ExpiredInactive, false
	case expiresAt != nil && expiresAt.Before(now):
		return entity.ExpiredDate, true
	case max != nil && count >= *max:
		return entity.ExpiredCount, true
	default:
		return "", false
	}
}

func wrapExpired(op string, reason entity.ExpiredReason) error {
	return fmt.Errorf("%s: %w", op, &entity.ExpiredError{Reason: reason})
}
