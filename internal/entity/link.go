package entity

import "time"

// UTMParams are appended to the target URL of a short link when it is resolved.
type UTMParams struct {
	Source   string
	Medium   string
	Campaign string
}

// IsZero reports whether no UTM parameter is set.
func (p UTMParams) IsZero() bool {
	return p.Source == "" && p.Medium == "" && p.Campaign == ""
}

// ShortLink maps a short code to a destination URL.
type ShortLink struct {
	ID           int64
	UserID       int64
	ShortCode    string
	TargetURL    string
	IsActive     bool
	ExpiresAt    *time.Time
	MaxClicks    *int64
	PasswordHash *string
	UTM          UTMParams
	ClickCount   int64 // ClickCount is filled on reads, it is not a stored counter.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsProtected reports whether the link requires a password.
func (l *ShortLink) IsProtected() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// Visit holds what is known about the client behind a redirect.
type Visit struct {
	UserAgent string
	IP        string
	Referer   string
	Country   string
}

// LinkClick is an immutable record of one short link resolution.
type LinkClick struct {
	ID        int64
	LinkID    int64
	ClickedAt time.Time
	Visit
}
