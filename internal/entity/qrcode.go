package entity

import "time"

// QRStyle describes how a QR code is rendered by the clients.
type QRStyle struct {
	ForegroundColor string
	BackgroundColor string
	DotStyle        string
	LogoURL         string
	Template        string
}

// QRCode is a printed code pointing to the /r/{id} redirect endpoint.
type QRCode struct {
	ID           string
	UserID       int64
	Name         string
	TargetURL    string
	Style        QRStyle
	IsActive     bool
	ExpiresAt    *time.Time
	MaxScans     *int64
	PasswordHash *string
	ScanCount    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsProtected reports whether the QR code requires a password.
func (q *QRCode) IsProtected() bool {
	return q.PasswordHash != nil && *q.PasswordHash != ""
}

// Scan is an immutable record of one QR code resolution.
type Scan struct {
	ID        int64
	QRCodeID  string
	ScannedAt time.Time
	VariantID *string
	Visit
}

// Variant is one weighted destination of an A/B test.
type Variant struct {
	ID     string
	URL    string
	Name   string
	Weight float64
}

// ABTest splits the traffic of a QR code between weighted variants.
type ABTest struct {
	ID        int64
	QRCodeID  string
	Variants  []Variant
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
