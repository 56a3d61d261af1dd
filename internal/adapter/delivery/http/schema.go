package http

import (
	"time"

	"github.com/vadimbarashkov/qrlink/internal/entitlement"
	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/internal/usecase"
)

const dayLayout = "2006-01-02"

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

func toListResponse[E, T any](items []E, page usecase.Page, total int64, convert func(*E) T) listResponse[T] {
	out := make([]T, 0, len(items))
	for i := range items {
		out = append(out, convert(&items[i]))
	}

	page = page.Normalize()

	return listResponse[T]{Items: out, Page: page.Number, Size: page.Size, Total: total}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Plan      entity.Plan `json:"plan"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toUserResponse(user *entity.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Plan:      user.Plan,
		CreatedAt: user.CreatedAt,
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type usageResponse struct {
	QRCodes        int64 `json:"qrCodes"`
	ShortLinks     int64 `json:"shortLinks"`
	ScansThisMonth int64 `json:"scansThisMonth"`
}

type profileResponse struct {
	User   userResponse       `json:"user"`
	Limits entitlement.Limits `json:"limits"`
	Usage  usageResponse      `json:"usage"`
}

func toProfileResponse(p *usecase.Profile) profileResponse {
	return profileResponse{
		User:   toUserResponse(p.User),
		Limits: p.Limits,
		Usage: usageResponse{
			QRCodes:        p.Usage.QRCodes,
			ShortLinks:     p.Usage.ShortLinks,
			ScansThisMonth: p.Usage.ScansThisMonth,
		},
	}
}

type apiKeyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type apiKeyResponse struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Key        string     `json:"key,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
}

func toAPIKeyResponse(key *entity.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:         key.ID,
		Name:       key.Name,
		Prefix:     key.Prefix,
		CreatedAt:  key.CreatedAt,
		LastUsedAt: key.LastUsedAt,
	}
}

type utmSchema struct {
	Source   string `json:"source,omitempty" validate:"max=100"`
	Medium   string `json:"medium,omitempty" validate:"max=100"`
	Campaign string `json:"campaign,omitempty" validate:"max=100"`
}

func (u utmSchema) toEntity() entity.UTMParams {
	return entity.UTMParams{Source: u.Source, Medium: u.Medium, Campaign: u.Campaign}
}

type linkRequest struct {
	TargetURL string     `json:"targetUrl" validate:"required,max=2048,target_url"`
	ExpiresAt *time.Time `json:"expiresAt"`
	MaxClicks *int64     `json:"maxClicks" validate:"omitempty,gte=1"`
	Password  *string    `json:"password" validate:"omitempty,max=72"`
	UTM       utmSchema  `json:"utm"`
}

type createLinkRequest struct {
	linkRequest
	CustomCode string `json:"customCode" validate:"omitempty,alphanum,min=3,max=32"`
}

type updateLinkRequest struct {
	linkRequest
	IsActive *bool `json:"isActive"`
}

type linkResponse struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"shortCode"`
	ShortURL    string     `json:"shortUrl"`
	TargetURL   string     `json:"targetUrl"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	MaxClicks   *int64     `json:"maxClicks"`
	HasPassword bool       `json:"hasPassword"`
	UTM         utmSchema  `json:"utm"`
	ClickCount  int64      `json:"clickCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toLinkResponse(baseURL string) func(*entity.ShortLink) linkResponse {
	return func(link *entity.ShortLink) linkResponse {
		return linkResponse{
			ID:          link.ID,
			ShortCode:   link.ShortCode,
			ShortURL:    baseURL + "/l/" + link.ShortCode,
			TargetURL:   link.TargetURL,
			IsActive:    link.IsActive,
			ExpiresAt:   link.ExpiresAt,
			MaxClicks:   link.MaxClicks,
			HasPassword: link.IsProtected(),
			UTM: utmSchema{
				Source:   link.UTM.Source,
				Medium:   link.UTM.Medium,
				Campaign: link.UTM.Campaign,
			},
			ClickCount: link.ClickCount,
			CreatedAt:  link.CreatedAt,
			UpdatedAt:  link.UpdatedAt,
		}
	}
}

type qrStyleSchema struct {
	ForegroundColor string `json:"foregroundColor,omitempty" validate:"omitempty,hexcolor"`
	BackgroundColor string `json:"backgroundColor,omitempty" validate:"omitempty,hexcolor"`
	DotStyle        string `json:"dotStyle,omitempty" validate:"omitempty,oneof=square dots rounded classy"`
	LogoURL         string `json:"logoUrl,omitempty" validate:"omitempty,url,max=2048"`
	Template        string `json:"template,omitempty" validate:"omitempty,alphanum,max=32"`
}

func (s qrStyleSchema) toEntity() entity.QRStyle {
	return entity.QRStyle{
		ForegroundColor: s.ForegroundColor,
		BackgroundColor: s.BackgroundColor,
		DotStyle:        s.DotStyle,
		LogoURL:         s.LogoURL,
		Template:        s.Template,
	}
}

type qrCodeRequest struct {
	Name      string        `json:"name" validate:"required,max=100"`
	TargetURL string        `json:"targetUrl" validate:"required,max=2048,target_url"`
	Style     qrStyleSchema `json:"style"`
	ExpiresAt *time.Time    `json:"expiresAt"`
	MaxScans  *int64        `json:"maxScans" validate:"omitempty,gte=1"`
	Password  *string       `json:"password" validate:"omitempty,max=72"`
}

type updateQRCodeRequest struct {
	qrCodeRequest
	IsActive *bool `json:"isActive"`
}

type qrCodeResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	ScanURL     string        `json:"scanUrl"`
	TargetURL   string        `json:"targetUrl"`
	Style       qrStyleSchema `json:"style"`
	IsActive    bool          `json:"isActive"`
	ExpiresAt   *time.Time    `json:"expiresAt"`
	MaxScans    *int64        `json:"maxScans"`
	HasPassword bool          `json:"hasPassword"`
	ScanCount   int64         `json:"scanCount"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func toQRCodeResponse(baseURL string) func(*entity.QRCode) qrCodeResponse {
	return func(qr *entity.QRCode) qrCodeResponse {
		return qrCodeResponse{
			ID:        qr.ID,
			Name:      qr.Name,
			ScanURL:   baseURL + "/r/" + qr.ID,
			TargetURL: qr.TargetURL,
			Style: qrStyleSchema{
				ForegroundColor: qr.Style.ForegroundColor,
				BackgroundColor: qr.Style.BackgroundColor,
				DotStyle:        qr.Style.DotStyle,
				LogoURL:         qr.Style.LogoURL,
				Template:        qr.Style.Template,
			},
			IsActive:    qr.IsActive,
			ExpiresAt:   qr.ExpiresAt,
			MaxScans:    qr.MaxScans,
			HasPassword: qr.IsProtected(),
			ScanCount:   qr.ScanCount,
			CreatedAt:   qr.CreatedAt,
			UpdatedAt:   qr.UpdatedAt,
		}
	}
}

type countSchema struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type statsResponse struct {
	Total     int64         `json:"total"`
	ByDay     []countSchema `json:"byDay,omitempty"`
	ByCountry []countSchema `json:"byCountry,omitempty"`
	ByVariant []countSchema `json:"byVariant,omitempty"`
}

func toStatsResponse(stats *entity.VisitStats) statsResponse {
	resp := statsResponse{
		Total:     stats.Total,
		ByCountry: toCountSchemas(stats.ByCountry),
		ByVariant: toCountSchemas(stats.ByVariant),
	}

	for _, d := range stats.ByDay {
		resp.ByDay = append(resp.ByDay, countSchema{Key: d.Day.Format(dayLayout), Count: d.Count})
	}

	return resp
}

func toCountSchemas(counts []entity.KeyCount) []countSchema {
	var out []countSchema
	for _, c := range counts {
		out = append(out, countSchema{Key: c.Key, Count: c.Count})
	}
	return out
}

type variantSchema struct {
	ID     string  `json:"id" validate:"omitempty,max=32"`
	URL    string  `json:"url" validate:"required,max=2048,target_url"`
	Name   string  `json:"name,omitempty" validate:"max=100"`
	Weight float64 `json:"weight" validate:"gte=0,lte=100"`
}

type abTestRequest struct {
	Variants []variantSchema `json:"variants" validate:"required,min=2,dive"`
	IsActive *bool           `json:"isActive"`
}

func (req abTestRequest) toEntity() ([]entity.Variant, bool) {
	variants := make([]entity.Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, entity.Variant{ID: v.ID, URL: v.URL, Name: v.Name, Weight: v.Weight})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return variants, isActive
}

type abTestResponse struct {
	QRCodeID  string          `json:"qrCodeId"`
	Variants  []variantSchema `json:"variants"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toABTestResponse(test *entity.ABTest) abTestResponse {
	variants := make([]variantSchema, 0, len(test.Variants))
	for _, v := range test.Variants {
		variants = append(variants, variantSchema{ID: v.ID, URL: v.URL, Name: v.Name, Weight: v.Weight})
	}

	return abTestResponse{
		QRCodeID:  test.QRCodeID,
		Variants:  variants,
		IsActive:  test.IsActive,
		CreatedAt: test.CreatedAt,
		UpdatedAt: test.UpdatedAt,
	}
}

type unlockRequest struct {
	Password string `json:"password" validate:"max=72"`
}

type unlockResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

type unlockStatusResponse struct {
	Unlocked bool `json:"unlocked"`
}

type teamRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type teamResponse struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTeamResponse(team *entity.Team) teamResponse {
	return teamResponse{
		ID:        team.ID,
		OwnerID:   team.OwnerID,
		Name:      team.Name,
		CreatedAt: team.CreatedAt,
	}
}

type memberResponse struct {
	UserID   int64     `json:"userId"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

func toMemberResponse(m *entity.TeamMember) memberResponse {
	return memberResponse{
		UserID:   m.UserID,
		Email:    m.Email,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
}

type invitationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=member admin"`
}

type invitationResponse struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"teamId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toInvitationResponse(inv *entity.Invitation) invitationResponse {
	return invitationResponse{
		ID:        inv.ID,
		TeamID:    inv.TeamID,
		Email:     inv.Email,
		Role:      inv.Role,
		Token:     inv.Token,
		ExpiresAt: inv.ExpiresAt,
	}
}
