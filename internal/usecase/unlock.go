package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/internal/ratelimit"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	UnlockKindQRCode = "qr"
	UnlockKindLink   = "link"
)

// Unlock is the result of a successful password check. Token is empty when the
// resource has no password.
type Unlock struct {
	Token       string
	RedirectURL string
}

// RateLimitedError is returned when too many unlock attempts were made from one client.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return entity.ErrRateLimited
}

type UnlockUseCase struct {
	linkRepo      linkRepository
	qrCodeRepo    qrCodeRepository
	limiter       ratelimit.Limiter
	hasher        passwordHasher
	publicBaseURL string
	now           func() time.Time
}

func NewUnlockUseCase(
	linkRepo linkRepository,
	qrCodeRepo qrCodeRepository,
	limiter ratelimit.Limiter,
	hasher passwordHasher,
	publicBaseURL string,
) *UnlockUseCase {
	return &UnlockUseCase{
		linkRepo:      linkRepo,
		qrCodeRepo:    qrCodeRepo,
		limiter:       limiter,
		hasher:        hasher,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

func (uc *UnlockUseCase) UnlockQRCode(ctx context.Context, id, password, clientIP string) (*Unlock, error) {
	const op = "usecase.UnlockUseCase.UnlockQRCode"

	if err := uc.allow(ctx, UnlockKindQRCode, id, clientIP); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	qr, err := uc.qrCodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get qr code: %w", op, err)
	}

	unlock, err := uc.check(qr.ID, qr.PasswordHash, password, uc.publicBaseURL+"/r/"+url.PathEscape(qr.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return unlock, nil
}

func (uc *UnlockUseCase) VerifyShortLink(ctx context.Context, code, password, clientIP string) (*Unlock, error) {
	const op = "usecase.UnlockUseCase.VerifyShortLink"

	if err := uc.allow(ctx, UnlockKindLink, code, clientIP); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err := uc.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get short link: %w", op, err)
	}

	unlock, err := uc.check(link.ShortCode, link.PasswordHash, password, uc.publicBaseURL+"/l/"+url.PathEscape(link.ShortCode))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return unlock, nil
}

func (uc *UnlockUseCase) allow(ctx context.Context, kind, id, clientIP string) error {
	res, err := uc.limiter.Allow(ctx, fmt.Sprintf("unlock:%s:%s:%s", kind, id, clientIP))
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}

	if !res.Allowed {
		return &RateLimitedError{RetryAfter: res.RetryAfter}
	}

	return nil
}

func (uc *UnlockUseCase) check(id string, hash *string, password, redirectURL string) (*Unlock, error) {
	if hash == nil || *hash == "" {
		return &Unlock{RedirectURL: redirectURL}, nil
	}

	ok, err := uc.hasher.Verify(*hash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	if !ok {
		return nil, entity.ErrInvalidPassword
	}

	token, err := uc.newToken(id)
	if err != nil {
		return nil, err
	}

	return &Unlock{Token: token, RedirectURL: redirectURL}, nil
}

// newToken builds the opaque cookie value. Its content is never read back.
func (uc *UnlockUseCase) newToken(id string) (string, error) {
	nonce, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	raw := fmt.Sprintf("%s:%d:%s", id, uc.now().UnixMilli(), nonce)

	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}
