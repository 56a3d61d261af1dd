package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/assert"

	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/internal/ratelimit"
	"github.com/vadimbarashkov/qrlink/internal/usecase"
)

// limitedUnlockUseCase keys a real limiter the way UnlockUseCase does and rejects every password.
type limitedUnlockUseCase struct {
	limiter ratelimit.Limiter
	ips     []string
}

func (u *limitedUnlockUseCase) UnlockQRCode(ctx context.Context, id, _, clientIP string) (*usecase.Unlock, error) {
	return u.attempt(ctx, usecase.UnlockKindQRCode, id, clientIP)
}

func (u *limitedUnlockUseCase) VerifyShortLink(ctx context.Context, code, _, clientIP string) (*usecase.Unlock, error) {
	return u.attempt(ctx, usecase.UnlockKindLink, code, clientIP)
}

func (u *limitedUnlockUseCase) attempt(ctx context.Context, kind, id, clientIP string) (*usecase.Unlock, error) {
	u.ips = append(u.ips, clientIP)

	res, err := u.limiter.Allow(ctx, fmt.Sprintf("unlock:%s:%s:%s", kind, id, clientIP))
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, &usecase.RateLimitedError{RetryAfter: res.RetryAfter}
	}

	return nil, entity.ErrInvalidPassword
}

func newUnlockTestServer(t *testing.T, behindProxy bool) (*httpexpect.Expect, *limitedUnlockUseCase) {
	t.Helper()

	logger := httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	unlock := &limitedUnlockUseCase{
		limiter: ratelimit.NewMemoryLimiter(ratelimit.Options{Limit: 5, Window: time.Minute}, logger.Logger),
	}

	router := NewRouter(logger, Options{
		PublicBaseURL:   "https://qr.example.com",
		UnlockCookieTTL: time.Hour,
		BehindProxy:     behindProxy,
	}, UseCases{Unlock: unlock})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return httpexpect.Default(t, server.URL), unlock
}

func TestUnlockAttemptsPerClient(t *testing.T) {
	t.Run("forwarded headers are ignored without a proxy", func(t *testing.T) {
		e, unlock := newUnlockTestServer(t, false)

		for i := 1; i <= 5; i++ {
			e.POST("/api/qrcodes/abc/unlock").
				WithHeader("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i)).
				WithHeader("X-Real-IP", fmt.Sprintf("10.0.1.%d", i)).
				WithJSON(map[string]string{"password": "guess"}).
				Expect().
				Status(http.StatusUnauthorized)
		}

		e.POST("/api/qrcodes/abc/unlock").
			WithHeader("X-Forwarded-For", "10.0.0.6").
			WithJSON(map[string]string{"password": "guess"}).
			Expect().
			Status(http.StatusTooManyRequests).
			Header("Retry-After").NotEmpty()

		for _, ip := range unlock.ips {
			assert.Equal(t, "127.0.0.1", ip)
		}
	})

	t.Run("short links share the same limit", func(t *testing.T) {
		e, _ := newUnlockTestServer(t, false)

		for i := 1; i <= 5; i++ {
			e.POST("/api/l/promo/verify").
				WithHeader("True-Client-IP", fmt.Sprintf("10.0.0.%d", i)).
				WithJSON(map[string]string{"password": "guess"}).
				Expect().
				Status(http.StatusUnauthorized)
		}

		e.POST("/api/l/promo/verify").
			WithJSON(map[string]string{"password": "guess"}).
			Expect().
			Status(http.StatusTooManyRequests)
	})

	t.Run("forwarded address is used behind a proxy", func(t *testing.T) {
		e, unlock := newUnlockTestServer(t, true)

		e.POST("/api/qrcodes/abc/unlock").
			WithHeader("X-Forwarded-For", "203.0.113.7").
			WithJSON(map[string]string{"password": "guess"}).
			Expect().
			Status(http.StatusUnauthorized)

		assert.Equal(t, []string{"203.0.113.7"}, unlock.ips)
	})
}
