package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/qrlink/internal/usecase"
)

type unlockUseCase interface {
	UnlockQRCode(ctx context.Context, id, password, clientIP string) (*usecase.Unlock, error)
	VerifyShortLink(ctx context.Context, code, password, clientIP string) (*usecase.Unlock, error)
}

type unlockHandler struct {
	useCase       unlockUseCase
	validate      *validator.Validate
	cookieTTL     time.Duration
	secureCookies bool
}

func newUnlockHandler(useCase unlockUseCase, validate *validator.Validate, opts Options) *unlockHandler {
	return &unlockHandler{
		useCase:       useCase,
		validate:      validate,
		cookieTTL:     opts.UnlockCookieTTL,
		secureCookies: opts.SecureCookies,
	}
}

func (h *unlockHandler) unlockQRCode(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	id := chi.URLParam(r, "id")

	unlock, err := h.useCase.UnlockQRCode(r.Context(), id, req.Password, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.respond(w, r, qrCookiePrefix+id, unlock)
}

func (h *unlockHandler) verifyShortLink(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	code := chi.URLParam(r, "code")

	unlock, err := h.useCase.VerifyShortLink(r.Context(), code, req.Password, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.respond(w, r, linkCookiePrefix+code, unlock)
}

func (h *unlockHandler) qrCodeUnlockStatus(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, unlockStatusResponse{
		Unlocked: hasCookie(r, qrCookiePrefix+chi.URLParam(r, "id")),
	})
}

func (h *unlockHandler) respond(w http.ResponseWriter, r *http.Request, cookieName string, unlock *usecase.Unlock) {
	if unlock.Token != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    unlock.Token,
			Path:     "/",
			MaxAge:   int(h.cookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, unlockResponse{RedirectURL: unlock.RedirectURL})
}
