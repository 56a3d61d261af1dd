package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/internal/usecase"
	"github.com/vadimbarashkov/qrlink/pkg/response"
)

const (
	qrCookiePrefix   = "qr_unlock_"
	linkCookiePrefix = "link_unlock_"
)

type redirectUseCase interface {
	ResolveQRCode(ctx context.Context, id string, visit entity.Visit, unlocked bool) (*usecase.Resolution, error)
	ResolveShortLink(ctx context.Context, code string, visit entity.Visit, unlocked bool) (*usecase.Resolution, error)
}

type redirectHandler struct {
	useCase     redirectUseCase
	expiredURL  string
	passwordURL string
}

func newRedirectHandler(useCase redirectUseCase, opts Options) *redirectHandler {
	return &redirectHandler{
		useCase:     useCase,
		expiredURL:  opts.ExpiredURL,
		passwordURL: opts.PasswordURL,
	}
}

func (h *redirectHandler) resolveQRCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := h.useCase.ResolveQRCode(r.Context(), id, visitFromRequest(r), hasCookie(r, qrCookiePrefix+id))
	h.respond(w, r, res, err, usecase.UnlockKindQRCode, id)
}

func (h *redirectHandler) resolveShortLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	res, err := h.useCase.ResolveShortLink(r.Context(), code, visitFromRequest(r), hasCookie(r, linkCookiePrefix+code))
	h.respond(w, r, res, err, usecase.UnlockKindLink, code)
}

func (h *redirectHandler) respond(w http.ResponseWriter, r *http.Request, res *usecase.Resolution, err error, kind, id string) {
	if err == nil {
		http.Redirect(w, r, res.TargetURL, http.StatusFound)
		return
	}

	var expired *entity.ExpiredError

	switch {
	case errors.As(err, &expired):
		http.Redirect(w, r, withQuery(h.expiredURL, url.Values{
			"reason": {string(expired.Reason)},
			"type":   {kind},
		}), http.StatusFound)
	case errors.Is(err, entity.ErrPasswordRequired):
		http.Redirect(w, r, withQuery(h.passwordURL, url.Values{
			"type": {kind},
			"id":   {id},
		}), http.StatusFound)
	case errors.Is(err, entity.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	default:
		writeError(w, r, err)
	}
}

func withQuery(base string, q url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}

func visitFromRequest(r *http.Request) entity.Visit {
	country := r.Header.Get("CF-IPCountry")
	if country == "" {
		country = r.Header.Get("X-Country-Code")
	}

	return entity.Visit{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
		Referer:   r.Referer(),
		Country:   strings.ToUpper(country),
	}
}

// clientIP reads RemoteAddr, which middleware.RealIP rewrites only behind a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
