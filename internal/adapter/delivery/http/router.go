// Package http is the HTTP delivery layer: the public redirect and unlock endpoints
// and the authenticated management API.
package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vadimbarashkov/qrlink/pkg/middleware/recoverer"
)

// Options configure the parts of the delivery layer that depend on the deployment.
type Options struct {
	PublicBaseURL   string
	ExpiredURL      string
	PasswordURL     string
	UnlockCookieTTL time.Duration
	SecureCookies   bool
	SwaggerFile     string
	// BehindProxy trusts X-Forwarded-For and X-Real-IP for the client address.
	// Leave it off when clients connect directly, the headers are client controlled then.
	BehindProxy     bool
}

// UseCases groups the application logic served by the router.
type UseCases struct {
	Redirect redirectUseCase
	Unlock   unlockUseCase
	Auth     authUseCase
	APIKeys  apiKeyUseCase
	Links    linkUseCase
	QRCodes  qrCodeUseCase
	Teams    teamUseCase
}

func NewRouter(logger *httplog.Logger, opts Options, uc UseCases) *chi.Mux {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	if opts.SwaggerFile == "" {
		opts.SwaggerFile = "./docs/swagger.yml"
	}

	validate := newValidator()

	redirect := newRedirectHandler(uc.Redirect, opts)
	unlock := newUnlockHandler(uc.Unlock, validate, opts)
	auth := newAuthHandler(uc.Auth, uc.APIKeys, validate)
	links := newLinkHandler(uc.Links, validate, opts)
	qrCodes := newQRCodeHandler(uc.QRCodes, validate, opts)
	teams := newTeamHandler(uc.Teams, validate)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	if opts.BehindProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, opts.SwaggerFile)
	})

	r.Group(func(r chi.Router) {
		r.Use(noCache)

		r.Get("/r/{id}", redirect.resolveQRCode)
		r.Get("/l/{code}", redirect.resolveShortLink)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Get("/plans", handlePlans)

		r.Post("/auth/register", auth.register)
		r.Post("/auth/login", auth.login)

		r.Post("/l/{code}/verify", unlock.verifyShortLink)
		r.Post("/qrcodes/{id}/unlock", unlock.unlockQRCode)
		r.Get("/qrcodes/{id}/unlock", unlock.qrCodeUnlockStatus)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(uc.Auth))

			r.Get("/me", auth.me)

			r.Route("/keys", func(r chi.Router) {
				r.Post("/", auth.createAPIKey)
				r.Get("/", auth.listAPIKeys)
				r.Delete("/{id}", auth.deleteAPIKey)
			})

			r.Route("/links", func(r chi.Router) {
				r.Post("/", links.createLink)
				r.Get("/", links.listLinks)

				r.Route("/{code}", func(r chi.Router) {
					r.Get("/", links.getLink)
					r.Put("/", links.updateLink)
					r.Delete("/", links.deleteLink)
					r.Get("/stats", links.linkStats)
				})
			})

			r.Route("/qrcodes", func(r chi.Router) {
				r.Post("/", qrCodes.createQRCode)
				r.Get("/", qrCodes.listQRCodes)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", qrCodes.getQRCode)
					r.Put("/", qrCodes.updateQRCode)
					r.Delete("/", qrCodes.deleteQRCode)
					r.Get("/stats", qrCodes.qrCodeStats)

					r.Get("/ab-test", qrCodes.getABTest)
					r.Post("/ab-test", qrCodes.setABTest)
					r.Delete("/ab-test", qrCodes.deleteABTest)
				})
			})

			r.Post("/teams", teams.createTeam)
			r.Route("/teams/{id}", func(r chi.Router) {
				r.Get("/members", teams.listMembers)
				r.Delete("/members/{userId}", teams.removeMember)
				r.Post("/invitations", teams.invite)
			})

			r.Post("/invitations/{token}/accept", teams.acceptInvitation)
		})
	})

	return r
}
