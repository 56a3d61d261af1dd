package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/qrlink/internal/entitlement"
	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/internal/usecase"
	"github.com/vadimbarashkov/qrlink/pkg/response"
)

var (
	invalidCredentialsResponse = response.ErrorResponse("Unauthorized", "Email ou mot de passe incorrect.")
	invalidPasswordResponse    = response.ErrorResponse("Invalid Password", "Mot de passe incorrect.")
	tooManyAttemptsResponse    = response.ErrorResponse("Too Many Requests", "Trop de tentatives. Réessayez plus tard.")
	conflictResponse           = response.ErrorResponse("Conflict", "Cette ressource existe déjà.")
	invitationExpiredResponse  = response.ErrorResponse("Gone", "L'invitation a expiré.")
	invalidVariantsResponse    = response.ErrorResponse("Validation Error", "Un test A/B nécessite au moins deux variantes avec une URL et un poids entre 0 et 100.")
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("target_url", validateTargetURL)

	return validate
}

// validateTargetURL accepts absolute URLs as well as scheme-less ones like example.com.
func validateTargetURL(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}

	u, err := url.Parse(usecase.NormalizeURL(s))
	return err == nil && u.Host != "" && strings.Contains(u.Host, ".")
}

// decodeAndValidate writes the 400 response itself and reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, req any) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, response.EmptyRequestBodyResponse)
			return false
		}

		render.JSON(w, r, response.InvalidRequestBodyResponse)
		return false
	}

	if err := validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationErrorResponse(err))
		return false
	}

	return true
}

// writeError maps use case errors onto HTTP responses. Unknown errors are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		denied  *entitlement.DeniedError
		limited *usecase.RateLimitedError
	)

	switch {
	case errors.As(err, &denied):
		detail := map[string]any{"upgrade": true, "plan": denied.Plan}
		if denied.Resource != "" {
			detail["resource"] = denied.Resource
		} else {
			detail["feature"] = denied.Feature
		}

		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.ErrorResponse("Forbidden", denied.Message, detail))
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(limited.RetryAfter.Seconds()))))

		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, tooManyAttemptsResponse)
	case errors.Is(err, entity.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	case errors.Is(err, entity.ErrInvalidCredentials):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, invalidCredentialsResponse)
	case errors.Is(err, entity.ErrInvalidPassword):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, invalidPasswordResponse)
	case errors.Is(err, entity.ErrUnauthorized):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.UnauthorizedResponse)
	case errors.Is(err, entity.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.ForbiddenResponse)
	case errors.Is(err, entity.ErrShortCodeExists),
		errors.Is(err, entity.ErrEmailExists),
		errors.Is(err, entity.ErrAlreadyMember):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, conflictResponse)
	case errors.Is(err, entity.ErrInvitationExpired):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, invitationExpiredResponse)
	case errors.Is(err, entity.ErrTooFewVariants), errors.Is(err, entity.ErrInvalidVariant):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidVariantsResponse)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}

func pageFromQuery(r *http.Request) usecase.Page {
	number, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	return usecase.Page{Number: number, Size: size}
}

func daysFromQuery(r *http.Request) int {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	return days
}
