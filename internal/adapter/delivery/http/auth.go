package http

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/qrlink/internal/entitlement"
	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/internal/usecase"
)

type authUseCase interface {
	authenticator
	Register(ctx context.Context, email, password, name string) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	Profile(ctx context.Context, user *entity.User) (*usecase.Profile, error)
}

type apiKeyUseCase interface {
	Create(ctx context.Context, user *entity.User, name string) (*entity.APIKey, string, error)
	List(ctx context.Context, user *entity.User) ([]entity.APIKey, error)
	Delete(ctx context.Context, user *entity.User, id int64) error
}

type authHandler struct {
	useCase       authUseCase
	apiKeyUseCase apiKeyUseCase
	validate      *validator.Validate
}

func newAuthHandler(useCase authUseCase, apiKeyUseCase apiKeyUseCase, validate *validator.Validate) *authHandler {
	return &authHandler{
		useCase:       useCase,
		apiKeyUseCase: apiKeyUseCase,
		validate:      validate,
	}
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	user, token, err := h.useCase.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, authResponse{Token: token, User: toUserResponse(user)})
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	user, token, err := h.useCase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, authResponse{Token: token, User: toUserResponse(user)})
}

func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	profile, err := h.useCase.Profile(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toProfileResponse(profile))
}

func handlePlans(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, entitlement.All())
}

func (h *authHandler) createAPIKey(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req apiKeyRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	key, raw, err := h.apiKeyUseCase.Create(r.Context(), user, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := toAPIKeyResponse(key)
	resp.Key = raw

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

func (h *authHandler) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	keys, err := h.apiKeyUseCase.List(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]apiKeyResponse, 0, len(keys))
	for i := range keys {
		resp = append(resp, toAPIKeyResponse(&keys[i]))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *authHandler) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	if err := h.apiKeyUseCase.Delete(r.Context(), user, id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
