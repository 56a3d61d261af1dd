package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/internal/usecase"
)

type linkUseCase interface {
	Create(ctx context.Context, user *entity.User, in usecase.CreateLinkInput) (*entity.ShortLink, error)
	List(ctx context.Context, user *entity.User, page usecase.Page) ([]entity.ShortLink, int64, error)
	Get(ctx context.Context, user *entity.User, code string) (*entity.ShortLink, error)
	Update(ctx context.Context, user *entity.User, code string, in usecase.UpdateLinkInput) (*entity.ShortLink, error)
	Delete(ctx context.Context, user *entity.User, code string) error
	Stats(ctx context.Context, user *entity.User, code string, days int) (*entity.VisitStats, error)
}

type linkHandler struct {
	useCase  linkUseCase
	validate *validator.Validate
	toResp   func(*entity.ShortLink) linkResponse
}

func newLinkHandler(useCase linkUseCase, validate *validator.Validate, opts Options) *linkHandler {
	return &linkHandler{
		useCase:  useCase,
		validate: validate,
		toResp:   toLinkResponse(opts.PublicBaseURL),
	}
}

func (h *linkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req createLinkRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	link, err := h.useCase.Create(r.Context(), user, usecase.CreateLinkInput{
		TargetURL:  req.TargetURL,
		CustomCode: req.CustomCode,
		ExpiresAt:  req.ExpiresAt,
		MaxClicks:  req.MaxClicks,
		Password:   req.Password,
		UTM:        req.UTM.toEntity(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.toResp(link))
}

func (h *linkHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	page := pageFromQuery(r)

	links, total, err := h.useCase.List(r.Context(), user, page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toListResponse(links, page, total, h.toResp))
}

func (h *linkHandler) getLink(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	link, err := h.useCase.Get(r.Context(), user, chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.toResp(link))
}

func (h *linkHandler) updateLink(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req updateLinkRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	link, err := h.useCase.Update(r.Context(), user, chi.URLParam(r, "code"), usecase.UpdateLinkInput{
		TargetURL: req.TargetURL,
		ExpiresAt: req.ExpiresAt,
		MaxClicks: req.MaxClicks,
		Password:  req.Password,
		IsActive:  req.IsActive,
		UTM:       req.UTM.toEntity(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.toResp(link))
}

func (h *linkHandler) deleteLink(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	if err := h.useCase.Delete(r.Context(), user, chi.URLParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *linkHandler) linkStats(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	stats, err := h.useCase.Stats(r.Context(), user, chi.URLParam(r, "code"), daysFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toStatsResponse(stats))
}
