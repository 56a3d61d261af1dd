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

type qrCodeUseCase interface {
	Create(ctx context.Context, user *entity.User, in usecase.CreateQRCodeInput) (*entity.QRCode, error)
	List(ctx context.Context, user *entity.User, page usecase.Page) ([]entity.QRCode, int64, error)
	Get(ctx context.Context, user *entity.User, id string) (*entity.QRCode, error)
	Update(ctx context.Context, user *entity.User, id string, in usecase.UpdateQRCodeInput) (*entity.QRCode, error)
	Delete(ctx context.Context, user *entity.User, id string) error
	Stats(ctx context.Context, user *entity.User, id string, days int) (*entity.VisitStats, error)
	GetABTest(ctx context.Context, user *entity.User, id string) (*entity.ABTest, error)
	SetABTest(ctx context.Context, user *entity.User, id string, variants []entity.Variant, isActive bool) (*entity.ABTest, error)
	DeleteABTest(ctx context.Context, user *entity.User, id string) error
}

type qrCodeHandler struct {
	useCase  qrCodeUseCase
	validate *validator.Validate
	toResp   func(*entity.QRCode) qrCodeResponse
}

func newQRCodeHandler(useCase qrCodeUseCase, validate *validator.Validate, opts Options) *qrCodeHandler {
	return &qrCodeHandler{
		useCase:  useCase,
		validate: validate,
		toResp:   toQRCodeResponse(opts.PublicBaseURL),
	}
}

func (h *qrCodeHandler) createQRCode(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req qrCodeRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	qr, err := h.useCase.Create(r.Context(), user, usecase.CreateQRCodeInput{
		Name:      req.Name,
		TargetURL: req.TargetURL,
		Style:     req.Style.toEntity(),
		ExpiresAt: req.ExpiresAt,
		MaxScans:  req.MaxScans,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.toResp(qr))
}

func (h *qrCodeHandler) listQRCodes(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	page := pageFromQuery(r)

	qrs, total, err := h.useCase.List(r.Context(), user, page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toListResponse(qrs, page, total, h.toResp))
}

func (h *qrCodeHandler) getQRCode(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	qr, err := h.useCase.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.toResp(qr))
}

func (h *qrCodeHandler) updateQRCode(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req updateQRCodeRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	qr, err := h.useCase.Update(r.Context(), user, chi.URLParam(r, "id"), usecase.UpdateQRCodeInput{
		Name:      req.Name,
		TargetURL: req.TargetURL,
		Style:     req.Style.toEntity(),
		ExpiresAt: req.ExpiresAt,
		MaxScans:  req.MaxScans,
		Password:  req.Password,
		IsActive:  req.IsActive,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.toResp(qr))
}

func (h *qrCodeHandler) deleteQRCode(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	if err := h.useCase.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *qrCodeHandler) qrCodeStats(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	stats, err := h.useCase.Stats(r.Context(), user, chi.URLParam(r, "id"), daysFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toStatsResponse(stats))
}

func (h *qrCodeHandler) getABTest(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	test, err := h.useCase.GetABTest(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toABTestResponse(test))
}

func (h *qrCodeHandler) setABTest(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req abTestRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	variants, isActive := req.toEntity()

	test, err := h.useCase.SetABTest(r.Context(), user, chi.URLParam(r, "id"), variants, isActive)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toABTestResponse(test))
}

func (h *qrCodeHandler) deleteABTest(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	if err := h.useCase.DeleteABTest(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
