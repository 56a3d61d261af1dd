package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/pkg/response"
)

type teamUseCase interface {
	Create(ctx context.Context, user *entity.User, name string) (*entity.Team, error)
	Members(ctx context.Context, user *entity.User, teamID int64) ([]entity.TeamMember, error)
	Invite(ctx context.Context, user *entity.User, teamID int64, email, role string) (*entity.Invitation, error)
	Accept(ctx context.Context, user *entity.User, token string) (*entity.TeamMember, error)
	RemoveMember(ctx context.Context, user *entity.User, teamID, memberID int64) error
}

type teamHandler struct {
	useCase  teamUseCase
	validate *validator.Validate
}

func newTeamHandler(useCase teamUseCase, validate *validator.Validate) *teamHandler {
	return &teamHandler{
		useCase:  useCase,
		validate: validate,
	}
}

func (h *teamHandler) createTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req teamRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	team, err := h.useCase.Create(r.Context(), user, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toTeamResponse(team))
}

func (h *teamHandler) listMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	teamID, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	members, err := h.useCase.Members(r.Context(), user, teamID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]memberResponse, 0, len(members))
	for i := range members {
		resp = append(resp, toMemberResponse(&members[i]))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *teamHandler) invite(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	teamID, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	var req invitationRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	inv, err := h.useCase.Invite(r.Context(), user, teamID, req.Email, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toInvitationResponse(inv))
}

func (h *teamHandler) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	member, err := h.useCase.Accept(r.Context(), user, chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toMemberResponse(member))
}

func (h *teamHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(w, r)
	if !ok {
		return
	}

	teamID, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	memberID, ok := int64Param(w, r, "userId")
	if !ok {
		return
	}

	if err := h.useCase.RemoveMember(r.Context(), user, teamID, memberID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
		return 0, false
	}
	return v, true
}
