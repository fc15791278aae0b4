package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/givingly/giveaway-api/internal/application/giveaway"
	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/pkg/validate"
	"github.com/givingly/giveaway-api/internal/transport/http/middleware"
)

// GiveawayHandler handles giveaway CRUD, moderation and vote endpoints.
type GiveawayHandler struct {
	svc giveaway.Service
}

func NewGiveawayHandler(svc giveaway.Service) *GiveawayHandler {
	return &GiveawayHandler{svc: svc}
}

// userPayload is the body of the moderation and vote endpoints: the acting
// user restated explicitly, checked against the JWT caller in the service.
type userPayload struct {
	UserID string `json:"user_id" validate:"required"`
}

type statusUpdatePayload struct {
	StatusTypeID string `json:"status_type_id" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
}

func (h *GiveawayHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var req domain.CreateGiveawayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	g, err := h.svc.Insert(r.Context(), caller, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GiveawayHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var req domain.UpdateGiveawayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Update(r.Context(), caller, chi.URLParam(r, "id"), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "giveaway updated"})
}

func (h *GiveawayHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// List serves the active listing by default; user_id and community_id query
// parameters narrow it to one owner or one community.
func (h *GiveawayHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		gs  []domain.Giveaway
		err error
	)
	switch {
	case r.URL.Query().Get("user_id") != "":
		gs, err = h.svc.ListByUser(r.Context(), r.URL.Query().Get("user_id"))
	case r.URL.Query().Get("community_id") != "":
		gs, err = h.svc.ListByCommunity(r.Context(), r.URL.Query().Get("community_id"))
	default:
		gs, err = h.svc.ListActive(r.Context())
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *GiveawayHandler) ListFlagged(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	gs, err := h.svc.ListFlagged(r.Context(), caller)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *GiveawayHandler) Flag(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.Flag, "giveaway flagged")
}

func (h *GiveawayHandler) Unflag(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.Unflag, "giveaway unflagged")
}

func (h *GiveawayHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.Remove, "giveaway removed")
}

func (h *GiveawayHandler) RemoveFlagged(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.RemoveFlagged, "giveaway removed")
}

func (h *GiveawayHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.Restore, "giveaway restored")
}

func (h *GiveawayHandler) VoteUp(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.VoteUp, "vote recorded")
}

func (h *GiveawayHandler) VoteDown(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.VoteDown, "vote recorded")
}

func (h *GiveawayHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.Unvote, "vote withdrawn")
}

func (h *GiveawayHandler) PushStatusUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var p statusUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.PushStatusUpdate(r.Context(), caller, chi.URLParam(r, "id"), p.StatusTypeID, p.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "status update recorded"})
}

func (h *GiveawayHandler) Pageviews(w http.ResponseWriter, r *http.Request) {
	views := h.svc.Pageviews(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]int{"pageviews": views})
}

func (h *GiveawayHandler) InfoboxOpens(w http.ResponseWriter, r *http.Request) {
	opens := h.svc.InfoboxOpens(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]int{"infobox_opens": opens})
}

type giveawayAction func(ctx context.Context, caller domain.Caller, giveawayID, userID string) error

func (h *GiveawayHandler) userAction(w http.ResponseWriter, r *http.Request, action giveawayAction, okMsg string) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var p userPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := action(r.Context(), caller, chi.URLParam(r, "id"), p.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: okMsg})
}
