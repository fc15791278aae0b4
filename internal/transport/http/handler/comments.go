package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/givingly/giveaway-api/internal/application/comment"
	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/pkg/validate"
	"github.com/givingly/giveaway-api/internal/transport/http/middleware"
)

// CommentHandler handles giveaway comment endpoints.
type CommentHandler struct {
	svc comment.Service
}

func NewCommentHandler(svc comment.Service) *CommentHandler {
	return &CommentHandler{svc: svc}
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var req domain.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.Insert(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CommentHandler) ListByGiveaway(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListByGiveaway(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CommentHandler) Flag(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.Flag, "comment flagged")
}

func (h *CommentHandler) Unflag(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.Unflag, "comment unflagged")
}

func (h *CommentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.svc.Remove, "comment removed")
}

type commentAction func(ctx context.Context, caller domain.Caller, commentID, userID string) error

func (h *CommentHandler) userAction(w http.ResponseWriter, r *http.Request, action commentAction, okMsg string) {
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
	if err := action(r.Context(), caller, chi.URLParam(r, "commentID"), p.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: okMsg})
}
