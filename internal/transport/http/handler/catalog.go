package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/givingly/giveaway-api/internal/application/catalog"
	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/pkg/validate"
	"github.com/givingly/giveaway-api/internal/transport/http/middleware"
)

// CatalogHandler handles parent category, category and status type endpoints.
type CatalogHandler struct {
	svc catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ── Parent categories ──────────────────────────────────────────────────────

func (h *CatalogHandler) ListParentCategories(w http.ResponseWriter, r *http.Request) {
	pcs, err := h.svc.ListParentCategories(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pcs)
}

func (h *CatalogHandler) CreateParentCategory(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var in domain.ParentCategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pc, err := h.svc.CreateParentCategory(r.Context(), caller, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pc)
}

// ── Categories ─────────────────────────────────────────────────────────────

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if parentID := r.URL.Query().Get("parent"); parentID != "" {
		cs, err := h.svc.ListCategoriesByParent(r.Context(), parentID)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
		return
	}
	cs, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var in domain.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), caller, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ── Status types ───────────────────────────────────────────────────────────

func (h *CatalogHandler) ListStatusTypes(w http.ResponseWriter, r *http.Request) {
	sts, err := h.svc.ListStatusTypes(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sts)
}

func (h *CatalogHandler) GetStatusType(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStatusType(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *CatalogHandler) CreateStatusType(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var in domain.StatusTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.svc.CreateStatusType(r.Context(), caller, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *CatalogHandler) UpdateStatusType(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	var in domain.StatusTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.svc.UpdateStatusType(r.Context(), caller, chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *CatalogHandler) DeleteStatusType(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	if err := h.svc.DeleteStatusType(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "status type deleted"})
}
