package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/givingly/giveaway-api/internal/application/picture"
	"github.com/givingly/giveaway-api/internal/transport/http/middleware"
)

// maxPictureSize caps multipart uploads at 10 MiB.
const maxPictureSize = 10 << 20

// PictureHandler handles picture upload/download endpoints.
type PictureHandler struct {
	svc picture.Service
}

func NewPictureHandler(svc picture.Service) *PictureHandler {
	return &PictureHandler{svc: svc}
}

func (h *PictureHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxPictureSize)
	if err := r.ParseMultipartForm(maxPictureSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	p, err := h.svc.Upload(r.Context(), caller, picture.UploadInput{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		UploaderID:  caller.ID,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PictureHandler) Download(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("presigned") == "true" {
		url, err := h.svc.DownloadURL(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, err)
			return
		}
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}

	rc, p, err := h.svc.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+p.FileName+`"`)
	_, _ = io.Copy(w, rc)
}

func (h *PictureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "picture deleted"})
}
