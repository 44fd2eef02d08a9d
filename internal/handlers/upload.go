package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/photoform/internal/form"
)

func (h *Handler) HandleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	entryID := r.PathValue("entryID")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}
	if _, err := session.Entry(entryID); err != nil {
		h.writeFormError(w, err)
		return
	}

	source, err := form.ParseSource(r.FormValue("source"))
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if int64(len(fileData)) >= h.maxUploadBytes {
		h.writeError(w, fmt.Sprintf("File too large (max %d bytes)", h.maxUploadBytes), http.StatusBadRequest)
		return
	}

	// decode outside the store lock, it is the slow part
	photo, err := form.DecodePhoto(fileData, header.Filename, h.composer.LayoutConfig().TargetAspectRatio)
	if h.metrics != nil {
		h.metrics.ObservePhoto(string(source), err)
	}
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	slog.Info("Photo decoded",
		"session", sessionID,
		"entry", entryID,
		"source", source,
		"filename", header.Filename,
		"width", photo.Width,
		"height", photo.Height)

	h.updateSession(w, r, func(s *form.Session) error {
		_, err := s.Attach(entryID, source, photo)
		return err
	})
}

func (h *Handler) HandleDetachPhoto(w http.ResponseWriter, r *http.Request) {
	source, err := form.ParseSource(r.URL.Query().Get("source"))
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	entryID := r.PathValue("entryID")
	h.updateSession(w, r, func(s *form.Session) error {
		_, err := s.Detach(entryID, source)
		return err
	})
}
