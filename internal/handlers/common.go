package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/photoform/internal/compose"
	"github.com/lehigh-university-libraries/photoform/internal/form"
	"github.com/lehigh-university-libraries/photoform/internal/metrics"
	"github.com/lehigh-university-libraries/photoform/internal/normalize"
	"github.com/lehigh-university-libraries/photoform/internal/storage"
)

const defaultMaxUploadBytes = 10 * 1024 * 1024

type Handler struct {
	sessionStore   *storage.SessionStore
	composer       *compose.Composer
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

type Config struct {
	Composer *compose.Composer
	Metrics  *metrics.Metrics
	// MaxUploadBytes caps a single photo upload, 10MB when unset
	MaxUploadBytes int64
}

func New(cfg Config) *Handler {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	return &Handler{
		sessionStore:   storage.New(),
		composer:       cfg.Composer,
		metrics:        cfg.Metrics,
		maxUploadBytes: maxUpload,
	}
}

// Routes registers the form API on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthcheck", h.HandleHealthcheck)
	mux.HandleFunc("GET /api/categories", h.HandleCategories)

	mux.HandleFunc("GET /api/sessions", h.HandleListSessions)
	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleGetSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", h.HandleUpdateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDeleteSession)

	mux.HandleFunc("POST /api/sessions/{id}/entries", h.HandleAddEntry)
	mux.HandleFunc("DELETE /api/sessions/{id}/entries/last", h.HandleRemoveLastEntry)
	mux.HandleFunc("PATCH /api/sessions/{id}/entries/{entryID}", h.HandleUpdateEntry)
	mux.HandleFunc("DELETE /api/sessions/{id}/entries/{entryID}", h.HandleRemoveEntry)
	mux.HandleFunc("POST /api/sessions/{id}/entries/{entryID}/photo", h.HandleAttachPhoto)
	mux.HandleFunc("DELETE /api/sessions/{id}/entries/{entryID}/photo", h.HandleDetachPhoto)

	mux.HandleFunc("GET /api/sessions/{id}/layout", h.HandleLayout)
	mux.HandleFunc("GET /api/sessions/{id}/document.pdf", h.HandleDocumentPDF)
	mux.HandleFunc("GET /api/sessions/{id}/document.xlsx", h.HandleDocumentXLSX)
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}

// writeFormError maps form and storage errors to HTTP status codes
func (h *Handler) writeFormError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrSessionNotFound), errors.Is(err, form.ErrEntryNotFound):
		code = http.StatusNotFound
	case errors.Is(err, form.ErrTooManyEntries):
		code = http.StatusConflict
	case errors.Is(err, form.ErrUnknownKind),
		errors.Is(err, form.ErrUnknownCategory),
		errors.Is(err, form.ErrUnknownSource),
		errors.Is(err, normalize.ErrDecode):
		code = http.StatusBadRequest
	}
	h.writeError(w, err.Error(), code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*form.Session, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// updateSession applies fn under the store lock and writes the resulting
// session, or the mapped error
func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request, fn func(*form.Session) error) {
	session, err := h.sessionStore.Update(r.PathValue("id"), fn)
	if err != nil {
		h.writeFormError(w, err)
		return
	}
	h.writeJSON(w, newSessionView(session))
}

func (h *Handler) trackSessions() {
	if h.metrics != nil {
		h.metrics.SessionsActive.Set(float64(h.sessionStore.Len()))
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
