package handlers

import (
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/photoform/internal/form"
)

type sessionView struct {
	*form.Session
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	MaxEntries int      `json:"max_entries"`
	Full       bool     `json:"full"`
}

func newSessionView(s *form.Session) sessionView {
	return sessionView{
		Session:    s,
		Title:      s.Kind.Title(),
		Categories: s.Kind.Categories(),
		MaxEntries: form.MaxEntries,
		Full:       len(s.Entries) >= form.MaxEntries,
	}
}

type sessionRequest struct {
	Kind        *string `json:"kind,omitempty"`
	SiteAddress *string `json:"site_address,omitempty"`
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := form.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	h.writeJSON(w, map[string]any{
		"kind":       kind,
		"title":      kind.Title(),
		"categories": kind.Categories(),
		"default":    kind.DefaultCategory(),
	})
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionStore.GetAll()
	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, newSessionView(session))
	}
	h.writeJSON(w, views)
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var request sessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	kindName := ""
	if request.Kind != nil {
		kindName = *request.Kind
	}
	kind, err := form.ParseKind(kindName)
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	session := form.NewSession(kind)
	if request.SiteAddress != nil {
		session.SetSiteAddress(*request.SiteAddress)
	}
	h.sessionStore.Set(session.ID, session)
	h.trackSessions()

	slog.Info("Session created", "session", session.ID, "kind", kind)
	h.writeJSONStatus(w, newSessionView(session), http.StatusCreated)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	h.writeJSON(w, newSessionView(session))
}

func (h *Handler) HandleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var request sessionRequest
	if err := decodeJSON(r, &request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	var kind form.Kind
	if request.Kind != nil {
		k, err := form.ParseKind(*request.Kind)
		if err != nil {
			h.writeFormError(w, err)
			return
		}
		kind = k
	}

	h.updateSession(w, r, func(s *form.Session) error {
		if request.Kind != nil && kind != s.Kind {
			s.SetKind(kind)
		}
		if request.SiteAddress != nil {
			s.SetSiteAddress(*request.SiteAddress)
		}
		return nil
	})
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, ok := h.getSessionOrError(w, sessionID); !ok {
		return
	}

	h.sessionStore.Delete(sessionID)
	h.trackSessions()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	h.updateSession(w, r, func(s *form.Session) error {
		_, err := s.Add()
		return err
	})
}

func (h *Handler) HandleRemoveLastEntry(w http.ResponseWriter, r *http.Request) {
	h.updateSession(w, r, func(s *form.Session) error {
		s.RemoveLast()
		return nil
	})
}

func (h *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("entryID")
	h.updateSession(w, r, func(s *form.Session) error {
		return s.Remove(entryID)
	})
}

func (h *Handler) HandleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var patch form.EntryPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	entryID := r.PathValue("entryID")
	h.updateSession(w, r, func(s *form.Session) error {
		_, err := s.Update(entryID, patch)
		return err
	})
}
