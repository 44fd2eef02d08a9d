package handlers

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/photoform/internal/compose"
	"github.com/lehigh-university-libraries/photoform/internal/filename"
	"github.com/lehigh-university-libraries/photoform/internal/form"
	"github.com/lehigh-university-libraries/photoform/internal/models"
	"github.com/lehigh-university-libraries/photoform/internal/sheet"
)

// HandleLayout returns the computed geometry of the session's document as YAML
func (h *Handler) HandleLayout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	out, err := yaml.Marshal(h.composer.Layout(form.Snapshot(session)))
	if err != nil {
		h.writeError(w, "Failed to encode layout: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(out)
}

func (h *Handler) HandleDocumentPDF(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, "pdf", compose.ContentTypePDF, h.composer.ComposePDF)
}

func (h *Handler) HandleDocumentXLSX(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, "xlsx", sheet.ContentTypeXLSX, func(spec models.DocumentSpec) ([]byte, error) {
		return sheet.ComposeXLSX(spec, h.composer.LayoutConfig())
	})
}

func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request, format, contentType string, render func(models.DocumentSpec) ([]byte, error)) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	spec := form.Snapshot(session)

	start := time.Now()
	data, err := render(spec)
	if h.metrics != nil {
		h.metrics.ObserveRender(format, start, err)
	}
	if err != nil {
		h.writeError(w, "Failed to render document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	name := filename.ForDocument(spec.SiteAddress, spec.Title, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	_, _ = w.Write(data)
}
