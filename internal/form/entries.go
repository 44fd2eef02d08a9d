// Package form holds the interactive billing form state: the kind of form,
// the site address and the ordered list of photo entries being collected.
// Entry list operations never modify their input slice.
package form

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/photoform/internal/models"
	"github.com/lehigh-university-libraries/photoform/internal/normalize"
)

// MaxEntries is the most photos a form can collect
const MaxEntries = 9

var (
	ErrTooManyEntries  = errors.New("form already holds the maximum number of photos")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrUnknownKind     = errors.New("unknown form kind")
	ErrUnknownCategory = errors.New("category not available for this form kind")
	ErrUnknownSource   = errors.New("unknown photo source")
)

// Source tells where an attached photo came from
type Source string

const (
	SourceCamera Source = "camera"
	SourceUpload Source = "upload"
)

// ParseSource accepts "camera" or "upload"; blank means upload
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceCamera:
		return SourceCamera, nil
	case SourceUpload, "":
		return SourceUpload, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
}

// Photo is a normalized image attached to an entry
type Photo struct {
	Image      image.Image `json:"-"`
	Filename   string      `json:"filename,omitempty"`
	Size       int         `json:"size"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	AttachedAt time.Time   `json:"attached_at"`
}

// DecodePhoto normalizes uploaded bytes into a Photo. The returned error
// wraps normalize.ErrDecode when data is not an image.
func DecodePhoto(data []byte, filename string, ratio float64) (*Photo, error) {
	img, err := normalize.Normalize(data, ratio)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &Photo{
		Image:      img,
		Filename:   filename,
		Size:       len(data),
		Width:      b.Dx(),
		Height:     b.Dy(),
		AttachedAt: time.Now(),
	}, nil
}

// Entry is one labeled photo slot. A camera capture and a file upload can be
// held at the same time; the camera capture is used when both are present.
type Entry struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	CustomText string `json:"custom_text"`
	Camera     *Photo `json:"camera,omitempty"`
	Upload     *Photo `json:"upload,omitempty"`
}

// NewEntry returns an empty entry set to the kind's default category
func NewEntry(kind Kind) Entry {
	return Entry{
		ID:       uuid.NewString(),
		Category: kind.DefaultCategory(),
	}
}

// Photo returns the photo that will be printed, or nil
func (e Entry) Photo() *Photo {
	if e.Camera != nil {
		return e.Camera
	}
	return e.Upload
}

// Label resolves the caption of the entry
func (e Entry) Label() models.Label {
	return models.ResolveLabel(e.Category, e.CustomText)
}

// PhotoEntry converts the entry into its document form
func (e Entry) PhotoEntry() models.PhotoEntry {
	entry := models.PhotoEntry{Label: e.Label()}
	if p := e.Photo(); p != nil {
		entry.Image = p.Image
	}
	return entry
}

// EntryPatch holds the fields UpdateEntry may change; nil fields are kept
type EntryPatch struct {
	Category   *string `json:"category,omitempty"`
	CustomText *string `json:"custom_text,omitempty"`
}

func indexOf(entries []Entry, id string) int {
	return slices.IndexFunc(entries, func(e Entry) bool { return e.ID == id })
}

// AddEntry appends entry, failing once MaxEntries is reached
func AddEntry(entries []Entry, entry Entry) ([]Entry, error) {
	if len(entries) >= MaxEntries {
		return entries, ErrTooManyEntries
	}

	out := make([]Entry, len(entries), len(entries)+1)
	copy(out, entries)
	return append(out, entry), nil
}

// RemoveEntries drops every entry whose ID is listed. Unknown IDs fail the
// whole call and nothing is removed.
func RemoveEntries(entries []Entry, ids ...string) ([]Entry, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if indexOf(entries, id) < 0 {
			return entries, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}
		drop[id] = true
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !drop[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

// RemoveLast drops the final entry but never the only one
func RemoveLast(entries []Entry) []Entry {
	if len(entries) <= 1 {
		return slices.Clone(entries)
	}
	return slices.Clone(entries[:len(entries)-1])
}

// UpdateEntry applies patch to the entry with the given ID
func UpdateEntry(entries []Entry, id string, patch EntryPatch) ([]Entry, error) {
	i := indexOf(entries, id)
	if i < 0 {
		return entries, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	out := slices.Clone(entries)
	if patch.Category != nil {
		out[i].Category = *patch.Category
	}
	if patch.CustomText != nil {
		out[i].CustomText = *patch.CustomText
	}
	return out, nil
}

// AttachPhoto stores photo in the slot for source, replacing what was there
func AttachPhoto(entries []Entry, id string, source Source, photo *Photo) ([]Entry, error) {
	return setPhoto(entries, id, source, photo)
}

// DetachPhoto clears the slot for source
func DetachPhoto(entries []Entry, id string, source Source) ([]Entry, error) {
	return setPhoto(entries, id, source, nil)
}

func setPhoto(entries []Entry, id string, source Source, photo *Photo) ([]Entry, error) {
	i := indexOf(entries, id)
	if i < 0 {
		return entries, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	out := slices.Clone(entries)
	switch source {
	case SourceCamera:
		out[i].Camera = photo
	case SourceUpload:
		out[i].Upload = photo
	default:
		return entries, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return out, nil
}
