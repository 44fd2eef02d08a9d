package form

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/photoform/internal/models"
	"github.com/lehigh-university-libraries/photoform/internal/normalize"
)

// Session is one form being filled in
type Session struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	SiteAddress string    `json:"site_address"`
	Entries     []Entry   `json:"entries"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSession starts a form of the given kind with a single empty entry
func NewSession(kind Kind) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		Entries:   []Entry{NewEntry(kind)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// SetKind switches the form kind. Entries whose category is not part of the
// new vocabulary fall back to its default category.
func (s *Session) SetKind(kind Kind) {
	s.Kind = kind
	for i := range s.Entries {
		if !kind.HasCategory(s.Entries[i].Category) {
			s.Entries[i].Category = kind.DefaultCategory()
		}
	}
	s.touch()
}

// SetSiteAddress stores the address as typed
func (s *Session) SetSiteAddress(address string) {
	s.SiteAddress = address
	s.touch()
}

// Entry looks up an entry by ID
func (s *Session) Entry(id string) (Entry, error) {
	i := indexOf(s.Entries, id)
	if i < 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return s.Entries[i], nil
}

// Add appends a new default entry and returns it
func (s *Session) Add() (Entry, error) {
	entry := NewEntry(s.Kind)
	entries, err := AddEntry(s.Entries, entry)
	if err != nil {
		return Entry{}, err
	}
	s.Entries = entries
	s.touch()
	return entry, nil
}

// Remove deletes the listed entries. A form always keeps one entry, so a
// fresh default entry is added when the last one is removed.
func (s *Session) Remove(ids ...string) error {
	entries, err := RemoveEntries(s.Entries, ids...)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		entries = []Entry{NewEntry(s.Kind)}
	}
	s.Entries = entries
	s.touch()
	return nil
}

// RemoveLast deletes the final entry unless it is the only one
func (s *Session) RemoveLast() {
	s.Entries = RemoveLast(s.Entries)
	s.touch()
}

// Update applies patch after checking the category against the vocabulary
func (s *Session) Update(id string, patch EntryPatch) (Entry, error) {
	if patch.Category != nil && !s.Kind.HasCategory(*patch.Category) {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownCategory, *patch.Category)
	}

	entries, err := UpdateEntry(s.Entries, id, patch)
	if err != nil {
		return Entry{}, err
	}
	s.Entries = entries
	s.touch()
	return s.Entry(id)
}

// Attach stores photo on the entry under source
func (s *Session) Attach(id string, source Source, photo *Photo) (Entry, error) {
	entries, err := AttachPhoto(s.Entries, id, source, photo)
	if err != nil {
		return Entry{}, err
	}
	s.Entries = entries
	s.touch()
	return s.Entry(id)
}

// Detach removes the photo stored under source
func (s *Session) Detach(id string, source Source) (Entry, error) {
	entries, err := DetachPhoto(s.Entries, id, source)
	if err != nil {
		return Entry{}, err
	}
	s.Entries = entries
	s.touch()
	return s.Entry(id)
}

// Clone returns a copy whose entry slice can be changed independently.
// Photos are shared; they are never modified after decoding.
func (s *Session) Clone() *Session {
	c := *s
	c.Entries = append([]Entry(nil), s.Entries...)
	return &c
}

// Snapshot freezes the session into the document the composers render
func Snapshot(s *Session) models.DocumentSpec {
	spec := models.DocumentSpec{
		Title:       s.Kind.Title(),
		SiteAddress: s.SiteAddress,
		Entries:     make([]models.PhotoEntry, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		spec.Entries = append(spec.Entries, e.PhotoEntry())
	}
	return spec
}

// EntryInput is one entry as submitted outside an interactive session
type EntryInput struct {
	Category   string
	CustomText string
	// Photo holds raw image bytes; empty means no photo
	Photo []byte
}

// BuildSpec resolves labels and decodes photos. A photo that cannot be
// decoded leaves its entry imageless; the decode errors are logged and
// returned with the document for reporting.
func BuildSpec(title, siteAddress string, inputs []EntryInput, ratio float64) (models.DocumentSpec, []error) {
	spec := models.DocumentSpec{
		Title:       title,
		SiteAddress: siteAddress,
		Entries:     make([]models.PhotoEntry, 0, len(inputs)),
	}

	var warnings []error
	for i, in := range inputs {
		entry := models.PhotoEntry{Label: models.ResolveLabel(in.Category, in.CustomText)}

		if len(in.Photo) > 0 {
			img, err := normalize.Normalize(in.Photo, ratio)
			if err != nil {
				err = fmt.Errorf("entry %d (%s): %w", i, entry.Label.Display(), err)
				slog.Warn("Unable to decode photo, rendering entry without it", "entry", i, "label", entry.Label.Display(), "err", err)
				warnings = append(warnings, err)
			} else {
				entry.Image = img
			}
		}

		spec.Entries = append(spec.Entries, entry)
	}

	return spec, warnings
}
