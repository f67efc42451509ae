// Package view projects the snippet store into display records. The
// projection is a pure function of (snapshot, query, reveal state): no
// side effects, and identical inputs always produce identical output,
// which is what lets the UI keep its scroll position across
// poll-triggered refreshes.
package view

import (
	"fmt"

	"github.com/dkotlyar/snipstash/internal/client/search"
	"github.com/dkotlyar/snipstash/internal/models"
)

// BodyKind tells the UI how to present the record body.
type BodyKind int

const (
	// BodyText renders Body as plain preformatted text.
	BodyText BodyKind = iota
	// BodyLocked renders a placeholder; Body holds the placeholder
	// message for the snippet's type.
	BodyLocked
	// BodyImage and BodyPDF render Body as a data URI or resolved URL.
	BodyImage
	BodyPDF
	// BodyLoading marks a blob-stored file whose signed URL is not yet
	// resolved; the caller should trigger resolution as a side effect.
	BodyLoading
)

// RevealState is the read-only reveal surface the projection needs.
type RevealState interface {
	IsUnlocked(id int64) bool
	Plaintext(id int64) (string, bool)
}

// Record is one display row: everything the UI needs, nothing it should
// compute itself.
type Record struct {
	ID         int64
	Title      string
	TitleSpans []search.Span
	Timestamp  string

	Kind     BodyKind
	Body     string
	FileName string

	// NeedsURL asks the caller to resolve a signed URL for this record.
	NeedsURL bool

	Hidden   bool
	Locked   bool
	CanCopy  bool
	CanSave  bool
}

// Project filters the snapshot by the query and resolves each snippet
// to a display record.
func Project(snapshot []models.Snippet, query string, state RevealState) []Record {
	records := make([]Record, 0, len(snapshot))
	for _, s := range snapshot {
		if !search.Match(s.Title, s.Timestamp, query) {
			continue
		}
		records = append(records, project(s, query, state))
	}
	return records
}

func project(s models.Snippet, query string, state RevealState) Record {
	r := Record{
		ID:         s.ID,
		Title:      s.Title,
		TitleSpans: search.Spans(s.Title, query),
		Timestamp:  s.Timestamp,
		FileName:   s.FileName,
		Hidden:     s.Hidden,
		CanCopy:    s.ContentType == models.ContentTypeText,
		CanSave:    s.ContentType.IsFile(),
	}

	locked := s.Hidden && !state.IsUnlocked(s.ID)
	r.Locked = locked

	if locked {
		r.Kind = BodyLocked
		r.Body = lockedPlaceholder(s.ContentType)
		return r
	}

	body := s.Content
	if plain, ok := state.Plaintext(s.ID); ok {
		body = plain
	}

	switch s.ContentType {
	case models.ContentTypeImage, models.ContentTypePDF:
		fileURL := s.FileURL
		if fileURL == "" {
			fileURL = body
		}
		if fileURL == "" && s.StoragePath != "" {
			r.Kind = BodyLoading
			r.Body = loadingPlaceholder(s.ContentType)
			r.NeedsURL = true
			return r
		}
		if s.ContentType == models.ContentTypeImage {
			r.Kind = BodyImage
		} else {
			r.Kind = BodyPDF
		}
		r.Body = fileURL
	default:
		r.Kind = BodyText
		r.Body = body
	}
	return r
}

func lockedPlaceholder(t models.ContentType) string {
	switch t {
	case models.ContentTypeImage:
		return "🔒 Image is hidden"
	case models.ContentTypePDF:
		return "🔒 PDF is hidden"
	default:
		return "🔒 Content is hidden"
	}
}

func loadingPlaceholder(t models.ContentType) string {
	switch t {
	case models.ContentTypePDF:
		return "⏳ Loading PDF..."
	default:
		return "⏳ Loading image..."
	}
}

// Summary builds the transient notification for an applied refresh,
// e.g. "Data updated (+2 new)" or "Data updated (1 removed)". A zero
// delta produces no message.
func Summary(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("Data updated (+%d new)", delta)
	case delta < 0:
		return fmt.Sprintf("Data updated (%d removed)", -delta)
	default:
		return ""
	}
}
