// Package models defines the snippet entity shared by the client engine
// and the backing service.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dkotlyar/snipstash/internal/common"
)

// ContentType classifies a snippet payload.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypePDF   ContentType = "pdf"
)

func (t ContentType) IsFile() bool {
	return t == ContentTypeImage || t == ContentTypePDF
}

// Snippet is the central entity. IDs are creation-timestamp milliseconds,
// so numeric-descending order equals newest-first insertion order.
//
// For file types, at most one of Content / StoragePath is set: Content
// holds an inline base64 data URI, StoragePath references the blob store.
// FileURL is an ephemeral signed URL resolved per session and never
// persisted.
type Snippet struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	ContentType ContentType `json:"contentType"`
	Content     string      `json:"content,omitempty"`
	StoragePath string      `json:"storagePath,omitempty"`
	FileURL     string      `json:"fileUrl,omitempty"`
	FileName    string      `json:"fileName,omitempty"`
	FileType    string      `json:"fileType,omitempty"`
	Password    string      `json:"password"`
	Hidden      bool        `json:"hidden"`
	IsEncrypted bool        `json:"isEncrypted"`
	Timestamp   string      `json:"timestamp"`
}

// NewID derives a snippet identity from the current wall clock,
// matching the historical id scheme (milliseconds since the epoch).
func NewID(now time.Time) int64 {
	return now.UnixMilli()
}

// Validate checks the fields every snippet must carry before a save.
func (s *Snippet) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if strings.TrimSpace(s.Password) == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	switch s.ContentType {
	case ContentTypeText:
		if strings.TrimSpace(s.Content) == "" {
			return fmt.Errorf("%w: content is required", common.ErrValidation)
		}
	case ContentTypeImage, ContentTypePDF:
		if s.Content == "" && s.StoragePath == "" {
			return fmt.Errorf("%w: file payload is required", common.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown content type %q", common.ErrValidation, s.ContentType)
	}
	return nil
}

// UnmarshalJSON normalizes identities at the ingestion boundary: ids have
// historically arrived both as numbers and as strings, and every internal
// comparison assumes int64.
func (s *Snippet) UnmarshalJSON(data []byte) error {
	type alias Snippet
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.ID) == 0 {
		return nil
	}

	id, err := ParseID(strings.Trim(string(aux.ID), `"`))
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// ParseID converts an external identity (decimal string) to int64.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snippet id %q: %w", raw, err)
	}
	return id, nil
}
