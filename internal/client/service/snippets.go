// Package service is the operation layer of the client: each public
// method is one user-facing operation (add, delete, copy, download,
// resolve URL), combining the store, the remote client, the crypto
// gateway and the reveal engine, with optimistic local mutation and
// rollback on remote failure.
package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dkotlyar/snipstash/internal/client/remote"
	"github.com/dkotlyar/snipstash/internal/client/store"
	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/logging"
	"github.com/dkotlyar/snipstash/internal/models"
)

// apiPayloadCeiling is the request-size ceiling of the primary API.
// Larger non-encrypted files bypass it via a direct blob upload;
// encrypted files must still route through the API because their
// ciphertext is produced server-side.
const apiPayloadCeiling = 3 << 20

// Remote is the persistence surface the service needs.
type Remote interface {
	ListAll(ctx context.Context) ([]models.Snippet, error)
	Save(ctx context.Context, s *models.Snippet) (*models.Snippet, error)
	SaveAll(ctx context.Context, snippets []models.Snippet) error
	Remove(ctx context.Context, id int64) error
	GetSignedURL(ctx context.Context, id int64) (string, error)
	GetUploadURL(ctx context.Context, id int64, fileName string) (*remote.UploadTarget, error)
	UploadBlobDirect(ctx context.Context, uploadURL string, data []byte, contentType string) error
	FetchURL(ctx context.Context, url string) ([]byte, error)
}

// Encrypter is the crypto gateway surface for the add path.
type Encrypter interface {
	Encrypt(ctx context.Context, plaintext, passphrase string) (string, error)
}

// Revealer is the reveal-engine surface used for exports and cleanup.
type Revealer interface {
	ExportContent(ctx context.Context, id int64) (string, error)
	Forget(id int64)
	MarkViewing(id int64)
}

type Snippets struct {
	store  *store.Store
	remote Remote
	crypto Encrypter
	reveal Revealer
	saver  *Saver
	log    logging.Logger

	now func() time.Time
}

func NewSnippets(st *store.Store, rc Remote, enc Encrypter, rev Revealer, log logging.Logger) *Snippets {
	s := &Snippets{
		store:  st,
		remote: rc,
		crypto: enc,
		reveal: rev,
		log:    log,
		now:    time.Now,
	}
	// the flush snapshots the store at flush time, so a trailing
	// coalesced flush carries every edit queued behind the first one
	s.saver = NewSaver(func(ctx context.Context) error {
		return rc.SaveAll(ctx, st.Snapshot())
	})
	return s
}

// Load performs the initial full fetch and replaces the store.
func (s *Snippets) Load(ctx context.Context) ([]models.Snippet, error) {
	snippets, err := s.remote.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snippets: %w", err)
	}
	s.store.ReplaceAll(snippets)
	return s.store.Snapshot(), nil
}

// AddInput is the user's add-form payload. Content is either plain text
// or a base64 data URI for files.
type AddInput struct {
	Title       string
	ContentType models.ContentType
	Content     string
	FileName    string
	FileType    string
	Password    string
	Hide        bool
}

// Add creates a snippet: encrypt when hidden, prepend optimistically,
// save through the coalescing queue, adopt the server-canonical shape.
// On save failure the optimistic insert is rolled back.
func (s *Snippets) Add(ctx context.Context, in AddInput) (*models.Snippet, error) {
	now := s.now()
	snippet := models.Snippet{
		ID:          models.NewID(now),
		Title:       strings.TrimSpace(in.Title),
		ContentType: in.ContentType,
		Content:     in.Content,
		FileName:    in.FileName,
		FileType:    in.FileType,
		Password:    strings.TrimSpace(in.Password),
		Hidden:      in.Hide,
		IsEncrypted: in.Hide,
		Timestamp:   now.Format("1/2/2006, 3:04:05 PM"),
	}
	if err := snippet.Validate(); err != nil {
		return nil, err
	}

	if in.Hide {
		encrypted, err := s.crypto.Encrypt(ctx, snippet.Content, snippet.Password)
		if err != nil {
			return nil, err
		}
		snippet.Content = encrypted
	} else if snippet.ContentType.IsFile() && len(snippet.Content) > apiPayloadCeiling {
		if err := s.uploadDirect(ctx, &snippet); err != nil {
			return nil, err
		}
	}

	s.store.Add(snippet)

	if err := s.persist(ctx, &snippet); err != nil {
		s.store.Remove(snippet.ID)
		return nil, fmt.Errorf("saving snippet: %w", err)
	}

	saved, _ := s.store.FindByID(snippet.ID)
	return &saved, nil
}

// Hide password-protects an existing snippet: its content is encrypted
// through the crypto gateway and the row is persisted as hidden. Blob
// stored files are pulled back first because encrypted payloads must
// route through the API. On save failure the snippet is restored as it
// was.
func (s *Snippets) Hide(ctx context.Context, id int64, password string) error {
	snippet, ok := s.store.FindByID(id)
	if !ok {
		return fmt.Errorf("snippet %d: %w", id, common.ErrNotFound)
	}
	if snippet.Hidden {
		return nil
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}

	plain := snippet.Content
	if snippet.ContentType.IsFile() && plain == "" && snippet.StoragePath != "" {
		url, err := s.ResolveFileURL(ctx, id)
		if err != nil {
			return err
		}
		data, err := s.remote.FetchURL(ctx, url)
		if err != nil {
			return err
		}
		plain = fmt.Sprintf("data:%s;base64,%s", snippet.FileType, base64.StdEncoding.EncodeToString(data))
	}

	encrypted, err := s.crypto.Encrypt(ctx, plain, password)
	if err != nil {
		return err
	}

	backup := snippet
	snippet.Content = encrypted
	snippet.StoragePath = ""
	snippet.FileURL = ""
	snippet.Password = password
	snippet.Hidden = true
	snippet.IsEncrypted = true
	s.store.Add(snippet)

	if err := s.persist(ctx, &snippet); err != nil {
		s.store.Add(backup)
		return fmt.Errorf("hiding snippet: %w", err)
	}
	return nil
}

// persist writes one modified snippet: file rows save individually so
// the server-assigned shape can be adopted, text rows go through the
// coalesced full-state flush.
func (s *Snippets) persist(ctx context.Context, snippet *models.Snippet) error {
	if snippet.ContentType.IsFile() {
		saved, err := s.remote.Save(ctx, snippet)
		if err != nil {
			return err
		}
		s.store.Add(*saved)
		return nil
	}
	return s.saver.Save(ctx)
}

// uploadDirect moves an oversized non-encrypted file payload straight
// to the blob store before the row is saved.
func (s *Snippets) uploadDirect(ctx context.Context, snippet *models.Snippet) error {
	data, err := dataURIBytes(snippet.Content)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	target, err := s.remote.GetUploadURL(ctx, snippet.ID, snippet.FileName)
	if err != nil {
		return fmt.Errorf("requesting upload target: %w", err)
	}
	if err := s.remote.UploadBlobDirect(ctx, target.UploadURL, data, snippet.FileType); err != nil {
		return fmt.Errorf("direct upload: %w", err)
	}

	snippet.StoragePath = target.StoragePath
	snippet.Content = ""
	return nil
}

// Delete removes the snippet locally first, then remotely. On remote
// failure the optimistic removal is rolled back (the store inserts in
// id order, so the row returns to its old position). Password checks
// belong to the caller; Delete itself is unconditional.
func (s *Snippets) Delete(ctx context.Context, id int64) error {
	snippet, ok := s.store.FindByID(id)
	if !ok {
		return fmt.Errorf("snippet %d: %w", id, common.ErrNotFound)
	}

	s.store.Remove(id)

	if err := s.remote.Remove(ctx, id); err != nil {
		s.store.Add(snippet)
		return fmt.Errorf("deleting snippet: %w", err)
	}

	s.reveal.Forget(id)
	return nil
}

// Copy resolves the full text content for the clipboard, going through
// the one-shot decrypt path when the snippet is hidden.
func (s *Snippets) Copy(ctx context.Context, id int64) (string, error) {
	if _, ok := s.store.FindByID(id); !ok {
		return "", fmt.Errorf("snippet %d: %w", id, common.ErrNotFound)
	}
	return s.reveal.ExportContent(ctx, id)
}

// Download resolves the file bytes and a suggested file name. Encrypted
// files are decrypted via the one-shot export path; plain blob-stored
// files are fetched through a signed URL.
func (s *Snippets) Download(ctx context.Context, id int64) ([]byte, string, error) {
	snippet, ok := s.store.FindByID(id)
	if !ok {
		return nil, "", fmt.Errorf("snippet %d: %w", id, common.ErrNotFound)
	}

	name := snippet.FileName
	if name == "" {
		name = fmt.Sprintf("file-%d", snippet.ID)
	}

	if snippet.IsEncrypted {
		plain, err := s.reveal.ExportContent(ctx, id)
		if err != nil {
			return nil, "", err
		}
		data, err := dataURIBytes(plain)
		if err != nil {
			return nil, "", fmt.Errorf("%w: decrypted payload is not a file: %v", common.ErrCrypto, err)
		}
		return data, name, nil
	}

	if snippet.StoragePath != "" {
		s.reveal.MarkViewing(id)
		url, err := s.ResolveFileURL(ctx, id)
		if err != nil {
			return nil, "", err
		}
		data, err := s.remote.FetchURL(ctx, url)
		if err != nil {
			return nil, "", err
		}
		return data, name, nil
	}

	data, err := dataURIBytes(snippet.Content)
	if err != nil {
		return nil, "", fmt.Errorf("%w: no file payload: %v", common.ErrNotFound, err)
	}
	return data, name, nil
}

// ResolveFileURL fetches a fresh signed URL for a blob-stored snippet
// and records it on the store for the current session.
func (s *Snippets) ResolveFileURL(ctx context.Context, id int64) (string, error) {
	url, err := s.remote.GetSignedURL(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolving file url: %w", err)
	}
	s.store.SetFileURL(id, url)
	return url, nil
}

// dataURIBytes decodes the payload of a "data:<type>;base64,..." URI,
// accepting bare base64 as a legacy fallback.
func dataURIBytes(uri string) ([]byte, error) {
	payload := uri
	if i := strings.Index(uri, "base64,"); i >= 0 {
		payload = uri[i+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, nil
}
