// Package reveal implements the session-scoped unlock state machine:
// password-gated reveal of hidden snippets, the plaintext cache held
// while unlocked, and the viewing/dialog flags that suppress background
// refreshes.
package reveal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/models"
)

// ErrCancelled reports that the user dismissed a prompt. The whole
// operation aborts with no state change.
var ErrCancelled = errors.New("cancelled")

// Prompter models modal dialogs as an explicit request/response step.
// The second return value is false when the user cancelled.
type Prompter interface {
	Password(ctx context.Context, prompt string) (string, bool, error)
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Finder looks snippets up in the local store.
type Finder interface {
	FindByID(id int64) (models.Snippet, bool)
}

// RawFetcher fetches stored (possibly encrypted) bytes for a snippet.
type RawFetcher interface {
	GetRawContent(ctx context.Context, id int64) (string, error)
}

// Decrypter is the crypto gateway surface the engine needs.
type Decrypter interface {
	Decrypt(ctx context.Context, ciphertext, passphrase string) (string, error)
}

// DefaultViewingCooldown is how long a just-revealed snippet is shielded
// from background refreshes.
const DefaultViewingCooldown = 30 * time.Second

// Engine owns the unlocked set, the plaintext cache and the
// viewing/dialog suppression state. All state is session-scoped and
// gone on restart.
type Engine struct {
	prompter Prompter
	finder   Finder
	fetcher  RawFetcher
	crypto   Decrypter

	mu       sync.Mutex
	unlocked map[int64]struct{}
	cache    map[int64]string
	viewing  map[int64]time.Time
	dialogs  int

	cooldown time.Duration
	now      func() time.Time
}

func NewEngine(prompter Prompter, finder Finder, fetcher RawFetcher, crypto Decrypter) *Engine {
	return &Engine{
		prompter: prompter,
		finder:   finder,
		fetcher:  fetcher,
		crypto:   crypto,
		unlocked: make(map[int64]struct{}),
		cache:    make(map[int64]string),
		viewing:  make(map[int64]time.Time),
		cooldown: DefaultViewingCooldown,
		now:      time.Now,
	}
}

// Unlock transitions a hidden snippet Locked -> Unlocked: prompt for the
// passphrase, check it against the stored password, decrypt if needed,
// cache the plaintext and shield the snippet from refreshes for the
// cooldown window. Already-unlocked snippets return immediately without
// a second decrypt call.
func (e *Engine) Unlock(ctx context.Context, id int64) error {
	snippet, ok := e.finder.FindByID(id)
	if !ok {
		return fmt.Errorf("snippet %d: %w", id, common.ErrNotFound)
	}
	if !snippet.Hidden || e.IsUnlocked(id) {
		return nil
	}

	password, err := e.askPassword(ctx, "Enter password to view content")
	if err != nil {
		return err
	}
	if password != snippet.Password {
		return common.ErrAuthorization
	}

	if snippet.IsEncrypted {
		plain, err := e.decryptSnippet(ctx, snippet, password)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.cache[id] = plain
		e.mu.Unlock()
	}

	e.mu.Lock()
	e.unlocked[id] = struct{}{}
	e.viewing[id] = e.now().Add(e.cooldown)
	e.mu.Unlock()
	return nil
}

// Lock clears the plaintext cache and the unlock flag immediately.
// No confirmation is required.
func (e *Engine) Lock(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.unlocked, id)
	delete(e.cache, id)
	delete(e.viewing, id)
}

// Forget drops all session state for a deleted snippet.
func (e *Engine) Forget(id int64) {
	e.Lock(id)
}

func (e *Engine) IsUnlocked(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.unlocked[id]
	return ok
}

// Plaintext returns the cached decrypted payload while unlocked.
func (e *Engine) Plaintext(id int64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.cache[id]
	return v, ok
}

// ExportContent is the one-shot decrypt-for-this-action path used by
// copy and download. It reuses the same password/decrypt flow but never
// caches or unlocks when the snippet is locked: viewing and exporting
// are independent permissions granted per request.
func (e *Engine) ExportContent(ctx context.Context, id int64) (string, error) {
	snippet, ok := e.finder.FindByID(id)
	if !ok {
		return "", fmt.Errorf("snippet %d: %w", id, common.ErrNotFound)
	}

	if !snippet.IsEncrypted {
		return snippet.Content, nil
	}
	if plain, ok := e.Plaintext(id); ok {
		return plain, nil
	}

	password, err := e.askPassword(ctx, "Enter password to export content")
	if err != nil {
		return "", err
	}
	if password != snippet.Password {
		return "", common.ErrAuthorization
	}
	return e.decryptSnippet(ctx, snippet, password)
}

// MarkViewing shields the snippet from background refreshes for the
// cooldown window (e.g. while its blob URL is loading).
func (e *Engine) MarkViewing(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewing[id] = e.now().Add(e.cooldown)
}

// SuppressRefresh reports whether a background refresh must be skipped:
// a dialog is open or any snippet is mid-interaction.
func (e *Engine) SuppressRefresh() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dialogs > 0 {
		return true
	}
	now := e.now()
	for id, deadline := range e.viewing {
		if deadline.After(now) {
			return true
		}
		delete(e.viewing, id)
	}
	return false
}

// BeginDialog marks a blocking prompt as open: background refreshes
// hold off until the matching EndDialog. Callers outside the engine
// (the add form, the delete confirmation) use this pair to get the same
// protection the engine's own prompts have.
func (e *Engine) BeginDialog() {
	e.mu.Lock()
	e.dialogs++
	e.mu.Unlock()
}

func (e *Engine) EndDialog() {
	e.mu.Lock()
	e.dialogs--
	e.mu.Unlock()
}

func (e *Engine) askPassword(ctx context.Context, prompt string) (string, error) {
	e.BeginDialog()
	defer e.EndDialog()

	password, ok, err := e.prompter.Password(ctx, prompt)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCancelled
	}
	return password, nil
}

func (e *Engine) decryptSnippet(ctx context.Context, snippet models.Snippet, password string) (string, error) {
	ciphertext := snippet.Content
	if ciphertext == "" && snippet.StoragePath != "" {
		raw, err := e.fetcher.GetRawContent(ctx, snippet.ID)
		if err != nil {
			return "", fmt.Errorf("fetching encrypted content: %w", err)
		}
		ciphertext = raw
	}
	plain, err := e.crypto.Decrypt(ctx, ciphertext, password)
	if err != nil {
		return "", err
	}
	return plain, nil
}
