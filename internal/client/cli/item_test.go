package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dkotlyar/snipstash/internal/client/localstate"
	"github.com/dkotlyar/snipstash/internal/client/remote"
	"github.com/dkotlyar/snipstash/internal/client/reveal"
	"github.com/dkotlyar/snipstash/internal/client/service"
	"github.com/dkotlyar/snipstash/internal/client/store"
	"github.com/dkotlyar/snipstash/internal/client/syncer"
	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/logging"
	"github.com/dkotlyar/snipstash/internal/models"
)

// cliRemote is an in-memory stand-in for the remote client, covering
// the persistence surface, the raw-content fetch and the poller's list.
type cliRemote struct {
	mu        sync.Mutex
	items     []models.Snippet
	listErr   error
	listCalls int
	removed   []int64
}

func (r *cliRemote) ListAll(ctx context.Context) ([]models.Snippet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]models.Snippet(nil), r.items...), nil
}

func (r *cliRemote) Save(ctx context.Context, s *models.Snippet) (*models.Snippet, error) {
	return s, nil
}

func (r *cliRemote) SaveAll(ctx context.Context, snippets []models.Snippet) error { return nil }

func (r *cliRemote) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return nil
}

func (r *cliRemote) GetSignedURL(ctx context.Context, id int64) (string, error) { return "", nil }

func (r *cliRemote) GetUploadURL(ctx context.Context, id int64, fileName string) (*remote.UploadTarget, error) {
	return &remote.UploadTarget{}, nil
}

func (r *cliRemote) UploadBlobDirect(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	return nil
}

func (r *cliRemote) FetchURL(ctx context.Context, url string) ([]byte, error) { return nil, nil }

func (r *cliRemote) GetRawContent(ctx context.Context, id int64) (string, error) { return "", nil }

// cliCrypto passes content through unchanged on both directions.
type cliCrypto struct{}

func (cliCrypto) Encrypt(ctx context.Context, plaintext, passphrase string) (string, error) {
	return plaintext, nil
}

func (cliCrypto) Decrypt(ctx context.Context, ciphertext, passphrase string) (string, error) {
	return ciphertext, nil
}

// newTestApp wires a full App over fakes: real store, engine, service
// and poller; terminal input comes from the given string.
func newTestApp(t *testing.T, input string, rc *cliRemote) (*App, *bytes.Buffer) {
	t.Helper()

	db, err := localstate.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	out := &bytes.Buffer{}
	a := &App{
		store:  store.New(),
		state:  localstate.NewRepository(db),
		log:    logging.Discard(),
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    out,
		loaded: true,
	}
	a.prompter = &terminalPrompter{reader: a.reader, out: a.out}
	a.reveal = reveal.NewEngine(a.prompter, a.store, rc, cliCrypto{})
	a.service = service.NewSnippets(a.store, rc, cliCrypto{}, a.reveal, a.log)
	a.poller = syncer.NewPoller(rc, a.store, a.reveal, a.log, syncer.WithNotify(a.notifyRefresh))
	return a, out
}

func stubPassword(t *testing.T, fn func(int) ([]byte, error)) {
	t.Helper()
	old := readPassword
	readPassword = fn
	t.Cleanup(func() { readPassword = old })
}

func textSnippet(id int64, title, password string) models.Snippet {
	return models.Snippet{
		ID:          id,
		Title:       title,
		ContentType: models.ContentTypeText,
		Content:     "body",
		Password:    password,
	}
}

func TestDelete_NotConfirmedKeepsSnippet(t *testing.T) {
	rc := &cliRemote{}
	a, out := newTestApp(t, "n\n", rc)
	a.store.Add(textSnippet(1, "Note", "pw"))
	stubPassword(t, func(int) ([]byte, error) { return []byte("pw"), nil })

	err := a.Delete(context.Background(), "1")
	if !errors.Is(err, reveal.ErrCancelled) {
		t.Fatalf("want ErrCancelled, got %v", err)
	}
	if len(rc.removed) != 0 {
		t.Fatalf("remote delete must not run, got %v", rc.removed)
	}
	if _, ok := a.store.FindByID(1); !ok {
		t.Fatal("snippet must survive a declined confirmation")
	}
	if !strings.Contains(out.String(), "Are you sure") {
		t.Fatalf("confirmation prompt missing, output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Cancelled.") {
		t.Fatalf("cancel notice missing, output:\n%s", out.String())
	}
}

func TestDelete_Confirmed(t *testing.T) {
	rc := &cliRemote{}
	a, out := newTestApp(t, "y\n", rc)
	a.store.Add(textSnippet(1, "Note", "pw"))
	stubPassword(t, func(int) ([]byte, error) { return []byte("pw"), nil })

	if err := a.Delete(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	if len(rc.removed) != 1 || rc.removed[0] != 1 {
		t.Fatalf("want remote delete of 1, got %v", rc.removed)
	}
	if _, ok := a.store.FindByID(1); ok {
		t.Fatal("snippet must be gone from the store")
	}
	if !strings.Contains(out.String(), "Deleted snippet 1") {
		t.Fatalf("delete notice missing, output:\n%s", out.String())
	}
}

func TestDelete_WrongPassword(t *testing.T) {
	rc := &cliRemote{}
	a, out := newTestApp(t, "", rc)
	a.store.Add(textSnippet(1, "Note", "pw"))
	stubPassword(t, func(int) ([]byte, error) { return []byte("nope"), nil })

	err := a.Delete(context.Background(), "1")
	if !errors.Is(err, common.ErrAuthorization) {
		t.Fatalf("want ErrAuthorization, got %v", err)
	}
	if len(rc.removed) != 0 {
		t.Fatalf("remote delete must not run, got %v", rc.removed)
	}
	if !strings.Contains(out.String(), "Incorrect password") {
		t.Fatalf("password notice missing, output:\n%s", out.String())
	}
}

func TestDelete_PromptBlocksBackgroundRefresh(t *testing.T) {
	rc := &cliRemote{}
	a, _ := newTestApp(t, "y\n", rc)
	a.store.Add(textSnippet(1, "Note", "pw"))

	var suppressed bool
	stubPassword(t, func(int) ([]byte, error) {
		suppressed = a.reveal.SuppressRefresh()
		return []byte("pw"), nil
	})

	if err := a.Delete(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	if !suppressed {
		t.Fatal("refreshes must be suppressed while the delete prompt is open")
	}
	if a.reveal.SuppressRefresh() {
		t.Fatal("suppression must clear once the prompts close")
	}
}

func TestAdd_PromptsBlockBackgroundRefresh(t *testing.T) {
	rc := &cliRemote{}
	a, _ := newTestApp(t, "My note\nn\nbody\n\n", rc)

	var suppressed bool
	stubPassword(t, func(int) ([]byte, error) {
		suppressed = a.reveal.SuppressRefresh()
		return []byte("pw"), nil
	})

	if err := a.Add(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !suppressed {
		t.Fatal("refreshes must be suppressed while the add form is open")
	}
	if a.reveal.SuppressRefresh() {
		t.Fatal("suppression must clear once the form closes")
	}
	if a.store.Len() != 1 {
		t.Fatalf("want 1 snippet after add, got %d", a.store.Len())
	}

	// Typing also arms the quiet period, so a tick right after the form
	// closes stays off the wire.
	before := rc.listCalls
	a.poller.CheckNow(context.Background())
	if rc.listCalls != before {
		t.Fatal("a tick inside the quiet period must not hit the server")
	}
}
