package reveal

import (
	"context"
	"testing"
	"time"

	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	password  string
	cancelled bool
	calls     int
}

func (f *fakePrompter) Password(ctx context.Context, prompt string) (string, bool, error) {
	f.calls++
	if f.cancelled {
		return "", false, nil
	}
	return f.password, true, nil
}

func (f *fakePrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	return true, nil
}

type fakeFinder map[int64]models.Snippet

func (f fakeFinder) FindByID(id int64) (models.Snippet, bool) {
	s, ok := f[id]
	return s, ok
}

type fakeCrypto struct {
	calls int
	fail  bool
}

func (f *fakeCrypto) Decrypt(ctx context.Context, ciphertext, passphrase string) (string, error) {
	f.calls++
	if f.fail {
		return "", common.ErrCrypto
	}
	return "plain:" + ciphertext, nil
}

type fakeFetcher struct {
	content string
	calls   int
}

func (f *fakeFetcher) GetRawContent(ctx context.Context, id int64) (string, error) {
	f.calls++
	return f.content, nil
}

func hiddenSnippet(id int64) models.Snippet {
	return models.Snippet{
		ID: id, Title: "t", ContentType: models.ContentTypeText,
		Content: "CIPHER", Password: "secret", Hidden: true, IsEncrypted: true,
	}
}

func newTestEngine(p *fakePrompter, f Finder, c *fakeCrypto, fetch *fakeFetcher) *Engine {
	if fetch == nil {
		fetch = &fakeFetcher{}
	}
	return NewEngine(p, f, fetch, c)
}

func TestUnlock_HappyPathAndIdempotence(t *testing.T) {
	p := &fakePrompter{password: "secret"}
	c := &fakeCrypto{}
	e := newTestEngine(p, fakeFinder{1: hiddenSnippet(1)}, c, nil)
	ctx := context.Background()

	require.NoError(t, e.Unlock(ctx, 1))
	require.True(t, e.IsUnlocked(1))

	plain, ok := e.Plaintext(1)
	require.True(t, ok)
	assert.Equal(t, "plain:CIPHER", plain)

	// unlocking again: same plaintext, no second decrypt call
	require.NoError(t, e.Unlock(ctx, 1))
	again, _ := e.Plaintext(1)
	assert.Equal(t, plain, again)
	assert.Equal(t, 1, c.calls)
}

func TestUnlock_WrongPassword(t *testing.T) {
	p := &fakePrompter{password: "wrong"}
	c := &fakeCrypto{}
	e := newTestEngine(p, fakeFinder{1: hiddenSnippet(1)}, c, nil)

	err := e.Unlock(context.Background(), 1)
	require.ErrorIs(t, err, common.ErrAuthorization)
	assert.False(t, e.IsUnlocked(1))
	assert.Zero(t, c.calls, "no decrypt without authorization")
}

func TestUnlock_Cancelled(t *testing.T) {
	p := &fakePrompter{cancelled: true}
	e := newTestEngine(p, fakeFinder{1: hiddenSnippet(1)}, &fakeCrypto{}, nil)

	err := e.Unlock(context.Background(), 1)
	require.ErrorIs(t, err, ErrCancelled)
	assert.False(t, e.IsUnlocked(1))
	_, cached := e.Plaintext(1)
	assert.False(t, cached)
}

func TestUnlock_DecryptFailureLeavesLocked(t *testing.T) {
	p := &fakePrompter{password: "secret"}
	e := newTestEngine(p, fakeFinder{1: hiddenSnippet(1)}, &fakeCrypto{fail: true}, nil)

	err := e.Unlock(context.Background(), 1)
	require.ErrorIs(t, err, common.ErrCrypto)
	assert.False(t, e.IsUnlocked(1))
}

func TestUnlock_EncryptedBlobFetchesRawContent(t *testing.T) {
	s := hiddenSnippet(1)
	s.ContentType = models.ContentTypePDF
	s.Content = ""
	s.StoragePath = "1/1.pdf"

	p := &fakePrompter{password: "secret"}
	fetch := &fakeFetcher{content: "BLOBCIPHER"}
	e := newTestEngine(p, fakeFinder{1: s}, &fakeCrypto{}, fetch)

	require.NoError(t, e.Unlock(context.Background(), 1))
	plain, _ := e.Plaintext(1)
	assert.Equal(t, "plain:BLOBCIPHER", plain)
	assert.Equal(t, 1, fetch.calls)
}

func TestUnlock_NonHiddenIsNoop(t *testing.T) {
	s := models.Snippet{ID: 1, Title: "t", Content: "open"}
	p := &fakePrompter{}
	e := newTestEngine(p, fakeFinder{1: s}, &fakeCrypto{}, nil)

	require.NoError(t, e.Unlock(context.Background(), 1))
	assert.Zero(t, p.calls, "no prompt for non-hidden snippets")
}

func TestLock_ClearsState(t *testing.T) {
	p := &fakePrompter{password: "secret"}
	e := newTestEngine(p, fakeFinder{1: hiddenSnippet(1)}, &fakeCrypto{}, nil)

	require.NoError(t, e.Unlock(context.Background(), 1))
	e.Lock(1)

	assert.False(t, e.IsUnlocked(1))
	_, cached := e.Plaintext(1)
	assert.False(t, cached)
}

func TestExportContent_OneShotDoesNotUnlock(t *testing.T) {
	p := &fakePrompter{password: "secret"}
	c := &fakeCrypto{}
	e := newTestEngine(p, fakeFinder{1: hiddenSnippet(1)}, c, nil)

	plain, err := e.ExportContent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "plain:CIPHER", plain)

	assert.False(t, e.IsUnlocked(1), "export must not transition session state")
	_, cached := e.Plaintext(1)
	assert.False(t, cached, "export must not populate the cache")
}

func TestExportContent_UsesCacheWhenUnlocked(t *testing.T) {
	p := &fakePrompter{password: "secret"}
	c := &fakeCrypto{}
	e := newTestEngine(p, fakeFinder{1: hiddenSnippet(1)}, c, nil)
	ctx := context.Background()

	require.NoError(t, e.Unlock(ctx, 1))
	promptsAfterUnlock := p.calls

	plain, err := e.ExportContent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "plain:CIPHER", plain)
	assert.Equal(t, promptsAfterUnlock, p.calls, "no prompt while unlocked")
	assert.Equal(t, 1, c.calls, "no second decrypt while cached")
}

func TestSuppressRefresh_ViewingCooldown(t *testing.T) {
	p := &fakePrompter{password: "secret"}
	e := newTestEngine(p, fakeFinder{1: hiddenSnippet(1)}, &fakeCrypto{}, nil)

	base := time.Now()
	e.now = func() time.Time { return base }

	require.NoError(t, e.Unlock(context.Background(), 1))
	assert.True(t, e.SuppressRefresh(), "fresh unlock shields the snippet")

	e.now = func() time.Time { return base.Add(DefaultViewingCooldown + time.Second) }
	assert.False(t, e.SuppressRefresh(), "cooldown expired")
}

func TestSuppressRefresh_DialogGuard(t *testing.T) {
	e := newTestEngine(&fakePrompter{}, fakeFinder{}, &fakeCrypto{}, nil)
	assert.False(t, e.SuppressRefresh())

	e.BeginDialog()
	assert.True(t, e.SuppressRefresh(), "open dialog suppresses refreshes")

	e.BeginDialog()
	e.EndDialog()
	assert.True(t, e.SuppressRefresh(), "nested dialogs count")

	e.EndDialog()
	assert.False(t, e.SuppressRefresh())
}

func TestSuppressRefresh_MarkViewing(t *testing.T) {
	e := newTestEngine(&fakePrompter{}, fakeFinder{}, &fakeCrypto{}, nil)
	assert.False(t, e.SuppressRefresh())

	e.MarkViewing(7)
	assert.True(t, e.SuppressRefresh())

	e.Lock(7)
	assert.False(t, e.SuppressRefresh())
}
