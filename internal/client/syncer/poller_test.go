package syncer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkotlyar/snipstash/internal/client/store"
	"github.com/dkotlyar/snipstash/internal/logging"
	"github.com/dkotlyar/snipstash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	snippets []models.Snippet
	err      error
	calls    atomic.Int32
}

func (f *fakeLister) ListAll(ctx context.Context) ([]models.Snippet, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.snippets, nil
}

type fakeGuard struct {
	suppress atomic.Bool
}

func (f *fakeGuard) SuppressRefresh() bool { return f.suppress.Load() }

func list(ids ...int64) []models.Snippet {
	out := make([]models.Snippet, len(ids))
	for i, id := range ids {
		out[i] = models.Snippet{ID: id, Title: "t", Timestamp: "ts", ContentType: models.ContentTypeText, Content: "c"}
	}
	return out
}

func newTestPoller(l *fakeLister, g *fakeGuard, s *store.Store, opts ...Option) *Poller {
	return NewPoller(l, s, g, logging.Discard(), opts...)
}

func TestCheckNow_NoChangeIsNoop(t *testing.T) {
	s := store.New()
	s.ReplaceAll(list(1, 2))
	l := &fakeLister{snippets: list(1, 2)}
	p := newTestPoller(l, &fakeGuard{}, s)
	p.Seed(s.Snapshot())

	rendered := false
	p.onRender = func() { rendered = true }

	p.CheckNow(context.Background())
	assert.False(t, rendered)
	assert.False(t, p.PendingRefresh())
}

func TestCheckNow_AppliesChangeWithDelta(t *testing.T) {
	s := store.New()
	s.ReplaceAll(list(1))
	l := &fakeLister{snippets: list(1, 2, 3)}
	p := newTestPoller(l, &fakeGuard{}, s)
	p.Seed(s.Snapshot())

	var gotDelta int
	rendered := false
	p.onApplied = func(delta int) { gotDelta = delta }
	p.onRender = func() { rendered = true }

	p.CheckNow(context.Background())

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, gotDelta)
	assert.True(t, rendered)
}

func TestCheckNow_ZeroDeltaChangeRendersWithoutNotification(t *testing.T) {
	s := store.New()
	s.ReplaceAll(list(1))
	retitled := list(1)
	retitled[0].Title = "renamed"
	l := &fakeLister{snippets: retitled}
	p := newTestPoller(l, &fakeGuard{}, s)
	p.Seed(s.Snapshot())

	notified := false
	p.onApplied = func(int) { notified = true }

	p.CheckNow(context.Background())
	got, _ := s.FindByID(1)
	assert.Equal(t, "renamed", got.Title)
	assert.False(t, notified, "zero delta suppresses the notification")
}

func TestCheckNow_SuppressedSkipsNetworkCall(t *testing.T) {
	s := store.New()
	l := &fakeLister{snippets: list(1)}
	g := &fakeGuard{}
	g.suppress.Store(true)
	p := newTestPoller(l, g, s)
	p.Seed(nil)

	p.CheckNow(context.Background())
	assert.Zero(t, l.calls.Load(), "suppressed tick must not hit the network")
}

func TestCheckNow_ViewingRaceDefersThenReplays(t *testing.T) {
	s := store.New()
	s.ReplaceAll(list(1))
	l := &fakeLister{snippets: list(1, 2)}
	g := &fakeGuard{}
	p := newTestPoller(l, g, s)
	p.Seed(s.Snapshot())

	// viewing starts between the pre-check and the fetch completing:
	// flip suppression on from inside the lister.
	raceLister := &racingLister{inner: l, guard: g}
	p.lister = raceLister

	p.CheckNow(context.Background())

	assert.Equal(t, 1, s.Len(), "store untouched while viewing")
	assert.True(t, p.PendingRefresh())

	// viewing ends; the next pass applies the deferred change
	g.suppress.Store(false)
	p.lister = l
	p.CheckNow(context.Background())

	assert.Equal(t, 2, s.Len())
	assert.False(t, p.PendingRefresh())
}

type racingLister struct {
	inner *fakeLister
	guard *fakeGuard
}

func (r *racingLister) ListAll(ctx context.Context) ([]models.Snippet, error) {
	out, err := r.inner.ListAll(ctx)
	r.guard.suppress.Store(true)
	return out, err
}

func TestCheckNow_ErrorIsSilent(t *testing.T) {
	s := store.New()
	s.ReplaceAll(list(1))
	l := &fakeLister{err: errors.New("connection refused")}
	p := newTestPoller(l, &fakeGuard{}, s)
	p.Seed(s.Snapshot())

	p.CheckNow(context.Background())
	assert.Equal(t, 1, s.Len(), "errors never disturb the store")
}

func TestCheckNow_FirstPassOnlySeedsHash(t *testing.T) {
	s := store.New()
	l := &fakeLister{snippets: list(1)}
	p := newTestPoller(l, &fakeGuard{}, s)

	rendered := false
	p.onRender = func() { rendered = true }

	p.CheckNow(context.Background())
	assert.False(t, rendered, "first check only records the hash")

	l.snippets = list(1, 2)
	p.CheckNow(context.Background())
	assert.True(t, rendered)
}

func TestNoteTyping_QuietPeriod(t *testing.T) {
	s := store.New()
	l := &fakeLister{snippets: list(1)}
	p := newTestPoller(l, &fakeGuard{}, s)
	p.Seed(nil)

	base := time.Now()
	p.now = func() time.Time { return base }
	p.NoteTyping()

	p.CheckNow(context.Background())
	assert.Zero(t, l.calls.Load(), "quiet period suppresses ticks")

	p.now = func() time.Time { return base.Add(DefaultQuietPeriod + time.Second) }
	p.CheckNow(context.Background())
	assert.Equal(t, int32(1), l.calls.Load())
}

func TestSetVisible_PausesAndForcesEagerCheck(t *testing.T) {
	s := store.New()
	l := &fakeLister{snippets: list(1)}
	p := newTestPoller(l, &fakeGuard{}, s)
	p.Seed(nil)
	ctx := context.Background()

	p.SetVisible(ctx, false)
	p.CheckNow(ctx)
	assert.Zero(t, l.calls.Load())

	p.SetVisible(ctx, true)
	assert.Equal(t, int32(1), l.calls.Load(), "regaining visibility forces one check")
}

func TestStartStop(t *testing.T) {
	s := store.New()
	l := &fakeLister{snippets: list(1)}
	p := newTestPoller(l, &fakeGuard{}, s, WithInterval(10*time.Millisecond))
	p.Seed(nil)
	ctx := context.Background()

	p.Start(ctx)
	require.True(t, p.Running())
	require.Eventually(t, func() bool { return l.calls.Load() > 0 }, time.Second, 5*time.Millisecond)

	p.Stop()
	require.False(t, p.Running())
	calls := l.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, l.calls.Load(), "no ticks after Stop")
}
