// Package syncer implements the background reconciliation loop: a
// fixed-interval poll of the remote list, change detection via content
// hashing, and suppression while the user is mid-interaction.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/dkotlyar/snipstash/internal/logging"
	"github.com/dkotlyar/snipstash/internal/models"
)

// DefaultInterval is the poll cadence.
const DefaultInterval = 5 * time.Second

// DefaultQuietPeriod is how long polling pauses after a text-input edit,
// to avoid interrupting composition.
const DefaultQuietPeriod = 10 * time.Second

// Lister fetches the current remote list (lightweight projection).
type Lister interface {
	ListAll(ctx context.Context) ([]models.Snippet, error)
}

// Target is the store surface the poller reconciles into.
type Target interface {
	ReplaceAll(snippets []models.Snippet)
	Len() int
}

// Guard reports whether a refresh must currently be suppressed
// (dialog open, snippet mid-reveal, blob loading).
type Guard interface {
	SuppressRefresh() bool
}

// Poller periodically pulls the remote list and swaps it into the store
// when its change hash moves. Every error is silent-fail-and-retry: a
// transient blip must never disturb the user.
type Poller struct {
	lister Lister
	target Target
	guard  Guard
	log    logging.Logger

	// onApplied is called after a refresh lands, with the net item
	// count delta; onRender asks the UI to re-project (preserving its
	// scroll state, which idempotent projection makes meaningful).
	onApplied func(delta int)
	onRender  func()

	mu             sync.Mutex
	interval       time.Duration
	lastHash       string
	pendingRefresh bool
	visible        bool
	quietUntil     time.Time
	running        bool
	stop           chan struct{}

	now func() time.Time
}

// Option configures a Poller.
type Option func(*Poller)

func WithNotify(fn func(delta int)) Option {
	return func(p *Poller) { p.onApplied = fn }
}

func WithRender(fn func()) Option {
	return func(p *Poller) { p.onRender = fn }
}

func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

func NewPoller(lister Lister, target Target, guard Guard, log logging.Logger, opts ...Option) *Poller {
	p := &Poller{
		lister:   lister,
		target:   target,
		guard:    guard,
		log:      log,
		interval: DefaultInterval,
		visible:  true,
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Seed records the hash of the initially loaded list so the first tick
// does not report the initial load as a remote change.
func (p *Poller) Seed(snippets []models.Snippet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastHash = ChangeHash(snippets)
}

// Start launches the tick loop. Calling Start while running restarts
// the loop with the current interval.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		close(p.stop)
	}
	stop := make(chan struct{})
	p.stop = stop
	p.running = true
	interval := p.interval
	p.mu.Unlock()

	go p.loop(ctx, interval, stop)
}

// Stop halts the tick loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		close(p.stop)
		p.running = false
	}
}

// Running reports whether the tick loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// SetInterval reconfigures the cadence at runtime and restarts the loop
// if it is running.
func (p *Poller) SetInterval(ctx context.Context, d time.Duration) {
	p.mu.Lock()
	p.interval = d
	running := p.running
	p.mu.Unlock()

	if running {
		p.Start(ctx)
	}
}

// SetVisible pauses the poller entirely while the UI is hidden and, on
// regaining visibility, forces one eager check.
func (p *Poller) SetVisible(ctx context.Context, visible bool) {
	p.mu.Lock()
	was := p.visible
	p.visible = visible
	p.mu.Unlock()

	if visible && !was {
		p.CheckNow(ctx)
	}
}

// NoteTyping suspends ticks for the quiet period after an input edit.
func (p *Poller) NoteTyping() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quietUntil = p.now().Add(DefaultQuietPeriod)
}

// PendingRefresh reports whether a detected change is waiting for the
// viewing suppression to clear.
func (p *Poller) PendingRefresh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pendingRefresh
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.CheckNow(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// CheckNow runs one reconciliation pass. Suppression is checked before
// the network call (skip the tick entirely) and again after the fetch
// completes, because viewing can start mid-flight; in that race the new
// data is dropped and replayed on a later pass.
func (p *Poller) CheckNow(ctx context.Context) {
	p.mu.Lock()
	skip := !p.visible || p.now().Before(p.quietUntil)
	p.mu.Unlock()
	if skip || p.guard.SuppressRefresh() {
		return
	}

	snippets, err := p.lister.ListAll(ctx)
	if err != nil {
		p.log.Warn(ctx, "background refresh failed, will retry", "error", err)
		return
	}

	newHash := ChangeHash(snippets)

	p.mu.Lock()
	if p.lastHash == "" {
		p.lastHash = newHash
		p.mu.Unlock()
		return
	}
	if newHash == p.lastHash {
		p.pendingRefresh = false
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if p.guard.SuppressRefresh() {
		p.mu.Lock()
		p.pendingRefresh = true
		p.mu.Unlock()
		return
	}

	delta := len(snippets) - p.target.Len()
	p.target.ReplaceAll(snippets)

	p.mu.Lock()
	p.lastHash = newHash
	p.pendingRefresh = false
	p.mu.Unlock()

	p.log.Debug(ctx, "refresh applied", "delta", delta, "count", len(snippets))
	if p.onRender != nil {
		p.onRender()
	}
	if delta != 0 && p.onApplied != nil {
		p.onApplied(delta)
	}
}
