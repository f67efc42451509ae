package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dkotlyar/snipstash/internal/client/config"
	"github.com/dkotlyar/snipstash/internal/client/crypto"
	"github.com/dkotlyar/snipstash/internal/client/localstate"
	"github.com/dkotlyar/snipstash/internal/client/remote"
	"github.com/dkotlyar/snipstash/internal/client/reveal"
	"github.com/dkotlyar/snipstash/internal/client/service"
	"github.com/dkotlyar/snipstash/internal/client/store"
	"github.com/dkotlyar/snipstash/internal/client/syncer"
	"github.com/dkotlyar/snipstash/internal/client/view"
	"github.com/dkotlyar/snipstash/internal/logging"
	"github.com/dkotlyar/snipstash/internal/models"

	_ "modernc.org/sqlite"
)

// App wires the client engine together for the terminal UI: the
// in-memory store, the remote and crypto clients, the reveal engine,
// the operation layer, the live-sync poller and the local state file.
type App struct {
	config   *config.Config
	store    *store.Store
	remote   *remote.Client
	reveal   *reveal.Engine
	service  *service.Snippets
	poller   *syncer.Poller
	state    *localstate.Repository
	prompter *terminalPrompter
	db       *sql.DB
	log      logging.Logger

	reader *bufio.Reader
	out    io.Writer
	query  string
	loaded bool
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	db, err := localstate.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing local state: %w", err)
	}

	a := &App{
		config: c,
		store:  store.New(),
		remote: remote.NewClient(c.ServerBaseURL),
		state:  localstate.NewRepository(db),
		db:     db,
		log:    logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	gateway := crypto.NewGateway(c.ServerBaseURL)
	a.prompter = &terminalPrompter{reader: a.reader, out: a.out}
	a.reveal = reveal.NewEngine(a.prompter, a.store, a.remote, gateway)
	a.service = service.NewSnippets(a.store, a.remote, gateway, a.reveal, a.log)
	a.poller = syncer.NewPoller(a.remote, a.store, a.reveal, a.log,
		syncer.WithInterval(c.SyncInterval),
		syncer.WithNotify(a.notifyRefresh),
	)

	return a, nil
}

// notifyRefresh runs after the poller applies a remote change: tell the
// user and record the new state in the local state file.
func (a *App) notifyRefresh(delta int) {
	if msg := view.Summary(delta); msg != "" {
		fmt.Fprintln(a.out, msg)
	}

	ctx := context.Background()
	hash := syncer.ChangeHash(a.store.Snapshot())
	if err := a.state.SetLastChangeHash(ctx, hash); err != nil {
		a.log.Warn(ctx, "failed to record change hash", "error", err)
	}
	if err := a.state.SetLastSyncedAt(ctx, time.Now()); err != nil {
		a.log.Warn(ctx, "failed to record sync time", "error", err)
	}
}

// withDialog holds background refresh output back while an interactive
// prompt is open. The reveal engine does this for its own password
// prompts; commands with their own prompts go through here.
func (a *App) withDialog(fn func() error) error {
	a.reveal.BeginDialog()
	defer a.reveal.EndDialog()
	return fn()
}

// ensureLoaded retries the initial load if it failed at startup. A no-op
// once a load has succeeded.
func (a *App) ensureLoaded(ctx context.Context) {
	if a.loaded {
		return
	}
	snapshot, err := a.service.Load(ctx)
	if err != nil {
		return
	}
	a.loaded = true
	a.poller.Seed(snapshot)
	a.reportOfflineChanges(ctx, snapshot)
}

// Run loads the initial list, reports whether the remote moved since the
// previous session, starts the poller and enters the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	snapshot, err := a.service.Load(ctx)
	if err != nil {
		a.log.Error(ctx, "initial load failed", "error", err)
		fmt.Fprintln(a.out, "Could not load snippets from the server; commands will retry on use.")
	} else {
		a.loaded = true
		a.poller.Seed(snapshot)
		a.reportOfflineChanges(ctx, snapshot)
	}

	a.poller.Start(ctx)
	defer a.poller.Stop()

	runREPL(ctx, a, bufio.NewScanner(os.Stdin))
}

func (a *App) reportOfflineChanges(ctx context.Context, snapshot []models.Snippet) {
	hash := syncer.ChangeHash(snapshot)
	prev, err := a.state.LastChangeHash(ctx)
	if err != nil {
		a.log.Warn(ctx, "failed to read change hash", "error", err)
		return
	}
	if prev != "" && prev != hash {
		fmt.Fprintln(a.out, "Data changed while you were away.")
	}
	if err := a.state.SetLastChangeHash(ctx, hash); err != nil {
		a.log.Warn(ctx, "failed to record change hash", "error", err)
	}
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
