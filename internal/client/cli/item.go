package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/dkotlyar/snipstash/internal/client/reveal"
	"github.com/dkotlyar/snipstash/internal/client/view"
	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/models"
)

// Show prints one snippet in full. Hidden snippets prompt for the
// password first; cancelling the prompt leaves everything as it was.
func (a *App) Show(ctx context.Context, rawID string) error {
	a.ensureLoaded(ctx)

	id, err := models.ParseID(rawID)
	if err != nil {
		return a.reportErr(err)
	}
	snippet, ok := a.store.FindByID(id)
	if !ok {
		return a.reportErr(fmt.Errorf("snippet %s: %w", rawID, common.ErrNotFound))
	}

	if snippet.Hidden && !a.reveal.IsUnlocked(id) {
		if err := a.unlock(ctx, id); err != nil {
			return err
		}
	}
	a.reveal.MarkViewing(id)

	for _, r := range view.Project(a.store.Snapshot(), "", a.reveal) {
		if r.ID == id {
			a.printRecord(ctx, r, true)
			break
		}
	}
	return nil
}

func (a *App) Unlock(ctx context.Context, rawID string) error {
	id, err := models.ParseID(rawID)
	if err != nil {
		return a.reportErr(err)
	}
	if err := a.unlock(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Unlocked.")
	return nil
}

func (a *App) unlock(ctx context.Context, id int64) error {
	err := a.reveal.Unlock(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, reveal.ErrCancelled):
		fmt.Fprintln(a.out, "Cancelled.")
		return err
	case errors.Is(err, common.ErrAuthorization):
		fmt.Fprintln(a.out, "Incorrect password!")
		return err
	default:
		return a.reportErr(err)
	}
}

// Lock re-hides a revealed snippet and clears its cached plaintext. If
// nothing remains on screen to protect, apply any refresh the viewing
// window was holding back.
func (a *App) Lock(ctx context.Context, rawID string) error {
	id, err := models.ParseID(rawID)
	if err != nil {
		return a.reportErr(err)
	}
	a.reveal.Lock(id)
	fmt.Fprintln(a.out, "Locked.")

	if a.poller.PendingRefresh() && !a.reveal.SuppressRefresh() {
		a.poller.CheckNow(ctx)
	}
	return nil
}

// Copy prints the full content so a terminal user can pipe or select
// it. For hidden snippets this is the one-shot decrypt path: no unlock,
// no caching.
func (a *App) Copy(ctx context.Context, rawID string) error {
	a.ensureLoaded(ctx)

	id, err := models.ParseID(rawID)
	if err != nil {
		return a.reportErr(err)
	}
	content, err := a.service.Copy(ctx, id)
	if err != nil {
		if errors.Is(err, reveal.ErrCancelled) {
			fmt.Fprintln(a.out, "Cancelled.")
			return err
		}
		return a.reportErr(err)
	}
	fmt.Fprintln(a.out, content)
	return nil
}

// Download saves a file snippet to disk. The target path is optional;
// without one a unique name is derived from the stored file name.
func (a *App) Download(ctx context.Context, args []string) error {
	a.ensureLoaded(ctx)

	id, err := models.ParseID(args[0])
	if err != nil {
		return a.reportErr(err)
	}

	data, name, err := a.service.Download(ctx, id)
	if err != nil {
		if errors.Is(err, reveal.ErrCancelled) {
			fmt.Fprintln(a.out, "Cancelled.")
			return err
		}
		return a.reportErr(err)
	}

	path := fmt.Sprintf("%s-%s", uuid.NewString()[:8], name)
	if len(args) > 1 {
		path = args[1]
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return a.reportErr(err)
	}
	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", len(data), path)
	return nil
}

// Delete asks for the snippet's password and a confirmation, then
// removes it locally and remotely.
func (a *App) Delete(ctx context.Context, rawID string) error {
	a.ensureLoaded(ctx)

	id, err := models.ParseID(rawID)
	if err != nil {
		return a.reportErr(err)
	}
	snippet, ok := a.store.FindByID(id)
	if !ok {
		return a.reportErr(fmt.Errorf("snippet %s: %w", rawID, common.ErrNotFound))
	}

	if err := a.withDialog(func() error {
		password, err := GetPassword("Enter password to delete this snippet", a.out)
		if err != nil {
			return a.reportErr(err)
		}
		if password == "" {
			fmt.Fprintln(a.out, "Cancelled.")
			return reveal.ErrCancelled
		}
		if password != snippet.Password {
			fmt.Fprintln(a.out, "Incorrect password! Cannot delete snippet.")
			return common.ErrAuthorization
		}

		confirmed, err := a.prompter.Confirm(ctx, "Are you sure you want to delete this snippet?")
		if err != nil {
			return a.reportErr(err)
		}
		if !confirmed {
			fmt.Fprintln(a.out, "Cancelled.")
			return reveal.ErrCancelled
		}
		return nil
	}); err != nil {
		return err
	}

	if err := a.service.Delete(ctx, id); err != nil {
		return a.reportErr(err)
	}
	fmt.Fprintf(a.out, "Deleted snippet %d (%s)\n", id, snippet.Title)
	return nil
}
