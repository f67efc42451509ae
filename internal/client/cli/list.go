package cli

import (
	"context"
	"fmt"

	"github.com/dkotlyar/snipstash/internal/client/view"
)

// List prints the current snapshot, newest first, using the persistent
// filter set by Find ("find" with no arguments clears it).
func (a *App) List(ctx context.Context) error {
	a.ensureLoaded(ctx)
	return a.render(ctx)
}

func (a *App) Find(ctx context.Context, query string) error {
	a.ensureLoaded(ctx)
	a.query = query
	a.poller.NoteTyping()
	return a.render(ctx)
}

func (a *App) render(ctx context.Context) error {
	records := view.Project(a.store.Snapshot(), a.query, a.reveal)
	if len(records) == 0 {
		if a.query != "" {
			fmt.Fprintf(a.out, "No snippets match %q\n", a.query)
		} else {
			fmt.Fprintln(a.out, "No snippets yet. Use 'add' to create one.")
		}
		return nil
	}

	for _, r := range records {
		a.printRecord(ctx, r, false)
	}
	return nil
}

// printRecord prints one display row. With full=false file bodies are
// collapsed to their file name; show uses full=true.
func (a *App) printRecord(ctx context.Context, r view.Record, full bool) {
	marker := ""
	if r.Hidden {
		if r.Locked {
			marker = " [locked]"
		} else {
			marker = " [unlocked]"
		}
	}
	fmt.Fprintf(a.out, "%d  %s%s  (%s)\n", r.ID, r.Title, marker, r.Timestamp)

	switch r.Kind {
	case view.BodyLocked:
		fmt.Fprintf(a.out, "    %s\n", r.Body)
	case view.BodyLoading:
		fmt.Fprintf(a.out, "    %s\n", r.Body)
		if full && r.NeedsURL {
			if url, err := a.service.ResolveFileURL(ctx, r.ID); err == nil {
				fmt.Fprintf(a.out, "    %s\n", url)
			}
		}
	case view.BodyImage, view.BodyPDF:
		name := r.FileName
		if name == "" {
			name = "(file)"
		}
		if full {
			fmt.Fprintf(a.out, "    %s: %s\n", name, r.Body)
		} else {
			fmt.Fprintf(a.out, "    %s\n", name)
		}
	default:
		if full {
			fmt.Fprintf(a.out, "    %s\n", r.Body)
		} else {
			fmt.Fprintf(a.out, "    %s\n", firstLine(r.Body))
		}
	}
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i] + " …"
		}
		if i > 80 {
			return s[:i] + "…"
		}
	}
	return s
}
