package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	status() string
	List(ctx context.Context) error
	Find(ctx context.Context, query string) error
	Add(ctx context.Context) error
	AddFile(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Unlock(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) error
	Copy(ctx context.Context, id string) error
	Download(ctx context.Context, args []string) error
	Delete(ctx context.Context, id string) error
	Sync(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the snipstash CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
//	- help                     — show available commands
//	- list | l                 — list snippets
//	- find <query>             — filter by title/timestamp ("a + b" requires both terms)
//	- add                      — add a text snippet (interactive)
//	- addfile                  — add an image or PDF from a local file
//	- show <id>                — print one snippet (prompts to unlock if hidden)
//	- unlock <id>              — reveal a hidden snippet for this session
//	- lock <id>                — re-hide a revealed snippet
//	- copy <id>                — print the full content for clipboard use
//	- download <id> [path]     — save a file snippet to disk
//	- delete <id>              — delete (asks for the snippet password)
//	- sync on|off|now|interval <s> — control the live-sync poller
//	- exit | quit              — leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("snip %s> ", a.status()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: (l)ist, find, add, addfile, show, unlock, lock, copy, download, delete, sync, exit")

		case "l", "list":
			_ = a.List(ctx)

		case "find":
			_ = a.Find(ctx, strings.Join(args, " "))

		case "add":
			_ = a.Add(ctx)

		case "addfile":
			_ = a.AddFile(ctx)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "unlock":
			if len(args) == 0 {
				printlnFn("Usage: unlock <id>")
				continue
			}
			_ = a.Unlock(ctx, args[0])

		case "lock":
			if len(args) == 0 {
				printlnFn("Usage: lock <id>")
				continue
			}
			_ = a.Lock(ctx, args[0])

		case "copy":
			if len(args) == 0 {
				printlnFn("Usage: copy <id>")
				continue
			}
			_ = a.Copy(ctx, args[0])

		case "download":
			if len(args) == 0 {
				printlnFn("Usage: download <id> [path]")
				continue
			}
			_ = a.Download(ctx, args)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "sync":
			_ = a.Sync(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
