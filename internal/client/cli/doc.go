// Package cli provides the interactive snipstash command-line client.
//
// It wires configuration, the local state file, the HTTP API clients and
// an interactive REPL over the in-memory snippet engine. Typical flow:
// load the remote list, start the background live-sync poller, and
// execute user commands until exit.
//
// Key features:
//   - Add text snippets and files (images, PDFs), optionally hidden
//     behind a password with server-side encryption
//   - List / Find (AND via "a + b", OR otherwise) / Show
//   - Unlock / Lock hidden snippets, Copy and Download their content
//   - Live sync control: on, off, now, interval
//
// The REPL is started via App.Run(ctx), which blocks until the user
// exits. See App and runREPL for details.
package cli
