// Package cli provides the interactive meddocs command-line client.
//
// It wires configuration, the durable session snapshot, the HTTP API
// client, and an interactive REPL for working with patient documents.
// Typical flow: restore any persisted session at startup, select a
// patient, then list, upload, download, or delete that patient's
// documents.
//
// Key features:
//   - Signup / Login / Logout with a persisted session
//   - Per-patient document listing, newest first
//   - PDF upload with whole-percent progress
//   - Download into a configurable directory, never overwriting files
//
// The REPL is started via App.Run(ctx), which blocks until the user
// exits. See App and runREPL for details.
package cli
