package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to
// operate. The real App type satisfies this interface; tests can provide
// a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	SelectPatient(ctx context.Context, patientID string) error
	List(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	Download(ctx context.Context, rawID string) error
	Delete(ctx context.Context, rawID string) error
}

// runREPL starts a read-eval-print loop for the meddocs CLI.
//
// It reads a line from the provided scanner, parses the first token as
// the command, and dispatches to methods on 'a'. Unknown commands are
// reported back to the user. The loop exits on scanner EOF or when the
// user types "exit" or "quit".
//
// Commands that operate on documents require a logged-in session; the
// loop gates them and tells the user to log in first. Errors returned
// by command handlers are printed, and the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, out io.Writer) {
	for {
		fmt.Fprintf(out, "meddocs %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, "Available commands: patient <id>, (l)ist, upload <path>, download <id>, delete <id>, logout, exit")
			} else {
				fmt.Fprintln(out, "Available commands: signup, login, exit")
			}

		case "signup":
			err = a.Signup(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "patient":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: patient <id>")
				continue
			}
			if !requireLogin(a, out) {
				continue
			}
			err = a.SelectPatient(ctx, args[0])

		case "l", "list":
			if !requireLogin(a, out) {
				continue
			}
			err = a.List(ctx)

		case "upload":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: upload <path-to-pdf>")
				continue
			}
			if !requireLogin(a, out) {
				continue
			}
			err = a.Upload(ctx, args[0])

		case "download":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: download <id>")
				continue
			}
			if !requireLogin(a, out) {
				continue
			}
			err = a.Download(ctx, args[0])

		case "delete":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: delete <id>")
				continue
			}
			if !requireLogin(a, out) {
				continue
			}
			err = a.Delete(ctx, args[0])

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}

func requireLogin(a execIface, out io.Writer) bool {
	if a.isLoggedIn() {
		return true
	}
	fmt.Fprintln(out, "Please log in first")
	return false
}
