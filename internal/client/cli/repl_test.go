package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Signup(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) SelectPatient(ctx context.Context, patientID string) error {
	f.calls = append(f.calls, "patient")
	f.args = append(f.args, patientID)
	return nil
}
func (f *fakeExec) List(ctx context.Context) error {
	f.calls = append(f.calls, "list")
	return nil
}
func (f *fakeExec) Upload(ctx context.Context, path string) error {
	f.calls = append(f.calls, "upload")
	f.args = append(f.args, path)
	return nil
}
func (f *fakeExec) Download(ctx context.Context, rawID string) error {
	f.calls = append(f.calls, "download")
	f.args = append(f.args, rawID)
	return nil
}
func (f *fakeExec) Delete(ctx context.Context, rawID string) error {
	f.calls = append(f.calls, "delete")
	f.args = append(f.args, rawID)
	return nil
}

func runScript(exec *fakeExec, lines ...string) string {
	var out bytes.Buffer
	sc := bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "(s)" }, sc, &out)
	return out.String()
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	exec := &fakeExec{}
	out := runScript(exec,
		"help",
		"login",
		"help",
		"patient p-1",
		"list",
		"upload /tmp/report.pdf",
		"download 7",
		"delete 7",
		"logout",
		"exit",
	)

	assert.Equal(t, []string{"login", "patient", "list", "upload", "download", "delete", "logout"}, exec.calls)
	assert.Equal(t, []string{"p-1", "/tmp/report.pdf", "7", "7"}, exec.args)
	assert.Contains(t, out, "Bye!")
}

func TestRunREPL_GatesDocumentCommands(t *testing.T) {
	exec := &fakeExec{loggedIn: false}
	out := runScript(exec,
		"patient p-1",
		"list",
		"upload a.pdf",
		"download 1",
		"delete 1",
		"quit",
	)

	assert.Empty(t, exec.calls)
	assert.Contains(t, out, "Please log in first")
}

func TestRunREPL_Usage(t *testing.T) {
	exec := &fakeExec{loggedIn: true}
	out := runScript(exec,
		"patient",
		"upload",
		"download one two",
		"delete",
		"exit",
	)

	assert.Empty(t, exec.calls)
	assert.Contains(t, out, "Usage: patient <id>")
	assert.Contains(t, out, "Usage: upload <path-to-pdf>")
	assert.Contains(t, out, "Usage: download <id>")
	assert.Contains(t, out, "Usage: delete <id>")
}

func TestRunREPL_UnknownCommandAndEmptyLine(t *testing.T) {
	exec := &fakeExec{}
	out := runScript(exec,
		"",
		"frobnicate",
		"exit",
	)

	assert.Empty(t, exec.calls)
	assert.Contains(t, out, "Unknown command: frobnicate")
}

func TestRunREPL_EOFStopsLoop(t *testing.T) {
	exec := &fakeExec{}
	out := runScript(exec, "login")

	assert.Equal(t, []string{"login"}, exec.calls)
	assert.NotContains(t, out, "Bye!")
}
