package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/meddocs/internal/client/client"
	"github.com/dmitrijs2005/meddocs/internal/client/config"
	"github.com/dmitrijs2005/meddocs/internal/client/repositories/snapshot"
	"github.com/dmitrijs2005/meddocs/internal/client/services"
	"github.com/dmitrijs2005/meddocs/internal/logging"
)

// App wires the session and document managers to interactive commands.
type App struct {
	config  *config.Config
	api     *client.HTTPClient
	session *services.SessionManager
	docs    *services.DocumentManager
	log     logging.Logger

	// patientID is the currently selected patient scope, empty until
	// the user runs the patient command.
	patientID string

	reader *bufio.Reader
	out    io.Writer
	outMu  sync.Mutex
}

// printf serializes writes that may race with the upload progress
// goroutine.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := snapshot.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	a := &App{
		config: cfg,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	// The token source reads through to the session manager so requests
	// issued after login pick up the fresh credential.
	a.api = client.NewHTTPClient(cfg.ServerEndpointAddr, cfg.RequestTimeout, client.TokenFunc(func() string {
		return a.session.Token()
	}), log)

	a.session = services.NewSessionManager(a.api, snapshot.NewSQLiteRepository(db), log)
	a.docs = services.NewDocumentManager(a.api, cfg.DownloadsDir, log)

	a.api.OnSessionExpired(func() {
		a.session.HandleSessionExpired()
		a.printf("Session expired. Please log in again.\n")
	})

	if err := a.session.Restore(ctx); err != nil {
		log.Warn(ctx, "could not restore session", "error", err)
	}

	return a, nil
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.api.Close()

	fmt.Fprintln(a.out, "Welcome to meddocs CLI (type 'help' for commands)")
	if s := a.session.State(); s.IsAuthenticated {
		fmt.Fprintf(a.out, "Restored session for %s\n", s.User.Username)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin), a.out)
}

func (a *App) isLoggedIn() bool {
	return a.session.State().IsAuthenticated
}

func (a *App) getStatus() string {
	s := ""
	if st := a.session.State(); st.IsAuthenticated {
		s = st.User.Username
	}
	if a.patientID != "" {
		if s != "" {
			s += " "
		}
		s += a.patientID
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
