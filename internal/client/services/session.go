package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/meddocs/internal/client/client"
	"github.com/dmitrijs2005/meddocs/internal/client/models"
	"github.com/dmitrijs2005/meddocs/internal/client/repositories/snapshot"
	"github.com/dmitrijs2005/meddocs/internal/logging"
)

// SessionState is the observable authentication state.
// Invariant: IsAuthenticated is true iff both User and Token are set;
// it only changes through login, signup, logout or forced eviction.
type SessionState struct {
	User            *models.User
	Token           string
	IsAuthenticated bool
	Status          Status
	LastError       string
}

// SessionManager owns the session lifecycle. State transitions are pure
// in-memory mutations; the snapshot repository is invoked separately
// after each session-affecting transition, so the state machine itself
// stays testable without I/O.
//
// Login and Signup may be called concurrently; there is no
// de-duplication, the last call to complete wins.
type SessionManager struct {
	client    client.Client
	snapshots snapshot.Repository
	log       logging.Logger

	mu    sync.Mutex
	state SessionState
}

func NewSessionManager(c client.Client, repo snapshot.Repository, log logging.Logger) *SessionManager {
	return &SessionManager{
		client:    c,
		snapshots: repo,
		log:       log,
		state:     SessionState{Status: StatusIdle},
	}
}

// State returns a copy of the current session state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySessionState(m.state)
}

// Token implements client.TokenSource, so the transport always reads
// the current credential.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Token
}

// Login authenticates against the server. On failure the error is both
// recorded in LastError and returned, so the caller can react directly.
func (m *SessionManager) Login(ctx context.Context, creds models.Credentials) error {
	m.begin()

	resp, err := m.client.Login(ctx, creds)
	if err != nil {
		m.fail(err)
		return err
	}

	m.establish(ctx, resp)
	return nil
}

// Signup has the same contract as Login against the account-creation
// endpoint: a successful signup leaves the client logged in.
func (m *SessionManager) Signup(ctx context.Context, req models.SignupRequest) error {
	m.begin()

	resp, err := m.client.Signup(ctx, req)
	if err != nil {
		m.fail(err)
		return err
	}

	m.establish(ctx, resp)
	return nil
}

// Logout is synchronous and unconditional: it clears every session
// field and the persisted snapshot. It never fails; snapshot-clear
// errors are logged and swallowed.
func (m *SessionManager) Logout() {
	m.evict(context.Background())
}

// HandleSessionExpired is the transport's eviction subscriber, wired
// via HTTPClient.OnSessionExpired. A 401 from any endpoint lands here.
func (m *SessionManager) HandleSessionExpired() {
	m.evict(context.Background())
}

// ClearError resets LastError and nothing else.
func (m *SessionManager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastError = ""
}

// Restore loads the persisted snapshot at boot, if one exists.
// Transient fields always come up idle/empty regardless of what was
// stored; IsAuthenticated is re-derived rather than trusted.
func (m *SessionManager) Restore(ctx context.Context) error {
	s, err := m.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if s == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = SessionState{
		User:            copyUser(s.User),
		Token:           s.Token,
		IsAuthenticated: s.User != nil && s.Token != "",
		Status:          StatusIdle,
	}
	return nil
}

func (m *SessionManager) begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Status = StatusPending
	m.state.LastError = ""
}

func (m *SessionManager) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = SessionState{Status: StatusError, LastError: err.Error()}
}

func (m *SessionManager) establish(ctx context.Context, resp *models.AuthResponse) {
	user := &models.User{ID: resp.UserID, Username: resp.Username}

	m.mu.Lock()
	m.state = SessionState{
		User:            user,
		Token:           resp.AccessToken,
		IsAuthenticated: true,
		Status:          StatusIdle,
	}
	m.mu.Unlock()

	err := m.snapshots.Save(ctx, &snapshot.Snapshot{
		User:            copyUser(user),
		Token:           resp.AccessToken,
		IsAuthenticated: true,
	})
	if err != nil {
		m.log.Warn(ctx, "failed to persist session snapshot", "error", err)
	}
}

func (m *SessionManager) evict(ctx context.Context) {
	m.mu.Lock()
	m.state = SessionState{Status: StatusIdle}
	m.mu.Unlock()

	if err := m.snapshots.Clear(ctx); err != nil {
		m.log.Warn(ctx, "failed to clear session snapshot", "error", err)
	}
}

func copySessionState(s SessionState) SessionState {
	s.User = copyUser(s.User)
	return s
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
