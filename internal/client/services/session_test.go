package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/meddocs/internal/client/models"
	"github.com/dmitrijs2005/meddocs/internal/client/repositories/snapshot"
	"github.com/dmitrijs2005/meddocs/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionManager(fc *fakeClient, fs *fakeSnapshots) *SessionManager {
	return NewSessionManager(fc, fs, logging.NewDiscard())
}

func requireAuthInvariant(t *testing.T, s SessionState) {
	t.Helper()
	require.Equal(t, s.User != nil && s.Token != "", s.IsAuthenticated,
		"IsAuthenticated must equal presence of user and token")
}

func TestLogin_Success(t *testing.T) {
	fc := &fakeClient{
		LoginResp: &models.AuthResponse{AccessToken: "tok", TokenType: "bearer", UserID: 1, Username: "alice"},
	}
	fs := &fakeSnapshots{}
	m := newSessionManager(fc, fs)

	err := m.Login(context.Background(), models.Credentials{Username: "alice", Password: "x"})
	require.NoError(t, err)

	s := m.State()
	require.NotNil(t, s.User)
	assert.Equal(t, int64(1), s.User.ID)
	assert.Equal(t, "alice", s.User.Username)
	assert.Equal(t, "tok", s.Token)
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.LastError)
	requireAuthInvariant(t, s)

	assert.Equal(t, models.Credentials{Username: "alice", Password: "x"}, fc.LastLoginCreds)

	persisted := fs.get()
	require.NotNil(t, persisted, "successful login must persist the durable subset")
	assert.Equal(t, "tok", persisted.Token)
	assert.True(t, persisted.IsAuthenticated)
	require.NotNil(t, persisted.User)
	assert.Equal(t, "alice", persisted.User.Username)
}

func TestLogin_Failure(t *testing.T) {
	fc := &fakeClient{LoginErr: errors.New("Incorrect username or password")}
	fs := &fakeSnapshots{}
	m := newSessionManager(fc, fs)

	err := m.Login(context.Background(), models.Credentials{Username: "alice", Password: "bad"})
	require.Error(t, err, "failure must propagate to the caller, not be swallowed")

	s := m.State()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "Incorrect username or password", s.LastError)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
	requireAuthInvariant(t, s)
	assert.Nil(t, fs.get(), "failed login must not persist anything")
}

func TestLogin_RetryAfterFailure(t *testing.T) {
	fc := &fakeClient{LoginErr: errors.New("boom")}
	m := newSessionManager(fc, &fakeSnapshots{})

	require.Error(t, m.Login(context.Background(), models.Credentials{}))
	require.Equal(t, StatusError, m.State().Status)

	fc.LoginErr = nil
	fc.LoginResp = &models.AuthResponse{AccessToken: "tok", UserID: 2, Username: "bob"}

	require.NoError(t, m.Login(context.Background(), models.Credentials{Username: "bob"}))

	s := m.State()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.LastError, "a new attempt clears the previous error")
	assert.True(t, s.IsAuthenticated)
}

func TestSignup_SameContractAsLogin(t *testing.T) {
	fc := &fakeClient{
		SignupResp: &models.AuthResponse{AccessToken: "new-tok", UserID: 7, Username: "carol"},
	}
	fs := &fakeSnapshots{}
	m := newSessionManager(fc, fs)

	req := models.SignupRequest{Username: "carol", Email: "carol@example.com", Password: "longenough"}
	require.NoError(t, m.Signup(context.Background(), req))

	s := m.State()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "new-tok", s.Token)
	assert.Equal(t, req, fc.LastSignupReq)
	require.NotNil(t, fs.get())

	fc.SignupErr = errors.New("Username already registered")
	require.Error(t, m.Signup(context.Background(), req))
	s = m.State()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "Username already registered", s.LastError)
	requireAuthInvariant(t, s)
}

func TestLogout_ClearsEverything(t *testing.T) {
	fc := &fakeClient{LoginResp: &models.AuthResponse{AccessToken: "tok", UserID: 1, Username: "alice"}}
	fs := &fakeSnapshots{}
	m := newSessionManager(fc, fs)
	require.NoError(t, m.Login(context.Background(), models.Credentials{}))

	m.Logout()

	s := m.State()
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.LastError)
	assert.Nil(t, fs.get(), "logout must clear the persisted snapshot")
}

func TestLogout_NeverFails(t *testing.T) {
	fs := &fakeSnapshots{ClearErr: errors.New("disk gone")}
	m := newSessionManager(&fakeClient{}, fs)

	// Must not panic or surface the storage error.
	m.Logout()
	assert.False(t, m.State().IsAuthenticated)
}

func TestHandleSessionExpired_EvictsLikeLogout(t *testing.T) {
	fc := &fakeClient{LoginResp: &models.AuthResponse{AccessToken: "tok", UserID: 1, Username: "alice"}}
	fs := &fakeSnapshots{}
	m := newSessionManager(fc, fs)
	require.NoError(t, m.Login(context.Background(), models.Credentials{}))

	m.HandleSessionExpired()

	s := m.State()
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
	assert.Nil(t, fs.get())
	requireAuthInvariant(t, s)
}

func TestClearError_TouchesOnlyLastError(t *testing.T) {
	fc := &fakeClient{LoginErr: errors.New("boom")}
	m := newSessionManager(fc, &fakeSnapshots{})
	require.Error(t, m.Login(context.Background(), models.Credentials{}))

	m.ClearError()

	s := m.State()
	assert.Empty(t, s.LastError)
	assert.Equal(t, StatusError, s.Status, "ClearError must not reset the status")
}

func TestRestore_NoSnapshotMeansUnauthenticated(t *testing.T) {
	m := newSessionManager(&fakeClient{}, &fakeSnapshots{})

	require.NoError(t, m.Restore(context.Background()))

	s := m.State()
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, StatusIdle, s.Status)
}

func TestRestore_DerivesIsAuthenticated(t *testing.T) {
	// A snapshot claiming authentication without a token must not be trusted.
	fs := &fakeSnapshots{stored: &snapshot.Snapshot{
		User:            &models.User{ID: 1, Username: "alice"},
		Token:           "",
		IsAuthenticated: true,
	}}
	m := newSessionManager(&fakeClient{}, fs)

	require.NoError(t, m.Restore(context.Background()))
	s := m.State()
	assert.False(t, s.IsAuthenticated)
	requireAuthInvariant(t, s)
}

func TestSession_PersistRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "meddocs.db")

	db, err := snapshot.Open(ctx, dsn)
	require.NoError(t, err)
	repo := snapshot.NewSQLiteRepository(db)

	fc := &fakeClient{LoginResp: &models.AuthResponse{AccessToken: "tok", UserID: 1, Username: "alice"}}
	m := NewSessionManager(fc, repo, logging.NewDiscard())
	require.NoError(t, m.Login(ctx, models.Credentials{Username: "alice", Password: "x"}))
	require.NoError(t, db.Close())

	// Fresh process: new DB handle, new manager.
	db2, err := snapshot.Open(ctx, dsn)
	require.NoError(t, err)
	defer db2.Close()

	m2 := NewSessionManager(&fakeClient{}, snapshot.NewSQLiteRepository(db2), logging.NewDiscard())
	require.NoError(t, m2.Restore(ctx))

	s := m2.State()
	require.NotNil(t, s.User)
	assert.Equal(t, int64(1), s.User.ID)
	assert.Equal(t, "alice", s.User.Username)
	assert.Equal(t, "tok", s.Token)
	assert.True(t, s.IsAuthenticated)
	// Transient fields come back reset, whatever happened before.
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.LastError)
}

func TestToken_ReflectsCurrentState(t *testing.T) {
	fc := &fakeClient{LoginResp: &models.AuthResponse{AccessToken: "tok", UserID: 1, Username: "alice"}}
	m := newSessionManager(fc, &fakeSnapshots{})

	assert.Empty(t, m.Token())
	require.NoError(t, m.Login(context.Background(), models.Credentials{}))
	assert.Equal(t, "tok", m.Token())
	m.Logout()
	assert.Empty(t, m.Token())
}

func TestState_ReturnsACopy(t *testing.T) {
	fc := &fakeClient{LoginResp: &models.AuthResponse{AccessToken: "tok", UserID: 1, Username: "alice"}}
	m := newSessionManager(fc, &fakeSnapshots{})
	require.NoError(t, m.Login(context.Background(), models.Credentials{}))

	s := m.State()
	s.User.Username = "mallory"

	assert.Equal(t, "alice", m.State().User.Username)
}
