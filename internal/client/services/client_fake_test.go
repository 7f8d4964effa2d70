package services

import (
	"context"
	"io"
	"sync"

	"github.com/dmitrijs2005/meddocs/internal/client/client"
	"github.com/dmitrijs2005/meddocs/internal/client/models"
	"github.com/dmitrijs2005/meddocs/internal/client/repositories/snapshot"
)

// fakeClient implements client.Client for manager unit tests. Each
// operation returns the configured result, or defers to the Fn hook
// when one is set (used to observe or interleave in-flight state).
type fakeClient struct {
	LoginResp *models.AuthResponse
	LoginErr  error

	SignupResp *models.AuthResponse
	SignupErr  error

	ListRet []models.Document
	ListErr error
	ListFn  func(ctx context.Context, patientID string) ([]models.Document, error)

	UploadRet *models.Document
	UploadErr error
	UploadFn  func(ctx context.Context, patientID, filename string, file io.Reader, onProgress client.ProgressFunc) (*models.Document, error)

	DownloadRet []byte
	DownloadErr error

	DeleteErr error

	// argument capture
	LastLoginCreds    models.Credentials
	LastSignupReq     models.SignupRequest
	LastListPatient   string
	LastUploadPatient string
	LastUploadName    string
	LastDownloadID    int64
	LastDeleteID      int64
}

func (f *fakeClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	f.LastLoginCreds = creds
	return f.LoginResp, f.LoginErr
}

func (f *fakeClient) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	f.LastSignupReq = req
	return f.SignupResp, f.SignupErr
}

func (f *fakeClient) ListDocuments(ctx context.Context, patientID string) ([]models.Document, error) {
	f.LastListPatient = patientID
	if f.ListFn != nil {
		return f.ListFn(ctx, patientID)
	}
	return append([]models.Document(nil), f.ListRet...), f.ListErr
}

func (f *fakeClient) UploadDocument(ctx context.Context, patientID string, filename string, file io.Reader, onProgress client.ProgressFunc) (*models.Document, error) {
	f.LastUploadPatient = patientID
	f.LastUploadName = filename
	if f.UploadFn != nil {
		return f.UploadFn(ctx, patientID, filename, file, onProgress)
	}
	return f.UploadRet, f.UploadErr
}

func (f *fakeClient) DownloadDocument(ctx context.Context, docID int64) ([]byte, error) {
	f.LastDownloadID = docID
	return f.DownloadRet, f.DownloadErr
}

func (f *fakeClient) DeleteDocument(ctx context.Context, docID int64) error {
	f.LastDeleteID = docID
	return f.DeleteErr
}

func (f *fakeClient) Close() error { return nil }

// fakeSnapshots is an in-memory snapshot.Repository so session
// transitions can be exercised without sqlite.
type fakeSnapshots struct {
	mu       sync.Mutex
	stored   *snapshot.Snapshot
	SaveErr  error
	ClearErr error
	LoadErr  error
}

func (f *fakeSnapshots) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	return f.stored, nil
}

func (f *fakeSnapshots) Save(ctx context.Context, s *snapshot.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.stored = s
	return nil
}

func (f *fakeSnapshots) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.stored = nil
	return nil
}

func (f *fakeSnapshots) get() *snapshot.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored
}
