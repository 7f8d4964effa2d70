package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/meddocs/internal/client/client"
	"github.com/dmitrijs2005/meddocs/internal/client/models"
	"github.com/dmitrijs2005/meddocs/internal/filex"
	"github.com/dmitrijs2005/meddocs/internal/logging"
)

// DocumentsState is the observable document-collection state. Items is
// always ordered most recent first. LastError is a single slot shared
// by fetch, upload, download and delete: a new operation clears it, a
// later failure overwrites it.
type DocumentsState struct {
	Items          []models.Document
	PatientID      string
	FetchStatus    Status
	UploadStatus   Status
	UploadProgress int
	LastError      string
}

// DocumentManager owns the in-memory document list for the currently
// selected patient scope. The list is mutated only from the resolution
// of a fetch, upload or delete call, and always from the server's
// response, never optimistically.
//
// An in-flight fetch is not cancelled by a newer one; if an older fetch
// resolves last, it overwrites Items with its (stale) result. That
// matches the upstream behavior and is pinned by tests, not fixed.
type DocumentManager struct {
	client       client.Client
	downloadsDir string
	log          logging.Logger

	mu    sync.Mutex
	state DocumentsState
}

func NewDocumentManager(c client.Client, downloadsDir string, log logging.Logger) *DocumentManager {
	return &DocumentManager{
		client:       c,
		downloadsDir: downloadsDir,
		log:          log,
		state: DocumentsState{
			FetchStatus:  StatusIdle,
			UploadStatus: StatusIdle,
		},
	}
}

// State returns a copy of the current collection state.
func (m *DocumentManager) State() DocumentsState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	s.Items = append([]models.Document(nil), m.state.Items...)
	return s
}

// Fetch replaces Items wholesale with the server's list for patientID,
// sorted most recent first. On failure Items is left untouched: a stale
// but valid list beats an empty one.
func (m *DocumentManager) Fetch(ctx context.Context, patientID string) error {
	m.mu.Lock()
	m.state.FetchStatus = StatusPending
	m.state.LastError = ""
	m.mu.Unlock()

	docs, err := m.client.ListDocuments(ctx, patientID)
	if err != nil {
		m.mu.Lock()
		m.state.FetchStatus = StatusError
		m.state.LastError = err.Error()
		m.mu.Unlock()
		return err
	}

	models.SortByUploadDateDesc(docs)

	m.mu.Lock()
	m.state.Items = docs
	m.state.PatientID = patientID
	m.state.FetchStatus = StatusIdle
	m.mu.Unlock()
	return nil
}

// Upload streams file to the server for patientID, reporting live
// whole-percent progress through UploadProgress. On success the created
// document is prepended to Items (it is by definition the most recent)
// and returned. Validation of type and size is the caller's job.
func (m *DocumentManager) Upload(ctx context.Context, patientID string, filename string, file io.Reader) (*models.Document, error) {
	m.mu.Lock()
	m.state.UploadStatus = StatusPending
	m.state.UploadProgress = 0
	m.state.LastError = ""
	m.mu.Unlock()

	doc, err := m.client.UploadDocument(ctx, patientID, filename, file, m.setUploadProgress)
	if err != nil {
		m.mu.Lock()
		m.state.UploadStatus = StatusError
		m.state.UploadProgress = 0
		m.state.LastError = err.Error()
		m.mu.Unlock()
		return nil, err
	}

	m.mu.Lock()
	m.state.Items = append([]models.Document{*doc}, m.state.Items...)
	m.state.UploadStatus = StatusIdle
	m.state.UploadProgress = 0
	m.mu.Unlock()
	return doc, nil
}

// Download fetches the binary content of docID and saves it into the
// downloads directory under filename, suffixed on collision. The saved
// path is returned. Items is never touched.
func (m *DocumentManager) Download(ctx context.Context, docID int64, filename string) (string, error) {
	m.ClearError()

	data, err := m.client.DownloadDocument(ctx, docID)
	if err != nil {
		m.setError(err)
		return "", err
	}

	dir, err := filex.EnsureDir(m.downloadsDir)
	if err != nil {
		m.setError(err)
		return "", err
	}

	path := filex.UniquePath(dir, filename)
	if err := os.WriteFile(path, data, 0o660); err != nil {
		err = fmt.Errorf("save %s: %w", filename, err)
		m.setError(err)
		return "", err
	}

	return path, nil
}

// Delete asks the server to remove docID, then drops the matching entry
// from Items. Removing an id that is not present locally is a no-op.
func (m *DocumentManager) Delete(ctx context.Context, docID int64) error {
	m.ClearError()

	if err := m.client.DeleteDocument(ctx, docID); err != nil {
		m.setError(err)
		return err
	}

	m.mu.Lock()
	items := make([]models.Document, 0, len(m.state.Items))
	for _, d := range m.state.Items {
		if d.ID != docID {
			items = append(items, d)
		}
	}
	m.state.Items = items
	m.mu.Unlock()
	return nil
}

// ClearError resets LastError and nothing else.
func (m *DocumentManager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastError = ""
}

// ClearUploadProgress resets UploadProgress and nothing else.
func (m *DocumentManager) ClearUploadProgress() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.UploadProgress = 0
}

// setUploadProgress stores progress only while an upload is pending, so
// a late report cannot resurrect a finished bar.
func (m *DocumentManager) setUploadProgress(pct int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.UploadStatus == StatusPending {
		m.state.UploadProgress = pct
	}
}

func (m *DocumentManager) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastError = err.Error()
}
