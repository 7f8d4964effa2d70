package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/meddocs/internal/client/models"
)

// ProgressFunc receives upload progress as a whole percentage in [0,100].
type ProgressFunc func(percent int)

// Client is the transport contract consumed by the state managers.
// Every call suspends until the server answers or the request fails;
// there are no retries at this layer.
type Client interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	ListDocuments(ctx context.Context, patientID string) ([]models.Document, error)
	UploadDocument(ctx context.Context, patientID string, filename string, file io.Reader, onProgress ProgressFunc) (*models.Document, error)
	DownloadDocument(ctx context.Context, docID int64) ([]byte, error)
	DeleteDocument(ctx context.Context, docID int64) error
	Close() error
}
