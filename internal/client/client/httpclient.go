package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/meddocs/internal/client/models"
	"github.com/dmitrijs2005/meddocs/internal/logging"
)

// DefaultTimeout bounds every request, uniformly for all operation kinds.
const DefaultTimeout = 30 * time.Second

// HTTPClient is the concrete Client over the JSON/multipart REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu      sync.Mutex
	expired []func()
}

func NewHTTPClient(baseURL string, timeout time.Duration, ts TokenSource, log logging.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := Chain(http.DefaultTransport, WithObservability(log), WithAuth(ts))

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
		log:     log,
	}
}

// OnSessionExpired registers fn to run whenever any request comes back
// 401. Subscribers run synchronously, in registration order, before the
// failing call returns to its caller.
func (c *HTTPClient) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expired = append(c.expired, fn)
}

func (c *HTTPClient) emitSessionExpired() {
	c.mu.Lock()
	subs := make([]func(), len(c.expired))
	copy(subs, c.expired)
	c.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// do issues a single request and applies the inbound policy: 401 emits
// the session-expired event, any other non-2xx is normalized into a
// StatusError, and a missing response becomes ErrNetwork.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, contentLength int64) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if contentLength > 0 {
		req.ContentLength = contentLength
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// No response at all: connectivity failure or timeout.
		return nil, ErrNetwork
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrNetwork
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if resp.StatusCode == http.StatusUnauthorized {
			c.emitSessionExpired()
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: normalizeMessage(data)}
	}

	return data, nil
}

func (c *HTTPClient) postAuth(ctx context.Context, path string, payload any) (*models.AuthResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", path, err)
	}

	data, err := c.do(ctx, http.MethodPost, path, nil, "application/json", bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, err
	}

	var resp models.AuthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &resp, nil
}

func (c *HTTPClient) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	return c.postAuth(ctx, "/signup", req)
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	return c.postAuth(ctx, "/login", creds)
}

func (c *HTTPClient) ListDocuments(ctx context.Context, patientID string) ([]models.Document, error) {
	query := url.Values{"patient_id": []string{patientID}}

	data, err := c.do(ctx, http.MethodGet, "/documents", query, "", nil, 0)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode document list: %w", err)
	}
	return docs, nil
}

// UploadDocument streams file as a multipart body. The body is buffered
// first so the total size is known and progress can be reported as a
// whole percentage while the request is on the wire.
func (c *HTTPClient) UploadDocument(ctx context.Context, patientID string, filename string, file io.Reader, onProgress ProgressFunc) (*models.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := createFilePart(mw, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload payload: %w", err)
	}
	if err := mw.WriteField("patient_id", patientID); err != nil {
		return nil, fmt.Errorf("write patient_id field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	total := int64(buf.Len())
	body := newProgressReader(&buf, total, onProgress)

	data, err := c.do(ctx, http.MethodPost, "/documents/upload", nil, mw.FormDataContentType(), body, total)
	if err != nil {
		return nil, err
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode created document: %w", err)
	}
	return &doc, nil
}

// createFilePart builds the file part with a content type derived from
// the filename, which the server uses to reject non-PDF uploads.
func createFilePart(mw *multipart.Writer, filename string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))

	ct := mime.TypeByExtension(filepath.Ext(filename))
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	return mw.CreatePart(h)
}

func (c *HTTPClient) DownloadDocument(ctx context.Context, docID int64) ([]byte, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/documents/%d/download", docID), nil, "", nil, 0)
}

func (c *HTTPClient) DeleteDocument(ctx context.Context, docID int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/documents/%d", docID), nil, "", nil, 0)
	return err
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
