package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// maxUploadSize mirrors the server-side limit so oversized files are
// rejected before any bytes go on the wire.
const maxUploadSize = 10 << 20

var (
	errNoPatient  = errors.New("select a patient first")
	errNotPDF     = errors.New("only PDF files are allowed")
	errFileTooBig = errors.New("file is too large (max 10MB)")
)

// SelectPatient switches the document scope to the given patient and
// fetches that patient's documents.
func (a *App) SelectPatient(ctx context.Context, patientID string) error {
	a.patientID = patientID
	if err := a.docs.Fetch(ctx, patientID); err != nil {
		return err
	}
	a.printDocuments()
	return nil
}

// List re-fetches and prints the selected patient's documents.
func (a *App) List(ctx context.Context) error {
	if a.patientID == "" {
		return errNoPatient
	}
	if err := a.docs.Fetch(ctx, a.patientID); err != nil {
		return err
	}
	a.printDocuments()
	return nil
}

// Upload validates the file at path and uploads it into the selected
// patient's scope, printing whole-percent progress while the request is
// on the wire.
func (a *App) Upload(ctx context.Context, path string) error {
	if a.patientID == "" {
		return errNoPatient
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := validateUpload(path, info.Size()); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		a.showUploadProgress(done)
	}()

	doc, err := a.docs.Upload(ctx, a.patientID, filepath.Base(path), f)
	close(done)
	<-finished
	if err != nil {
		return err
	}

	a.printf("\rUploaded %s (id %d)\n", doc.Filename, doc.ID)
	return nil
}

// Download fetches a document's content and saves it under the
// configured downloads directory, printing the resulting path.
func (a *App) Download(ctx context.Context, rawID string) error {
	id, err := parseDocID(rawID)
	if err != nil {
		return err
	}

	// Reuse the server-side filename when the document is in the
	// current listing.
	filename := fmt.Sprintf("document-%d.pdf", id)
	for _, d := range a.docs.State().Items {
		if d.ID == id {
			filename = d.Filename
			break
		}
	}

	path, err := a.docs.Download(ctx, id, filename)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}

// Delete removes a document on the server and from the local listing.
func (a *App) Delete(ctx context.Context, rawID string) error {
	id, err := parseDocID(rawID)
	if err != nil {
		return err
	}
	if err := a.docs.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Deleted document %d\n", id)
	return nil
}

func (a *App) printDocuments() {
	items := a.docs.State().Items
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No documents")
		return
	}
	for _, d := range items {
		fmt.Fprintf(a.out, "%6d  %s  %8d B  %s\n", d.ID, d.UploadDate.Format(time.DateTime), d.Size, d.Filename)
	}
}

// showUploadProgress polls the upload progress and redraws a single
// status line until done is closed.
func (a *App) showUploadProgress(done chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if pct := a.docs.State().UploadProgress; pct != last {
				last = pct
				a.printf("\rUploading... %d%%", pct)
			}
		}
	}
}

func validateUpload(path string, size int64) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return errNotPDF
	}
	if size > maxUploadSize {
		return errFileTooBig
	}
	return nil
}

func parseDocID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", raw)
	}
	return id, nil
}
