package models

import (
	"sort"
	"time"
)

// Document is a single patient document as the server reports it.
// The server assigns ID and UploadDate; fields are never mutated
// client-side after creation.
type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"upload_date"`
	PatientID  string    `json:"patient_id"`
}

// SortByUploadDateDesc orders docs most recent first. The ordering is
// imposed client-side and must not be assumed from the server.
func SortByUploadDateDesc(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadDate.After(docs[j].UploadDate)
	})
}
