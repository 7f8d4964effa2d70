// Package apitest provides an in-process fake of the patient-document
// API for transport and client tests. It mirrors the real backend's
// observable behavior: JWT bearer auth, `{"detail": ...}` error bodies,
// multipart uploads, and per-patient document listing.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/meddocs/internal/client/models"
	"github.com/dmitrijs2005/meddocs/internal/common"
)

const maxUploadSize = 10 << 20

type account struct {
	id           int64
	username     string
	email        string
	passwordHash []byte
}

type storedDoc struct {
	doc        models.Document
	storageKey string
	content    []byte
}

// Server is a fake backend running on a local listener. Close it when
// the test is done.
type Server struct {
	*httptest.Server

	secret []byte

	mu      sync.Mutex
	users   map[string]*account
	docs    map[int64]*storedDoc
	nextUID int64
	nextDoc int64
}

func New() *Server {
	s := &Server{
		secret: []byte("apitest-signing-secret"),
		users:  make(map[string]*account),
		docs:   make(map[int64]*storedDoc),
	}

	r := mux.NewRouter()
	r.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	docs := r.PathPrefix("/documents").Subrouter()
	docs.Use(s.requireAuth)
	docs.HandleFunc("", s.handleList).Methods(http.MethodGet)
	docs.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	docs.HandleFunc("/{id:[0-9]+}/download", s.handleDownload).Methods(http.MethodGet)
	docs.HandleFunc("/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)

	s.Server = httptest.NewServer(r)
	return s
}

// SeedDocument stores a document directly, bypassing the upload route.
func (s *Server) SeedDocument(patientID, filename string, uploadDate time.Time, content []byte) models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDoc++
	doc := models.Document{
		ID:         s.nextDoc,
		Filename:   filename,
		Size:       int64(len(content)),
		UploadDate: uploadDate,
		PatientID:  patientID,
	}
	s.docs[doc.ID] = &storedDoc{
		doc:        doc,
		storageKey: uuid.NewString() + ".pdf",
		content:    append([]byte(nil), content...),
	}
	return doc
}

// HasDocument reports whether a document with the given id still exists.
func (s *Server) HasDocument(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[id]
	return ok
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.Username]; ok {
		writeError(w, http.StatusBadRequest, "Username already registered")
		return
	}
	for _, u := range s.users {
		if u.email == req.Email {
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters long")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not create user")
		return
	}

	s.nextUID++
	acc := &account{id: s.nextUID, username: req.Username, email: req.Email, passwordHash: hash}
	s.users[req.Username] = acc

	s.writeToken(w, acc)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[creds.Username]
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	s.writeToken(w, acc)
}

func (s *Server) writeToken(w http.ResponseWriter, acc *account) {
	claims := jwt.MapClaims{
		"user_id": acc.id,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      acc.id,
		Username:    acc.username,
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthHeaderName)
		raw, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	// Insertion order, deliberately not sorted by date: ordering the
	// list is the client's job.
	list := make([]models.Document, 0)
	for id := int64(1); id <= s.nextDoc; id++ {
		if d, ok := s.docs[id]; ok && d.doc.PatientID == patientID {
			list = append(list, d.doc)
		}
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file part")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		writeError(w, http.StatusBadRequest, "Only PDF files allowed.")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read file")
		return
	}
	if len(content) > maxUploadSize {
		writeError(w, http.StatusBadRequest, "File too large (max 10MB).")
		return
	}

	patientID := r.FormValue("patient_id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	s.mu.Lock()
	s.nextDoc++
	doc := models.Document{
		ID:         s.nextDoc,
		Filename:   header.Filename,
		Size:       int64(len(content)),
		UploadDate: time.Now().UTC().Truncate(time.Second),
		PatientID:  patientID,
	}
	s.docs[doc.ID] = &storedDoc{
		doc:        doc,
		storageKey: uuid.NewString() + ".pdf",
		content:    content,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	s.mu.Lock()
	d, ok := s.docs[id]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Document not found.")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.doc.Filename))
	_, _ = w.Write(d.content)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	s.mu.Lock()
	_, ok := s.docs[id]
	delete(s.docs, id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Document not found.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
