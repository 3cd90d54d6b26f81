// Package apitest runs an in-process fake of the claims REST API for tests
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/claims-web/apiclient"
)

// Server is a fake claims API. Every /claims call must carry the bearer
// token handed out by /auth/login, otherwise it answers 401.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	passwords map[string]string
	token     string
	revoked   bool
	claims    []map[string]any
	created   []map[string]any

	// Status overrides; zero means behave normally
	RegisterStatus int
	ListStatus     int
	CreateStatus   int
}

// New starts a fake API whose logins return token
func New(token string) *Server {
	s := &Server{
		passwords: make(map[string]string),
		token:     token,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiclient.PathLogin, s.login)
	mux.HandleFunc("POST "+apiclient.PathRegister, s.register)
	mux.HandleFunc("GET "+apiclient.PathClaims, s.listClaims)
	mux.HandleFunc("POST "+apiclient.PathClaims, s.createClaim)
	s.Server = httptest.NewServer(mux)
	return s
}

// AddUser registers email with password
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[email] = password
}

// AddClaim adds a claim, as JSON fields, to the listing
func (s *Server) AddClaim(claim map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims = append(s.claims, claim)
}

// Created returns the bodies of every accepted POST /claims
func (s *Server) Created() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.created...)
}

// Revoke makes the API reject the issued token from now on
func (s *Server) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req apiclient.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}
	s.mu.Lock()
	pw, ok := s.passwords[req.Email]
	s.mu.Unlock()
	if !ok || pw != req.Password {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	writeJSON(w, http.StatusOK, apiclient.AuthResponse{Token: s.token})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req apiclient.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RegisterStatus != 0 {
		writeError(w, s.RegisterStatus, http.StatusText(s.RegisterStatus))
		return
	}
	if _, exists := s.passwords[req.Email]; exists {
		writeError(w, http.StatusConflict, "Email already in use")
		return
	}
	s.passwords[req.Email] = req.Password
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusCreated)
	_, _ = io.WriteString(w, "User registered successfully!")
}

func (s *Server) listClaims(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Full authentication is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListStatus != 0 {
		writeError(w, s.ListStatus, http.StatusText(s.ListStatus))
		return
	}
	list := append([]map[string]any{}, s.claims...)
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createClaim(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Full authentication is required")
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateStatus != 0 {
		writeError(w, s.CreateStatus, http.StatusText(s.CreateStatus))
		return
	}
	s.created = append(s.created, body)

	claim := map[string]any{
		"id":          uuid.NewString(),
		"claimType":   body["claimType"],
		"amount":      body["amount"],
		"description": body["description"],
		"metadata":    body["metadata"],
		"status":      "PENDING",
		"createdAt":   time.Now().UTC().Format("2006-01-02T15:04:05"),
	}
	s.claims = append(s.claims, claim)
	writeJSON(w, http.StatusCreated, claim)
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && !s.revoked && got == s.token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"statusCode":  status,
		"timestamp":   time.Now().UTC().Format("2006-01-02T15:04:05"),
		"message":     message,
		"description": "uri=/api/v1",
	})
}
