package apifake

import (
	"context"
	"net/http"
	"sync"

	"github.com/jrsteele09/claims-web/apiclient"
)

// FakeAPI is an in-memory stand-in for the claims API auth endpoints
type FakeAPI struct {
	mu         sync.Mutex
	tokens     map[string]string // email -> token
	passwords  map[string]string // email -> password
	Registered []apiclient.RegisterRequest
	// RegisterStatus, when set, makes Register fail with that API status
	RegisterStatus int
}

func New() *FakeAPI {
	return &FakeAPI{
		tokens:    make(map[string]string),
		passwords: make(map[string]string),
	}
}

// AddUser makes email/password sign in with token
func (f *FakeAPI) AddUser(email, password, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[email] = password
	f.tokens[email] = token
}

func (f *FakeAPI) Login(_ context.Context, req apiclient.LoginRequest) (apiclient.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[req.Email]; !ok || pw != req.Password {
		return apiclient.AuthResponse{}, &apiclient.APIError{Status: http.StatusUnauthorized, Message: "Bad credentials"}
	}
	return apiclient.AuthResponse{Token: f.tokens[req.Email]}, nil
}

func (f *FakeAPI) Register(_ context.Context, req apiclient.RegisterRequest) (apiclient.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RegisterStatus != 0 {
		return apiclient.AuthResponse{}, &apiclient.APIError{Status: f.RegisterStatus, Message: http.StatusText(f.RegisterStatus)}
	}
	if _, exists := f.passwords[req.Email]; exists {
		return apiclient.AuthResponse{}, &apiclient.APIError{Status: http.StatusConflict, Message: "Email already in use"}
	}
	f.Registered = append(f.Registered, req)
	f.passwords[req.Email] = req.Password
	return apiclient.AuthResponse{}, nil
}
