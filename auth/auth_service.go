// Package auth implements the sign-in and registration flows on top of the
// claims API and the session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/claims-web/apiclient"
	"github.com/rs/zerolog/log"
)

// API is the part of the claims API the auth flows use
type API interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (apiclient.AuthResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.AuthResponse, error)
}

// SessionLogin is the part of session.Store sign-in needs
type SessionLogin interface {
	Login(ctx context.Context, rawToken string) error
}

// Service runs the auth flows
type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// SignIn validates form, exchanges the credentials for a token and hands it
// to the session. Any API failure is reported as InvalidCredentialsErr, the
// underlying error stays in the chain for logging.
func (s *Service) SignIn(ctx context.Context, session SessionLogin, form LoginForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	form = form.Normalize()

	resp, err := s.api.Login(ctx, apiclient.LoginRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		log.Err(err).Str("email", form.Email).Msg("[Auth SignIn] login failed")
		return fmt.Errorf("%w: %w", InvalidCredentialsErr, err)
	}

	if err := session.Login(ctx, resp.Token); err != nil {
		return fmt.Errorf("%w: %w", InvalidCredentialsErr, err)
	}
	return nil
}

// SignUp validates form and creates the account. It does not sign the user
// in; the caller sends them to the sign-in view.
func (s *Service) SignUp(ctx context.Context, form RegisterForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	form = form.Normalize()

	_, err := s.api.Register(ctx, apiclient.RegisterRequest{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
		Role:      apiclient.DefaultRole,
	})
	if err == nil {
		log.Info().Str("email", form.Email).Msg("[Auth SignUp] account created")
		return nil
	}

	log.Err(err).Str("email", form.Email).Msg("[Auth SignUp] registration failed")
	// The API answers a duplicate email with 409, older versions with 500
	switch apiclient.StatusOf(err) {
	case http.StatusConflict, http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", EmailTakenErr, err)
	}
	return fmt.Errorf("%w: %w", RegistrationFailedErr, err)
}

// UserMessage returns the text to show for an error returned by the service
func UserMessage(err error) string {
	for _, known := range []error{InvalidCredentialsErr, EmailTakenErr, RegistrationFailedErr} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "Something went wrong. Please try again."
}
