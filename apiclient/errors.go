package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/claims-web/internal/errors"
)

// ErrUnauthorized matches every 401 from the API
var ErrUnauthorized = apperrors.ErrUnauthorized

// ErrorResponse is the API's error body
type ErrorResponse struct {
	StatusCode  int    `json:"statusCode"`
	Timestamp   string `json:"timestamp"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// APIError is a non-2xx answer from the API
type APIError struct {
	Status      int
	Message     string
	Description string
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}

	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		e.Message = resp.Message
		e.Description = resp.Description
		return e
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		e.Message = text
	} else {
		e.Message = http.StatusText(status)
	}
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api responded %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the shared sentinels, so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return apperrors.ErrServerFault
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return apperrors.ErrInvalidInput
	}
	return nil
}

// StatusOf returns the API status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if apperrors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
