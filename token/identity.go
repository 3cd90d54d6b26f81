// Package token decodes the claims API's bearer tokens into an Identity.
//
// Decoding does NOT verify the signature. The client never holds the signing
// key, so the decoded Identity is only good for display and for the local
// expiry check at restoration. Every authorization decision is made again by
// the API, which rejects bad tokens with 401.
package token

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/claims-web/internal/errors"
	"golang.org/x/oauth2"
)

// Identity is the user information carried in the token payload
type Identity struct {
	UserID    string   `json:"userId,omitempty"`
	Sub       string   `json:"sub"` // Subject, the user's email for this API
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Exp       *float64 `json:"exp,omitempty"` // Seconds since epoch
}

// claims mirrors Identity for the jwt parser. exp is kept as a raw number so
// fractional values survive and a missing claim stays nil.
type claims struct {
	UserID    any      `json:"userId,omitempty"`
	Sub       string   `json:"sub"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Exp       *float64 `json:"exp,omitempty"`
}

func (c claims) GetExpirationTime() (*jwtlib.NumericDate, error) { return nil, nil }
func (c claims) GetIssuedAt() (*jwtlib.NumericDate, error)       { return nil, nil }
func (c claims) GetNotBefore() (*jwtlib.NumericDate, error)      { return nil, nil }
func (c claims) GetIssuer() (string, error)                      { return "", nil }
func (c claims) GetSubject() (string, error)                     { return c.Sub, nil }
func (c claims) GetAudience() (jwtlib.ClaimStrings, error)       { return nil, nil }

// Decode reads the payload of a JWT without verifying its signature.
func Decode(rawToken string) (Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Identity{}, fmt.Errorf("%w: empty token", apperrors.ErrMalformedToken)
	}

	var c claims
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, &c); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedToken, err)
	}

	return Identity{
		UserID:    userIDString(c.UserID),
		Sub:       c.Sub,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Roles:     c.Roles,
		Exp:       c.Exp,
	}, nil
}

// userId is a UUID string from the auth service but older tokens carried numbers
func userIDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}

// ExpiredAt reports whether the token expired strictly before now.
// A token without an exp claim never expires on the client.
func (i Identity) ExpiredAt(now time.Time) bool {
	if i.Exp == nil {
		return false
	}
	currentTime := float64(now.Unix()) + float64(now.Nanosecond())/float64(time.Second)
	return *i.Exp < currentTime
}

// ExpiresAt returns the expiry as a time, zero when the token carries none
func (i Identity) ExpiresAt() time.Time {
	if i.Exp == nil {
		return time.Time{}
	}
	sec := int64(*i.Exp)
	nsec := int64((*i.Exp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// DisplayName returns the name shown in the dashboard greeting
func (i Identity) DisplayName() string {
	if i.FirstName != "" {
		return strings.TrimSpace(i.FirstName + " " + i.LastName)
	}
	if i.Sub != "" {
		return i.Sub
	}
	if i.Email != "" {
		return i.Email
	}
	return "User"
}

// Bearer wraps a raw token for header attachment
func Bearer(rawToken string, identity *Identity) *oauth2.Token {
	t := &oauth2.Token{AccessToken: rawToken, TokenType: "Bearer"}
	if identity != nil {
		t.Expiry = identity.ExpiresAt()
	}
	return t
}
