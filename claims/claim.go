// Package claims models reimbursement claims as the claims API sends and
// accepts them, and the summaries the dashboard shows.
package claims

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/claims-web/internal/errors"
)

// Type is the claim category, which also selects the metadata variant
type Type string

const (
	Travel        Type = "TRAVEL"
	Medical       Type = "MEDICAL"
	Entertainment Type = "ENTERTAINMENT"
)

// Types lists every claim type in display order
func Types() []Type {
	return []Type{Travel, Medical, Entertainment}
}

// ParseType accepts a claim type in any letter case
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case Travel, Medical, Entertainment:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownClaimType, s)
}

// Valid reports whether t is one of the known types, in API letter case
func (t Type) Valid() bool {
	switch t {
	case Travel, Medical, Entertainment:
		return true
	}
	return false
}

// Label is the name shown in the claim type picker
func (t Type) Label() string {
	switch t {
	case Travel:
		return "Travel Expense"
	case Medical:
		return "Medical / Health"
	case Entertainment:
		return "Entertainment"
	}
	return string(t)
}

type Status string

const (
	Pending  Status = "PENDING"
	Approved Status = "APPROVED"
	Rejected Status = "REJECTED"
)

// Normalized maps unknown statuses to Pending
func (s Status) Normalized() Status {
	switch s {
	case Approved, Rejected:
		return s
	}
	return Pending
}

func (s Status) Label() string {
	switch s.Normalized() {
	case Approved:
		return "Approved"
	case Rejected:
		return "Rejected"
	}
	return "Pending"
}

// Claim is a claim as returned by the API
type Claim struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId,omitempty"`
	Type        Type     `json:"claimType"`
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	CreatedDate string   `json:"createdDate,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

type claimJSON struct {
	ID          any             `json:"id"`
	UserID      any             `json:"userId,omitempty"`
	Type        Type            `json:"claimType"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Status      Status          `json:"status"`
	CreatedDate string          `json:"createdDate,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// UnmarshalJSON picks the metadata variant from claimType. Unknown types and
// unreadable metadata leave Metadata nil rather than failing the whole list.
func (c *Claim) UnmarshalJSON(data []byte) error {
	var raw claimJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Claim{
		ID:          idString(raw.ID),
		UserID:      idString(raw.UserID),
		Type:        raw.Type,
		Amount:      raw.Amount,
		Description: raw.Description,
		Status:      raw.Status,
		CreatedDate: raw.CreatedDate,
		CreatedAt:   raw.CreatedAt,
	}
	if md, err := DecodeMetadata(raw.Type, raw.Metadata); err == nil {
		c.Metadata = md
	}
	return nil
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	}
	return fmt.Sprint(v)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreatedRaw returns createdDate, falling back to createdAt
func (c Claim) CreatedRaw() string {
	if c.CreatedDate != "" {
		return c.CreatedDate
	}
	return c.CreatedAt
}

// Created returns the creation time, the zero time when missing or unparseable
func (c Claim) Created() time.Time {
	t, _ := parseTime(c.CreatedRaw())
	return t
}

// Details is the metadata summary line
func (c Claim) Details() string {
	return Describe(c.Metadata)
}
