package claims

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/claims-web/internal/errors"
	"github.com/jrsteele09/claims-web/internal/validation"
)

// CreateRequest is the body of POST /claims
type CreateRequest struct {
	Type        Type     `json:"claimType" validate:"required"`
	Amount      float64  `json:"amount" validate:"gte=1,lte=100000"`
	Description string   `json:"description" validate:"min=5"`
	Metadata    Metadata `json:"metadata" validate:"-"`
}

type createRequestJSON struct {
	Type        Type            `json:"claimType"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (r CreateRequest) MarshalJSON() ([]byte, error) {
	md := r.Metadata
	if md == nil {
		var err error
		if md, err = EmptyMetadata(r.Type); err != nil {
			return nil, err
		}
	}
	mdJSON, err := json.Marshal(md)
	if err != nil {
		return nil, err
	}
	return json.Marshal(createRequestJSON{
		Type:        r.Type,
		Amount:      r.Amount,
		Description: r.Description,
		Metadata:    mdJSON,
	})
}

func (r *CreateRequest) UnmarshalJSON(data []byte) error {
	var raw createRequestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	md, err := DecodeMetadata(raw.Type, raw.Metadata)
	if err != nil {
		return err
	}
	*r = CreateRequest{Type: raw.Type, Amount: raw.Amount, Description: raw.Description, Metadata: md}
	return nil
}

var validator = validation.New(validation.Messages{
	"claimType":                   "Select a claim category",
	"amount.gte":                  "Amount must be at least $1",
	"amount.lte":                  "Amount cannot exceed $100,000",
	"description":                 "Description is too short",
	"metadata.hotelName":          "Hotel name is required",
	"metadata.flightNumber":       "Flight number is required",
	"metadata.hospitalName":       "Hospital name is required",
	"metadata.prescriptionNumber": "Rx Number must be 5+ chars",
})

// Normalize trims every text field
func (r CreateRequest) Normalize() CreateRequest {
	r.Description = strings.TrimSpace(r.Description)
	if r.Metadata != nil {
		r.Metadata = trimMetadata(r.Metadata)
	}
	return r
}

// Validate checks r after normalizing it. Field errors are returned as
// validation.FieldErrors, which also wraps ErrInvalidInput.
func (r CreateRequest) Validate() error {
	r = r.Normalize()

	fieldErrs, err := validator.Struct(r, "")
	if err != nil {
		return err
	}

	if !r.Type.Valid() {
		fieldErrs = fieldErrs.Merge(validation.FieldErrors{"claimType": "Select a claim category"})
	} else if r.Metadata != nil && r.Metadata.ClaimType() != r.Type {
		fieldErrs = fieldErrs.Merge(validation.FieldErrors{"metadata": fmt.Sprintf("Details do not match a %s claim", r.Type.Label())})
	} else if r.Metadata != nil {
		mdErrs, err := validator.Struct(r.Metadata, "metadata.")
		if err != nil {
			return err
		}
		fieldErrs = fieldErrs.Merge(mdErrs)
	} else if r.Type != Entertainment {
		// Only entertainment claims may omit their details
		empty, _ := EmptyMetadata(r.Type)
		mdErrs, err := validator.Struct(empty, "metadata.")
		if err != nil {
			return err
		}
		fieldErrs = fieldErrs.Merge(mdErrs)
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return &InvalidRequestError{Fields: fieldErrs}
}

// InvalidRequestError carries per-field messages for a rejected form
type InvalidRequestError struct {
	Fields validation.FieldErrors
}

func (e *InvalidRequestError) Error() string {
	return e.Fields.Error()
}

func (e *InvalidRequestError) Unwrap() error {
	return apperrors.ErrInvalidInput
}
