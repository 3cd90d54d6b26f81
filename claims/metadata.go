package claims

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/claims-web/internal/errors"
)

// Metadata is the type-specific part of a claim. The set of variants is
// closed: only this package can implement it.
type Metadata interface {
	ClaimType() Type
	isMetadata()
}

type TravelMetadata struct {
	HotelName    string `json:"hotelName" validate:"min=2"`
	FlightNumber string `json:"flightNumber" validate:"min=2"`
}

type MedicalMetadata struct {
	HospitalName       string `json:"hospitalName" validate:"min=2"`
	PrescriptionNumber string `json:"prescriptionNumber" validate:"min=5"`
}

type EntertainmentMetadata struct {
	Notes string `json:"notes,omitempty"`
}

func (TravelMetadata) ClaimType() Type        { return Travel }
func (MedicalMetadata) ClaimType() Type       { return Medical }
func (EntertainmentMetadata) ClaimType() Type { return Entertainment }

func (TravelMetadata) isMetadata()        {}
func (MedicalMetadata) isMetadata()       {}
func (EntertainmentMetadata) isMetadata() {}

// Visitor handles every metadata variant. Adding a variant adds a method here,
// so every implementation stops compiling until it handles the new case.
type Visitor interface {
	Travel(TravelMetadata)
	Medical(MedicalMetadata)
	Entertainment(EntertainmentMetadata)
}

// Visit dispatches m to the matching Visitor method
func Visit(m Metadata, v Visitor) error {
	switch md := m.(type) {
	case TravelMetadata:
		v.Travel(md)
	case *TravelMetadata:
		v.Travel(*md)
	case MedicalMetadata:
		v.Medical(md)
	case *MedicalMetadata:
		v.Medical(*md)
	case EntertainmentMetadata:
		v.Entertainment(md)
	case *EntertainmentMetadata:
		v.Entertainment(*md)
	default:
		return fmt.Errorf("%w: metadata %T", apperrors.ErrUnknownClaimType, m)
	}
	return nil
}

// EmptyMetadata returns the zero metadata for t
func EmptyMetadata(t Type) (Metadata, error) {
	switch t {
	case Travel:
		return TravelMetadata{}, nil
	case Medical:
		return MedicalMetadata{}, nil
	case Entertainment:
		return EntertainmentMetadata{}, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownClaimType, t)
}

// DecodeMetadata picks the variant from t and decodes raw into it. Missing or
// null metadata yields the empty variant.
func DecodeMetadata(t Type, raw json.RawMessage) (Metadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return EmptyMetadata(t)
	}

	var (
		m   Metadata
		err error
	)
	switch t {
	case Travel:
		var md TravelMetadata
		err = json.Unmarshal(raw, &md)
		m = md
	case Medical:
		var md MedicalMetadata
		err = json.Unmarshal(raw, &md)
		m = md
	case Entertainment:
		var md EntertainmentMetadata
		err = json.Unmarshal(raw, &md)
		m = md
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownClaimType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("[claims DecodeMetadata] %s: %w", t, err)
	}
	return m, nil
}

// trimMetadata returns m with every text field trimmed
func trimMetadata(m Metadata) Metadata {
	switch md := m.(type) {
	case TravelMetadata:
		md.HotelName = strings.TrimSpace(md.HotelName)
		md.FlightNumber = strings.TrimSpace(md.FlightNumber)
		return md
	case MedicalMetadata:
		md.HospitalName = strings.TrimSpace(md.HospitalName)
		md.PrescriptionNumber = strings.TrimSpace(md.PrescriptionNumber)
		return md
	case EntertainmentMetadata:
		md.Notes = strings.TrimSpace(md.Notes)
		return md
	}
	return m
}

// describer renders metadata as a one-line summary for the dashboard
type describer struct {
	text string
}

func (d *describer) Travel(m TravelMetadata) {
	d.text = strings.TrimSpace(m.HotelName + " · " + m.FlightNumber)
}

func (d *describer) Medical(m MedicalMetadata) {
	d.text = m.HospitalName + " · Rx " + m.PrescriptionNumber
}

func (d *describer) Entertainment(m EntertainmentMetadata) {
	d.text = m.Notes
}

// Describe returns a short human summary of m, empty for nil metadata
func Describe(m Metadata) string {
	if m == nil {
		return ""
	}
	var d describer
	if err := Visit(m, &d); err != nil {
		return ""
	}
	return d.text
}
