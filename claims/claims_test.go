package claims_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jrsteele09/claims-web/claims"
	apperrors "github.com/jrsteele09/claims-web/internal/errors"
	"github.com/stretchr/testify/require"
)

type recordingVisitor struct {
	seen []string
}

func (v *recordingVisitor) Travel(m claims.TravelMetadata) {
	v.seen = append(v.seen, "travel:"+m.HotelName)
}
func (v *recordingVisitor) Medical(m claims.MedicalMetadata) {
	v.seen = append(v.seen, "medical:"+m.HospitalName)
}
func (v *recordingVisitor) Entertainment(m claims.EntertainmentMetadata) {
	v.seen = append(v.seen, "entertainment:"+m.Notes)
}

func TestVisit(t *testing.T) {
	v := &recordingVisitor{}
	require.NoError(t, claims.Visit(claims.TravelMetadata{HotelName: "Hilton"}, v))
	require.NoError(t, claims.Visit(&claims.MedicalMetadata{HospitalName: "St Mary"}, v))
	require.NoError(t, claims.Visit(claims.EntertainmentMetadata{Notes: "dinner"}, v))
	require.Equal(t, []string{"travel:Hilton", "medical:St Mary", "entertainment:dinner"}, v.seen)

	require.ErrorIs(t, claims.Visit(nil, v), apperrors.ErrUnknownClaimType)
}

func TestParseType(t *testing.T) {
	for _, s := range []string{"TRAVEL", "travel", " Medical "} {
		_, err := claims.ParseType(s)
		require.NoError(t, err, s)
	}
	_, err := claims.ParseType("GROCERIES")
	require.ErrorIs(t, err, apperrors.ErrUnknownClaimType)
}

func TestStatus_Normalized(t *testing.T) {
	require.Equal(t, claims.Approved, claims.Approved.Normalized())
	require.Equal(t, claims.Rejected, claims.Rejected.Normalized())
	require.Equal(t, claims.Pending, claims.Status("IN_REVIEW").Normalized())
	require.Equal(t, "Pending", claims.Status("").Label())
}

func TestCreateRequest_JSON(t *testing.T) {
	t.Run("marshal", func(t *testing.T) {
		req := claims.CreateRequest{
			Type:        claims.Travel,
			Amount:      250.5,
			Description: "Flight to New York",
			Metadata:    claims.TravelMetadata{HotelName: "Hilton", FlightNumber: "BA117"},
		}
		data, err := json.Marshal(req)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"claimType": "TRAVEL",
			"amount": 250.5,
			"description": "Flight to New York",
			"metadata": {"hotelName": "Hilton", "flightNumber": "BA117"}
		}`, string(data))
	})

	t.Run("nil metadata is sent as the empty variant", func(t *testing.T) {
		data, err := json.Marshal(claims.CreateRequest{Type: claims.Entertainment, Amount: 10, Description: "Team lunch"})
		require.NoError(t, err)
		require.JSONEq(t, `{"claimType":"ENTERTAINMENT","amount":10,"description":"Team lunch","metadata":{}}`, string(data))
	})

	t.Run("unmarshal picks the variant", func(t *testing.T) {
		var req claims.CreateRequest
		require.NoError(t, json.Unmarshal([]byte(`{
			"claimType": "MEDICAL",
			"amount": 80,
			"description": "Checkup",
			"metadata": {"hospitalName": "St Mary", "prescriptionNumber": "RX12345"}
		}`), &req))
		require.Equal(t, claims.MedicalMetadata{HospitalName: "St Mary", PrescriptionNumber: "RX12345"}, req.Metadata)
	})

	t.Run("unmarshal rejects unknown types", func(t *testing.T) {
		var req claims.CreateRequest
		err := json.Unmarshal([]byte(`{"claimType":"GROCERIES","metadata":{}}`), &req)
		require.ErrorIs(t, err, apperrors.ErrUnknownClaimType)
	})
}

func TestCreateRequest_Validate(t *testing.T) {
	valid := claims.CreateRequest{
		Type:        claims.Travel,
		Amount:      100,
		Description: "Conference trip",
		Metadata:    claims.TravelMetadata{HotelName: "Hilton", FlightNumber: "BA117"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(r *claims.CreateRequest)
		field  string
		msg    string
	}{
		{"amount below 1", func(r *claims.CreateRequest) { r.Amount = 0.5 }, "amount", "Amount must be at least $1"},
		{"amount above 100000", func(r *claims.CreateRequest) { r.Amount = 100000.01 }, "amount", "Amount cannot exceed $100,000"},
		{"description trimmed", func(r *claims.CreateRequest) { r.Description = "  abc  " }, "description", "Description is too short"},
		{"hotel", func(r *claims.CreateRequest) {
			r.Metadata = claims.TravelMetadata{HotelName: " H ", FlightNumber: "BA117"}
		}, "metadata.hotelName", "Hotel name is required"},
		{"flight", func(r *claims.CreateRequest) {
			r.Metadata = claims.TravelMetadata{HotelName: "Hilton"}
		}, "metadata.flightNumber", "Flight number is required"},
		{"prescription", func(r *claims.CreateRequest) {
			r.Type = claims.Medical
			r.Metadata = claims.MedicalMetadata{HospitalName: "St Mary", PrescriptionNumber: "RX1"}
		}, "metadata.prescriptionNumber", "Rx Number must be 5+ chars"},
		{"hospital", func(r *claims.CreateRequest) {
			r.Type = claims.Medical
			r.Metadata = claims.MedicalMetadata{HospitalName: "S", PrescriptionNumber: "RX12345"}
		}, "metadata.hospitalName", "Hospital name is required"},
		{"missing travel details", func(r *claims.CreateRequest) { r.Metadata = nil }, "metadata.hotelName", "Hotel name is required"},
		{"mismatched metadata", func(r *claims.CreateRequest) {
			r.Metadata = claims.EntertainmentMetadata{}
		}, "metadata", "Details do not match a Travel Expense claim"},
		{"unknown type", func(r *claims.CreateRequest) { r.Type = "travel" }, "claimType", "Select a claim category"},
		{"missing type", func(r *claims.CreateRequest) { r.Type = "" }, "claimType", "Select a claim category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.modify(&req)

			err := req.Validate()
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)

			var invalid *claims.InvalidRequestError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, tt.msg, invalid.Fields[tt.field])
		})
	}

	t.Run("entertainment notes are optional", func(t *testing.T) {
		req := claims.CreateRequest{Type: claims.Entertainment, Amount: 1, Description: "Team lunch"}
		require.NoError(t, req.Validate())
		req.Metadata = claims.EntertainmentMetadata{}
		require.NoError(t, req.Validate())
	})

	t.Run("boundaries", func(t *testing.T) {
		req := valid
		req.Amount = 1
		require.NoError(t, req.Validate())
		req.Amount = 100000
		require.NoError(t, req.Validate())
	})
}

func TestClaim_UnmarshalJSON(t *testing.T) {
	var list []claims.Claim
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": "6f1c", "claimType": "TRAVEL", "amount": 120.5, "description": "Trip", "status": "APPROVED",
		 "createdAt": "2025-03-01T10:15:30.123456", "metadata": {"hotelName": "Hilton", "flightNumber": "BA117"}},
		{"id": 42, "claimType": "MEDICAL", "amount": 30, "description": "Pharmacy", "status": "PENDING",
		 "createdDate": "2025-03-02"},
		{"id": "x", "claimType": "GROCERIES", "amount": 1, "description": "Milk", "status": "WEIRD", "metadata": {"a": 1}}
	]`), &list))

	require.Len(t, list, 3)
	require.Equal(t, "6f1c", list[0].ID)
	require.Equal(t, claims.TravelMetadata{HotelName: "Hilton", FlightNumber: "BA117"}, list[0].Metadata)
	require.Equal(t, "Hilton · BA117", list[0].Details())
	require.Equal(t, time.Date(2025, 3, 1, 10, 15, 30, 123456000, time.UTC), list[0].Created())

	require.Equal(t, "42", list[1].ID)
	require.Equal(t, claims.MedicalMetadata{}, list[1].Metadata, "missing metadata is the empty variant")
	require.Equal(t, "2025-03-02", list[1].CreatedRaw())

	require.Nil(t, list[2].Metadata)
	require.Equal(t, claims.Pending, list[2].Status.Normalized())
	require.True(t, list[2].Created().IsZero())
}

func TestSortNewestFirst(t *testing.T) {
	list := []claims.Claim{
		{ID: "old", CreatedAt: "2025-01-01T00:00:00"},
		{ID: "undated"},
		{ID: "new", CreatedDate: "2025-06-01"},
		{ID: "mid", CreatedAt: "2025-03-01T00:00:00Z"},
	}

	sorted := claims.SortNewestFirst(list)

	ids := make([]string, len(sorted))
	for i, c := range sorted {
		ids[i] = c.ID
	}
	require.Equal(t, []string{"new", "mid", "old", "undated"}, ids)
	require.Equal(t, "old", list[0].ID, "input is not reordered")
}

func TestSummarize(t *testing.T) {
	require.Equal(t, claims.Summary{}, claims.Summarize(nil))

	s := claims.Summarize([]claims.Claim{{Amount: 100}, {Amount: 50.5}, {Amount: 9.5}})
	require.Equal(t, 3, s.Count)
	require.InDelta(t, 160.0, s.Total, 1e-9)
	require.InDelta(t, 53.333333, s.Average, 1e-6)
}

func TestFormatCurrency(t *testing.T) {
	tests := map[float64]string{
		0:          "$0.00",
		1:          "$1.00",
		9.5:        "$9.50",
		1234.5:     "$1,234.50",
		100000:     "$100,000.00",
		1234567.89: "$1,234,567.89",
		-42.1:      "-$42.10",
	}
	for amount, want := range tests {
		require.Equal(t, want, claims.FormatCurrency(amount), "%v", amount)
	}
	require.Equal(t, "$0.00", claims.FormatCurrency(math.NaN()))
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "N/A", claims.FormatDate(""))
	require.Equal(t, "Invalid Date", claims.FormatDate("yesterday"))
	require.Equal(t, "Mar 1, 2025", claims.FormatDate("2025-03-01T10:15:30"))
	require.Equal(t, "Dec 31, 2024", claims.FormatDate("2024-12-31"))
}
