package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/claims-web/claims"
	"github.com/jrsteele09/claims-web/notify"
	"github.com/rs/zerolog/log"
)

// DashboardHandler lists the user's claims newest first with their summary
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, nav := s.apiContext(r)
		list, err := s.api.ListClaims(ctx)
		if r.Context().Err() != nil {
			// The view was left before the claims arrived
			log.Debug().Msg("[Server DashboardHandler] request cancelled, discarding claims")
			return
		}
		if followNavigation(w, r, nav) {
			return
		}

		data := s.newPageData(r, "Dashboard")
		if err != nil {
			log.Err(err).Msg("[Server DashboardHandler] failed to load claims")
			data.LoadFailed = true
			data.Error = "Failed to load your claims. Please check your connection."
			s.render(w, r, tmpl, http.StatusBadGateway, data)
			return
		}

		data.Claims = claims.SortNewestFirst(list)
		data.Summary = claims.Summarize(list)
		s.render(w, r, tmpl, http.StatusOK, data)
	}
}

// CreateClaimPageHandler displays the new claim form (GET /create-claim). The
// type query parameter picks which detail fields are shown.
func (s *Server) CreateClaimPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("create_claim.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "New Claim")
		data.ClaimType = claims.Travel
		if t, err := claims.ParseType(r.URL.Query().Get("type")); err == nil {
			data.ClaimType = t
		}
		s.render(w, r, tmpl, http.StatusOK, data)
	}
}

// CreateClaimSubmissionHandler submits a new claim (POST /create-claim)
func (s *Server) CreateClaimSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("create_claim.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		req := claimRequestFromForm(r)

		data := s.newPageData(r, "New Claim")
		data.ClaimType = req.Type
		for _, field := range []string{"amount", "description", "hotelName", "flightNumber", "hospitalName", "prescriptionNumber", "notes"} {
			data.Form[field] = r.PostFormValue(field)
		}

		if err := req.Validate(); err != nil {
			var invalid *claims.InvalidRequestError
			if !errors.As(err, &invalid) {
				log.Err(err).Msg("[Server CreateClaimSubmissionHandler] failed to validate claim")
				http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
				return
			}
			if !req.Type.Valid() {
				data.ClaimType = claims.Travel
			}
			data.Fields = invalid.Fields
			s.render(w, r, tmpl, http.StatusUnprocessableEntity, data)
			return
		}

		ctx, nav := s.apiContext(r)
		created, err := s.api.CreateClaim(ctx, req.Normalize())
		if r.Context().Err() != nil {
			return
		}
		if followNavigation(w, r, nav) {
			return
		}
		if err != nil {
			log.Err(err).Str("claimType", string(req.Type)).Msg("[Server CreateClaimSubmissionHandler] failed to create claim")
			s.notify(r, notify.Error("Failed to submit. Try again."))
			s.render(w, r, tmpl, http.StatusOK, data)
			return
		}

		log.Info().Str("claimID", created.ID).Str("claimType", string(created.Type)).Msg("[Server CreateClaimSubmissionHandler] claim created")
		s.notify(r, notify.Success("Claim submitted successfully!"))
		redirectSuccess(w, r, RouteDashboard)
	}
}

// claimRequestFromForm builds the request from the posted form. An amount
// that does not parse is taken as zero and rejected by validation.
func claimRequestFromForm(r *http.Request) claims.CreateRequest {
	rawType := strings.TrimSpace(r.PostFormValue("claimType"))
	claimType, err := claims.ParseType(rawType)
	if err != nil {
		claimType = claims.Type(rawType)
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("amount")), 64)
	if err != nil {
		amount = 0
	}

	req := claims.CreateRequest{
		Type:        claimType,
		Amount:      amount,
		Description: r.PostFormValue("description"),
	}
	switch claimType {
	case claims.Travel:
		req.Metadata = claims.TravelMetadata{
			HotelName:    r.PostFormValue("hotelName"),
			FlightNumber: r.PostFormValue("flightNumber"),
		}
	case claims.Medical:
		req.Metadata = claims.MedicalMetadata{
			HospitalName:       r.PostFormValue("hospitalName"),
			PrescriptionNumber: r.PostFormValue("prescriptionNumber"),
		}
	case claims.Entertainment:
		req.Metadata = claims.EntertainmentMetadata{Notes: r.PostFormValue("notes")}
	}
	return req
}
