package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/claims-web/auth"
	"github.com/jrsteele09/claims-web/notify"
)

// RegisterPageHandler displays the registration page (GET /register)
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, tmpl, http.StatusOK, s.newPageData(r, "Create account"))
	}
}

// RegisterSubmissionHandler creates the account (POST /register). The user is
// not signed in; they are sent to the sign-in page.
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		form := auth.RegisterForm{
			FirstName:       r.PostFormValue("firstName"),
			LastName:        r.PostFormValue("lastName"),
			Email:           r.PostFormValue("email"),
			Password:        r.PostFormValue("password"),
			ConfirmPassword: r.PostFormValue("confirmPassword"),
		}

		ctx, nav := s.apiContext(r)
		err := s.auth.SignUp(ctx, form)
		if err == nil {
			s.notify(r, notify.Success("Account created! Please log in."))
			redirectSuccess(w, r, RouteLogin)
			return
		}
		if followNavigation(w, r, nav) {
			return
		}

		data := s.newPageData(r, "Create account")
		data.Form["firstName"] = form.FirstName
		data.Form["lastName"] = form.LastName
		data.Form["email"] = form.Email

		var formErr *auth.FormError
		if errors.As(err, &formErr) {
			data.Fields = formErr.Fields
			s.render(w, r, tmpl, http.StatusUnprocessableEntity, data)
			return
		}
		s.notify(r, notify.Error(auth.UserMessage(err)))
		s.render(w, r, tmpl, http.StatusOK, data)
	}
}
