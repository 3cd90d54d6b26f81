package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/claims-web/auth"
	"github.com/jrsteele09/claims-web/guard"
	"github.com/jrsteele09/claims-web/notify"
	"github.com/rs/zerolog/log"
)

// LoginPageHandler displays the sign-in page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Sign in")
		data.From = r.URL.Query().Get(guard.FromParam)
		data.Form["email"] = r.URL.Query().Get("email")
		data.Error = r.URL.Query().Get("error")
		s.render(w, r, tmpl, http.StatusOK, data)
	}
}

// LoginSubmissionHandler processes the sign-in form (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		form := auth.LoginForm{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}
		from := r.PostFormValue(guard.FromParam)

		ctx, nav := s.apiContext(r)
		err := s.auth.SignIn(ctx, sessionFrom(r.Context()), form)
		if err == nil {
			s.notify(r, notify.Success("Welcome back!"))
			redirectSuccess(w, r, guard.SafeReturnPath(from, RouteDashboard))
			return
		}
		if followNavigation(w, r, nav) {
			return
		}

		data := s.newPageData(r, "Sign in")
		data.From = from
		data.Form["email"] = form.Email

		var formErr *auth.FormError
		if errors.As(err, &formErr) {
			data.Fields = formErr.Fields
			s.render(w, r, tmpl, http.StatusUnprocessableEntity, data)
			return
		}
		s.notify(r, notify.Error(auth.UserMessage(err)))
		s.render(w, r, tmpl, http.StatusUnauthorized, data)
	}
}

// LogoutHandler ends the browser session and returns to the sign-in page
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := sessionFrom(r.Context())
		wasSignedIn := store.IsAuthenticated()
		if err := store.Logout(r.Context()); err != nil {
			log.Err(err).Msg("[Server LogoutHandler] failed to clear session storage")
			redirectWithError(w, r, RouteLogin, "You were signed out, but your session could not be fully cleared.")
			return
		}
		if wasSignedIn {
			s.notify(r, notify.Success("Logged out successfully"))
		}
		redirectSuccess(w, r, RouteLogin)
	}
}
