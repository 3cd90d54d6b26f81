// Package guard decides whether a view may render for the current session or
// must redirect somewhere else.
//
// Gates are pure functions of the authenticated flag. They hold no state and
// never read storage, so the same gate can be evaluated on every request and
// again whenever the session changes.
package guard

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/claims-web/session"
)

// FromParam carries the originally requested location to the sign-in view
const FromParam = "from"

// Action is the outcome of a gate
type Action int

const (
	Render Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "render"
}

// Decision is what a gate wants done with a request
type Decision struct {
	Action   Action
	Location string // Set when Action is Redirect
}

// Redirects reports whether the decision sends the user elsewhere
func (d Decision) Redirects() bool {
	return d.Action == Redirect
}

// Gate decides between rendering the requested view and redirecting
type Gate interface {
	Decide(authenticated bool, requested string) Decision
}

// RequireAuthenticated renders only for signed in sessions. Everyone else is
// sent to SignIn, with the requested location carried in the from parameter.
type RequireAuthenticated struct {
	SignIn string
}

func (g RequireAuthenticated) Decide(authenticated bool, requested string) Decision {
	if authenticated {
		return Decision{Action: Render}
	}
	return Decision{Action: Redirect, Location: signInLocation(g.SignIn, requested)}
}

// RequireGuest renders only for signed out sessions, such as the sign-in and
// register views. Signed in users go to Landing.
type RequireGuest struct {
	Landing string
}

func (g RequireGuest) Decide(authenticated bool, _ string) Decision {
	if authenticated {
		return Decision{Action: Redirect, Location: g.Landing}
	}
	return Decision{Action: Render}
}

func signInLocation(signIn, requested string) string {
	if requested == "" || samePath(requested, signIn) {
		return signIn
	}
	return signIn + "?" + url.Values{FromParam: {requested}}.Encode()
}

func samePath(location, path string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Path == path
}

// SafeReturnPath returns from when it is a same-origin absolute path, and
// fallback otherwise. Scheme-relative and backslash tricks are rejected.
func SafeReturnPath(from, fallback string) string {
	if from == "" || !strings.HasPrefix(from, "/") {
		return fallback
	}
	if strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") || strings.ContainsAny(from, "\\\r\n") {
		return fallback
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return from
}

// Subscriber is the part of session.Store a Watch needs
type Subscriber interface {
	IsAuthenticated() bool
	Subscribe(fn func(session.State)) (unsubscribe func())
}

// Watch re-evaluates gate for requested on every session change and calls
// navigate each time the decision is a redirect. The current state is
// evaluated immediately, so a view that is already out of bounds is left at
// once. The returned func stops watching.
func Watch(store Subscriber, gate Gate, requested string, navigate func(Decision)) (stop func()) {
	stop = store.Subscribe(func(state session.State) {
		if d := gate.Decide(state.Authenticated, requested); d.Redirects() {
			navigate(d)
		}
	})
	if d := gate.Decide(store.IsAuthenticated(), requested); d.Redirects() {
		navigate(d)
	}
	return stop
}
