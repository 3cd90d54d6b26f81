package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/claims-web/gateway"
	"github.com/jrsteele09/claims-web/notify"
	"github.com/jrsteele09/claims-web/session"
	"github.com/jrsteele09/claims-web/storage"
	"github.com/stretchr/testify/require"
)

const sid = "tab-1"

type fixture struct {
	manager   *session.Manager
	center    *notify.Center
	transport *gateway.Transport
	nav       *gateway.Navigation
}

func newFixture(t *testing.T, base http.RoundTripper) *fixture {
	t.Helper()
	manager := session.NewManager(storage.NewMemory())
	return &fixture{
		manager:   manager,
		center:    notify.NewCenter(time.Minute),
		transport: gateway.New(base, manager, manager, "/login"),
		nav:       &gateway.Navigation{},
	}
}

func (f *fixture) ctx(view string) context.Context {
	return gateway.WithScope(context.Background(), gateway.Scope{
		SessionID: sid,
		View:      view,
		Navigator: f.nav,
		Notifier:  f.center.For(sid),
	})
}

func (f *fixture) client() *http.Client {
	return &http.Client{Transport: f.transport}
}

func (f *fixture) signIn(t *testing.T) *session.Store {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "a@b.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	store, err := f.manager.Get(context.Background(), sid)
	require.NoError(t, err)
	require.NoError(t, store.Login(context.Background(), raw))
	return store
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func get(t *testing.T, client *http.Client, ctx context.Context, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	return resp, err
}

func TestTransport_AttachesBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	f := newFixture(t, nil)

	t.Run("no token, no header", func(t *testing.T) {
		_, err := get(t, f.client(), f.ctx("/dashboard"), api.URL+"/claims")
		require.NoError(t, err)
		require.Equal(t, "", gotAuth.Load())
	})

	t.Run("token read from durable storage", func(t *testing.T) {
		// Written straight to storage, the in-memory store never saw it
		require.NoError(t, f.manager.Storage(sid).Set(context.Background(), storage.TokenKey, "abc.def.ghi"))

		req, err := http.NewRequestWithContext(f.ctx("/dashboard"), http.MethodGet, api.URL+"/claims", nil)
		require.NoError(t, err)
		resp, err := f.client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, "Bearer abc.def.ghi", gotAuth.Load())
		require.Empty(t, req.Header.Get("Authorization"), "the caller's request is not modified")
	})

	t.Run("no scope, no header", func(t *testing.T) {
		_, err := get(t, f.client(), context.Background(), api.URL+"/claims")
		require.NoError(t, err)
		require.Equal(t, "", gotAuth.Load())
	})
}

func TestTransport_Unauthorized(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()

	t.Run("clears the session and navigates to sign-in", func(t *testing.T) {
		f := newFixture(t, nil)
		store := f.signIn(t)
		require.True(t, store.IsAuthenticated())

		resp, err := get(t, f.client(), f.ctx("/dashboard"), api.URL+"/claims")
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "the response still reaches the caller")

		for _, key := range []string{storage.TokenKey, storage.IdentityKey} {
			_, ok, err := f.manager.Storage(sid).Get(context.Background(), key)
			require.NoError(t, err)
			require.False(t, ok, key)
		}
		require.False(t, store.IsAuthenticated(), "the in-memory store is re-synced")

		target, ok := f.nav.Target()
		require.True(t, ok)
		require.Equal(t, "/login", target)
		require.Empty(t, f.center.Live(sid))
	})

	t.Run("no navigation from the sign-in view", func(t *testing.T) {
		f := newFixture(t, nil)

		for _, view := range []string{"/login", "/login?from=%2Fdashboard"} {
			_, err := get(t, f.client(), f.ctx(view), api.URL+"/auth/login")
			require.NoError(t, err)
			_, ok := f.nav.Target()
			require.False(t, ok, view)
		}
	})

	t.Run("any endpoint", func(t *testing.T) {
		f := newFixture(t, nil)
		f.signIn(t)

		_, err := get(t, f.client(), f.ctx("/create-claim"), api.URL+"/anything/else")
		require.NoError(t, err)

		target, ok := f.nav.Target()
		require.True(t, ok)
		require.Equal(t, "/login", target)
	})
}

func TestTransport_ServerErrorIsDeduplicated(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer api.Close()

	f := newFixture(t, nil)
	store := f.signIn(t)

	for i := 0; i < 2; i++ {
		resp, err := get(t, f.client(), f.ctx("/dashboard"), api.URL+"/claims")
		require.NoError(t, err)
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}

	live := f.center.Live(sid)
	require.Len(t, live, 1)
	require.Equal(t, notify.ServerErrorID, live[0].ID)
	require.True(t, store.IsAuthenticated(), "server faults leave the session alone")
	_, ok := f.nav.Target()
	require.False(t, ok)
}

func TestTransport_Timeout(t *testing.T) {
	t.Run("client timeout", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer api.Close()

		f := newFixture(t, nil)
		store := f.signIn(t)
		client := f.client()
		client.Timeout = 50 * time.Millisecond

		_, err := get(t, client, f.ctx("/dashboard"), api.URL+"/claims")
		require.Error(t, err)

		live := f.center.Live(sid)
		require.Len(t, live, 1)
		require.Equal(t, notify.ConnectionTimeoutID, live[0].ID)
		require.True(t, store.IsAuthenticated())
	})

	t.Run("network timeout", func(t *testing.T) {
		f := newFixture(t, roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, timeoutError{}
		}))

		_, err := get(t, f.client(), f.ctx("/dashboard"), "http://api.invalid/claims")
		require.Error(t, err)
		require.Len(t, f.center.Live(sid), 1)
	})

	t.Run("caller cancellation is not reported", func(t *testing.T) {
		f := newFixture(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, context.Canceled
		}))

		ctx, cancel := context.WithCancel(f.ctx("/dashboard"))
		cancel()
		_, err := get(t, f.client(), ctx, "http://api.invalid/claims")
		require.Error(t, err)
		require.Empty(t, f.center.Live(sid))
	})

	t.Run("other transport errors are not timeouts", func(t *testing.T) {
		f := newFixture(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}))

		_, err := get(t, f.client(), f.ctx("/dashboard"), "http://api.invalid/claims")
		require.Error(t, err)
		require.Empty(t, f.center.Live(sid))
	})
}
