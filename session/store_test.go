package session_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/claims-web/internal/errors"
	"github.com/jrsteele09/claims-web/session"
	"github.com/jrsteele09/claims-web/storage"
	"github.com/stretchr/testify/require"
)

var testNow = time.Unix(1760000000, 0)

func fixedClock() time.Time { return testNow }

func signedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	return signedToken(t, jwtlib.MapClaims{"sub": "a@b.com", "roles": []string{"ROLE_EMPLOYEE"}, "exp": exp.Unix()})
}

func newTestStore(t *testing.T) (*session.Store, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	return session.NewStore(kv, session.WithClock(fixedClock)), kv
}

func requireStorageCleared(t *testing.T, kv storage.Store) {
	t.Helper()
	for _, key := range []string{storage.TokenKey, storage.IdentityKey} {
		_, ok, err := kv.Get(context.Background(), key)
		require.NoError(t, err)
		require.False(t, ok, "%s should be absent", key)
	}
}

func requireConsistent(t *testing.T, state session.State) {
	t.Helper()
	if state.Authenticated {
		require.NotEmpty(t, state.Token)
		require.NotNil(t, state.Identity)
		return
	}
	require.Empty(t, state.Token)
	require.Nil(t, state.Identity)
}

func TestStore_Login(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		store, kv := newTestStore(t)
		raw := tokenExpiringAt(t, testNow.Add(time.Hour))

		require.NoError(t, store.Login(context.Background(), raw))

		state := store.State()
		require.True(t, state.Authenticated)
		require.Equal(t, raw, state.Token)
		require.Equal(t, "a@b.com", state.Identity.Sub)

		persisted, ok, err := kv.Get(context.Background(), storage.TokenKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, raw, persisted)

		snapshot, ok, err := kv.Get(context.Background(), storage.IdentityKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Contains(t, snapshot, `"sub":"a@b.com"`)
		require.Contains(t, snapshot, `"ROLE_EMPLOYEE"`)
	})

	t.Run("not a jwt", func(t *testing.T) {
		store, kv := newTestStore(t)
		ctx := context.Background()

		err := store.Login(ctx, "not-a-jwt")
		require.ErrorIs(t, err, apperrors.ErrLoginFailed)
		require.ErrorIs(t, err, apperrors.ErrMalformedToken)

		state := store.State()
		require.False(t, state.Authenticated)
		require.Empty(t, state.Token)
		requireConsistent(t, state)
		requireStorageCleared(t, kv)
	})

	t.Run("malformed token replaces an existing session", func(t *testing.T) {
		store, kv := newTestStore(t)
		ctx := context.Background()
		require.NoError(t, store.Login(ctx, tokenExpiringAt(t, testNow.Add(time.Hour))))

		for _, malformed := range []string{"", "a.b", "x.y.z", "eyJhbGciOiJIUzI1NiJ9.e30"} {
			require.Error(t, store.Login(ctx, malformed), malformed)
			requireConsistent(t, store.State())
			require.False(t, store.IsAuthenticated())
			requireStorageCleared(t, kv)
		}
	})
}

func TestStore_Logout(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Login(ctx, tokenExpiringAt(t, testNow.Add(time.Hour))))

	require.NoError(t, store.Logout(ctx))
	once := store.State()
	requireStorageCleared(t, kv)

	require.NoError(t, store.Logout(ctx))
	twice := store.State()

	require.Equal(t, once, twice)
	require.False(t, twice.Authenticated)
	requireConsistent(t, twice)
	requireStorageCleared(t, kv)
}

func TestStore_RestoreSession(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing persisted", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.RestoreSession(ctx))
		require.False(t, store.IsAuthenticated())
	})

	t.Run("valid token", func(t *testing.T) {
		store, kv := newTestStore(t)
		require.NoError(t, kv.Set(ctx, storage.TokenKey, tokenExpiringAt(t, testNow.Add(3600*time.Second))))

		require.NoError(t, store.RestoreSession(ctx))

		state := store.State()
		require.True(t, state.Authenticated)
		require.Equal(t, "a@b.com", state.Identity.Sub)

		_, ok, err := kv.Get(ctx, storage.IdentityKey)
		require.NoError(t, err)
		require.True(t, ok, "identity snapshot is written with the token")
	})

	t.Run("expired token", func(t *testing.T) {
		for _, past := range []time.Duration{time.Second, time.Minute, 24 * time.Hour, 365 * 24 * time.Hour} {
			store, kv := newTestStore(t)
			require.NoError(t, kv.Set(ctx, storage.TokenKey, tokenExpiringAt(t, testNow.Add(-past))))
			require.NoError(t, kv.Set(ctx, storage.IdentityKey, `{"sub":"a@b.com"}`))

			require.NoError(t, store.RestoreSession(ctx))
			require.False(t, store.IsAuthenticated(), past.String())
			requireStorageCleared(t, kv)
		}
	})

	t.Run("expiry equal to now is valid", func(t *testing.T) {
		store, kv := newTestStore(t)
		require.NoError(t, kv.Set(ctx, storage.TokenKey, tokenExpiringAt(t, testNow)))

		require.NoError(t, store.RestoreSession(ctx))
		require.True(t, store.IsAuthenticated())
	})

	t.Run("token without exp never expires", func(t *testing.T) {
		store, kv := newTestStore(t)
		require.NoError(t, kv.Set(ctx, storage.TokenKey, signedToken(t, jwtlib.MapClaims{"sub": "a@b.com"})))

		require.NoError(t, store.RestoreSession(ctx))
		require.True(t, store.IsAuthenticated())
	})

	t.Run("corrupt token", func(t *testing.T) {
		store, kv := newTestStore(t)
		require.NoError(t, kv.Set(ctx, storage.TokenKey, "garbage"))
		require.NoError(t, kv.Set(ctx, storage.IdentityKey, `{"sub":"a@b.com"}`))

		require.NoError(t, store.RestoreSession(ctx))
		require.False(t, store.IsAuthenticated())
		requireStorageCleared(t, kv)
	})
}

func TestStore_Sync(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Login(ctx, tokenExpiringAt(t, testNow.Add(time.Hour))))

	// Another writer clears storage, as the API gateway does on a 401
	require.NoError(t, storage.ClearSession(ctx, kv))
	require.True(t, store.IsAuthenticated())

	require.NoError(t, store.Sync(ctx))
	require.False(t, store.IsAuthenticated())
	requireConsistent(t, store.State())
}

func TestStore_Subscribe(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []bool
	unsubscribe := store.Subscribe(func(s session.State) {
		mu.Lock()
		seen = append(seen, s.Authenticated)
		mu.Unlock()
	})

	require.NoError(t, store.Login(ctx, tokenExpiringAt(t, testNow.Add(time.Hour))))
	require.NoError(t, store.Logout(ctx))
	require.NoError(t, store.Logout(ctx))

	unsubscribe()
	require.NoError(t, store.Login(ctx, tokenExpiringAt(t, testNow.Add(time.Hour))))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{true, false}, seen, "repeated logout does not notify, unsubscribed listeners are not called")
}

func TestStore_StateIsACopy(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Login(context.Background(), tokenExpiringAt(t, testNow.Add(time.Hour))))

	state := store.State()
	state.Identity.Sub = "mutated"
	require.Equal(t, "a@b.com", store.State().Identity.Sub)
}

// slowStorage widens the window between a mutation's storage writes
type slowStorage struct {
	*storage.Memory
}

func (s slowStorage) Set(ctx context.Context, key, value string) error {
	time.Sleep(time.Millisecond)
	return s.Memory.Set(ctx, key, value)
}

func TestStore_ConcurrentMutationsKeepStateAndStorageTogether(t *testing.T) {
	ctx := context.Background()
	raw := tokenExpiringAt(t, testNow.Add(time.Hour))

	for i := 0; i < 50; i++ {
		kv := slowStorage{storage.NewMemory()}
		store := session.NewStore(kv, session.WithClock(fixedClock))

		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = store.Login(ctx, raw)
		}()
		go func() {
			defer wg.Done()
			time.Sleep(500 * time.Microsecond)
			_ = store.Logout(ctx)
		}()
		go func() {
			defer wg.Done()
			time.Sleep(700 * time.Microsecond)
			_ = store.Sync(ctx)
		}()
		wg.Wait()

		state := store.State()
		requireConsistent(t, state)
		_, persisted, err := kv.Get(ctx, storage.TokenKey)
		require.NoError(t, err)
		require.Equal(t, persisted, state.Authenticated, "run %d", i)
	}
}

func TestStore_RestoreUnreadableToken(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.json")

	sealed, err := storage.OpenFile(path, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	first := session.NewManager(sealed, session.WithClock(fixedClock))
	store, err := first.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NoError(t, store.Login(ctx, tokenExpiringAt(t, testNow.Add(time.Hour))))

	// Restart with a rotated key
	rotated, err := storage.OpenFile(path, []byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)
	manager := session.NewManager(rotated, session.WithClock(fixedClock))

	for i := 0; i < 2; i++ {
		restored, err := manager.Get(ctx, "sid-1")
		require.NoError(t, err)
		require.False(t, restored.IsAuthenticated())
		requireConsistent(t, restored.State())
	}
	requireStorageCleared(t, manager.Storage("sid-1"))
}
