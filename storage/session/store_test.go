package sessionstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/user"
)

func testConf() *core.Config {
	return &core.Config{
		SecretKey: "test-secret",
		Session:   core.SessionConfig{CookieName: "fellowship_session", MaxAge: time.Hour},
	}
}

func testState() session.State {
	return session.State{
		Token:     "token-u1",
		User:      &user.User{ID: "u1", FirstName: "Ruth", Role: user.RoleTeacher},
		ProfileAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		Notices:   []session.Notice{{Kind: session.NoticeSuccess, Message: "Welcome"}},
	}
}

// roundTrip saves with one request and returns a new request carrying the resulting cookies.
func roundTrip(t *testing.T, save func(w http.ResponseWriter, r *http.Request) error, prev ...*http.Request) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if len(prev) > 0 {
		for _, c := range prev[0].Cookies() {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	require.NoError(t, save(rec, req))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			next.AddCookie(c)
		}
	}
	return next
}

func TestStores(t *testing.T) {
	cookieStore, err := NewCookieStore(testConf())
	require.NoError(t, err)
	serverStore, err := NewServerStore(testConf(), NewInmemBackend())
	require.NoError(t, err)

	tests := []struct {
		name  string
		store session.Store
	}{
		{"cookie", cookieStore},
		{"server", serverStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			empty, err := tt.store.Load(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, session.State{}, empty)

			req := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error {
				return tt.store.Save(w, r, testState())
			})
			got, err := tt.store.Load(req)
			require.NoError(t, err)
			assert.Equal(t, testState().Token, got.Token)
			assert.Equal(t, "u1", got.User.ID)
			assert.True(t, testState().ProfileAt.Equal(got.ProfileAt))
			assert.Equal(t, testState().Notices, got.Notices)

			cleared := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error {
				return tt.store.Clear(w, r)
			}, req)
			got, err = tt.store.Load(cleared)
			require.NoError(t, err)
			assert.Empty(t, got.Token)
		})
	}
}

func TestRenew(t *testing.T) {
	backend := NewInmemBackend()
	serverStore, err := NewServerStore(testConf(), backend)
	require.NoError(t, err)
	ids := func() []string {
		backend.mu.RLock()
		defer backend.mu.RUnlock()
		out := make([]string, 0, len(backend.entries))
		for id := range backend.entries {
			out = append(out, id)
		}
		return out
	}
	persist := func(store session.Store, st session.State) func(w http.ResponseWriter, r *http.Request) error {
		return func(w http.ResponseWriter, r *http.Request) error { return session.Bind(store, w, r).Persist(st) }
	}
	renew := func(store session.Store, st session.State) func(w http.ResponseWriter, r *http.Request) error {
		return func(w http.ResponseWriter, r *http.Request) error { return session.Bind(store, w, r).Renew(st) }
	}
	anon := session.State{Notices: []session.Notice{{Kind: session.NoticeInfo, Message: "Please log in"}}}

	t.Run("server", func(t *testing.T) {
		req := roundTrip(t, persist(serverStore, anon))
		require.Len(t, ids(), 1)
		before := ids()[0]

		req = roundTrip(t, renew(serverStore, testState()), req)
		after := ids()
		require.Len(t, after, 1, "the previous session is deleted")
		assert.NotEqual(t, before, after[0], "a new session id is issued")
		got, err := serverStore.Load(req)
		require.NoError(t, err)
		assert.Equal(t, testState().Token, got.Token)

		req = roundTrip(t, renew(serverStore, testState().Anonymous()), req)
		require.Len(t, ids(), 1, "pending notices are kept")
		assert.NotEqual(t, after[0], ids()[0])

		req = roundTrip(t, renew(serverStore, session.State{}), req)
		assert.Zero(t, backend.Len())
		got, err = serverStore.Load(req)
		require.NoError(t, err)
		assert.Equal(t, session.State{}, got)
	})

	t.Run("cookie", func(t *testing.T) {
		store, err := NewCookieStore(testConf())
		require.NoError(t, err)
		req := roundTrip(t, persist(store, anon))
		req = roundTrip(t, renew(store, testState()), req)
		got, err := store.Load(req)
		require.NoError(t, err)
		assert.Equal(t, testState().Token, got.Token)

		req = roundTrip(t, renew(store, session.State{}), req)
		got, err = store.Load(req)
		require.NoError(t, err)
		assert.Equal(t, session.State{}, got)
	})
}

func TestCookieStore_tampered(t *testing.T) {
	store, err := NewCookieStore(testConf())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "fellowship_session", Value: "forged"})
	st, err := store.Load(req)
	require.NoError(t, err)
	assert.Equal(t, session.State{}, st)
}

func TestServerStore_rotatedSecret(t *testing.T) {
	backend := NewInmemBackend()
	store, err := NewServerStore(testConf(), backend)
	require.NoError(t, err)
	req := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error { return store.Save(w, r, testState()) })

	conf := testConf()
	conf.SecretKey = "rotated"
	rotated, err := NewServerStore(conf, backend)
	require.NoError(t, err)
	st, err := rotated.Load(req)
	require.NoError(t, err)
	assert.Empty(t, st.Token)
}

func TestServerStore_closedBackend(t *testing.T) {
	backend := NewInmemBackend()
	store, err := NewServerStore(testConf(), backend)
	require.NoError(t, err)
	req := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error { return store.Save(w, r, testState()) })
	require.NoError(t, backend.Close())

	_, err = store.Load(req)
	assert.True(t, core.IsShutdown(err), "Load() error = %v", err)
	err = store.Save(httptest.NewRecorder(), req, testState())
	assert.True(t, core.IsShutdown(err), "Save() error = %v", err)
	assert.False(t, core.IsShutdown(backendError(errors.New("i/o timeout"), "loading session")))
}

func TestInmemBackend_Purge(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	core.NowFunc = func() time.Time { return now }
	defer func() { core.NowFunc = time.Now }()

	ctx := context.Background()
	backend := NewInmemBackend()
	require.NoError(t, backend.Put(ctx, "old", testState(), now.Add(-time.Minute)))
	require.NoError(t, backend.Put(ctx, "live", testState(), now.Add(time.Minute)))

	_, ok, err := backend.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok, "expired sessions are not returned")

	n, err := backend.Purge(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, backend.Len())
}

func TestOpen(t *testing.T) {
	conf := testConf()
	conf.Session.Store = KindMemory
	st, closer, err := Open(context.Background(), conf)
	require.NoError(t, err)
	defer closer.Close()
	assert.IsType(t, &ServerStore{}, st)

	conf.Session.Store = "etcd"
	_, _, err = Open(context.Background(), conf)
	assert.Error(t, err)
}
