package sessionstore

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
)

const sidKey = "sid"

// ErrBackendClosed is returned by a Backend whose connection was closed.
var ErrBackendClosed = errors.New("session backend closed")

// backendError wraps err; a closed backend is a shutdown error.
func backendError(err error, msg string) error {
	if errors.Cause(err) == ErrBackendClosed {
		return core.NewShutdownError(msg + ": " + ErrBackendClosed.Error())
	}
	return errors.Wrap(err, msg)
}

// Backend holds server-side session states. Implementations are safe for concurrent use.
type Backend interface {
	// Get returns the state of an unexpired session; ok is false when there is none.
	Get(ctx context.Context, id string) (st session.State, ok bool, err error)
	Put(ctx context.Context, id string, st session.State, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	// Purge deletes the sessions expired at now and reports how many were deleted.
	Purge(ctx context.Context, now time.Time) (int64, error)
}

// ServerStore keeps session states in a Backend, addressed by a signed id cookie.
type ServerStore struct {
	name    string
	maxAge  time.Duration
	cookies *sessions.CookieStore
	backend Backend
}

var _ session.Store = (*ServerStore)(nil)

func NewServerStore(conf *core.Config, backend Backend) (*ServerStore, error) {
	cookies, err := newCookies(conf, "session id")
	if err != nil {
		return nil, err
	}
	return &ServerStore{name: conf.Session.CookieName, maxAge: conf.Session.MaxAge, cookies: cookies, backend: backend}, nil
}

func (s *ServerStore) sid(r *http.Request) (*sessions.Session, string) {
	sess, _ := s.cookies.Get(r, s.name)
	id, _ := sess.Values[sidKey].(string)
	return sess, id
}

func (s *ServerStore) Load(r *http.Request) (session.State, error) {
	_, id := s.sid(r)
	if id == "" {
		return session.State{}, nil
	}
	st, ok, err := s.backend.Get(r.Context(), id)
	if err != nil {
		return session.State{}, backendError(err, "loading session")
	}
	if !ok {
		return session.State{}, nil
	}
	return st, nil
}

// Save writes st and, for new sessions, the id cookie. Every save extends the session.
// A Save following a Clear of the same request starts a session under a new id.
func (s *ServerStore) Save(w http.ResponseWriter, r *http.Request, st session.State) error {
	sess, id := s.sid(r)
	isNew := id == ""
	if isNew {
		id = uuid.New().String()
	}
	if err := s.backend.Put(r.Context(), id, st, core.NowFunc().Add(s.maxAge)); err != nil {
		return backendError(err, "saving session")
	}
	if isNew {
		sess.Values[sidKey] = id
		sess.Options.MaxAge = s.cookies.Options.MaxAge
		if err := sess.Save(r, w); err != nil {
			return errors.Wrap(err, "saving session cookie")
		}
	}
	return nil
}

func (s *ServerStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, id := s.sid(r)
	if id != "" {
		if err := s.backend.Delete(r.Context(), id); err != nil {
			return backendError(err, "deleting session")
		}
	}
	sess.Values = make(map[interface{}]interface{})
	sess.Options.MaxAge = -1
	return errors.Wrap(sess.Save(r, w), "clearing session cookie")
}

// Purge deletes the expired sessions of the backend.
func (s *ServerStore) Purge(ctx context.Context) (int64, error) {
	return s.backend.Purge(ctx, core.NowFunc())
}
