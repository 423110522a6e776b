// Package sessionstore persists portal sessions: whole in a signed and encrypted cookie,
// or server-side (postgres, redis, memory) behind a cookie carrying only the session id.
package sessionstore

import (
	"crypto/sha256"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
)

const stateKey = "state"

// deriveKeys derives the cookie hash (signing) and block (AES-256) keys from the app secret.
func deriveKeys(secret, purpose string) (hashKey, blockKey []byte, err error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("fellowship "+purpose))
	hashKey, blockKey = make([]byte, 64), make([]byte, 32)
	if _, err = io.ReadFull(r, hashKey); err != nil {
		return nil, nil, errors.Wrap(err, "deriving hash key")
	}
	if _, err = io.ReadFull(r, blockKey); err != nil {
		return nil, nil, errors.Wrap(err, "deriving block key")
	}
	return hashKey, blockKey, nil
}

func newCookies(conf *core.Config, purpose string) (*sessions.CookieStore, error) {
	if conf.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}
	hashKey, blockKey, err := deriveKeys(conf.SecretKey, purpose)
	if err != nil {
		return nil, err
	}
	cs := sessions.NewCookieStore(hashKey, blockKey)
	cs.MaxAge(int(conf.Session.MaxAge.Seconds()))
	cs.Options.Path = "/"
	cs.Options.HttpOnly = true
	cs.Options.Secure = conf.Session.Secure
	cs.Options.SameSite = http.SameSiteLaxMode
	return cs, nil
}

// CookieStore keeps the whole session state in the cookie.
type CookieStore struct {
	name    string
	cookies *sessions.CookieStore
}

var _ session.Store = (*CookieStore)(nil)

func NewCookieStore(conf *core.Config) (*CookieStore, error) {
	cookies, err := newCookies(conf, "session state")
	if err != nil {
		return nil, err
	}
	return &CookieStore{name: conf.Session.CookieName, cookies: cookies}, nil
}

// Load returns an empty state for missing, tampered or expired cookies.
func (s *CookieStore) Load(r *http.Request) (session.State, error) {
	var st session.State
	sess, err := s.cookies.Get(r, s.name)
	if err != nil {
		return st, nil
	}
	raw, ok := sess.Values[stateKey].(string)
	if !ok {
		return st, nil
	}
	if err = json.Unmarshal([]byte(raw), &st); err != nil {
		return session.State{}, nil
	}
	return st, nil
}

func (s *CookieStore) Save(w http.ResponseWriter, r *http.Request, st session.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	sess, _ := s.cookies.Get(r, s.name)
	sess.Values[stateKey] = string(raw)
	sess.Options.MaxAge = s.cookies.Options.MaxAge
	return errors.Wrap(sess.Save(r, w), "saving session cookie")
}

func (s *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.cookies.Get(r, s.name)
	sess.Values = make(map[interface{}]interface{})
	sess.Options.MaxAge = -1
	return errors.Wrap(sess.Save(r, w), "clearing session cookie")
}
