package session

import (
	"net/http"
	"time"

	"github.com/trezcool/fellowship/core/user"
)

// Notice kinds
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Notice is a transient message shown once on the next rendered page.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// State is everything the portal persists for a browser session.
type State struct {
	Token              string     `json:"token,omitempty"`
	User               *user.User `json:"user,omitempty"`
	ProfileAt          time.Time  `json:"profileAt,omitempty"`
	InstallDismissedAt time.Time  `json:"installDismissedAt,omitempty"`
	Notices            []Notice   `json:"notices,omitempty"`
}

// Anonymous returns the state without credential nor profile.
// Install prompt dismissal and pending notices survive a logout.
func (st State) Anonymous() State {
	return State{InstallDismissedAt: st.InstallDismissedAt, Notices: st.Notices}
}

// IsZero reports if there is nothing worth persisting.
func (st State) IsZero() bool {
	return st.Token == "" && st.User == nil && st.InstallDismissedAt.IsZero() && len(st.Notices) == 0
}

// Store persists State between requests.
type Store interface {
	Load(r *http.Request) (State, error)
	Save(w http.ResponseWriter, r *http.Request, st State) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

// Persister writes the state of one session back to where it was loaded from.
type Persister interface {
	Persist(st State) error
	// Renew drops the persisted session and keeps st under a new identity.
	Renew(st State) error
}

// Bind returns the Persister of the session carried by r.
func Bind(store Store, w http.ResponseWriter, r *http.Request) Persister {
	return boundStore{store: store, w: w, r: r}
}

type boundStore struct {
	store Store
	w     http.ResponseWriter
	r     *http.Request
}

func (b boundStore) Persist(st State) error {
	return b.store.Save(b.w, b.r, st)
}

func (b boundStore) Renew(st State) error {
	if err := b.store.Clear(b.w, b.r); err != nil {
		return err
	}
	if st.IsZero() {
		return nil
	}
	return b.store.Save(b.w, b.r, st)
}
