package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")

	// DefaultProfileTTL is how long a profile snapshot is trusted before /auth/me is called again.
	DefaultProfileTTL = 5 * time.Minute
)

// Authenticator is the part of the backend the session talks to.
type Authenticator interface {
	Login(ctx context.Context, creds user.Credentials) (token string, usr user.User, err error)
	Register(ctx context.Context, nu user.NewUser) (token string, usr user.User, err error)
	Me(ctx context.Context) (user.User, error)
}

// Options of a Provider. Zero values use the defaults.
type Options struct {
	ProfileTTL    time.Duration
	InstallPrompt InstallPrompt
	Now           func() time.Time
	Logger        core.Logger
}

// Provider is the session of one browser request: the current user, its derived role flags and
// the login, register and logout operations. It is safe for concurrent use by the fetches of a view.
type Provider struct {
	auth    Authenticator
	persist Persister
	opts    Options

	mu      sync.RWMutex
	state   State
	loading bool
}

func NewProvider(st State, persist Persister, auth Authenticator, opts Options) *Provider {
	if opts.ProfileTTL <= 0 {
		opts.ProfileTTL = DefaultProfileTTL
	}
	if opts.InstallPrompt.Window <= 0 {
		opts.InstallPrompt.Window = DefaultInstallSuppression
	}
	if opts.Now == nil {
		opts.Now = core.NowFunc
	}
	return &Provider{auth: auth, persist: persist, opts: opts, state: st}
}

func (p *Provider) save() error {
	if p.persist == nil {
		return nil
	}
	return errors.Wrap(p.persist.Persist(p.state), "persisting session")
}

// renew is save under a new session identity, whenever the credential changes.
func (p *Provider) renew() error {
	if p.persist == nil {
		return nil
	}
	return errors.Wrap(p.persist.Renew(p.state), "renewing session")
}

// Load rehydrates the session from its persisted credential.
// An expired token is dropped without a round trip. A fresh profile snapshot is trusted as is.
// Otherwise the profile is loaded from the backend; Loading reports true until that resolves.
// When the backend cannot be reached the snapshot is kept, and the session stays loading if there is none.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	token := p.state.Token
	if token == "" {
		p.mu.Unlock()
		return nil
	}
	now := p.opts.Now()
	if tokenExpired(token, now) {
		p.state = p.state.Anonymous()
		err := p.renew()
		p.mu.Unlock()
		return err
	}
	if p.state.User != nil && now.Sub(p.state.ProfileAt) < p.opts.ProfileTTL {
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	p.mu.Unlock()

	usr, err := p.auth.Me(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case err == nil:
		p.loading = false
		if p.state.Token != token { // logged out meanwhile
			return nil
		}
		p.state.User = &usr
		p.state.ProfileAt = now
		return p.save()
	case core.IsUnauthorized(err):
		p.loading = false
		p.state = p.state.Anonymous()
		return p.renew()
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		p.loading = p.state.User == nil
		if p.opts.Logger != nil {
			p.opts.Logger.Warn("session: loading profile", err)
		}
		return nil
	}
}

// tokenExpired inspects the exp claim of a JWT without verifying it (the backend does).
// Opaque tokens never expire locally.
func tokenExpired(token string, now time.Time) bool {
	claims := new(jwt.StandardClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != 0 && now.Unix() >= claims.ExpiresAt
}

func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Login authenticates creds and starts the session.
func (p *Provider) Login(ctx context.Context, creds user.Credentials) (user.User, error) {
	if err := creds.Validate(); err != nil {
		return user.User{}, err
	}
	token, usr, err := p.auth.Login(ctx, creds)
	if err != nil {
		if rErr, ok := errors.Cause(err).(*core.RemoteError); ok {
			switch rErr.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized:
				return user.User{}, ErrInvalidCredentials
			}
		}
		return user.User{}, errors.Wrap(err, "logging in")
	}
	return usr, p.start(token, usr)
}

// Register creates an account and starts its session.
func (p *Provider) Register(ctx context.Context, nu user.NewUser) (user.User, error) {
	if err := nu.Validate(); err != nil {
		return user.User{}, err
	}
	token, usr, err := p.auth.Register(ctx, nu)
	if err != nil {
		if rErr, ok := errors.Cause(err).(*core.RemoteError); ok && rErr.StatusCode == http.StatusBadRequest {
			return user.User{}, core.NewValidationError(errors.New(core.ErrorMessage(err, "registration failed")))
		}
		return user.User{}, errors.Wrap(err, "registering")
	}
	return usr, p.start(token, usr)
}

func (p *Provider) start(token string, usr user.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Token = token
	p.state.User = &usr
	p.state.ProfileAt = p.opts.Now()
	p.loading = false
	return p.renew()
}

// Logout clears the stored credential and the user, and discards the stored session.
func (p *Provider) Logout() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = p.state.Anonymous()
	p.loading = false
	return p.renew()
}

// Token returns the bearer credential, if any.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Token
}

// Invalidate is called when the backend rejected the credential: the session is cleared.
func (p *Provider) Invalidate(context.Context) {
	if err := p.Logout(); err != nil && p.opts.Logger != nil {
		p.opts.Logger.Error("session: invalidating", err)
	}
}

// SetUser replaces the profile snapshot, after the user edited it.
func (p *Provider) SetUser(usr user.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Token == "" {
		return nil
	}
	p.state.User = &usr
	p.state.ProfileAt = p.opts.Now()
	return p.save()
}

// User returns the current user.
func (p *Provider) User() (user.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state.Token == "" || p.state.User == nil {
		return user.User{}, false
	}
	return *p.state.User, true
}

func (p *Provider) IsAuthenticated() bool {
	_, ok := p.User()
	return ok
}

func (p *Provider) role() string {
	usr, _ := p.User()
	return usr.Role
}

func (p *Provider) IsTeacher() bool { return p.role() == user.RoleTeacher }
func (p *Provider) IsAdmin() bool   { return p.role() == user.RoleAdmin }
func (p *Provider) IsParent() bool  { return p.role() == user.RoleParent }

// Capabilities is the permission set of the current user; empty when anonymous.
func (p *Provider) Capabilities() user.Capabilities {
	return user.CapabilitiesFor(p.role())
}

func (p *Provider) Can(c user.Capability) bool {
	return p.Capabilities().Has(c)
}

// Notify queues a notice for the next rendered page.
func (p *Provider) Notify(kind, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Notices = append(p.state.Notices, Notice{Kind: kind, Message: msg})
	if err := p.save(); err != nil && p.opts.Logger != nil {
		p.opts.Logger.Error("session: saving notice", err)
	}
}

// Notices drains the queued notices.
func (p *Provider) Notices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	notices := p.state.Notices
	if len(notices) == 0 {
		return nil
	}
	p.state.Notices = nil
	if err := p.save(); err != nil && p.opts.Logger != nil {
		p.opts.Logger.Error("session: draining notices", err)
	}
	return notices
}

// ShowInstallPrompt reports if the install banner may be shown.
func (p *Provider) ShowInstallPrompt() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts.InstallPrompt.Visible(p.state.InstallDismissedAt, p.opts.Now())
}

// DismissInstallPrompt hides the install banner for the suppression window.
func (p *Provider) DismissInstallPrompt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.InstallDismissedAt = p.opts.Now()
	return p.save()
}

// State returns a copy of the current state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}
