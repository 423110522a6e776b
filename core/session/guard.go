package session

import (
	"net/url"
	"strings"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decision is what a guarded route does for the current session.
type Decision int

const (
	Allow         Decision = iota // render the view
	Placeholder                   // the session is still loading
	RedirectLogin                 // not authenticated
	RedirectHome                  // authenticated with a role the view does not allow
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Placeholder:
		return "placeholder"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// Guard decides if the session may see a view. No roles means any authenticated role.
func Guard(p *Provider, roles ...string) Decision {
	if p.Loading() {
		return Placeholder
	}
	usr, ok := p.User()
	if !ok {
		return RedirectLogin
	}
	if !usr.HasRole(roles...) {
		return RedirectHome
	}
	return Allow
}

// LoginURL is the login page, remembering from for the post-login return.
func LoginURL(from string) string {
	from = SafeReturnPath(from)
	if from == HomePath {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {from}}.Encode()
}

// SafeReturnPath keeps only local paths; anything else returns home.
func SafeReturnPath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return HomePath
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return HomePath
	}
	if u.Path == LoginPath {
		return HomePath
	}
	return from
}
