package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/user"
	"github.com/trezcool/fellowship/services/api"
)

const contextSessionKey = "session"

// sessionMiddleware rehydrates the session of the request and authenticates its API calls.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		st, err := s.deps.Sessions.Load(req)
		if core.IsShutdown(err) {
			return err
		} else if err != nil {
			s.deps.Logger.Warn(fmt.Sprintf("loading session: %v", err), err)
		}

		conf := s.deps.Conf
		sess := session.NewProvider(st, session.Bind(s.deps.Sessions, ctx.Response(), req), s.deps.API.Auth, session.Options{
			ProfileTTL:    conf.Session.ProfileTTL,
			InstallPrompt: session.InstallPrompt{Window: conf.Session.InstallSuppression},
			Logger:        s.deps.Logger,
		})
		ctx.SetRequest(req.WithContext(api.WithCredentials(req.Context(), sess)))
		ctx.Set(contextSessionKey, sess)

		if err = sess.Load(ctx.Request().Context()); err != nil {
			return err
		}
		return next(ctx)
	}
}

func getSession(ctx echo.Context) *session.Provider {
	sess, _ := ctx.Get(contextSessionKey).(*session.Provider)
	return sess
}

func getSessionUser(ctx echo.Context) user.User {
	if sess := getSession(ctx); sess != nil {
		usr, _ := sess.User()
		return usr
	}
	return user.User{}
}

// guard lets the request through if the session user has one of roles (any role if none).
func (s *Server) guard(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			switch session.Guard(getSession(ctx), roles...) {
			case session.Placeholder:
				return s.placeholder(ctx)
			case session.RedirectLogin:
				return ctx.Redirect(http.StatusSeeOther, session.LoginURL(ctx.Request().URL.RequestURI()))
			case session.RedirectHome:
				return ctx.Redirect(http.StatusSeeOther, session.HomePath)
			}
			return next(ctx)
		}
	}
}

// can guards a route by capability.
func (s *Server) can(c user.Capability) echo.MiddlewareFunc {
	return s.guard(user.RolesWith(c)...)
}

// anonymous only lets through visitors who are not logged in.
func (s *Server) anonymous(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if getSession(ctx).IsAuthenticated() {
			return ctx.Redirect(http.StatusSeeOther, session.HomePath)
		}
		return next(ctx)
	}
}

// placeholder is shown while the session cannot be resolved; the page retries by itself.
func (s *Server) placeholder(ctx echo.Context) error {
	ctx.Response().Header().Set("Retry-After", "5")
	return s.page(ctx, http.StatusServiceUnavailable, "errors/loading", "Loading", nil)
}
