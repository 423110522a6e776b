package echoweb

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/roster"
	"github.com/trezcool/fellowship/core/session"
)

var (
	echoCSRFKey = middleware.DefaultCSRFConfig.ContextKey

	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "Page not found.")
	errStaleForm    = echo.NewHTTPError(http.StatusForbidden, "The form has expired. Please reload the page and try again.")

	msgUnreachable = "The service is unreachable. Please check your connection and try again."
	msgFailed      = "Something went wrong. Please try again."
)

// errorStatus is the response status of a failed request.
func errorStatus(err error) int {
	if core.IsUnreachable(err) {
		return http.StatusServiceUnavailable
	}
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		return origErr.Code
	case *core.ValidationError:
		return http.StatusBadRequest
	case *core.RemoteError:
		if origErr.StatusCode >= http.StatusInternalServerError {
			return http.StatusBadGateway
		}
		return origErr.StatusCode
	}
	switch errors.Cause(err) {
	case session.ErrInvalidCredentials:
		return http.StatusUnauthorized
	case attendance.ErrNoTarget, attendance.ErrEmptyRoster, attendance.ErrUnknownChild,
		attendance.ErrNotEditable, attendance.ErrInvalidStatus, roster.ErrInvalidKind:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// userMessage is what the user is told about err: the backend message when there is one.
func userMessage(err error) string {
	if core.IsUnreachable(err) {
		return msgUnreachable
	}
	if he, ok := errors.Cause(err).(*echo.HTTPError); ok {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
		return http.StatusText(he.Code)
	}
	if errorStatus(err) == http.StatusInternalServerError {
		return msgFailed
	}
	return core.ErrorMessage(err, errors.Cause(err).Error())
}

func isMutation(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// backPath is the local page a mutation was submitted from.
func backPath(req *http.Request) string {
	ref, err := url.Parse(req.Referer())
	if err != nil || ref.Host != req.Host {
		return session.HomePath
	}
	return session.SafeReturnPath(ref.RequestURI())
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(s *Server, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}
		req := ctx.Request()
		sess := getSession(ctx)

		// the API client cleared the session already
		if core.IsUnauthorized(err) {
			if sess != nil && isMutation(req) {
				sess.Notify(session.NoticeError, "Your session has expired. Please log in again.")
			}
			s.respond(ctx, ctx.Redirect(http.StatusSeeOther, session.LoginPath))
			return
		}

		code := errorStatus(err)
		message := userMessage(err)
		if code == http.StatusInternalServerError {
			s.deps.Logger.Error(fmt.Sprintf("%s %s: %v", req.Method, req.URL.Path, err), errors.Wrap(err, msgFailed), getSessionUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}
		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		switch {
		case req.Method == http.MethodHead:
			s.respond(ctx, ctx.NoContent(code))
		case isMutation(req) && sess != nil && code != http.StatusInternalServerError:
			sess.Notify(session.NoticeError, message)
			s.respond(ctx, ctx.Redirect(http.StatusSeeOther, backPath(req)))
		default:
			s.respond(ctx, s.page(ctx, code, "errors/error", http.StatusText(code), errorData{Code: code, Message: message}))
		}
	}
}

type errorData struct {
	Code    int
	Message string
}

func (s *Server) respond(ctx echo.Context, err error) {
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}
