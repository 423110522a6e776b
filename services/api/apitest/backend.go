// Package apitest runs an in-memory fellowship backend for tests.
package apitest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/child"
	"github.com/trezcool/fellowship/core/notification"
	"github.com/trezcool/fellowship/core/roster"
	"github.com/trezcool/fellowship/core/teacher"
	"github.com/trezcool/fellowship/core/user"
)

// Request is a request received by the backend.
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	ContentType   string
	Body          []byte
}

type failure struct {
	code    int
	message string
}

// Backend answers the routes of the fellowship API from its fields.
// Fields may be set before the first request; afterwards use the methods.
type Backend struct {
	mu sync.Mutex

	Children      []child.Child
	Classes       []roster.Roster
	Groups        []roster.Roster
	Sessions      []attendance.Session
	ChildHistory  map[string][]attendance.HistoryEntry
	Report        attendance.Report
	Teachers      []teacher.Teacher
	Parents       []teacher.Parent
	Notifications []notification.Notification

	users     map[string]user.User // by token
	passwords map[string]string    // token by "email:password"
	failures  map[string]failure   // by "METHOD /path"
	requests  []Request
	seq       int

	srv *httptest.Server
}

// New starts a backend closed when t ends.
func New(t testing.TB) *Backend {
	b := &Backend{
		ChildHistory: make(map[string][]attendance.HistoryEntry),
		users:        make(map[string]user.User),
		passwords:    make(map[string]string),
		failures:     make(map[string]failure),
	}
	b.srv = httptest.NewServer(b.routes())
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the base URL of the API.
func (b *Backend) URL() string { return b.srv.URL + "/api" }

// Close stops the backend; later requests fail as unreachable.
func (b *Backend) Close() { b.srv.Close() }

// AddUser registers usr and returns its bearer token.
func (b *Backend) AddUser(usr user.User, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUser(usr, password)
}

func (b *Backend) addUser(usr user.User, password string) string {
	if usr.ID == "" {
		usr.ID = b.nextID("u")
	}
	token := "token-" + usr.ID
	b.users[token] = usr
	b.passwords[strings.ToLower(usr.Email)+":"+password] = token
	return token
}

// Revoke makes token unauthorized.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, token)
}

// FailWith makes every "METHOD /path" request (path relative to URL) answer code with msg.
func (b *Backend) FailWith(method, path string, code int, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{code, msg}
}

// Requests lists the requests received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Last returns the last "METHOD /path" request received (path relative to URL).
func (b *Backend) Last(method, path string) (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if r := b.requests[i]; r.Method == method && r.Path == path {
			return r, true
		}
	}
	return Request{}, false
}

// Count reports how many "METHOD /path" requests were received.
func (b *Backend) Count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return prefix + strconv.Itoa(b.seq)
}

func message(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"message": msg})
}

// record keeps every request and applies the failures set with FailWith.
// Handlers run with the backend locked.
func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		body, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(strings.NewReader(string(body)))
		path := strings.TrimPrefix(req.URL.Path, "/api")

		b.mu.Lock()
		defer b.mu.Unlock()
		b.requests = append(b.requests, Request{
			Method:        req.Method,
			Path:          path,
			Query:         req.URL.Query(),
			Authorization: req.Header.Get(echo.HeaderAuthorization),
			ContentType:   req.Header.Get(echo.HeaderContentType),
			Body:          body,
		})
		if f, ok := b.failures[req.Method+" "+path]; ok {
			if f.message == "" {
				return c.NoContent(f.code)
			}
			return message(c, f.code, f.message)
		}
		return next(c)
	}
}

// authenticated rejects requests without a known bearer token.
func (b *Backend) authenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := b.current(c); !ok {
			return message(c, http.StatusUnauthorized, "Not authorized, token failed")
		}
		return next(c)
	}
}

func (b *Backend) current(c echo.Context) (user.User, bool) {
	token := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	usr, ok := b.users[token]
	return usr, ok
}

func (b *Backend) routes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api := e.Group("/api", b.record)
	api.POST("/auth/login", b.login)
	api.POST("/auth/register", b.register)
	api.POST("/auth/forgot-password", func(c echo.Context) error { return message(c, http.StatusOK, "Email sent") })
	api.PUT("/auth/reset-password/:token", func(c echo.Context) error { return message(c, http.StatusOK, "Password reset") })

	auth := api.Group("", b.authenticated)
	auth.GET("/auth/me", b.me)
	auth.PUT("/auth/profile", b.updateProfile)
	auth.PUT("/auth/password", func(c echo.Context) error { return message(c, http.StatusOK, "Password updated") })

	auth.GET("/children", b.listChildren)
	auth.GET("/children/search", b.searchChildren)
	auth.GET("/children/class/:id", b.childrenOf(roster.KindClass))
	auth.GET("/children/group/:id", b.childrenOf(roster.KindGroup))
	auth.GET("/children/:id", b.getChild)
	auth.POST("/children", b.registerChild)
	auth.PUT("/children/:id", b.updateChild)
	auth.DELETE("/children/:id", b.deleteChild)
	auth.POST("/children/:id/photo", b.uploadPhoto)

	for _, kind := range []roster.Kind{roster.KindClass, roster.KindGroup} {
		b.rosterRoutes(auth.Group("/"+kind.Plural()), kind)
	}

	auth.POST("/attendance/class", b.takeAttendance(roster.KindClass))
	auth.POST("/attendance/group", b.takeAttendance(roster.KindGroup))
	auth.GET("/attendance/report", b.report)
	auth.GET("/attendance/class/:id", b.history(roster.KindClass))
	auth.GET("/attendance/group/:id", b.history(roster.KindGroup))
	auth.GET("/attendance/child/:id", b.childHistory)
	auth.GET("/attendance/:id", b.getSession)
	auth.PUT("/attendance/:id", b.updateSession)

	auth.GET("/teachers", func(c echo.Context) error { return c.JSON(http.StatusOK, orEmpty(b.Teachers)) })
	auth.GET("/teachers/parents", func(c echo.Context) error { return c.JSON(http.StatusOK, orEmpty(b.Parents)) })
	auth.GET("/teachers/:id", b.getTeacher)
	auth.POST("/teachers", b.createTeacher)
	auth.PUT("/teachers/:id", b.updateTeacher)
	auth.DELETE("/teachers/:id", b.deleteTeacher)

	auth.GET("/notifications", b.listNotifications)
	auth.PUT("/notifications/read-all", b.readAllNotifications)
	auth.PUT("/notifications/:id/read", b.readNotification)
	auth.DELETE("/notifications/:id", b.deleteNotification)
	auth.POST("/notifications", b.sendNotification)
	auth.POST("/notifications/bulk", b.sendBulk)
	return e
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func notFound(c echo.Context, what string) error {
	return message(c, http.StatusNotFound, fmt.Sprintf("%s not found", what))
}
