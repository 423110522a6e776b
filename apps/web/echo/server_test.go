package echoweb

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/child"
	"github.com/trezcool/fellowship/core/roster"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/user"
	"github.com/trezcool/fellowship/services/api"
	"github.com/trezcool/fellowship/services/api/apitest"
	emailsvc "github.com/trezcool/fellowship/services/email"
	logsvc "github.com/trezcool/fellowship/services/logger"
	sessionstore "github.com/trezcool/fellowship/storage/session"
)

const testPassword = "s3cret-pass"

var (
	testParent  = user.User{ID: "p1", FirstName: "Naomi", LastName: "Banda", Email: "naomi@example.com", Role: user.RoleParent}
	testTeacher = user.User{ID: "t1", FirstName: "Ruth", LastName: "Mbeki", Email: "ruth@example.com", Role: user.RoleTeacher}
	testAdmin   = user.User{ID: "a1", FirstName: "Boaz", LastName: "Phiri", Email: "boaz@example.com", Role: user.RoleAdmin}
)

func testConf(apiURL string) *core.Config {
	return &core.Config{
		AppName:          "Fellowship Kids",
		TestMode:         true,
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://fellowship.test",
		DefaultFromEmail: "noreply@fellowship.test",
		LogLevel:         "panic",
		API:              core.APIConfig{BaseURL: apiURL, Timeout: 5 * time.Second},
		Session: core.SessionConfig{
			Store:              sessionstore.KindMemory,
			CookieName:         "fellowship_session",
			MaxAge:             time.Hour,
			ProfileTTL:         5 * time.Minute,
			InstallSuppression: 24 * time.Hour,
		},
	}
}

// seed fills the backend with two classes, a group and three children.
func seed(b *apitest.Backend) {
	b.Classes = []roster.Roster{{ID: "cl1", Name: "Lambs"}, {ID: "cl2", Name: "Lions"}}
	b.Groups = []roster.Roster{{ID: "g1", Name: "Choir"}}
	b.Children = []child.Child{
		{ID: "c1", FirstName: "Mia", LastName: "Banda", DateOfBirth: "2017-05-02", Class: core.Ref{ID: "cl1", Name: "Lambs"}, Parent: core.Ref{ID: testParent.ID, FirstName: testParent.FirstName, LastName: testParent.LastName}},
		{ID: "c2", FirstName: "Eli", LastName: "Banda", DateOfBirth: "2018-09-14", Class: core.Ref{ID: "cl1", Name: "Lambs"}, Parent: core.Ref{ID: testParent.ID, FirstName: testParent.FirstName, LastName: testParent.LastName}},
		{ID: "c3", FirstName: "Zoe", LastName: "Tembo", DateOfBirth: "2016-01-20", Class: core.Ref{ID: "cl2", Name: "Lions"}, Groups: []core.Ref{{ID: "g1"}}},
	}
}

// webClient browses the app like a user agent would: cookies are kept, redirects are not followed.
type webClient struct {
	srv  *httptest.Server
	jar  *cookiejar.Jar
	http *http.Client
}

type response struct {
	code     int
	location string
	header   http.Header
	body     string
}

func setup(t *testing.T) (*webClient, *apitest.Backend, *emailsvc.ConsoleServiceMock) {
	c, backend, mailSvc, _ := setupWith(t, nil)
	return c, backend, mailSvc
}

// setupWith is setup over sessions, or the store of the config when nil.
func setupWith(t *testing.T, sessions session.Store) (*webClient, *apitest.Backend, *emailsvc.ConsoleServiceMock, *Server) {
	backend := apitest.New(t)
	seed(backend)
	for _, usr := range []user.User{testParent, testTeacher, testAdmin} {
		backend.AddUser(usr, testPassword)
	}

	conf := testConf(backend.URL())
	std := logsvc.NewStd(conf)
	std.SetOutput(io.Discard)
	logger := logsvc.NewRollbarLogger(std, conf)

	if sessions == nil {
		st, closer, err := sessionstore.Open(context.Background(), conf)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closer.Close() })
		sessions = st
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	server := NewServer(ServerDeps{
		Conf:     conf,
		Logger:   logger,
		API:      api.NewClient(api.Options{BaseURL: conf.API.BaseURL, Timeout: conf.API.Timeout, Logger: logger}),
		Sessions: sessions,
		Email:    mailSvc,
	})
	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &webClient{
		srv: srv,
		jar: jar,
		http: &http.Client{
			Jar:           jar,
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}, backend, mailSvc, server
}

func (c *webClient) do(t *testing.T, req *http.Request) response {
	t.Helper()
	res, err := c.http.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return response{code: res.StatusCode, location: res.Header.Get("Location"), header: res.Header, body: string(body)}
}

func (c *webClient) get(t *testing.T, path string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.srv.URL+path, nil)
	require.NoError(t, err)
	return c.do(t, req)
}

// csrf returns the token of the CSRF cookie, visiting a page first if there is none yet.
func (c *webClient) csrf(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(c.srv.URL)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for _, ck := range c.jar.Cookies(u) {
			if ck.Name == csrfCookie {
				return ck.Value
			}
		}
		c.get(t, "/healthz")
	}
	t.Fatal("csrf(): no CSRF cookie")
	return ""
}

func (c *webClient) post(t *testing.T, path string, form url.Values, header ...http.Header) response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set(csrfField, c.csrf(t))
	req, err := http.NewRequest(http.MethodPost, c.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, h := range header {
		for k, vals := range h {
			req.Header[k] = vals
		}
	}
	return c.do(t, req)
}

func (c *webClient) login(t *testing.T, usr user.User) {
	t.Helper()
	res := c.post(t, "/login", url.Values{"email": {usr.Email}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, res.code, res.body)
}

func TestHealthz(t *testing.T) {
	c, _, _ := setup(t)
	res := c.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "ok", res.body)
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name         string
		as           *user.User
		path         string
		wantCode     int
		wantLocation string
	}{
		{name: "anonymous on dashboard", path: "/", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "anonymous keeps from", path: "/children?page=2", wantCode: http.StatusSeeOther, wantLocation: "/login?from=%2Fchildren%3Fpage%3D2"},
		{name: "anonymous on login", path: "/login", wantCode: http.StatusOK},
		{name: "anonymous on register", path: "/register", wantCode: http.StatusOK},
		{name: "parent on login", as: &testParent, path: "/login", wantCode: http.StatusSeeOther, wantLocation: "/"},
		{name: "parent on dashboard", as: &testParent, path: "/", wantCode: http.StatusOK},
		{name: "parent on own child", as: &testParent, path: "/children/c1", wantCode: http.StatusOK},
		{name: "parent on other child", as: &testParent, path: "/children/c3", wantCode: http.StatusNotFound},
		{name: "teacher on any child", as: &testTeacher, path: "/children/c3", wantCode: http.StatusOK},
		{name: "parent on children list", as: &testParent, path: "/children", wantCode: http.StatusSeeOther, wantLocation: "/"},
		{name: "parent on attendance", as: &testParent, path: "/attendance", wantCode: http.StatusSeeOther, wantLocation: "/"},
		{name: "parent on notifications", as: &testParent, path: "/notifications", wantCode: http.StatusOK},
		{name: "teacher on dashboard", as: &testTeacher, path: "/", wantCode: http.StatusOK},
		{name: "teacher on children list", as: &testTeacher, path: "/children", wantCode: http.StatusOK},
		{name: "teacher on classes", as: &testTeacher, path: "/classes", wantCode: http.StatusOK},
		{name: "teacher on teachers", as: &testTeacher, path: "/teachers", wantCode: http.StatusSeeOther, wantLocation: "/"},
		{name: "admin on teachers", as: &testAdmin, path: "/teachers", wantCode: http.StatusOK},
		{name: "admin on profile", as: &testAdmin, path: "/profile", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := setup(t)
			if tt.as != nil {
				c.login(t, *tt.as)
			}
			res := c.get(t, tt.path)
			assert.Equal(t, tt.wantCode, res.code)
			assert.Equal(t, tt.wantLocation, res.location)
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name         string
		form         url.Values
		wantCode     int
		wantLocation string
	}{
		{
			name:         "back to from",
			form:         url.Values{"email": {"RUTH@example.com "}, "password": {testPassword}, "from": {"/attendance?type=group"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/attendance?type=group",
		},
		{
			name:         "foreign from",
			form:         url.Values{"email": {testTeacher.Email}, "password": {testPassword}, "from": {"//evil.example.com"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/",
		},
		{
			name:     "wrong password",
			form:     url.Values{"email": {testTeacher.Email}, "password": {"nope"}},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing email",
			form:     url.Values{"password": {testPassword}},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := setup(t)
			res := c.post(t, "/login", tt.form)
			assert.Equal(t, tt.wantCode, res.code)
			assert.Equal(t, tt.wantLocation, res.location)
			if tt.wantCode != http.StatusSeeOther {
				assert.NotContains(t, res.body, testPassword)
			}
		})
	}
}

func TestLogin_refused(t *testing.T) {
	c, backend, _ := setup(t)
	backend.FailWith(http.MethodPost, "/auth/login", http.StatusForbidden, "Account deactivated")

	res := c.post(t, "/login", url.Values{"email": {testTeacher.Email}, "password": {testPassword}})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Contains(t, res.body, "Account deactivated")
	assert.NotContains(t, res.body, "invalid email or password")
}

func TestLogin_staleForm(t *testing.T) {
	c, _, _ := setup(t)
	form := url.Values{"email": {testTeacher.Email}, "password": {testPassword}}
	req, err := http.NewRequest(http.MethodPost, c.srv.URL+"/login", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res := c.do(t, req)
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Contains(t, res.body, "The form has expired")

	// not logged in
	assert.Equal(t, "/login", c.get(t, "/").location)
}

func TestLogout(t *testing.T) {
	c, _, _ := setup(t)
	c.login(t, testTeacher)

	res := c.post(t, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, res.code)
	assert.Equal(t, "/login", res.location)
	assert.Contains(t, c.get(t, "/login").body, "You have been logged out.")
	assert.Equal(t, "/login?from=%2Fchildren", c.get(t, "/children").location)
}

func TestRevokedSession(t *testing.T) {
	t.Run("page", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testTeacher)
		backend.Revoke("token-" + testTeacher.ID)

		res := c.get(t, "/children")
		assert.Equal(t, http.StatusSeeOther, res.code)
		assert.Equal(t, "/login", res.location)

		// the session was cleared
		res = c.get(t, "/children")
		assert.Equal(t, "/login?from=%2Fchildren", res.location)
	})

	t.Run("mutation", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testParent)
		backend.Revoke("token-" + testParent.ID)

		res := c.post(t, "/notifications/read-all", nil)
		assert.Equal(t, http.StatusSeeOther, res.code)
		assert.Equal(t, "/login", res.location)

		res = c.get(t, "/login")
		assert.Equal(t, http.StatusOK, res.code)
		assert.Contains(t, res.body, "Your session has expired")
	})
}

func TestParentDashboard(t *testing.T) {
	c, _, _ := setup(t)
	c.login(t, testParent)

	res := c.get(t, "/")
	assert.Equal(t, http.StatusOK, res.code)
	assert.Contains(t, res.body, "Mia")
	assert.Contains(t, res.body, "Eli")
	assert.NotContains(t, res.body, "Zoe")
}

func TestTakeAttendance(t *testing.T) {
	t.Run("form lists the roster", func(t *testing.T) {
		c, _, _ := setup(t)
		c.login(t, testTeacher)

		res := c.get(t, "/attendance?type=class&classId=cl1")
		assert.Equal(t, http.StatusOK, res.code)
		assert.Contains(t, res.body, "Mia")
		assert.Contains(t, res.body, "Eli")
		assert.NotContains(t, res.body, "Zoe")
	})

	t.Run("submit", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testTeacher)

		res := c.post(t, "/attendance", url.Values{
			"type":       {"class"},
			"classId":    {"cl1"},
			"groupId":    {"g1"},
			"date":       {"2024-03-10"},
			"notes":      {" Palm Sunday "},
			"status[c1]": {"present"},
			"note[c2]":   {"fever"},
		})
		require.Equal(t, http.StatusSeeOther, res.code, res.body)
		assert.Equal(t, "/attendance/reports?classId=cl1&type=class", res.location)

		require.Len(t, backend.Sessions, 1)
		sess := backend.Sessions[0]
		assert.Equal(t, roster.KindClass, sess.Type)
		require.NotNil(t, sess.Class)
		assert.Equal(t, "cl1", sess.Class.ID)
		assert.Nil(t, sess.Group)
		assert.Equal(t, "2024-03-10", sess.Date)
		assert.Equal(t, "Palm Sunday", sess.Notes)
		require.Len(t, sess.Records, 2)
		assert.Equal(t, "c1", sess.Records[0].Child.ID)
		assert.Equal(t, "present", string(sess.Records[0].Status))
		assert.Equal(t, "c2", sess.Records[1].Child.ID)
		assert.Equal(t, "absent", string(sess.Records[1].Status))
		assert.Equal(t, "fever", sess.Records[1].Notes)

		req, ok := backend.Last(http.MethodPost, "/attendance/class")
		require.True(t, ok)
		assert.NotContains(t, string(req.Body), "groupId")
	})

	t.Run("mark all present", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testTeacher)

		res := c.post(t, "/attendance", url.Values{
			"type":     {"class"},
			"classId":  {"cl1"},
			"note[c2]": {"came late"},
			"action":   {actionMarkAllPresent},
		})
		assert.Equal(t, http.StatusOK, res.code)
		assert.Contains(t, res.body, "came late")
		assert.Zero(t, backend.Count(http.MethodPost, "/attendance/class"))
	})

	t.Run("invalid date", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testTeacher)

		res := c.post(t, "/attendance", url.Values{"type": {"class"}, "classId": {"cl1"}, "date": {"10/03/2024"}})
		assert.Equal(t, http.StatusBadRequest, res.code)
		assert.Zero(t, backend.Count(http.MethodPost, "/attendance/class"))
	})

	t.Run("backend failure keeps the marks", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testTeacher)
		backend.FailWith(http.MethodPost, "/attendance/class", http.StatusBadRequest, "Attendance already taken for this date")

		res := c.post(t, "/attendance", url.Values{"type": {"class"}, "classId": {"cl1"}, "note[c1]": {"new here"}})
		assert.Equal(t, http.StatusBadRequest, res.code)
		assert.Contains(t, res.body, "Attendance already taken for this date")
		assert.Contains(t, res.body, "new here")
		assert.Equal(t, 1, backend.Count(http.MethodPost, "/attendance/class"))
	})
}

func TestReports(t *testing.T) {
	t.Run("first visit", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testTeacher)

		res := c.get(t, "/attendance/reports")
		assert.Equal(t, http.StatusOK, res.code)
		assert.Zero(t, backend.Count(http.MethodGet, "/attendance/report"))
	})

	t.Run("on submit", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testTeacher)

		res := c.get(t, "/attendance/reports?type=group&groupId=g1&classId=cl1&startDate=2024-03-01&endDate=2024-03-31")
		assert.Equal(t, http.StatusOK, res.code)
		req, ok := backend.Last(http.MethodGet, "/attendance/report")
		require.True(t, ok)
		assert.Equal(t, "group", req.Query.Get("type"))
		assert.Equal(t, "g1", req.Query.Get("groupId"))
		assert.Empty(t, req.Query.Get("classId"))
		assert.Equal(t, "2024-03-01", req.Query.Get("startDate"))
		assert.Equal(t, "2024-03-31", req.Query.Get("endDate"))
	})

	t.Run("invalid range", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testTeacher)

		res := c.get(t, "/attendance/reports?type=class&classId=cl1&startDate=2024-03-31&endDate=2024-03-01")
		assert.Equal(t, http.StatusBadRequest, res.code)
		assert.Zero(t, backend.Count(http.MethodGet, "/attendance/report"))
	})

	t.Run("export", func(t *testing.T) {
		c, _, _ := setup(t)
		c.login(t, testTeacher)

		res := c.get(t, "/attendance/reports/export?type=class&classId=cl1&startDate=2024-03-01&endDate=2024-03-31")
		assert.Equal(t, http.StatusOK, res.code)
		assert.Contains(t, res.header.Get("Content-Disposition"), "attachment")
		assert.True(t, strings.HasPrefix(res.body, "PK"), "xlsx files are zip archives")
	})

	t.Run("email", func(t *testing.T) {
		c, _, mailSvc := setup(t)
		c.login(t, testTeacher)

		res := c.post(t, "/attendance/reports/email?type=class&classId=cl1&startDate=2024-03-01&endDate=2024-03-31",
			url.Values{"email": {"pastor@example.com"}, "note": {"For the board"}})
		assert.Equal(t, http.StatusSeeOther, res.code)

		sent := mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "pastor@example.com", sent[0].To[0].Address)
		assert.True(t, sent[0].HasAttachments())
	})

	t.Run("copy to sender", func(t *testing.T) {
		c, _, mailSvc := setup(t)
		c.login(t, testTeacher)

		res := c.post(t, "/attendance/reports/email?type=class&classId=cl1&startDate=2024-03-01&endDate=2024-03-31",
			url.Values{"email": {"pastor@example.com"}, "copyMe": {"true"}})
		assert.Equal(t, http.StatusSeeOther, res.code)

		sent := mailSvc.Sent()
		require.Len(t, sent, 2)
		assert.Equal(t, "pastor@example.com", sent[0].To[0].Address)
		assert.Equal(t, testTeacher.Email, sent[1].To[0].Address)
		assert.True(t, sent[1].HasAttachments())
	})
}

func TestInstallPrompt(t *testing.T) {
	c, _, _ := setup(t)
	c.login(t, testParent)
	assert.Contains(t, c.get(t, "/").body, `action="/install/dismiss"`)

	res := c.post(t, "/install/dismiss", nil, http.Header{"Referer": {c.srv.URL + "/notifications"}})
	assert.Equal(t, http.StatusSeeOther, res.code)
	assert.Equal(t, "/notifications", res.location)
	assert.NotContains(t, c.get(t, "/").body, `action="/install/dismiss"`)
}

func TestChildPhoto(t *testing.T) {
	upload := func(t *testing.T, c *webClient, id string, withFile bool) response {
		t.Helper()
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField(csrfField, c.csrf(t)))
		if withFile {
			fw, err := w.CreateFormFile(photoField, "mia.png")
			require.NoError(t, err)
			_, err = fw.Write([]byte("\x89PNG\r\n\x1a\nfake"))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req, err := http.NewRequest(http.MethodPost, c.srv.URL+"/children/"+id+"/photo", &body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return c.do(t, req)
	}

	t.Run("upload", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testParent)

		res := upload(t, c, "c1", true)
		assert.Equal(t, http.StatusSeeOther, res.code)
		assert.Equal(t, "/children/c1", res.location)

		req, ok := backend.Last(http.MethodPost, "/children/c1/photo")
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(req.ContentType, "multipart/form-data"))
		assert.Equal(t, "/uploads/mia.png", backend.Children[0].Photo)
	})

	t.Run("no file", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testParent)

		res := upload(t, c, "c1", false)
		assert.Equal(t, http.StatusSeeOther, res.code)
		assert.Zero(t, backend.Count(http.MethodPost, "/children/c1/photo"))
		assert.Contains(t, c.get(t, "/").body, "Choose a photo to upload.")
	})

	t.Run("other family", func(t *testing.T) {
		c, backend, _ := setup(t)
		c.login(t, testParent)

		res := upload(t, c, "c3", true)
		assert.Equal(t, http.StatusSeeOther, res.code)
		assert.Zero(t, backend.Count(http.MethodPost, "/children/c3/photo"))
		assert.Empty(t, backend.Children[2].Photo)
	})
}

func TestChildBadge(t *testing.T) {
	c, _, _ := setup(t)
	c.login(t, testParent)

	res := c.get(t, "/children/c1/badge.png")
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "image/png", res.header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(res.body, "\x89PNG"))

	res = c.get(t, "/children/c404/badge.png")
	assert.Equal(t, http.StatusNotFound, res.code)

	res = c.get(t, "/children/c3/badge.png")
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.NotContains(t, res.body, "Zoe")
}

func TestClosedSessionBackend(t *testing.T) {
	sessions := sessionstore.NewInmemBackend()
	store, err := sessionstore.NewServerStore(testConf(""), sessions)
	require.NoError(t, err)
	c, _, _, server := setupWith(t, store)
	c.login(t, testTeacher)
	require.NoError(t, sessions.Close())

	res := c.get(t, "/children")
	assert.Equal(t, http.StatusInternalServerError, res.code)
	select {
	case <-server.ShutdownSignal():
	default:
		t.Fatal("closed session backend did not signal shutdown")
	}
}

func TestUnreachableBackend(t *testing.T) {
	c, backend, _ := setup(t)
	c.login(t, testTeacher)
	backend.Close()

	res := c.get(t, "/children")
	assert.Equal(t, http.StatusServiceUnavailable, res.code)
	assert.Contains(t, res.body, "The service is unreachable")
}

func TestAttendanceCorrection(t *testing.T) {
	c, backend, _ := setup(t)
	c.login(t, testTeacher)
	backend.Sessions = []attendance.Session{{
		ID:    "s1",
		Date:  "2024-03-10",
		Type:  roster.KindGroup,
		Group: &core.Ref{ID: "g1", Name: "Choir"},
		Notes: "Rehearsal",
		Records: []attendance.Record{
			{Child: core.Ref{ID: "c3", FirstName: "Zoe"}, Status: attendance.Absent, Notes: "no news"},
		},
	}}

	res := c.get(t, "/groups/g1")
	assert.Equal(t, http.StatusOK, res.code)
	assert.Contains(t, res.body, `href="/attendance/s1"`)

	form := url.Values{"_method": {http.MethodPut}, "status[c3]": {"excused"}}
	res = c.post(t, "/attendance/s1", form)
	require.Equal(t, http.StatusSeeOther, res.code, res.body)
	assert.Equal(t, "/attendance/s1", res.location)

	req, ok := backend.Last(http.MethodPut, "/attendance/s1")
	require.True(t, ok)
	assert.Contains(t, string(req.Body), `"groupId":"g1"`)
	assert.NotContains(t, string(req.Body), "classId")

	sess := backend.Sessions[0]
	assert.Equal(t, "Rehearsal", sess.Notes)
	require.Len(t, sess.Records, 1)
	assert.Equal(t, attendance.Excused, sess.Records[0].Status)
	assert.Equal(t, "no news", sess.Records[0].Notes)
}
