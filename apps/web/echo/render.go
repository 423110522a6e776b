package echoweb

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/user"
	"github.com/trezcool/fellowship/fs"
)

const (
	webTemplatesDir = "assets/templates/web"
	csrfField       = "_csrf"
	csrfCookie      = "_csrf"
)

// renderer executes the page templates; each page is parsed with the layout and the partials.
type renderer struct {
	templates map[string]*template.Template
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

// renderMarkdown renders user-authored markdown. Raw HTML is omitted.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// photoURL resolves a photo path served by the backend next to its API.
func photoURL(apiBaseURL, photo string) string {
	ref, err := url.Parse(photo)
	if err != nil || ref.IsAbs() {
		return photo
	}
	base, err := url.Parse(apiBaseURL)
	if err != nil {
		return photo
	}
	return base.ResolveReference(&url.URL{Path: path.Join("/", ref.Path)}).String()
}

func templateFuncs(conf *core.Config) template.FuncMap {
	return template.FuncMap{
		"appName":        func() string { return conf.AppName },
		"can":            func(caps user.Capabilities, c string) bool { return caps.Has(user.Capability(c)) },
		"formatDate":     core.FormatDate,
		"formatDateTime": core.FormatDateTime,
		"age":            func(dob string) int { return core.Age(dob, core.NowFunc()) },
		"rateTier":       func(r attendance.Rate) string { return string(r.Tier()) },
		"markdown":       renderMarkdown,
		"initials":       core.Initials,
		"truncate":       core.Truncate,
		"add":            func(a, b int) int { return a + b },
		"lower":          strings.ToLower,
		"statuses":       func() []attendance.Status { return attendance.Statuses },
		"photoURL":       func(photo string) string { return photoURL(conf.API.BaseURL, photo) },
	}
}

func newRenderer(conf *core.Config) *renderer {
	r := &renderer{templates: make(map[string]*template.Template)}
	shared := []string{path.Join(webTemplatesDir, "layout.gohtml"), path.Join(webTemplatesDir, "partials", "*.gohtml")}

	pagesDir := path.Join(webTemplatesDir, "pages")
	err := fs.WalkDir(appfs.FS, pagesDir, func(fp string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(fp) != ".gohtml" {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(fp, pagesDir+"/"), ".gohtml")
		tmpl, err := template.New(path.Base(fp)).
			Funcs(templateFuncs(conf)).
			Option("missingkey=zero").
			ParseFS(appfs.FS, append(shared, fp)...)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", name)
		}
		r.templates[name] = tmpl
		return nil
	})
	if err != nil {
		panic(errors.Wrap(err, "echoweb.newRenderer"))
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// pageData is what every page template receives.
type pageData struct {
	Title         string
	Path          string
	CSRF          string
	User          user.User
	Authenticated bool
	Caps          user.Capabilities
	Notices       []session.Notice
	ShowInstall   bool
	Today         string
	Now           time.Time

	Form   interface{}
	Errors map[string]string
	Data   interface{}
}

func (s *Server) newPageData(ctx echo.Context, title string, data interface{}) *pageData {
	pd := &pageData{
		Title: title,
		Path:  ctx.Request().URL.Path,
		Today: core.Today(),
		Now:   core.NowFunc(),
		Data:  data,
	}
	if token, ok := ctx.Get(echoCSRFKey).(string); ok {
		pd.CSRF = token
	}
	if sess := getSession(ctx); sess != nil {
		pd.User, pd.Authenticated = sess.User()
		pd.Caps = sess.Capabilities()
		pd.ShowInstall = sess.ShowInstallPrompt()
		pd.Notices = sess.Notices()
	}
	return pd
}

// page renders the page template `name`.
func (s *Server) page(ctx echo.Context, code int, name, title string, data interface{}) error {
	return ctx.Render(code, name, s.newPageData(ctx, title, data))
}

// formPage renders a form page. err (if any) is shown inline for field errors, as a notice otherwise;
// the status code is derived from it.
func (s *Server) formPage(ctx echo.Context, code int, name, title string, form interface{}, err error, data interface{}) error {
	pd := s.newPageData(ctx, title, data)
	pd.Form = form
	if err != nil {
		code = errorStatus(err)
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok && len(vErr.Fields) > 0 {
			pd.Errors = vErr.FieldMap()
		} else {
			pd.Notices = append(pd.Notices, session.Notice{Kind: session.NoticeError, Message: userMessage(err)})
		}
	}
	return ctx.Render(code, name, pd)
}
