package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/roster"
)

// Credentials carry the bearer token of the session a request is made for.
type Credentials interface {
	Token() string
	// Invalidate is called when the backend answers 401: the session must be cleared.
	Invalidate(ctx context.Context)
}

type credentialsKey struct{}

// WithCredentials returns a copy of ctx whose requests are authenticated with creds.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

func credentialsFrom(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(Credentials)
	return creds, ok && creds != nil
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // overrides Timeout
	Metrics    *Metrics     // optional
	Logger     core.Logger  // optional
}

// Client talks to the fellowship backend. Each operation is a single round trip:
// no retry, no caching, no batching. It is safe for concurrent use.
type Client struct {
	baseURL string
	rest    *rest.Client
	metrics *Metrics
	logger  core.Logger

	Auth          *AuthAPI
	Children      *ChildrenAPI
	Classes       *RosterAPI
	Groups        *RosterAPI
	Attendance    *AttendanceAPI
	Teachers      *TeachersAPI
	Notifications *NotificationsAPI
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		rest:    &rest.Client{HTTPClient: httpClient},
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	c.Auth = &AuthAPI{c}
	c.Children = &ChildrenAPI{c}
	c.Classes = newRosterAPI(c, roster.KindClass)
	c.Groups = newRosterAPI(c, roster.KindGroup)
	c.Attendance = &AttendanceAPI{c}
	c.Teachers = &TeachersAPI{c}
	c.Notifications = &NotificationsAPI{c}
	return c
}

// call describes one request.
type call struct {
	op          string // resource.operation, for errors and metrics
	method      rest.Method
	path        string
	query       map[string]string
	body        interface{} // JSON encoded
	rawBody     []byte      // sent as is, with contentType
	contentType string
}

// intercept attaches the bearer credential of ctx, if any.
func (c *Client) intercept(ctx context.Context, req *rest.Request) {
	if creds, ok := credentialsFrom(ctx); ok {
		if token := creds.Token(); token != "" {
			req.Headers["Authorization"] = "Bearer " + token
		}
	}
}

// inspect turns non-2xx responses into *core.RemoteError.
// A 401 clears the credentials of ctx before being reported.
func (c *Client) inspect(ctx context.Context, op string, res *rest.Response) error {
	if res.StatusCode >= http.StatusOK && res.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	rErr := &core.RemoteError{Op: op, StatusCode: res.StatusCode, Message: backendMessage(res.Body)}
	if res.StatusCode == http.StatusUnauthorized {
		if creds, ok := credentialsFrom(ctx); ok {
			creds.Invalidate(ctx)
		}
	}
	return rErr
}

// backendMessage extracts the "message" (or "error") field of an error body.
func backendMessage(body string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	req := rest.Request{
		Method:      cl.method,
		BaseURL:     c.baseURL + cl.path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: cl.query,
	}
	switch {
	case cl.rawBody != nil:
		req.Body = cl.rawBody
		req.Headers["Content-Type"] = cl.contentType
	case cl.body != nil:
		body, err := json.Marshal(cl.body)
		if err != nil {
			return errors.Wrapf(err, "%s: encoding body", cl.op)
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}
	c.intercept(ctx, &req)

	start := time.Now()
	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		c.metrics.observe(cl, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, cl.op)
		}
		return errors.Wrapf(core.ErrUnreachable, "%s: %v", cl.op, err)
	}
	c.metrics.observe(cl, res.StatusCode, time.Since(start))

	// the caller went away: late responses are discarded
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, cl.op)
	}
	if err := c.inspect(ctx, cl.op, res); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace([]byte(res.Body))) == 0 {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "%s: decoding response", cl.op)
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, query map[string]string, out interface{}) error {
	return c.do(ctx, call{op: op, method: rest.Get, path: path, query: query}, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out interface{}) error {
	return c.do(ctx, call{op: op, method: rest.Post, path: path, body: body}, out)
}

func (c *Client) put(ctx context.Context, op, path string, body, out interface{}) error {
	return c.do(ctx, call{op: op, method: rest.Put, path: path, body: body}, out)
}

func (c *Client) delete(ctx context.Context, op, path string) error {
	return c.do(ctx, call{op: op, method: rest.Delete, path: path}, nil)
}

// Rosters returns the API serving rosters of kind.
func (c *Client) Rosters(kind roster.Kind) *RosterAPI {
	if kind == roster.KindGroup {
		return c.Groups
	}
	return c.Classes
}
