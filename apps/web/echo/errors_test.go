package echoweb

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/session"
)

func Test_errorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unreachable", errors.Wrap(core.ErrUnreachable, "children.list"), http.StatusServiceUnavailable},
		{"http error", errHttpNotFound, http.StatusNotFound},
		{"validation", core.NewValidationError(errors.New("invalid input")), http.StatusBadRequest},
		{"remote 4xx", &core.RemoteError{Op: "children.get", StatusCode: http.StatusForbidden}, http.StatusForbidden},
		{"remote 5xx", errors.Wrap(&core.RemoteError{Op: "children.get", StatusCode: http.StatusInternalServerError}, "x"), http.StatusBadGateway},
		{"bad credentials", session.ErrInvalidCredentials, http.StatusUnauthorized},
		{"empty roster", attendance.ErrEmptyRoster, http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func Test_userMessage(t *testing.T) {
	assert.Equal(t, msgUnreachable, userMessage(core.ErrUnreachable))
	assert.Equal(t, msgFailed, userMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "Child not found", userMessage(&core.RemoteError{Op: "children.get", StatusCode: http.StatusNotFound, Message: "Child not found"}))
	assert.Equal(t, "Page not found.", userMessage(errHttpNotFound))
}

func Test_backPath(t *testing.T) {
	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{"none", "", "/"},
		{"same host", "http://example.com/children?page=2", "/children?page=2"},
		{"other host", "http://evil.example.com/children", "/"},
		{"login", "http://example.com/login", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://example.com/install/dismiss", nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			assert.Equal(t, tt.want, backPath(req))
		})
	}
}
