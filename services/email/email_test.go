package emailsvc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fellowship/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var testConf = &core.Config{AppName: "Fellowship Kids", DefaultFromEmail: "noreply@example.com", FrontendBaseURL: "http://portal.test"}

func newMessage(t *testing.T) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Pastor", Address: "pastor@example.com"}},
		Subject: "Attendance report",
		BodyStr: "See attached.",
	}
	require.NoError(t, msg.Attach(strings.NewReader("a,b\n"), "report.csv", "text/csv"))
	return msg
}

func TestConsoleService_format(t *testing.T) {
	svc := NewConsoleServiceMock(testConf, nopLogger{})
	msg := newMessage(t)
	require.NoError(t, msg.Render(testConf.FrontendBaseURL))

	body, err := svc.format(*msg)
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [Fellowship Kids] Attendance report\r\n")
	assert.Contains(t, body, `"Pastor" <pastor@example.com>`)
	assert.Contains(t, body, "multipart/mixed")
	assert.Contains(t, body, `filename="report.csv"`)
	assert.Contains(t, body, "See attached.")
}

func TestConsoleServiceMock_Send(t *testing.T) {
	svc := NewConsoleServiceMock(testConf, nopLogger{})

	require.NoError(t, svc.Send(newMessage(t)))
	assert.ErrorIs(t, svc.Send(&core.EmailMessage{Subject: "nobody", BodyStr: "x"}), ErrNothingToSend)

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "See attached.", sent[0].TextContent)
}

func TestSendgridService_Send(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	conf := *testConf
	conf.SendgridApiKey = "sg-key"
	svc := NewSendgridService(&conf, nopLogger{}).(*sendgridService)
	svc.host = srv.URL

	require.NoError(t, svc.Send(newMessage(t)))
	assert.Len(t, payload["attachments"], 1)
	assert.Len(t, payload["content"], 1, "no html content")
}
