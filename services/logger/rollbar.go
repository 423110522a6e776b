package logsvc

import (
	"context"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/user"
)

// RollbarLogger reports events to rollbar and writes them to a logrus logger.
type RollbarLogger struct {
	std *logrus.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewStd returns the logrus logger of the process: JSON outside of debug mode.
func NewStd(conf *core.Config) *logrus.Logger {
	std := logrus.New()
	if lvl, err := logrus.ParseLevel(conf.LogLevel); err == nil {
		std.SetLevel(lvl)
	}
	if conf.Debug {
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		std.SetFormatter(&logrus.JSONFormatter{})
	}
	return std
}

func NewRollbarLogger(std *logrus.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
// The user is the person of this item only; the client wide person is never set.
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, *logrus.Entry) {
	var usrSet bool
	entry := logrus.NewEntry(l.std)
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch arg := arg.(type) {
		case user.User:
			if !usrSet && arg.ID != "" { // only set one User
				person := &rollbar.Person{Id: arg.ID, Username: arg.FullName(), Email: arg.Email}
				newArgs = append(newArgs, rollbar.NewPersonContext(context.Background(), person))
				entry = entry.WithField("user", arg.ID)
				usrSet = true
			}
		case error:
			entry = entry.WithError(arg)
			newArgs = append(newArgs, arg)
		case map[string]interface{}:
			entry = entry.WithFields(arg)
			newArgs = append(newArgs, arg)
		default:
			newArgs = append(newArgs, arg)
		}
	}
	return newArgs, entry
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Debug(rArgs...)
	entry.Debug(msg)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Info(rArgs...)
	entry.Info(msg)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Warning(rArgs...)
	entry.Warn(msg)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Error(rArgs...)
	entry.Error(msg)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Critical(rArgs...)
	rollbar.Wait()
	entry.Fatal(msg)
}
