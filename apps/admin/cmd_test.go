package main

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/user"
	"github.com/trezcool/fellowship/services/api"
	"github.com/trezcool/fellowship/services/api/apitest"
)

func setup(t *testing.T) (*commandLine, *apitest.Backend) {
	backend := apitest.New(t)
	conf := &core.Config{}
	conf.Session.Store = "postgres"

	return &commandLine{
		conf:   conf,
		client: api.NewClient(api.Options{BaseURL: backend.URL()}),
		openDB: func(context.Context) (*sqlx.DB, error) { return nil, nil },
	}, backend
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.ErrorIs(t, errors.Cause(err), tt.wantErr)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var ran []string
	migrateFunc = func(_ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return errors.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return errors.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return errors.New("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return errors.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "sessions_index", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
	assert.Equal(t, []string{"up", "up-to", "down", "status", "create"}, ran)
}

func Test_commandLine_initRosters(t *testing.T) {
	cli, backend := setup(t)
	backend.AddUser(user.User{FirstName: "Ada", Email: "admin@test.cd", Role: user.RoleAdmin}, "s3cret")
	backend.AddUser(user.User{FirstName: "Tom", Email: "teacher@test.cd", Role: user.RoleTeacher}, "s3cret")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"initrosters"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"initrosters", "-email", "admin@test.cd"}, wantErr: errHelp},
		{name: "wrong password", args: []string{"initrosters", "-email", "admin@test.cd"}, extra: extra{pwd: "lol"}, wantErrStr: "Invalid email or password"},
		{name: "not an admin", args: []string{"initrosters", "-email", "teacher@test.cd"}, extra: extra{pwd: "s3cret"}, wantErr: errNotAdmin},
		{name: "admin", args: []string{"initrosters", "-email", "admin@test.cd"}, extra: extra{pwd: "s3cret"}},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	for _, path := range []string{"/classes/init", "/groups/init"} {
		req, ok := backend.Last(http.MethodPost, path)
		require.True(t, ok, path)
		assert.Equal(t, "Bearer token-u1", req.Authorization)
		assert.Equal(t, 1, backend.Count(http.MethodPost, path))
	}
}

func Test_commandLine_purgeSessions(t *testing.T) {
	cli, _ := setup(t)

	var purged int
	purgeFunc = func(context.Context, *sqlx.DB) (int64, error) {
		purged++
		return 3, nil
	}

	require.NoError(t, cli.run([]string{"admin", "purgesessions"}))
	assert.Equal(t, 1, purged)

	cli.conf.Session.Store = "cookie"
	require.NoError(t, cli.run([]string{"admin", "purgesessions"}))
	assert.Equal(t, 1, purged, "cookie sessions are not purged")
}
