package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core/user"
	"github.com/trezcool/fellowship/services/api"
)

var errNotAdmin = errors.New("only admins may initialize rosters")

// token authenticates the API calls of the CLI.
type token string

func (t token) Token() string { return string(t) }
func (t token) Invalidate(context.Context) {}

// initRosters logs in as an admin and has the backend create its default classes and groups.
func (cli *commandLine) initRosters(ctx context.Context, email, pwd string) error {
	creds := user.Credentials{Email: email, Password: pwd}
	if err := creds.Validate(); err != nil {
		return err
	}
	tok, usr, err := cli.client.Auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	if !usr.IsAdmin() {
		return errNotAdmin
	}

	ctx = api.WithCredentials(ctx, token(tok))
	for _, rosters := range []*api.RosterAPI{cli.client.Classes, cli.client.Groups} {
		if err := rosters.Initialize(ctx); err != nil {
			return errors.Wrapf(err, "initializing %s", rosters.Kind().Plural())
		}
		fmt.Printf("default %s created\n", rosters.Kind().Plural())
	}
	return nil
}
