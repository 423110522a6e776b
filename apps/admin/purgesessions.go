package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/fellowship/core"
	sessionstore "github.com/trezcool/fellowship/storage/session"
)

// mockable
var purgeFunc = func(ctx context.Context, db *sqlx.DB) (int64, error) {
	return sessionstore.NewPostgresBackend(db).Purge(ctx, core.NowFunc())
}

func (cli *commandLine) purgeSessions(ctx context.Context) error {
	if cli.conf.Session.Store != sessionstore.KindPostgres {
		fmt.Printf("nothing to purge: %q sessions expire by themselves\n", cli.conf.Session.Store)
		return nil
	}
	db, err := cli.openDB(ctx)
	if err != nil {
		return err
	}
	n, err := purgeFunc(ctx, db)
	if err != nil {
		return err
	}
	fmt.Printf("%d expired sessions deleted\n", n)
	return nil
}
