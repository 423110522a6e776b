package main

import (
	"context"

	"github.com/trezcool/fellowship/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	db, err := cli.openDB(ctx)
	if err != nil {
		return err
	}
	return migrateFunc(db, args[0], args[1:]...)
}
