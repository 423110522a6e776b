package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/services/api"
	logsvc "github.com/trezcool/fellowship/services/logger"
	"github.com/trezcool/fellowship/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStd(conf), conf)
	logger.Enable(false)

	var db *sqlx.DB
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	// start CLI
	cli := commandLine{
		conf:   conf,
		client: api.NewClient(api.Options{BaseURL: conf.API.BaseURL, Timeout: conf.API.Timeout, Logger: logger}),
		openDB: func(ctx context.Context) (*sqlx.DB, error) {
			if db != nil {
				return db, nil
			}
			var err error
			db, err = database.Open(ctx, conf)
			return db, err
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %v\n", err)
		}
		os.Exit(1)
	}
}
