package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/services/api"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	client *api.Client
	openDB func(ctx context.Context) (*sqlx.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command on the session database")
	fmt.Println("  initrosters -email EMAIL - create the default classes and groups (the admin password will be prompted)")
	fmt.Println("  purgesessions - delete the expired sessions of the session database")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	initRostersCmd := flag.NewFlagSet("initrosters", flag.ContinueOnError)
	initRostersEmail := initRostersCmd.String("email", "", "The email of an admin. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Println("Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "initrosters":
		if err := initRostersCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *initRostersEmail == "" {
			initRostersCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			initRostersCmd.Usage()
			return errHelp
		}
		return cli.initRosters(ctx, *initRostersEmail, string(pwd))
	case "purgesessions":
		return cli.purgeSessions(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}
