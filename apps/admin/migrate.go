package main

import (
	"context"

	"github.com/trezcool/internship/storage/database"
)

// migrate runs a goose command on the snapshot table of the postgres store.
func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return database.Migrate(context.Background(), db, args[0], args[1:]...)
}
