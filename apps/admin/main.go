package main

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/internship/apps/api/di"
	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
	"github.com/trezcool/internship/services/portalclient"
	"github.com/trezcool/internship/services/reminder"
	"github.com/trezcool/internship/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	c := di.New(di.WithStdLogger(logger))
	var cli commandLine
	errAndDie(c.Invoke(func(conf *core.Config, validate *validator.Validate, translator ut.Translator) {
		cli = commandLine{
			out:          os.Stdout,
			validate:     validate,
			translator:   translator,
			openService:  func() (*portal.Service, error) { return resolve[*portal.Service](c) },
			openReminder: func() (*reminder.Service, error) { return resolve[*reminder.Service](c) },
			openDB:       func() (*sqlx.DB, error) { return openDB(conf) },
			newClient: func(baseURL string) *portalclient.Client {
				if baseURL == "" {
					baseURL = conf.Client.BaseURL
				}
				return portalclient.New(baseURL,
					portalclient.WithTimeout(conf.Client.Timeout),
					portalclient.WithProduction(conf.Env == "PROD"),
				)
			},
		}
	}))

	err := cli.run(os.Args)
	_ = c.Invoke(func(closers *di.Closers) {
		if cErr := closers.Close(); cErr != nil {
			logger.Printf("closing connections: %v", cErr)
		}
	})
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// resolve builds T and its dependencies from the container.
func resolve[T any](c *dig.Container) (T, error) {
	var res T
	err := c.Invoke(func(v T) { res = v })
	return res, err
}

func openDB(conf *core.Config) (*sqlx.DB, error) {
	if conf.Store.Driver != "postgres" {
		return nil, errors.Errorf("migrate needs the postgres store driver (store.driver is %q)", conf.Store.Driver)
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
