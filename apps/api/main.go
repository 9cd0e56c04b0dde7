package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/trezcool/internship/apps/api/di"
	echoapi "github.com/trezcool/internship/apps/api/echo"
	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
	"github.com/trezcool/internship/services/reminder"
)

func main() {
	graph := flag.Bool("graph", false, "print the dependency graph (DOT) and exit")
	flag.Parse()

	c := di.New()
	if *graph {
		fmt.Println(di.Describe(c))
		return
	}

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		closers *di.Closers,
		store *portal.Store,
		reminders *reminder.Service,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
		core.ParseEmailTemplates(apiLogger, conf.Debug || conf.TestMode)

		defer func() {
			if err := closers.Close(); err != nil {
				apiLogger.Error(fmt.Sprintf("closing connections: %v", err), err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("store").Set(conf.Store.Driver)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start Weekly Reminders

		if conf.Reminder.Schedule != "" {
			if err := reminders.Start(conf.Reminder.Schedule); err != nil {
				apiLogger.Fatal(fmt.Sprintf("starting reminders: %v", err), err)
			}
		}

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Error(fmt.Sprintf("server error: %v", err), err)
			flushStore(conf, apiLogger, store)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			reminders.Stop(ctx)

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
				}
				flushStore(conf, apiLogger, store)
			}
		}
	}))
}

// flushStore retries the pending store writes one last time.
func flushStore(conf *core.Config, logger core.Logger, store *portal.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Store.PersistTimeout)
	defer cancel()
	if err := store.Flush(ctx); err != nil {
		logger.Error(fmt.Sprintf("flushing store: %v", err), err)
	}
}

func must(err error) {
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
