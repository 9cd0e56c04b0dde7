package di

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/internship/apps/api/echo"
	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
	emailsvc "github.com/trezcool/internship/services/email"
	logsvc "github.com/trezcool/internship/services/logger"
	"github.com/trezcool/internship/services/metrics"
	"github.com/trezcool/internship/services/reminder"
	"github.com/trezcool/internship/storage/blob/memblob"
	"github.com/trezcool/internship/storage/blob/s3blob"
	"github.com/trezcool/internship/storage/database"
	"github.com/trezcool/internship/storage/database/pgsnap"
	"github.com/trezcool/internship/storage/snapshot/filesnap"
	"github.com/trezcool/internship/storage/snapshot/memsnap"
	"github.com/trezcool/internship/storage/snapshot/redissnap"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

// Closers collects the connections to close once the app stopped.
type Closers struct {
	fns []func() error
}

func (c *Closers) add(fn func() error) { c.fns = append(c.fns, fn) }

// Close runs the closers in reverse order and returns the first error.
func (c *Closers) Close() error {
	var first error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil && first == nil {
			first = err
		}
	}
	c.fns = nil
	return first
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newBackend opens the snapshot backend named by store.driver.
func newBackend(conf *core.Config, closers *Closers, lp StoreLoggerParam) (portal.Backend, error) {
	ctx := context.Background()

	switch conf.Store.Driver {
	case "", "memory":
		lp.Logger.Warn("store: memory driver, nothing survives a restart")
		return memsnap.Open(), nil

	case "file":
		return filesnap.New(conf.Store.Dir)

	case "postgres":
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		closers.add(db.Close)
		if err = database.Ping(ctx, db); err != nil {
			return nil, errors.Wrap(err, "reaching database")
		}
		if err = database.Migrate(ctx, db, "up"); err != nil {
			return nil, err
		}
		return pgsnap.New(db), nil

	case "redis":
		rdb := redissnap.NewClient(conf.Redis)
		closers.add(rdb.Close)
		backend := redissnap.New(rdb, conf.Redis.Prefix)
		if err := backend.Ping(ctx); err != nil {
			return nil, errors.Wrap(err, "reaching redis")
		}
		return backend, nil
	}
	return nil, errors.Errorf("unknown store driver %q", conf.Store.Driver)
}

// newBlobStore returns nil for the inline driver: assignment contents stay in the snapshot.
func newBlobStore(conf *core.Config) (portal.BlobStore, error) {
	switch conf.Blob.Driver {
	case "", "inline":
		return nil, nil
	case "memory":
		return memblob.New(), nil
	case "s3":
		store, err := s3blob.New(context.Background(), conf.Blob)
		if err != nil {
			return nil, errors.Wrap(err, "setting up s3 blob store")
		}
		return store, nil
	}
	return nil, errors.Errorf("unknown blob driver %q", conf.Blob.Driver)
}

func newStore(conf *core.Config, backend portal.Backend, blobs portal.BlobStore, m *metrics.Metrics, lp StoreLoggerParam) (*portal.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*conf.Store.PersistTimeout)
	defer cancel()

	opts := []portal.Option{
		portal.WithLogger(lp.Logger),
		portal.WithObserver(m),
		portal.WithPersistTimeout(conf.Store.PersistTimeout),
		portal.WithAdminAccount(portal.AdminAccount{
			Email:    conf.Portal.AdminEmail,
			Password: conf.Portal.AdminPassword,
			Name:     conf.Portal.AdminName,
		}),
	}
	if blobs != nil {
		opts = append(opts, portal.WithBlobStore(blobs))
	}
	return portal.NewStore(ctx, backend, opts...)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, log.New(os.Stdout, "EMAIL : ", log.LstdFlags), logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	portal.InitValidators(validate, translator)
	return validate
}

func newReminder(store *portal.Store, mailSvc core.EmailService, logger core.Logger, m *metrics.Metrics) *reminder.Service {
	return reminder.NewService(store, mailSvc, logger, m)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	svc *portal.Service,
	validate *validator.Validate,
	translator ut.Translator,
	m *metrics.Metrics,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Service:    svc,
		Validate:   validate,
		Translator: translator,
		Metrics:    m,
	})
}

type options struct {
	std *log.Logger
}

// Option customizes New.
type Option func(*options)

// WithStdLogger logs everything to std only, without Rollbar.
func WithStdLogger(std *log.Logger) Option {
	return func(o *options) { o.std = std }
}

// New returns a new dependency injection dig.Container
func New(opts ...Option) *dig.Container {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	c := dig.New()

	must(c.Provide(core.NewConfig))
	if o.std != nil {
		logger := core.NewStdLogger(o.std)
		must(c.Provide(func() core.Logger { return logger }))
		must(c.Provide(func() core.Logger { return logger }, dig.Name("storeLogger")))
	} else {
		must(c.Provide(newLogger))
		must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	}
	must(c.Provide(func() *Closers { return new(Closers) }))
	must(c.Provide(metrics.New))
	must(c.Provide(newBackend))
	must(c.Provide(newBlobStore))
	must(c.Provide(newStore))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(portal.NewService))
	must(c.Provide(newReminder))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

// Describe prints the dependency graph in DOT format.
func Describe(c *dig.Container) string {
	var b strings.Builder
	if err := dig.Visualize(c, &b); err != nil {
		return fmt.Sprintf("visualizing container: %v", err)
	}
	return b.String()
}
