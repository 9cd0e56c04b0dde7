package di

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
	"github.com/trezcool/internship/services/metrics"
	"github.com/trezcool/internship/storage/blob/memblob"
	"github.com/trezcool/internship/storage/snapshot/filesnap"
	"github.com/trezcool/internship/storage/snapshot/memsnap"
)

func TestClosers_Close(t *testing.T) {
	var order []string
	c := new(Closers)
	c.add(func() error { order = append(order, "db"); return errors.New("db down") })
	c.add(func() error { order = append(order, "redis"); return errors.New("redis down") })

	err := c.Close()
	assert.EqualError(t, err, "redis down")
	assert.Equal(t, []string{"redis", "db"}, order)
	assert.NoError(t, c.Close(), "closes once")
}

func Test_newBackend(t *testing.T) {
	lp := StoreLoggerParam{Logger: core.NewNopLogger()}

	tests := []struct {
		name    string
		driver  string
		want    interface{}
		wantErr bool
	}{
		{name: "default", driver: "", want: &memsnap.DB{}},
		{name: "memory", driver: "memory", want: &memsnap.DB{}},
		{name: "file", driver: "file", want: &filesnap.Backend{}},
		{name: "unknown", driver: "mongo", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Store.Driver = tt.driver
			conf.Store.Dir = t.TempDir()

			closers := new(Closers)
			got, err := newBackend(conf, closers, lp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
			assert.Empty(t, closers.fns)
		})
	}
}

func Test_newBlobStore(t *testing.T) {
	conf := core.NewTestConfig()

	blobs, err := newBlobStore(conf)
	require.NoError(t, err)
	assert.Nil(t, blobs, "inline contents")

	conf.Blob.Driver = "memory"
	blobs, err = newBlobStore(conf)
	require.NoError(t, err)
	assert.IsType(t, &memblob.Store{}, blobs)

	conf.Blob.Driver = "ftp"
	_, err = newBlobStore(conf)
	assert.Error(t, err)
}

func Test_newStore(t *testing.T) {
	conf := core.NewTestConfig()
	lp := StoreLoggerParam{Logger: core.NewNopLogger()}
	db := memsnap.Open()

	store, err := newStore(conf, db, nil, metrics.New(), lp)
	require.NoError(t, err)
	assert.Equal(t, conf.Portal.AdminEmail, store.AdminProfile().Email)

	_, ok := db.Get(portal.KeyAdminProfile)
	assert.True(t, ok, "seeded state is persisted")
}

func TestNew_WithStdLogger(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithStdLogger(log.New(&buf, "ADMIN : ", 0)))

	err := c.Invoke(func(logger core.Logger, lp StoreLoggerParam) {
		assert.IsType(t, &core.StdLogger{}, logger)
		assert.Same(t, logger, lp.Logger)
		logger.Info("migrating")
		lp.Logger.Warn("store: memory driver")
	})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN : [INFO] migrating\nADMIN : [WARN] store: memory driver\n", buf.String())
}
