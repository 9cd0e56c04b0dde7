// Package filesnap keeps the store snapshot as one <key>.json file per storage key.
package filesnap

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const ext = ".json"

type Backend struct {
	dir string
}

// New returns a backend writing to dir, which is created if missing.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating snapshot dir")
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) Load(_ context.Context) (map[string][]byte, error) {
	files, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, errors.Wrap(err, "listing snapshot dir")
	}
	entries := make(map[string][]byte, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.dir, f.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", f.Name())
		}
		entries[strings.TrimSuffix(f.Name(), ext)] = data
	}
	return entries, nil
}

// Save writes each entry to a temp file renamed over the previous one, so a key is never half written.
func (b *Backend) Save(ctx context.Context, entries map[string][]byte) error {
	for key, data := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.write(key, data); err != nil {
			return errors.Wrapf(err, "saving %s", key)
		}
	}
	return nil
}

func (b *Backend) write(key string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, key+"-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(b.dir, key+ext))
}
