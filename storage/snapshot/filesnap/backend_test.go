package filesnap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	backend, err := New(dir)
	require.NoError(t, err)

	entries, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, backend.Save(ctx, map[string][]byte{"students": []byte(`[]`), "adminProfile": []byte(`{}`)}))
	require.NoError(t, backend.Save(ctx, map[string][]byte{"students": []byte(`[{"id":"s1"}]`)}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	entries, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"students":     []byte(`[{"id":"s1"}]`),
		"adminProfile": []byte(`{}`),
	}, entries)

	files, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, files)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, backend.Save(cancelled, map[string][]byte{"logs": []byte(`{}`)}))
}
