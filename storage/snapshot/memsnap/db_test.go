package memsnap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB(t *testing.T) {
	ctx := context.Background()
	db := Open()

	require.NoError(t, db.Save(ctx, map[string][]byte{"students": []byte(`[]`), "logs": []byte(`{}`)}))
	entries, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"students": []byte(`[]`), "logs": []byte(`{}`)}, entries)

	// loaded entries are copies
	entries["students"][0] = 'x'
	data, _ := db.Get("students")
	assert.Equal(t, `[]`, string(data))

	quota := errors.New("quota exceeded")
	db.FailSaves(quota)
	assert.Equal(t, quota, db.Save(ctx, map[string][]byte{"students": []byte(`[{}]`)}))
	data, _ = db.Get("students")
	assert.Equal(t, `[]`, string(data))

	db.FailSaves(nil)
	require.NoError(t, db.Save(ctx, map[string][]byte{"students": []byte(`[{}]`)}))
	assert.Equal(t, 2, db.Saves())
}
