package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "checkpoint.json")
	cp := NewFileCheckpoint(path)

	_, ok, err := cp.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cp.Save(ctx, 42))
	require.NoError(t, cp.Save(ctx, 43))

	last, ok, err := cp.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(43), last)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileCheckpointRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, _, err := NewFileCheckpoint(path).Load(context.Background())
	require.ErrorContains(t, err, "parse checkpoint")

	_, _, err = NewFileCheckpoint(t.TempDir()).Load(context.Background())
	require.ErrorContains(t, err, "directory")
}

func TestDBCheckpointWithoutStore(t *testing.T) {
	var cp *DBCheckpoint
	_, ok, err := cp.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, cp.Save(context.Background(), 7))
}
