package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric(t *testing.T) {
	n, err := numeric("340282366920938463463374607431768211456")
	require.NoError(t, err)
	assert.True(t, n.Valid)
	assert.Equal(t, "340282366920938463463374607431768211456", n.Int.String())
	assert.Equal(t, int32(0), n.Exp)

	null, err := numeric("")
	require.NoError(t, err)
	assert.False(t, null.Valid)

	_, err = numeric("1.5")
	require.Error(t, err)
}

func TestNullableAndNormalize(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("token0"))
	assert.Equal(t, "token0", *nullable("token0"))
	assert.Equal(t, "0xabcdef", normalizeAddress(" 0xAbCdEf "))
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	require.ErrorContains(t, err, "pg dsn is required")
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"pairs", "reserve_snapshots", "quotes", "indexer_state"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
