package db

import (
	"testing"

	"bithub/internal/env"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "bithub", databaseName(""))
	assert.Equal(t, "bithub", databaseName("prod"))
	assert.Equal(t, "bithub_test", databaseName("test"))
}

func TestInitSkipsUnconfiguredStores(t *testing.T) {
	uri, addr := env.MONGO_URI, env.REDIS_ADDR
	env.MONGO_URI, env.REDIS_ADDR = "", ""
	t.Cleanup(func() {
		env.MONGO_URI, env.REDIS_ADDR = uri, addr
	})

	require.NoError(t, InitDB("test"))
	require.NoError(t, InitCache())
	assert.Nil(t, Events)
	assert.Nil(t, RDB)

	Close()
}
