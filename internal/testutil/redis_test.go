package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_TEST_ADDR", "")
	options := GetTestRedisOptions()
	assert.Equal(t, "localhost:6379", options.Addr)
	assert.Equal(t, 1, options.DB)

	t.Setenv("REDIS_TEST_ADDR", "localhost:6380")
	assert.Equal(t, "localhost:6380", GetTestRedisOptions().Addr)
}

func TestNewMiniRedis(t *testing.T) {
	server, client := NewMiniRedis(t)

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	got, err := server.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
