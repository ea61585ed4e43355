package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "y"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.True(t, envBool("TESTUTIL_FLAG"), v)
	}
	for _, v := range []string{"", "0", "no", "off"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.False(t, envBool("TESTUTIL_FLAG"), v)
	}
}

func TestFindRedis_UnreachableAddress(t *testing.T) {
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	_, err := findRedis()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestSetupTestRedis_ExplicitDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	t.Setenv("TEST_REDIS_DB", "9")

	client := SetupTestRedis(t)
	assert.Equal(t, 9, client.Options().DB)

	n, err := client.DBSize(context.Background()).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
