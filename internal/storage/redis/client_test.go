package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
)

func TestNewClientDisabled(t *testing.T) {
	_, err := NewClient(context.Background(), cfgpkg.RedisConfig{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestOptions(t *testing.T) {
	o := Options(cfgpkg.RedisConfig{Addr: "r:6379", DB: 3, PoolSize: 7, DialTimeout: time.Second})
	assert.Equal(t, "r:6379", o.Addr)
	assert.Equal(t, 3, o.DB)
	assert.Equal(t, 7, o.PoolSize)
	assert.Equal(t, time.Second, o.DialTimeout)
}

func TestNewClientLocal(t *testing.T) {
	c, err := NewClient(context.Background(), cfgpkg.RedisConfig{Enabled: true, Addr: "localhost:6379", DB: 15})
	if err != nil {
		t.Skip("Redis not available, skipping test")
	}
	defer c.Close()
	require.NoError(t, c.HealthCheck(context.Background()))
	assert.NotNil(t, c.Stats())
}
