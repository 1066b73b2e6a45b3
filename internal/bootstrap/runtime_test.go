package bootstrap

import (
	"context"
	"testing"

	"applitrack/internal/baas/local"
	"applitrack/internal/baas/pocketbase"
	"applitrack/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime_PocketBase(t *testing.T) {
	rt, err := InitRuntime(context.Background(), &config.Config{
		BaaSDriver:         config.DriverPocketBase,
		PocketBaseURL:      "http://127.0.0.1:8090",
		BaaSTimeoutSeconds: 5,
	})
	require.NoError(t, err)
	defer func() { _ = rt.Close() }()

	assert.IsType(t, &pocketbase.Client{}, rt.Backend)
	assert.Nil(t, rt.Redis)
}

func TestInitRuntime_Local(t *testing.T) {
	mr := miniredis.RunT(t)

	rt, err := InitRuntime(context.Background(), &config.Config{
		BaaSDriver: config.DriverLocal,
		DBDriver:   "sqlite",
		DBPath:     "file:bootstrap_local?mode=memory&cache=shared",
		JWTSecret:  "secret",
		RedisURL:   "redis://" + mr.Addr(),
	})
	require.NoError(t, err)
	defer func() { _ = rt.Close() }()

	assert.IsType(t, &local.Backend{}, rt.Backend)
	assert.NoError(t, rt.Backend.Ping(context.Background()))
	require.NotNil(t, rt.Redis)
	assert.NoError(t, rt.Redis.Ping(context.Background()).Err())
}

func TestInitRuntime_UnknownDriver(t *testing.T) {
	_, err := InitRuntime(context.Background(), &config.Config{BaaSDriver: "firebase"})
	assert.Error(t, err)
}
