package bapp_test

import (
	"testing"
	"time"

	"github.com/advdv/bslim/bapp"
	"github.com/advdv/bslim/bapp/bapptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("BSLIM_PORT", "8080")
		t.Setenv("BSLIM_SERVICE_NAME", "orders")

		env, err := bapp.ParseEnv[TestEnv]()()
		require.NoError(t, err)

		assert.Equal(t, 8080, env.Port)
		assert.Equal(t, "orders", env.ServiceName)
		assert.Equal(t, "/health", env.ReadinessCheckPath)
		assert.Equal(t, zapcore.InfoLevel, env.LogLevel)
		assert.Equal(t, bapp.ExporterStdout, env.OtelExporter)
		assert.False(t, env.DisplayErrorDetails)
		assert.True(t, env.LogErrors)
		assert.True(t, env.LogErrorDetails)
		assert.Equal(t, -1, env.BufferLimit)
		assert.Equal(t, 30*time.Second, env.WriteTimeout)
		assert.Equal(t, "hello", env.Greeting)
	})

	t.Run("test defaults", func(t *testing.T) {
		bapptest.SetBaseEnv(t, 9000).ServiceName("svc").DisplayErrorDetails(true).BufferLimit(1024)

		env, err := bapp.ParseEnv[TestEnv]()()
		require.NoError(t, err)

		assert.Equal(t, 9000, env.Port)
		assert.Equal(t, "svc", env.ServiceName)
		assert.Equal(t, bapp.ExporterNone, env.OtelExporter)
		assert.Equal(t, zapcore.ErrorLevel, env.LogLevel)
		assert.True(t, env.DisplayErrorDetails)
		assert.Equal(t, 1024, env.BufferLimit)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Setenv("BSLIM_SERVICE_NAME", "orders")

		_, err := bapp.ParseEnv[TestEnv]()()
		require.ErrorContains(t, err, "failed to parse environment")
		require.ErrorContains(t, err, "BSLIM_PORT")
	})
}
