package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type stage string

func capture(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(Config{Level: level, Output: zapcore.AddSync(&buf)})
	require.NoError(t, err)
	return logger, &buf
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewBuildsBothModes(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), DevelopmentConfig()} {
		logger, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, logger.Logger)
	}
}

func TestDomainFields(t *testing.T) {
	logger, buf := capture(t, "debug")

	logger.Named("injector").ForInjection("abc").ForScript("greeter").Info("script delivered",
		Encoded(true),
		Bytes(42),
		Stages([]stage{"obfuscate", "decoder"}),
		Elapsed(1500*time.Millisecond),
	)

	var entry map[string]interface{}
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "script delivered", entry["message"])
	assert.Equal(t, "injector", entry["logger"])
	assert.Equal(t, "abc", entry[KeyInjectionID])
	assert.Equal(t, "greeter", entry[KeyScript])
	assert.Equal(t, true, entry[KeyEncoded])
	assert.Equal(t, 42.0, entry[KeyBytes])
	assert.Equal(t, []interface{}{"obfuscate", "decoder"}, entry[KeyStages])
	assert.Equal(t, 1500.0, entry["duration"])
	assert.Contains(t, entry, "timestamp")
}

func TestLevelFilters(t *testing.T) {
	logger, buf := capture(t, "warn")

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNopDiscards(t *testing.T) {
	logger := NewNop().Named("encoder").ForScript("demo")
	assert.NotNil(t, logger.Logger)
	logger.Debug("ignored")
}
