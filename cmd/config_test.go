package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "darwin", configBaseName)
	assert.Equal(t, "darwin.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "mutation-path", mutationPathFlagName)
	assert.Equal(t, "exclude", excludeFlagName)
	assert.Equal(t, "parallel", parallelFlagName)
	assert.Equal(t, "run.parallel", parallelConfigKey)
	assert.Equal(t, "paths.exclude", excludeConfigKey)
	assert.Equal(t, "60s", defaultTestTimeout)
	assert.Equal(t, 0, defaultParallel)
	assert.Equal(t, "DARWIN", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, 60*time.Second, viper.GetDuration(testTimeoutConfigKey))
	assert.Equal(t, filepath.Join(os.TempDir(), "darwin"), viper.GetString(mutationPathConfigKey))
	assert.Equal(t, []string{"cargo", "build"}, viper.GetStringSlice(buildCommandConfigKey))
	assert.Equal(t, []string{"cargo", "test"}, viper.GetStringSlice(testCommandConfigKey))
	assert.Equal(t, []string{"RUSTFLAGS=-Awarnings", "RUST_BACKTRACE=0"}, viper.GetStringSlice(envConfigKey))
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	logPath := filepath.Join(t.TempDir(), "darwin.log")
	configureLogger(logPath, true)

	require.NotNil(t, globalLogger)
	assert.True(t, globalLogger.Enabled(t.Context(), slog.LevelDebug))
}
