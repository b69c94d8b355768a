package cmd

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "ndfkit", configBaseName)
	assert.Equal(t, "ndfkit.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "profiles.dir", profilesDirKey)
	assert.Equal(t, "ledger.journal", ledgerJournalKey)
	assert.Equal(t, "run.parallel", runParallelKey)
	assert.Equal(t, "match.unit_threshold", unitThresholdKey)
	assert.Equal(t, "match.path_threshold", pathThresholdKey)
	assert.Equal(t, ".ndfkit.log", defaultLogFilename)
	assert.Equal(t, "NDFKIT", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, defaultParallel, viper.GetInt(runParallelKey))
	assert.Zero(t, viper.GetFloat64(unitThresholdKey))
	assert.Equal(t, defaultLogMaxBackups, viper.GetInt(logMaxBackupsKey))
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelWarn))
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	configureLogger(filepath.Join(t.TempDir(), "test.log"), true)

	assert.NotNil(t, globalLogger)
	assert.True(t, globalLogger.Enabled(t.Context(), slog.LevelDebug))
}
