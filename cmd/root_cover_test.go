//go:build !integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withRuntime runs in a fresh directory holding configYAML (none when empty)
// and restores the package globals afterwards.
func withRuntime(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o644))
	}

	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	oldCfg, oldPath, oldLevel := cfg, configPath, logLevel
	t.Cleanup(func() {
		os.Chdir(origDir) //nolint:errcheck
		cfg, configPath, logLevel = oldCfg, oldPath, oldLevel
	})

	cfg, configPath, logLevel = nil, "", ""
	return dir
}

func TestRootCmd_LoadsConfigYAML(t *testing.T) {
	withRuntime(t, `
store:
  driver: postgres
  database_url: postgres://localhost/outreach
log:
  level: info
  format: console
`)

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, cfg)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/outreach", cfg.Store.DatabaseURL)
}

func TestRootCmd_DefaultsWithoutConfig(t *testing.T) {
	withRuntime(t, "")

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "memory", cfg.Jobs.Backend)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestRootCmd_ExplicitConfigFlag(t *testing.T) {
	withRuntime(t, "server:\n  port: 1111\n")
	other := filepath.Join(t.TempDir(), "prod.yaml")
	require.NoError(t, os.WriteFile(other, []byte("server:\n  port: 2222\n"), 0o644))

	configPath = other
	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	assert.Equal(t, 2222, cfg.Server.Port)

	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRootCmd_LogLevelFlagOverrides(t *testing.T) {
	withRuntime(t, "log:\n  level: warn\n  format: console\n")

	logLevel = "debug"
	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestRootCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad log level", "log:\n  level: NOT_A_LEVEL\n  format: console\n", "init logger"},
		{"invalid yaml", "invalid: [yaml: bad", "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRuntime(t, tt.yaml)
			err := rootCmd.PersistentPreRunE(rootCmd, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRootCmd_PersistentPostRun_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		rootCmd.PersistentPostRun(rootCmd, nil)
	})
}
