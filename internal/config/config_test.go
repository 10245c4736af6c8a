package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"backend_url": "https://assistant.example.com",
		"token": "tok-abc",
		"port": 8080,
		"timeout_sec": 15,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://assistant.example.com", cfg.BackendURL)
	assert.Equal(t, "tok-abc", cfg.Token)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15, cfg.TimeoutSec)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_RelativeBackendURL(t *testing.T) {
	cfg := &Config{BackendURL: "/api"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend_url")
}

func TestValidate_PortRange(t *testing.T) {
	cfg := &Config{Port: 70000}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestValidate_NegativeTimeout(t *testing.T) {
	cfg := &Config{TimeoutSec: -1}
	assert.Error(t, cfg.Validate())
}

func TestValidate_StaticDirMustExist(t *testing.T) {
	cfg := &Config{StaticDir: "/nonexistent/dist"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "static dir not found")
}

func TestValidate_StaticDirMustBeDirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	cfg := &Config{StaticDir: tmpFile}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{BackendURL: "https://custom.example.com"}
	defaults := Config{
		BackendURL: DefaultBackendURL,
		Port:       DefaultPort,
		TimeoutSec: DefaultTimeoutSec,
		Theme:      "system",
	}

	merged := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "https://custom.example.com", merged.BackendURL)
	assert.Equal(t, DefaultPort, merged.Port)
	assert.Equal(t, DefaultTimeoutSec, merged.TimeoutSec)
	assert.Equal(t, "system", merged.Theme)
}

func TestMergeWithDefaults_DoesNotOverrideSetValues(t *testing.T) {
	cfg := Config{Port: 9999, TimeoutSec: 5, Theme: "dark"}
	merged := cfg.MergeWithDefaults(Config{Port: DefaultPort, TimeoutSec: DefaultTimeoutSec, Theme: "system"})

	assert.Equal(t, 9999, merged.Port)
	assert.Equal(t, 5, merged.TimeoutSec)
	assert.Equal(t, "dark", merged.Theme)
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, (&Config{}).Timeout())
	assert.Equal(t, 5*time.Second, (&Config{TimeoutSec: 5}).Timeout())
}
