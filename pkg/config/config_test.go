package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/ersave/pkg/locator"
	"github.com/ssargent/ersave/pkg/repair"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
	assert.Equal(t, 0x4000, config.Locator.WindowRadius)
	assert.Equal(t, uint32(100000), config.Locator.MaxWeatherTimer)
	assert.Equal(t, int32(150), config.Repair.KnownGoodBuild)
	assert.Equal(t, "limgrave", config.Repair.DefaultTeleport)
	assert.True(t, config.Backup.Enabled)
	assert.Equal(t, ".backup", config.Backup.Suffix)
	assert.True(t, config.Journal.Enabled)
	assert.Equal(t, "journal", filepath.Base(config.Journal.Dir))
	assert.Equal(t, "127.0.0.1", config.Server.Bind)
	assert.Equal(t, 9300, config.Server.Port)
	assert.Empty(t, config.Server.APIKey)

	assert.NoError(t, config.Validate())
}

func TestConfig_TailOptions(t *testing.T) {
	config := DefaultConfig()
	opts := config.TailOptions()
	assert.Equal(t, locator.DefaultThresholds(), opts.Thresholds)
	assert.Equal(t, 0x4000, opts.WindowRadius)

	config.Locator.WindowRadius = 0
	config.Locator.MaxHours = 999
	opts = config.TailOptions()
	assert.Equal(t, 0, opts.WindowRadius)
	assert.Equal(t, uint32(999), opts.Thresholds.MaxHours)
}

func TestConfig_RepairOptions(t *testing.T) {
	config := DefaultConfig()
	config.Repair.DefaultTeleport = "roundtable"
	config.Repair.KnownGoodBuild = 170

	opts, err := config.RepairOptions()
	require.NoError(t, err)
	assert.Equal(t, repair.Roundtable, opts.Destination)
	assert.Equal(t, int32(170), opts.KnownGoodBuild)

	config.Repair.DefaultTeleport = "caelid"
	_, err = config.RepairOptions()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative radius", func(c *Config) { c.Locator.WindowRadius = -1 }, "locator.window_radius"},
		{"bad teleport", func(c *Config) { c.Repair.DefaultTeleport = "farum azula" }, "repair.default_teleport"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGenerateSecureKey(t *testing.T) {
	t.Run("generate 32 byte key", func(t *testing.T) {
		key, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 64) // 32 bytes = 64 hex characters

		// Verify it's valid hex
		_, err = hex.DecodeString(key)
		assert.NoError(t, err)
	})

	t.Run("generate different keys", func(t *testing.T) {
		key1, err := GenerateSecureKey(16)
		require.NoError(t, err)
		key2, err := GenerateSecureKey(16)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})

	t.Run("zero length", func(t *testing.T) {
		key, err := GenerateSecureKey(0)
		require.NoError(t, err)
		assert.Empty(t, key)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "ersave_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "config.yaml")
		expectedConfig := DefaultConfig()
		expectedConfig.Logging.Level = "debug"
		expectedConfig.Logging.Format = "json"
		expectedConfig.Repair.DefaultTeleport = "roundtable"
		expectedConfig.Journal.Dir = filepath.Join(tmpDir, "journal")
		expectedConfig.Server.Port = 9400

		err = SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "ersave_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "partial.yaml")
		err = os.WriteFile(configPath, []byte("repair:\n  known_good_build: 170\n"), 0644)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, int32(170), loadedConfig.Repair.KnownGoodBuild)
		assert.Equal(t, "limgrave", loadedConfig.Repair.DefaultTeleport)
		assert.Equal(t, 0x4000, loadedConfig.Locator.WindowRadius)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "ersave_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "invalid.yaml")
		err = os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("load invalid values", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "ersave_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "config.yaml")
		err = os.WriteFile(configPath, []byte("repair:\n  default_teleport: nowhere\n"), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown teleport target")
	})
}

func TestSaveConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ersave_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "nested", "config.yaml")
	config := DefaultConfig()

	err = SaveConfig(config, configPath)
	require.NoError(t, err)

	// Verify file exists
	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Verify content
	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ersave_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")

	config, err := BootstrapConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9300, config.Server.Port)
	assert.Equal(t, "warn", config.Logging.Level)

	// Verify the key is generated and valid hex
	assert.Len(t, config.Server.APIKey, 64)
	_, err = hex.DecodeString(config.Server.APIKey)
	assert.NoError(t, err)

	// Verify file was written and parses back
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	var onDisk Config
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, config.Server.APIKey, onDisk.Server.APIKey)
	assert.True(t, ConfigExists(configPath))
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Equal(t, ".ersave", filepath.Base(filepath.Dir(path)))
}

func TestConfigExists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ersave_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	assert.False(t, ConfigExists(filepath.Join(tmpDir, "missing.yaml")))
}
