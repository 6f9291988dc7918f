/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/ersave/pkg/locator"
	"github.com/ssargent/ersave/pkg/logging"
	"github.com/ssargent/ersave/pkg/repair"
	"github.com/ssargent/ersave/pkg/save"
	"github.com/ssargent/ersave/pkg/store"
)

// Config represents the ersave configuration
type Config struct {
	Logging Logging `yaml:"logging"`
	Locator Locator `yaml:"locator"`
	Repair  Repair  `yaml:"repair"`
	Backup  Backup  `yaml:"backup"`
	Journal Journal `yaml:"journal"`
	Server  Server  `yaml:"server"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error or off
	Format string `yaml:"format"` // text or json
}

// Locator tunes the world-tail search
type Locator struct {
	WindowRadius int `yaml:"window_radius"` // 0 searches the legacy fixed window

	MaxAreaID       uint16  `yaml:"max_area_id"`
	MaxWeatherType  uint16  `yaml:"max_weather_type"`
	MaxWeatherTimer uint32  `yaml:"max_weather_timer"`
	MaxHours        uint32  `yaml:"max_hours"`
	MaxBaseVersion  int32   `yaml:"max_base_version"`
	CoordLimitX     float32 `yaml:"coord_limit_x"`
	CoordLimitY     float32 `yaml:"coord_limit_y"`
	CoordLimitZ     float32 `yaml:"coord_limit_z"`
	MinMapArea      uint8   `yaml:"min_map_area"`
	MaxMapArea      uint8   `yaml:"max_map_area"`
	GoodVersionLow  int32   `yaml:"good_version_low"`
	GoodVersionHigh int32   `yaml:"good_version_high"`

	ScoreArea        int `yaml:"score_area"`
	ScoreTime        int `yaml:"score_time"`
	ScoreGoodVersion int `yaml:"score_good_version"`
	ScoreAnyVersion  int `yaml:"score_any_version"`
}

// Repair contains repair defaults
type Repair struct {
	KnownGoodBuild  int32  `yaml:"known_good_build"`
	DefaultTeleport string `yaml:"default_teleport"`
}

// Backup controls the backup sibling written before a fix
type Backup struct {
	Enabled bool   `yaml:"enabled"`
	Suffix  string `yaml:"suffix"`
}

// Journal controls the repair history
type Journal struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Server contains inspection API settings
type Server struct {
	Bind   string `yaml:"bind"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // empty disables authentication
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	t := locator.DefaultThresholds()
	return &Config{
		Logging: Logging{
			Level:  "warn",
			Format: "text",
		},
		Locator: Locator{
			WindowRadius:     save.DefaultTailOptions().WindowRadius,
			MaxAreaID:        t.MaxAreaID,
			MaxWeatherType:   t.MaxWeatherType,
			MaxWeatherTimer:  t.MaxWeatherTimer,
			MaxHours:         t.MaxHours,
			MaxBaseVersion:   t.MaxBaseVersion,
			CoordLimitX:      t.CoordLimitX,
			CoordLimitY:      t.CoordLimitY,
			CoordLimitZ:      t.CoordLimitZ,
			MinMapArea:       t.MinMapArea,
			MaxMapArea:       t.MaxMapArea,
			GoodVersionLow:   t.GoodVersionLow,
			GoodVersionHigh:  t.GoodVersionHigh,
			ScoreArea:        t.ScoreArea,
			ScoreTime:        t.ScoreTime,
			ScoreGoodVersion: t.ScoreGoodVersion,
			ScoreAnyVersion:  t.ScoreAnyVersion,
		},
		Repair: Repair{
			KnownGoodBuild:  repair.DefaultKnownGoodBuild,
			DefaultTeleport: repair.Limgrave.Name,
		},
		Backup: Backup{
			Enabled: true,
			Suffix:  store.DefaultBackupSuffix,
		},
		Journal: Journal{
			Enabled: true,
			Dir:     defaultJournalDir(),
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 9300,
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := store.WriteFileAtomic(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail later
func (c *Config) Validate() error {
	if _, _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format: must be text or json, got %q", c.Logging.Format)
	}
	if c.Locator.WindowRadius < 0 {
		return fmt.Errorf("locator.window_radius: must not be negative")
	}
	if _, err := repair.ParseDestination(c.Repair.DefaultTeleport); err != nil {
		return fmt.Errorf("repair.default_teleport: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	return nil
}

// TailOptions converts the locator section
func (c *Config) TailOptions() save.TailOptions {
	l := c.Locator
	return save.TailOptions{
		WindowRadius: l.WindowRadius,
		Thresholds: locator.Thresholds{
			MaxAreaID:        l.MaxAreaID,
			MaxWeatherType:   l.MaxWeatherType,
			MaxWeatherTimer:  l.MaxWeatherTimer,
			MaxHours:         l.MaxHours,
			MaxBaseVersion:   l.MaxBaseVersion,
			CoordLimitX:      l.CoordLimitX,
			CoordLimitY:      l.CoordLimitY,
			CoordLimitZ:      l.CoordLimitZ,
			MinMapArea:       l.MinMapArea,
			MaxMapArea:       l.MaxMapArea,
			GoodVersionLow:   l.GoodVersionLow,
			GoodVersionHigh:  l.GoodVersionHigh,
			ScoreArea:        l.ScoreArea,
			ScoreTime:        l.ScoreTime,
			ScoreGoodVersion: l.ScoreGoodVersion,
			ScoreAnyVersion:  l.ScoreAnyVersion,
		},
	}
}

// RepairOptions converts the repair section
func (c *Config) RepairOptions() (repair.Options, error) {
	dest, err := repair.ParseDestination(c.Repair.DefaultTeleport)
	if err != nil {
		return repair.Options{}, err
	}
	return repair.Options{KnownGoodBuild: c.Repair.KnownGoodBuild, Destination: dest}, nil
}

// LoggingOptions converts the logging section
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Logging.Level, Format: c.Logging.Format}
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".ersave")
}

func defaultJournalDir() string {
	return filepath.Join(configDir(), "journal")
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
