// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Display DisplayConfig `mapstructure:"display"`
	Inspect InspectConfig `mapstructure:"inspect"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DeviceConfig controls where card nodes are looked up
type DeviceConfig struct {
	DRIDir string `mapstructure:"dri_dir" validate:"required,startswith=/"` // Directory holding card<N> nodes
}

// DisplayConfig controls what happens once a mode is set
type DisplayConfig struct {
	Hold time.Duration `mapstructure:"hold" validate:"gte=0s"` // Keep the mode this long before teardown
}

// InspectConfig contains settings for the inspect command
type InspectConfig struct {
	Format string `mapstructure:"format" validate:"oneof=text json yaml"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Device: DeviceConfig{
			DRIDir: "/dev/dri",
		},
		Display: DisplayConfig{
			Hold: 0,
		},
		Inspect: InspectConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string

	validate = validator.New()
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("modeset")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/modeset")

		// If running with sudo, try the real user's config
		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			viper.AddConfigPath(fmt.Sprintf("/home/%s/.config/modeset", sudoUser))
		} else if home := os.Getenv("HOME"); home != "" && home != "/root" {
			viper.AddConfigPath(filepath.Join(home, ".config", "modeset"))
		}

		viper.AddConfigPath(".")
	}

	viper.SetDefault("device.dri_dir", DefaultConfig.Device.DRIDir)
	viper.SetDefault("display.hold", DefaultConfig.Display.Hold)
	viper.SetDefault("inspect.format", DefaultConfig.Inspect.Format)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		// A missing file, searched for or named with --config, means defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	c.Inspect.Format = strings.ToLower(c.Inspect.Format)
	c.Logging.LogLevel = strings.ToLower(c.Logging.LogLevel)

	if err := Validate(c); err != nil {
		return err
	}

	cfg = c
	return nil
}

// Validate checks a configuration against its field constraints
func Validate(c *Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save writes the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	c := Get()
	viper.Set("device.dri_dir", c.Device.DRIDir)
	viper.Set("display.hold", c.Display.Hold.String())
	viper.Set("inspect.format", c.Inspect.Format)
	viper.Set("logging.log_level", c.Logging.LogLevel)

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	// Card nodes usually need root, so prefer the system config there
	if os.Getuid() == 0 || os.Getenv("SUDO_USER") != "" {
		return "/etc/modeset/modeset.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/modeset/modeset.toml"
	}

	return filepath.Join(home, ".config", "modeset", "modeset.toml")
}
