package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultUserAgent is sent with every request unless network.user_agent overrides it
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds all application configuration
type Config struct {
	Mirrors   MirrorConfig   `mapstructure:"mirrors"`
	Downloads DownloadConfig `mapstructure:"downloads"`
	Network   NetworkConfig  `mapstructure:"network"`
	Log       LogConfig      `mapstructure:"log"`
}

// MirrorConfig holds the mirror list location
type MirrorConfig struct {
	// File is a JSON mirror list. Empty means the list embedded in the binary.
	File string `mapstructure:"file"`
}

// DownloadConfig holds download settings
type DownloadConfig struct {
	Path          string `mapstructure:"path"`
	Verify        bool   `mapstructure:"verify"`
	Notifications bool   `mapstructure:"notifications"`
}

// NetworkConfig holds network settings
type NetworkConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay     time.Duration `mapstructure:"retry_max_delay"`
	RetryMultiplier   float64       `mapstructure:"retry_multiplier"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	defaultTimeout      = 30 * time.Second
	defaultProbeTimeout = 10 * time.Second
)

var cfg *Config

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "libgendl")
}

// GetDBPath returns the database file path
func GetDBPath() string {
	return filepath.Join(GetConfigDir(), "libgendl.db")
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// SetDefaults registers the documented default for every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mirrors.file", "")
	v.SetDefault("downloads.path", ".")
	v.SetDefault("downloads.verify", false)
	v.SetDefault("downloads.notifications", false)
	v.SetDefault("network.timeout", defaultTimeout)
	v.SetDefault("network.probe_timeout", defaultProbeTimeout)
	v.SetDefault("network.user_agent", DefaultUserAgent)
	v.SetDefault("network.retry_attempts", 3)
	v.SetDefault("network.retry_base_delay", time.Second)
	v.SetDefault("network.retry_max_delay", 30*time.Second)
	v.SetDefault("network.retry_multiplier", 2.0)
	v.SetDefault("network.requests_per_second", 4.0)
	v.SetDefault("log.level", "warn")
}

// Init initializes the configuration
func Init(cfgFile string) error {
	SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(GetConfigDir())
	}

	// Environment variable overrides
	viper.SetEnvPrefix("LIBGENDL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	c, err := Load(viper.GetViper())
	if err != nil {
		cfg = nil
		return err
	}
	cfg = c
	return nil
}

// Get returns the current configuration. A configuration that no longer
// decodes falls back to the defaults.
func Get() *Config {
	if cfg == nil {
		c, err := Load(viper.GetViper())
		if err != nil {
			logrus.WithError(err).Warn("Invalid configuration, using defaults")
			c = Defaults()
		}
		cfg = c
	}
	return cfg
}

// Defaults returns the configuration with every key at its default
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	c, _ := Load(v)
	return c
}

// Load decodes a Config out of v. Empty or non-positive values fall back to
// their defaults.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	c.Downloads.Path = expandPath(c.Downloads.Path)
	if c.Downloads.Path == "" {
		c.Downloads.Path = "."
	}
	if c.Network.Timeout <= 0 {
		c.Network.Timeout = defaultTimeout
	}
	if c.Network.ProbeTimeout <= 0 {
		c.Network.ProbeTimeout = defaultProbeTimeout
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = DefaultUserAgent
	}
	if c.Network.RetryAttempts < 1 {
		c.Network.RetryAttempts = 1
	}
	return c, nil
}

// Validate checks that value decodes for key without touching the saved
// configuration
func Validate(key, value string) error {
	v := viper.New()
	SetDefaults(v)

	key = strings.ToLower(strings.TrimSpace(key))
	known := false
	for _, k := range v.AllKeys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	v.Set(key, value)
	_, err := Load(v)
	return err
}

// Set validates and saves a configuration value
func Set(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	viper.Set(key, value)

	// Ensure config directory exists
	configDir := GetConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// Reset cached config
	cfg = nil

	return viper.WriteConfigAs(GetConfigPath())
}

// GetValue retrieves a configuration value
func GetValue(key string) interface{} {
	return viper.Get(key)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
