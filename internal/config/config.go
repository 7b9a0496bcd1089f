package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/hautomata/jellybridge/internal/paths"
)

// ServerConfig describes how to reach the Jellyfin server.
type ServerConfig struct {
	URL       string `mapstructure:"url"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	APIKey    string `mapstructure:"api_key"`
	ClientID  string `mapstructure:"client_id"`
	VerifySSL bool   `mapstructure:"verify_ssl"`
	TimeoutS  int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	if s.TimeoutS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutS) * time.Second
}

// BridgeConfig tunes the session tracking loop.
type BridgeConfig struct {
	// PollInterval is the fallback session poll frequency used when the
	// websocket channel is down.
	PollInterval string `mapstructure:"poll_interval"`
	// ReconnectMaxBackoffS caps the doubling reconnect wait.
	ReconnectMaxBackoffS int `mapstructure:"reconnect_max_backoff_seconds"`
}

// PollIntervalDuration parses PollInterval, defaulting to 30s.
func (b BridgeConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(b.PollInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ReconnectMaxBackoff returns the backoff cap, defaulting to 100s.
func (b BridgeConfig) ReconnectMaxBackoff() time.Duration {
	if b.ReconnectMaxBackoffS <= 0 {
		return 100 * time.Second
	}
	return time.Duration(b.ReconnectMaxBackoffS) * time.Second
}

// APIConfig configures the local HTTP surface.
type APIConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// HistoryConfig configures the playback history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Config is the root jellybridge configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	API     APIConfig     `mapstructure:"api"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:       "",
			Username:  "",
			Password:  "",
			APIKey:    "",
			ClientID:  "jellybridge",
			VerifySSL: true,
			TimeoutS:  30,
		},
		Bridge: BridgeConfig{
			PollInterval:         "30s",
			ReconnectMaxBackoffS: 100,
		},
		API: APIConfig{
			Addr:        ":8097",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		History: HistoryConfig{
			Enabled: true,
			File:    "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Validate checks the minimum viable configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("server.url is required")
	}
	if c.Server.APIKey == "" && (c.Server.Username == "" || c.Server.Password == "") {
		return fmt.Errorf("server requires either api_key or username and password")
	}
	return nil
}

// Load loads configuration from the default path or returns defaults.
func Load() (*Config, error) {
	configPath, err := paths.ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to get config path: %w", err)
	}
	return LoadPath(configPath)
}

// LoadPath loads configuration from a specific file.
func LoadPath(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Watch reloads the config whenever the file changes on disk and calls
// onChange with the fresh config. Parse failures keep the old config.
func Watch(configPath string, onChange func(*Config)) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg := DefaultConfig()
		if err := v.Unmarshal(cfg); err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// ConfigExists reports whether the default config file is present.
func ConfigExists() bool {
	path, err := paths.ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes the config to the default location.
func (c *Config) Save() error {
	configPath, err := paths.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}
	return os.WriteFile(configPath, []byte(c.ToTOML()), 0600)
}

// ToTOML renders the config as an annotated TOML document.
func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# jellybridge configuration
# Generated by: jellybridge config init

# ============================================================================
# JELLYFIN SERVER
# url may omit the scheme; http:// and port 8096 are assumed for plain hosts.
# Authenticate with either username/password or an API key.
# ============================================================================
[server]
url = "%s"
username = "%s"
password = "%s"
api_key = "%s"
client_id = "%s"
verify_ssl = %v
timeout_seconds = %d

# ============================================================================
# SESSION TRACKING
# poll_interval is the REST fallback when the websocket channel is down.
# ============================================================================
[bridge]
poll_interval = "%s"
reconnect_max_backoff_seconds = %d

# ============================================================================
# LOCAL HTTP API
# ============================================================================
[api]
addr = "%s"
cors_origins = %s

# ============================================================================
# PLAYBACK HISTORY
# ============================================================================
[history]
enabled = %v
file = "%s"

# ============================================================================
# LOGGING
# ============================================================================
[logging]
level = "%s"
file = "%s"
max_size_mb = %d
max_backups = %d
`,
		c.Server.URL,
		c.Server.Username,
		c.Server.Password,
		c.Server.APIKey,
		c.Server.ClientID,
		c.Server.VerifySSL,
		c.Server.TimeoutS,
		c.Bridge.PollInterval,
		c.Bridge.ReconnectMaxBackoffS,
		c.API.Addr,
		formatStringSlice(c.API.CORSOrigins),
		c.History.Enabled,
		c.History.File,
		c.Logging.Level,
		c.Logging.File,
		c.Logging.MaxSizeMB,
		c.Logging.MaxBackups,
	)
}

func formatStringSlice(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
