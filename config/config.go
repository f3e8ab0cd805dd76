package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sonarrbridge"))
		}

		// Check /etc
		v.AddConfigPath("/etc/sonarrbridge/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Sonarr defaults
	v.SetDefault("sonarr.url", "http://localhost:8989")
	v.SetDefault("sonarr.timeout", 30*time.Second)

	// Bridge defaults
	v.SetDefault("bridge.scan_interval", 30*time.Second)
	v.SetDefault("bridge.upcoming_days", 1)
	v.SetDefault("bridge.queue_page_size", 20)
	v.SetDefault("bridge.wanted_page_size", 10)

	// MQTT defaults
	v.SetDefault("mqtt.enabled", true)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "sonarrbridge")
	v.SetDefault("mqtt.topic_prefix", "sonarrbridge")
	v.SetDefault("mqtt.discovery_prefix", "homeassistant")
	v.SetDefault("mqtt.qos", 1)

	// HTTP API defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.listen", "127.0.0.1:8789")

	// qBittorrent defaults
	v.SetDefault("qbittorrent.url", "http://localhost:8080")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Sonarr.URL == "" {
		return fmt.Errorf("sonarr.url is required")
	}

	if cfg.Sonarr.APIKey == "" || cfg.Sonarr.APIKey == "your-api-key-here" {
		return fmt.Errorf("sonarr.api_key must be set to a valid API key")
	}

	if cfg.Bridge.ScanInterval < 5*time.Second {
		return fmt.Errorf("bridge.scan_interval must be at least 5s, got %s", cfg.Bridge.ScanInterval)
	}

	if cfg.Bridge.UpcomingDays < 1 {
		return fmt.Errorf("bridge.upcoming_days must be at least 1, got %d", cfg.Bridge.UpcomingDays)
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when MQTT is enabled")
		}
		if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
			return fmt.Errorf("invalid mqtt.qos: %d (must be 0, 1 or 2)", cfg.MQTT.QoS)
		}
	}

	if cfg.Server.Enabled && cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required when the HTTP API is enabled")
	}

	if cfg.Qbittorrent.Enabled && cfg.Qbittorrent.URL == "" {
		return fmt.Errorf("qbittorrent.url is required when qBittorrent is enabled")
	}

	seen := make(map[string]bool)
	for _, cs := range cfg.Sensors.Custom {
		if cs.Key == "" {
			return fmt.Errorf("sensors.custom entries require a key")
		}
		if seen[cs.Key] {
			return fmt.Errorf("duplicate custom sensor key: %s", cs.Key)
		}
		seen[cs.Key] = true
		if cs.State == "" {
			return fmt.Errorf("custom sensor %s requires a state expression", cs.Key)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
