package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Sonarr      SonarrConfig      `mapstructure:"sonarr"`
	Bridge      BridgeConfig      `mapstructure:"bridge"`
	Sensors     SensorsConfig     `mapstructure:"sensors"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Server      ServerConfig      `mapstructure:"server"`
	Qbittorrent QbittorrentConfig `mapstructure:"qbittorrent"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// SonarrConfig holds Sonarr API connection details
type SonarrConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// BridgeConfig controls the polling coordinator
type BridgeConfig struct {
	ScanInterval   time.Duration `mapstructure:"scan_interval"`
	UpcomingDays   int           `mapstructure:"upcoming_days"`
	QueuePageSize  int           `mapstructure:"queue_page_size"`
	WantedPageSize int           `mapstructure:"wanted_page_size"`
}

// SensorsConfig selects which sensors are exposed
type SensorsConfig struct {
	// Enabled overrides the per-sensor default. Out of the box only the
	// upcoming sensor is active.
	Enabled map[string]bool `mapstructure:"enabled"`
	Custom  []CustomSensor  `mapstructure:"custom"`
}

// CustomSensor declares a user-defined sensor whose state is an
// expression evaluated against the latest snapshot
type CustomSensor struct {
	Key        string   `mapstructure:"key"`
	Name       string   `mapstructure:"name"`
	Icon       string   `mapstructure:"icon"`
	Unit       string   `mapstructure:"unit"`
	State      string   `mapstructure:"state"`
	Datapoints []string `mapstructure:"datapoints"`
}

// MQTTConfig holds broker connection details and topic layout
type MQTTConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Broker          string `mapstructure:"broker"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	ClientID        string `mapstructure:"client_id"`
	TopicPrefix     string `mapstructure:"topic_prefix"`
	DiscoveryPrefix string `mapstructure:"discovery_prefix"`
	QoS             int    `mapstructure:"qos"`
}

// ServerConfig holds the local HTTP API settings
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// QbittorrentConfig holds qBittorrent connection details used to enrich
// queue sensor attributes with live transfer data
type QbittorrentConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
