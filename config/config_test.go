package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Sonarr: SonarrConfig{
			URL:    "http://localhost:8989",
			APIKey: "valid-api-key",
		},
		Bridge: BridgeConfig{
			ScanInterval: 30 * time.Second,
			UpcomingDays: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing URL",
			mutate:  func(c *Config) { c.Sonarr.URL = "" },
			wantErr: true,
		},
		{
			name:    "missing API key",
			mutate:  func(c *Config) { c.Sonarr.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "placeholder API key",
			mutate:  func(c *Config) { c.Sonarr.APIKey = "your-api-key-here" },
			wantErr: true,
		},
		{
			name:    "scan interval too short",
			mutate:  func(c *Config) { c.Bridge.ScanInterval = time.Second },
			wantErr: true,
		},
		{
			name:    "upcoming days zero",
			mutate:  func(c *Config) { c.Bridge.UpcomingDays = 0 },
			wantErr: true,
		},
		{
			name: "mqtt enabled without broker",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker = ""
			},
			wantErr: true,
		},
		{
			name: "invalid qos",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker = "tcp://localhost:1883"
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "server enabled without listen",
			mutate: func(c *Config) {
				c.Server.Enabled = true
				c.Server.Listen = ""
			},
			wantErr: true,
		},
		{
			name: "qbittorrent enabled without url",
			mutate: func(c *Config) {
				c.Qbittorrent.Enabled = true
				c.Qbittorrent.URL = ""
			},
			wantErr: true,
		},
		{
			name: "custom sensor without key",
			mutate: func(c *Config) {
				c.Sensors.Custom = []CustomSensor{{State: "len(series)"}}
			},
			wantErr: true,
		},
		{
			name: "custom sensor without state",
			mutate: func(c *Config) {
				c.Sensors.Custom = []CustomSensor{{Key: "library"}}
			},
			wantErr: true,
		},
		{
			name: "duplicate custom sensor keys",
			mutate: func(c *Config) {
				c.Sensors.Custom = []CustomSensor{
					{Key: "library", State: "len(series)"},
					{Key: "library", State: "len(series)"},
				}
			},
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := "sonarr:\n  api_key: secret\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sonarr.URL != "http://localhost:8989" {
		t.Errorf("sonarr.url default = %q", cfg.Sonarr.URL)
	}
	if cfg.Bridge.ScanInterval != 30*time.Second {
		t.Errorf("bridge.scan_interval default = %s", cfg.Bridge.ScanInterval)
	}
	if cfg.Bridge.UpcomingDays != 1 {
		t.Errorf("bridge.upcoming_days default = %d", cfg.Bridge.UpcomingDays)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.DiscoveryPrefix != "homeassistant" {
		t.Errorf("mqtt defaults = %+v", cfg.MQTT)
	}
	if !cfg.Server.Enabled || cfg.Server.Listen != "127.0.0.1:8789" {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Qbittorrent.Enabled {
		t.Error("qbittorrent should be disabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `sonarr:
  url: http://sonarr.local:8989
  api_key: secret
bridge:
  scan_interval: 1m
  upcoming_days: 7
sensors:
  enabled:
    queue: true
    upcoming: false
  custom:
    - key: library_size
      state: len(series)
      datapoints: [series]
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.ScanInterval != time.Minute {
		t.Errorf("scan_interval = %s, want 1m", cfg.Bridge.ScanInterval)
	}
	if cfg.Bridge.UpcomingDays != 7 {
		t.Errorf("upcoming_days = %d, want 7", cfg.Bridge.UpcomingDays)
	}
	if enabled, ok := cfg.Sensors.Enabled["queue"]; !ok || !enabled {
		t.Error("sensors.enabled.queue should be true")
	}
	if enabled, ok := cfg.Sensors.Enabled["upcoming"]; !ok || enabled {
		t.Error("sensors.enabled.upcoming should be false")
	}
	if len(cfg.Sensors.Custom) != 1 || cfg.Sensors.Custom[0].Key != "library_size" {
		t.Errorf("custom sensors = %+v", cfg.Sensors.Custom)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing config file")
	}
}
