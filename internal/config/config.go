package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the bridge configuration loaded from a YAML file.
type Config struct {
	Device DeviceConfig `yaml:"device"`
	MQTT   MQTTConfig   `yaml:"mqtt,omitempty"`
	API    APIConfig    `yaml:"api,omitempty"`

	// LogLevel overrides AMBISENSE_LOG_LEVEL when set
	LogLevel string `yaml:"log_level,omitempty"`
}

// DeviceConfig identifies the device and tunes polling behavior.
type DeviceConfig struct {
	Host string `yaml:"host"`           // Hostname or IP (e.g., "ambisense-living.local")
	Port int    `yaml:"port,omitempty"` // HTTP port, default 80

	// PollIntervalSeconds is the fixed poll interval, default 5
	PollIntervalSeconds int `yaml:"poll_interval_seconds,omitempty"`

	// TimeoutSeconds bounds every device HTTP call, default 5
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// MQTTConfig enables republishing snapshots to an MQTT broker with
// Home Assistant discovery payloads.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker,omitempty"` // e.g., "tcp://localhost:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // default "ambisense"

	// DiscoveryPrefix is the Home Assistant discovery prefix, default "homeassistant"
	DiscoveryPrefix string `yaml:"discovery_prefix,omitempty"`
}

// APIConfig enables the local HTTP API with the websocket snapshot stream.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"` // default ":8480"
}

// DefaultConfig returns a config with every optional field at its default.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:                80,
			PollIntervalSeconds: 5,
			TimeoutSeconds:      5,
		},
		MQTT: MQTTConfig{
			TopicPrefix:     "ambisense",
			DiscoveryPrefix: "homeassistant",
		},
		API: APIConfig{
			Listen: ":8480",
		},
	}
}

// Load reads a config file and applies defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if cfg.Device.Host == "" {
		return nil, fmt.Errorf("config is missing device.host")
	}

	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Device.Port == 0 {
		c.Device.Port = 80
	}
	if c.Device.PollIntervalSeconds == 0 {
		c.Device.PollIntervalSeconds = 5
	}
	if c.Device.TimeoutSeconds == 0 {
		c.Device.TimeoutSeconds = 5
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "ambisense"
	}
	if c.MQTT.DiscoveryPrefix == "" {
		c.MQTT.DiscoveryPrefix = "homeassistant"
	}
	if c.API.Listen == "" {
		c.API.Listen = ":8480"
	}
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Device.PollIntervalSeconds) * time.Second
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Device.TimeoutSeconds) * time.Second
}
