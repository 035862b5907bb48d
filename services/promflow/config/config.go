package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/pelletier/go-toml/v2"
)

const (
	defaultQueryURL          = "http://localhost:9090"
	defaultPushURL           = "http://localhost:9091"
	defaultTimeoutInSeconds  = 30
	defaultIntervalInSeconds = 60
	defaultListenAddress     = "127.0.0.1:8080"
	defaultStorageDirectory  = "results"
	defaultEventsDatabase    = "db/events.db"
)

// EndpointConfig defines how a remote endpoint is reached. Username and Password use presence semantics:
// basic auth is attached only if both are set, even when empty.
type EndpointConfig struct {
	URL                string            `toml:"URL"`
	Username           *string           `toml:"Username"`
	Password           *string           `toml:"Password"`
	TimeoutInSeconds   uint32            `toml:"TimeoutInSeconds"`
	InsecureSkipVerify bool              `toml:"InsecureSkipVerify"`
	Headers            map[string]string `toml:"Headers"`
}

// PushgatewayConfig defines the Pushgateway endpoint and the metrics pushed by the push command
type PushgatewayConfig struct {
	URL                string              `toml:"URL"`
	Username           *string             `toml:"Username"`
	Password           *string             `toml:"Password"`
	TimeoutInSeconds   uint32              `toml:"TimeoutInSeconds"`
	InsecureSkipVerify bool                `toml:"InsecureSkipVerify"`
	Headers            map[string]string   `toml:"Headers"`
	Job                string              `toml:"Job"`
	Instance           string              `toml:"Instance"`
	Metrics            []common.PushMetric `toml:"Metrics"`
}

// TriggerConfig defines a single polling trigger. The endpoint fields override the [Prometheus] ones.
type TriggerConfig struct {
	ID                string            `toml:"ID"`
	Query             string            `toml:"Query"`
	Time              string            `toml:"Time"`
	IntervalInSeconds uint32            `toml:"IntervalInSeconds"`
	URL               string            `toml:"URL"`
	Username          *string           `toml:"Username"`
	Password          *string           `toml:"Password"`
	Headers           map[string]string `toml:"Headers"`
}

// Config maps to the config.toml file of the service
type Config struct {
	Name                   string            `toml:"Name"`
	ListenAddress          string            `toml:"ListenAddress"`
	StorageDirectory       string            `toml:"StorageDirectory"`
	EventsDatabasePath     string            `toml:"EventsDatabasePath"`
	EventsRetentionSeconds int               `toml:"EventsRetentionSeconds"`
	Prometheus             EndpointConfig    `toml:"Prometheus"`
	Pushgateway            PushgatewayConfig `toml:"Pushgateway"`
	Triggers               []TriggerConfig   `toml:"Triggers"`
}

// LoadConfig parses a TOML file into the Config struct, applies the defaults and validates it
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.NewDecoder(bytes.NewReader(data)).EnableUnmarshalerInterface().Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.ApplyDefaults()
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills in the unset values
func (cfg *Config) ApplyDefaults() {
	if len(cfg.ListenAddress) == 0 {
		cfg.ListenAddress = defaultListenAddress
	}
	if len(cfg.StorageDirectory) == 0 {
		cfg.StorageDirectory = defaultStorageDirectory
	}
	if len(cfg.EventsDatabasePath) == 0 {
		cfg.EventsDatabasePath = defaultEventsDatabase
	}
	if len(cfg.Prometheus.URL) == 0 {
		cfg.Prometheus.URL = defaultQueryURL
	}
	if cfg.Prometheus.TimeoutInSeconds == 0 {
		cfg.Prometheus.TimeoutInSeconds = defaultTimeoutInSeconds
	}
	if len(cfg.Pushgateway.URL) == 0 {
		cfg.Pushgateway.URL = defaultPushURL
	}
	if cfg.Pushgateway.TimeoutInSeconds == 0 {
		cfg.Pushgateway.TimeoutInSeconds = defaultTimeoutInSeconds
	}
	for i := range cfg.Triggers {
		if cfg.Triggers[i].IntervalInSeconds == 0 {
			cfg.Triggers[i].IntervalInSeconds = defaultIntervalInSeconds
		}
	}
}

// Validate checks the values that can not be defaulted
func (cfg *Config) Validate() error {
	if cfg.EventsRetentionSeconds < 0 {
		return errors.New("negative EventsRetentionSeconds")
	}

	ids := make(map[string]struct{}, len(cfg.Triggers))
	for idx, trig := range cfg.Triggers {
		if len(strings.TrimSpace(trig.ID)) == 0 {
			return fmt.Errorf("trigger at index %d has an empty ID", idx)
		}
		_, exists := ids[trig.ID]
		if exists {
			return fmt.Errorf("duplicate trigger ID '%s'", trig.ID)
		}
		ids[trig.ID] = struct{}{}

		if len(strings.TrimSpace(trig.Query)) == 0 {
			return fmt.Errorf("trigger '%s' has an empty query", trig.ID)
		}
	}

	for _, m := range cfg.Pushgateway.Metrics {
		if len(m.Name) == 0 {
			return errors.New("pushgateway metric with empty name")
		}
	}

	return nil
}

// Timeout returns the configured timeout as a duration
func (ec EndpointConfig) Timeout() time.Duration {
	return time.Duration(ec.TimeoutInSeconds) * time.Second
}

// Endpoint returns the Pushgateway connection settings
func (pc PushgatewayConfig) Endpoint() EndpointConfig {
	return EndpointConfig{
		URL:                pc.URL,
		Username:           pc.Username,
		Password:           pc.Password,
		TimeoutInSeconds:   pc.TimeoutInSeconds,
		InsecureSkipVerify: pc.InsecureSkipVerify,
		Headers:            pc.Headers,
	}
}

// Interval returns the configured poll interval as a duration
func (tc TriggerConfig) Interval() time.Duration {
	return time.Duration(tc.IntervalInSeconds) * time.Second
}

// Endpoint merges the trigger overrides over the provided default endpoint
func (tc TriggerConfig) Endpoint(defaults EndpointConfig) EndpointConfig {
	endpoint := defaults
	if len(tc.URL) > 0 {
		endpoint.URL = tc.URL
	}
	if tc.Username != nil || tc.Password != nil {
		endpoint.Username = tc.Username
		endpoint.Password = tc.Password
	}
	if len(tc.Headers) > 0 {
		endpoint.Headers = make(map[string]string, len(defaults.Headers)+len(tc.Headers))
		for key, value := range defaults.Headers {
			endpoint.Headers[key] = value
		}
		for key, value := range tc.Headers {
			endpoint.Headers[key] = value
		}
	}

	return endpoint
}
