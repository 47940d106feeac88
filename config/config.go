package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"veilfs/helper/timer"
)

var log = logrus.New()

// Config represents the configuration for the veilfs store.
type Config struct {
	// Default config file location
	configFile string

	DataStore struct {
		// Engine selects the storage engine: "leveldb" or "mem".
		Engine string `json:"engine"`
		Path   string `json:"path"`
	} `json:"datastore"`

	Filters struct {
		// ProfileDir holds one "<id>.filter" rule file per profile.
		ProfileDir string `json:"profiles"`
	} `json:"filters"`

	Maintenance struct {
		IntervalSeconds int  `json:"interval_seconds"`
		JitterSeconds   int  `json:"jitter_seconds"`
		CompactOnRun    bool `json:"compact_on_run"`
	} `json:"maintenance"`
}

// NewEmptyConfig generates a new configuration with default settings
func NewEmptyConfig(configFile string) *Config {
	cfg := &Config{}

	cfg.configFile = configFile

	cfg.DataStore.Engine = "leveldb"
	cfg.DataStore.Path = "/tmp/veilfs/store"

	cfg.Filters.ProfileDir = "/tmp/veilfs/profiles"

	cfg.Maintenance.IntervalSeconds = 3600
	cfg.Maintenance.JitterSeconds = 300
	cfg.Maintenance.CompactOnRun = false

	return cfg
}

func NewConfigFromFile(configFile string) (*Config, error) {
	cfg := NewEmptyConfig(configFile)
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MaintenanceInterval returns the maintenance schedule as a ticker interval.
func (c *Config) MaintenanceInterval() *timer.Interval {
	return &timer.Interval{
		Duration: time.Duration(c.Maintenance.IntervalSeconds) * time.Second,
		Jitter:   time.Duration(c.Maintenance.JitterSeconds) * time.Second,
	}
}

// Save saves the configuration to a file
func (c *Config) Save() error {
	log.Infof("Saving config to %s", c.configFile)

	// We'll marshall our structure to JSON and write it into a file
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configFile, data, 0644)
}

func (c *Config) Load() error {
	log.Infof("Loading config from %s", c.configFile)
	data, err := os.ReadFile(c.configFile)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	return nil
}
