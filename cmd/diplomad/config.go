// config.go - Configuration management for the diploma daemon
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	// Scenario settings
	NumDiplomas int `json:"num_diplomas"`

	// File paths
	StoreDir string `json:"store_dir"`

	// HTTP
	ListenAddr string `json:"listen_addr"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Simulation timing (milliseconds per stage; 0 keeps defaults)
	StageDelayMs   int `json:"stage_delay_ms"`
	MaxPollRetries int `json:"max_poll_retries"`

	// Rate limiting (mutating requests per issuer)
	RatePerSecond float64 `json:"rate_per_second"`
	RateBurst     int     `json:"rate_burst"`

	// Sessions
	SessionSecret     string `json:"session_secret"`
	SessionTTLMinutes int    `json:"session_ttl_minutes"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		NumDiplomas:       3,
		StoreDir:          "data",
		ListenAddr:        ":8080",
		LogLevel:          "info",
		LogFile:           "",
		StageDelayMs:      0,
		MaxPollRetries:    50,
		RatePerSecond:     5,
		RateBurst:         10,
		SessionSecret:     "dev-session-secret",
		SessionTTLMinutes: 60,
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	// Try to load from file
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}

		return &config, nil
	}

	// Create default config and save it
	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.NumDiplomas <= 0 {
		return fmt.Errorf("num_diplomas must be positive")
	}
	if c.StoreDir == "" {
		return fmt.Errorf("store_dir must be set")
	}
	if c.MaxPollRetries <= 0 {
		return fmt.Errorf("max_poll_retries must be positive")
	}
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("rate_per_second must be positive")
	}
	if c.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("session_secret must be set")
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("session_ttl_minutes must be positive")
	}
	return nil
}
