// Package config loads the sandbox YAML configuration and applies
// environment variable overrides.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration shared by the sandbox binaries.
type Config struct {
	Server  Server  `yaml:"server"`
	Client  Client  `yaml:"client"`
	Storage Storage `yaml:"storage"`
	Alpaca  Alpaca  `yaml:"alpaca"`
	Auth    Auth    `yaml:"auth"`
	Logging Logging `yaml:"logging"`
}

// Server holds the API server's listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Client holds the TUI client's connection settings.
type Client struct {
	APIBase  string `yaml:"api_base"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Storage holds paths for data persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
	ParquetDir string `yaml:"parquet_dir"`
}

// Alpaca holds credentials for the upstream market data API. When the key is
// empty the server falls back to the local SQLite price source.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Auth configures sandbox accounts.
type Auth struct {
	StartingCashBalance float64 `yaml:"starting_cash_balance"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns the configuration used when no file or field is provided.
func Default() *Config {
	return &Config{
		Server:  Server{Host: "0.0.0.0", Port: 8080},
		Client:  Client{APIBase: "http://localhost:8080"},
		Storage: Storage{SQLitePath: "sandbox.db"},
		Auth:    Auth{StartingCashBalance: 10000},
		Logging: Logging{Level: "info"},
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SANDBOX_API_BASE"); v != "" {
		cfg.Client.APIBase = v
	}
	if v := os.Getenv("SANDBOX_EMAIL"); v != "" {
		cfg.Client.Email = v
	}
	if v := os.Getenv("SANDBOX_PASSWORD"); v != "" {
		cfg.Client.Password = v
	}
	if v := os.Getenv("SANDBOX_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("SANDBOX_PARQUET_DIR"); v != "" {
		cfg.Storage.ParquetDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
