package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	Source    SourceConfig    `yaml:"source"`
	LLM       LLMConfig       `yaml:"llm"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio". Stdio serves MCP only; http serves the
	// REST API, the MCP endpoint and the health check.
	Mode string `yaml:"mode"`
}

type StoreConfig struct {
	// Dir is the root of the context store.
	Dir string `yaml:"dir"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// DBPath holds users and api tokens.
	DBPath string `yaml:"db_path"`
	// LocalUser is the identity assumed when auth is disabled.
	LocalUser string `yaml:"local_user"`
}

type SourceConfig struct {
	// Token authenticates against the source platform. Empty means
	// unauthenticated access with its lower rate limits.
	Token string `yaml:"token"`
}

type LLMConfig struct {
	// APIKey enables AI enrichment of the business document when set.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Store: StoreConfig{
			Dir: "data/contexts",
		},
		Auth: AuthConfig{
			Enabled:   false,
			DBPath:    "data/auth.db",
			LocalUser: "local",
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("CTXMARKET_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CTXMARKET_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CTXMARKET_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CTXMARKET_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("CTXMARKET_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if dir := os.Getenv("CTXMARKET_STORE_DIR"); dir != "" {
		cfg.Store.Dir = dir
	}
	if enabled := os.Getenv("CTXMARKET_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CTXMARKET_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if dbPath := os.Getenv("CTXMARKET_AUTH_DB_PATH"); dbPath != "" {
		cfg.Auth.DBPath = dbPath
	}
	if user := os.Getenv("CTXMARKET_LOCAL_USER"); user != "" {
		cfg.Auth.LocalUser = user
	}
	if token := os.Getenv("CTXMARKET_GITHUB_TOKEN"); token != "" {
		cfg.Source.Token = token
	}
	if key := os.Getenv("CTXMARKET_LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if model := os.Getenv("CTXMARKET_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if level := os.Getenv("CTXMARKET_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if cfg.Transport.Mode != "http" && cfg.Transport.Mode != "stdio" {
		return Config{}, fmt.Errorf("invalid transport mode %q", cfg.Transport.Mode)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
