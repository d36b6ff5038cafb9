package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	StoreBackend                     string `mapstructure:"STORE_BACKEND"` // "firestore" or "memory"
	MoviesCollection                 string `mapstructure:"MOVIES_COLLECTION"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`
	RabbitMQURL                      string `mapstructure:"RABBITMQ_URL"` // Optional; audit records are logged when empty
	AuditQueue                       string `mapstructure:"AUDIT_QUEUE"`
}

var keys = []string{
	"PORT",
	"GIN_MODE",
	"STORE_BACKEND",
	"MOVIES_COLLECTION",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL",
	"RABBITMQ_URL",
	"AUDIT_QUEUE",
}

// LoadConfig loads configuration from environment variables using Viper.
// If CONFIG_FILE is set, that file (YAML, JSON or TOML) is read first and
// environment variables override its values.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_BACKEND", StoreFirestore)
	v.SetDefault("MOVIES_COLLECTION", "movies")
	v.SetDefault("AUDIT_QUEUE", "movie-audit")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}

	if err := v.BindEnv("CONFIG_FILE"); err != nil {
		return nil, fmt.Errorf("failed to bind env CONFIG_FILE: %w", err)
	}
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required fields are present for the selected backend.
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(c.StoreBackend)
	switch c.StoreBackend {
	case StoreMemory:
		return nil
	case StoreFirestore:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreFirestore, StoreMemory, c.StoreBackend)
	}

	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.MoviesCollection == "" {
		return errors.New("MOVIES_COLLECTION cannot be empty")
	}
	return nil
}

// IsRelease reports whether Gin (and logging) run in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}
