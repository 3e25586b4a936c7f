package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ciphersql/studio/internal/db"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Hints    HintsConfig    `mapstructure:"hints"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// PostgresConfig holds the sandbox database configuration.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// DBConfig converts to the connection-layer config.
func (p PostgresConfig) DBConfig() db.Config {
	return db.Config{
		Host:     p.Host,
		Port:     p.Port,
		User:     p.User,
		Password: p.Password,
		DBName:   p.DBName,
		SSLMode:  p.SSLMode,
		MaxConns: p.MaxConns,
	}
}

// CatalogConfig holds the assignment catalog store configuration.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// HintsConfig holds the LLM hint generator configuration. An empty API
// key leaves hints disabled; everything else still works.
type HintsConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// Load reads config.yaml (working directory or ./config) plus
// STUDIO_-prefixed environment overrides, e.g. STUDIO_POSTGRES_HOST or
// STUDIO_HINTS_API_KEY.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults plus environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	d := db.DefaultConfig()
	v.SetDefault("postgres.host", d.Host)
	v.SetDefault("postgres.port", d.Port)
	v.SetDefault("postgres.user", d.User)
	v.SetDefault("postgres.password", d.Password)
	v.SetDefault("postgres.dbname", d.DBName)
	v.SetDefault("postgres.sslmode", d.SSLMode)
	v.SetDefault("postgres.max_conns", int(d.MaxConns))

	v.SetDefault("catalog.path", "studio.db")

	v.SetDefault("hints.api_key", "")
	v.SetDefault("hints.base_url", "")
	v.SetDefault("hints.model", "gpt-4o-mini")

	v.SetDefault("logging.mode", "development")
	v.SetDefault("logging.level", "info")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		return fmt.Errorf("invalid postgres.port: %d", c.Postgres.Port)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path must not be empty")
	}
	if c.Logging.Mode != "development" && c.Logging.Mode != "production" {
		return fmt.Errorf("invalid logging.mode: %s", c.Logging.Mode)
	}
	return nil
}
