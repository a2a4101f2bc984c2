package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	KNX      KNXConfig      `mapstructure:"knx"`
	Bridge   BridgeConfig   `mapstructure:"bridge"`
	Bindings BindingsConfig `mapstructure:"bindings"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type KNXConfig struct {
	Gateway         string        `mapstructure:"gateway"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
}

// Bridge Configuration (Initializer Worker)
type BridgeConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ReadingPause time.Duration `mapstructure:"reading_pause"`
}

type BindingsConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

type JournalConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type AuthConfig struct {
	JWTSecretEnv string        `mapstructure:"jwt_secret_env"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// Defaults setzen
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("knx.gateway", "127.0.0.1:3671")
	viper.SetDefault("knx.timeout", "1s")
	viper.SetDefault("knx.response_timeout", "3s")
	viper.SetDefault("bridge.poll_interval", "1s")
	viper.SetDefault("bridge.reading_pause", "0")
	viper.SetDefault("journal.enabled", false)
	viper.SetDefault("journal.max_connections", 4)

	// Auth Defaults
	viper.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	viper.SetDefault("auth.token_ttl", "168h")

	// Environment Variables automatisch binden (Viper Feature)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("OBB") // Environment Variables mit Prefix OBB_

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (j *JournalConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		j.User, j.Password, j.Host, j.Port, j.Database)
}

// JWT Secret aus Environment Variable laden
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "JWT_SECRET" // Fallback
	}

	secret := os.Getenv(envVar)
	if secret == "" {
		// Development Fallback (MIT WARNING!)
		return "dev-secret-change-in-production-min-32-chars"
	}
	return secret
}
