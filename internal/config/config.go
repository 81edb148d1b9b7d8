// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"valley-ledger/pkg/db"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	LogLevel   string
	DB         db.Config

	JWTSecret string
	JWTTTL    time.Duration

	RedisURL       string
	PinMaxAttempts int
	PinLockout     time.Duration

	RabbitMQURL     string
	NotifyExchange  string
	NotifyQueueSize int
	NotifyTimeout   time.Duration

	SuperAdminEmail    string
	SuperAdminPassword string
}

// rawConfig mirrors the environment keys one to one.
type rawConfig struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	LogLevel             string `mapstructure:"LOG_LEVEL"`
	DBHost               string `mapstructure:"DB_HOST"`
	DBPort               int    `mapstructure:"DB_PORT"`
	DBUser               string `mapstructure:"DB_USER"`
	DBPassword           string `mapstructure:"DB_PASSWORD"`
	DBName               string `mapstructure:"DB_NAME"`
	DBSSLMode            string `mapstructure:"DB_SSLMODE"`
	DBAutoMigrate        bool   `mapstructure:"DB_AUTO_MIGRATE"`
	JWTSecret            string `mapstructure:"JWT_SECRET"`
	JWTTTLHours          int    `mapstructure:"JWT_TTL_HOURS"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	PinMaxAttempts       int    `mapstructure:"PIN_MAX_ATTEMPTS"`
	PinLockoutSeconds    int    `mapstructure:"PIN_LOCKOUT_SECONDS"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	NotifyExchange       string `mapstructure:"NOTIFY_EXCHANGE"`
	NotifyQueueSize      int    `mapstructure:"NOTIFY_QUEUE_SIZE"`
	NotifyTimeoutSeconds int    `mapstructure:"NOTIFY_TIMEOUT_SECONDS"`
	SuperAdminEmail      string `mapstructure:"SUPERADMIN_EMAIL"`
	SuperAdminPassword   string `mapstructure:"SUPERADMIN_PASSWORD"`
}

var defaults = map[string]any{
	"SERVER_PORT":            "8080",
	"LOG_LEVEL":              "info",
	"DB_HOST":                "localhost",
	"DB_PORT":                5432,
	"DB_USER":                "user",
	"DB_PASSWORD":            "password",
	"DB_NAME":                "ledgerdb",
	"DB_SSLMODE":             "disable",
	"DB_AUTO_MIGRATE":        true,
	"JWT_SECRET":             "",
	"JWT_TTL_HOURS":          24,
	"REDIS_URL":              "",
	"PIN_MAX_ATTEMPTS":       5,
	"PIN_LOCKOUT_SECONDS":    900,
	"RABBITMQ_URL":           "",
	"NOTIFY_EXCHANGE":        "ledger.notifications",
	"NOTIFY_QUEUE_SIZE":      256,
	"NOTIFY_TIMEOUT_SECONDS": 5,
	"SUPERADMIN_EMAIL":       "",
	"SUPERADMIN_PASSWORD":    "",
}

// LoadConfig loads configuration from environment variables and an optional
// .env file in the working directory. Environment variables win.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return raw.build()
}

func (r rawConfig) build() (*AppConfig, error) {
	if strings.TrimSpace(r.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if r.DBPort <= 0 {
		return nil, fmt.Errorf("invalid DB_PORT: %d", r.DBPort)
	}
	if r.JWTTTLHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_HOURS: %d", r.JWTTTLHours)
	}
	if r.PinMaxAttempts <= 0 {
		return nil, fmt.Errorf("invalid PIN_MAX_ATTEMPTS: %d", r.PinMaxAttempts)
	}
	if r.NotifyQueueSize <= 0 {
		return nil, fmt.Errorf("invalid NOTIFY_QUEUE_SIZE: %d", r.NotifyQueueSize)
	}

	return &AppConfig{
		ServerPort: r.ServerPort,
		LogLevel:   r.LogLevel,
		DB: db.Config{
			Host:        r.DBHost,
			Port:        r.DBPort,
			User:        r.DBUser,
			Password:    r.DBPassword,
			DBName:      r.DBName,
			SSLMode:     r.DBSSLMode,
			AutoMigrate: r.DBAutoMigrate,
		},
		JWTSecret:          r.JWTSecret,
		JWTTTL:             time.Duration(r.JWTTTLHours) * time.Hour,
		RedisURL:           strings.TrimSpace(r.RedisURL),
		PinMaxAttempts:     r.PinMaxAttempts,
		PinLockout:         time.Duration(r.PinLockoutSeconds) * time.Second,
		RabbitMQURL:        strings.TrimSpace(r.RabbitMQURL),
		NotifyExchange:     r.NotifyExchange,
		NotifyQueueSize:    r.NotifyQueueSize,
		NotifyTimeout:      time.Duration(r.NotifyTimeoutSeconds) * time.Second,
		SuperAdminEmail:    strings.TrimSpace(r.SuperAdminEmail),
		SuperAdminPassword: r.SuperAdminPassword,
	}, nil
}
