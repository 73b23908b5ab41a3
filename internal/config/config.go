/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings. A local
 * .env file is loaded first via godotenv so development setups stay simple.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 * - github.com/joho/godotenv: Loads .env files into the process environment.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	NotificationQueue          string `mapstructure:"NOTIFICATION_QUEUE"`
	ConsumeNotifications       bool   `mapstructure:"CONSUME_NOTIFICATIONS"`
	JWTSecret                  string `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes            int    `mapstructure:"TOKEN_TTL_MINUTES"`
	BcryptCost                 int    `mapstructure:"BCRYPT_COST"`
	TransferRateLimitPerMinute int    `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
	AuditSchedule              string `mapstructure:"AUDIT_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Load an optional .env file into the environment before viper reads it.
	if err := godotenv.Load(strings.TrimSuffix(path, "/") + "/.env"); err != nil && !os.IsNotExist(err) {
		log.Printf("level=warn component=config msg=\"failed to load .env file; using environment values\" err=%v", err)
	}

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("NOTIFICATION_QUEUE", "transaction_notifications")
	viper.SetDefault("CONSUME_NOTIFICATIONS", false)
	viper.SetDefault("TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("AUDIT_SCHEDULE", "0 * * * *")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "ledger:rate_limit")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("NOTIFICATION_QUEUE")
	_ = viper.BindEnv("CONSUME_NOTIFICATIONS")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("BCRYPT_COST")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("AUDIT_SCHEDULE")

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "ledger:rate_limit"
	}
	config.NotificationQueue = strings.TrimSpace(config.NotificationQueue)
	if config.NotificationQueue == "" {
		config.NotificationQueue = "transaction_notifications"
	}

	if config.TokenTTLMinutes <= 0 {
		config.TokenTTLMinutes = 60
	}
	if config.BcryptCost <= 0 {
		config.BcryptCost = 10
	}
	if config.TransferRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative transfer rate limit configured; disabling\" limit=%d", config.TransferRateLimitPerMinute)
		config.TransferRateLimitPerMinute = 0
	}
	if strings.TrimSpace(config.AuditSchedule) == "" {
		config.AuditSchedule = "0 * * * *"
	}

	return
}
