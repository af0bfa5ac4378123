// Package config loads settings from the environment and an optional
// stockroom.yaml file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings of both the service and the console client.
type Config struct {
	// service
	AppPort           string
	DBDriver          string
	DatabaseDSN       string
	RabbitMQURL       string
	JWTSecret         string
	AuthEnabled       bool
	LowStockThreshold int

	// client
	InventoryURL   string
	InventoryToken string
	RequestTimeout time.Duration
	SellMode       string

	// logging
	ServiceName string
	Env         string
	LogLevel    string
}

// Load reads the configuration. Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("stockroom")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "stockroom.db")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("LOW_STOCK_THRESHOLD", 3)
	v.SetDefault("INVENTORY_URL", "http://localhost:8080")
	v.SetDefault("INVENTORY_TOKEN", "")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("SELL_MODE", "sell")
	v.SetDefault("SERVICE_NAME", "stockroom")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:           v.GetString("APP_PORT"),
		DBDriver:          v.GetString("DB_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		AuthEnabled:       v.GetBool("AUTH_ENABLED"),
		LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		InventoryURL:      v.GetString("INVENTORY_URL"),
		InventoryToken:    v.GetString("INVENTORY_TOKEN"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
		SellMode:          v.GetString("SELL_MODE"),
		ServiceName:       v.GetString("SERVICE_NAME"),
		Env:               v.GetString("ENV"),
		LogLevel:          v.GetString("LOG_LEVEL"),
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %q", v.GetString("REQUEST_TIMEOUT"))
	}
	if cfg.LowStockThreshold < 0 {
		return Config{}, fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	return cfg, nil
}
