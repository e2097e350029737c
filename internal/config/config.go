package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultEnv        = "dev"
	defaultDBPath     = "./jewelbook.db"
	defaultPort       = "8080"
	defaultLogLevel   = "info"
	defaultReportCron = "0 20 * * *"
	defaultTimezone   = "Asia/Colombo"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env      string
	DBPath   string
	Port     string
	LogLevel string
	// ReportCron is a standard 5-field cron spec for the nightly wastage report.
	ReportCron string
	Timezone   string
}

// Load reads an optional .env file and the environment and returns a validated Config.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := loadDotEnv(envFile); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:        getenvWithDefault("APP_ENV", defaultEnv),
		DBPath:     getenvWithDefault("DB_PATH", defaultDBPath),
		Port:       getenvWithDefault("PORT", defaultPort),
		LogLevel:   getenvWithDefault("LOG_LEVEL", defaultLogLevel),
		ReportCron: getenvWithDefault("REPORT_CRON", defaultReportCron),
		Timezone:   getenvWithDefault("TIMEZONE", defaultTimezone),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDev reports whether migrations should run automatically on startup.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}

// Location resolves Timezone; Validate guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate ensures that the configuration can be used to start the server.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if _, err := cron.ParseStandard(c.ReportCron); err != nil {
		return fmt.Errorf("REPORT_CRON is not a valid cron spec: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is not a known location: %w", err)
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
