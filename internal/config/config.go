package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultEdipoAPIURL = "https://edipo.jorels.com"

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Edipo    EdipoConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MinConns        int
	MaxConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// EdipoConfig points the Radian submission at the electronic-invoicing gateway.
type EdipoConfig struct {
	APIURL  string
	Timeout time.Duration
}

// CronConfig controls the periodic EDI payslip regeneration.
type CronConfig struct {
	EdiPayslipEnabled  bool
	EdiPayslipInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	connLifetime, err := time.ParseDuration(getEnv("DB_MAX_CONN_LIFETIME", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONN_LIFETIME: %w", err)
	}
	connIdle, err := time.ParseDuration(getEnv("DB_MAX_CONN_IDLE_TIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONN_IDLE_TIME: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            dbPort,
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "cmlabs-edi"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MinConns:        minConns,
		MaxConns:        maxConns,
		MaxConnLifetime: connLifetime,
		MaxConnIdleTime: connIdle,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Gateway configuration (jorels.edipo.api_url)
	edipoTimeout, err := time.ParseDuration(getEnv("EDIPO_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid EDIPO_TIMEOUT: %w", err)
	}
	config.Edipo = EdipoConfig{
		APIURL:  strings.TrimRight(getEnv("EDIPO_API_URL", DefaultEdipoAPIURL), "/"),
		Timeout: edipoTimeout,
	}

	cronInterval, err := time.ParseDuration(getEnv("EDI_PAYSLIP_CRON_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EDI_PAYSLIP_CRON_INTERVAL: %w", err)
	}
	config.Cron = CronConfig{
		EdiPayslipEnabled:  getEnv("EDI_PAYSLIP_CRON_ENABLED", "false") == "true",
		EdiPayslipInterval: cronInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Edipo.APIURL == "" {
		return fmt.Errorf("EDIPO_API_URL is required")
	}
	if c.Edipo.Timeout <= 0 {
		return fmt.Errorf("EDIPO_TIMEOUT must be positive")
	}
	if c.Cron.EdiPayslipEnabled && c.Cron.EdiPayslipInterval <= 0 {
		return fmt.Errorf("EDI_PAYSLIP_CRON_INTERVAL must be positive")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
