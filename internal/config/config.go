package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port       string
	DBAdapter  string
	SQLiteFile string
	JwtSecret  string

	// Session and reset policy
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	QuotaLimit    int64
	ResetBaseURL  string

	// Rate limiting
	RateLimitPerMinute int

	// SMTP settings for reset-link delivery
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// PostgreSQL connection settings
	PostgresDSN      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, v)
	}
	return n, nil
}

// BuildPostgresDSN constructs a PostgreSQL DSN from individual components or
// returns the provided DSN.
func (c *Config) BuildPostgresDSN() (string, error) {
	if c.PostgresDSN != "" {
		return c.PostgresDSN, nil
	}

	if c.PostgresHost == "" {
		return "", errors.New("POSTGRES_HOST or POSTGRES_DSN must be set")
	}
	if c.PostgresUser == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if c.PostgresDB == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}

	port := c.PostgresPort
	if port == "" {
		port = "5432"
	}

	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.PostgresHost, port, c.PostgresUser, c.PostgresDB, sslMode)

	if c.PostgresPassword != "" {
		dsn += " password=" + c.PostgresPassword
	}

	return dsn, nil
}

func New() (*Config, error) {
	c := &Config{
		Port:         getenv("PORT", "5000"),
		DBAdapter:    getenv("DB_ADAPTER", "sqlite"),
		SQLiteFile:   getenv("SQLITE_FILE", "./data/attendauth.db"),
		JwtSecret:    getenv("JWT_SECRET", "change-me"),
		ResetBaseURL: getenv("RESET_BASE_URL", "http://localhost:5000/resetpassword.html"),
		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPUser:     getenv("SMTP_USER", os.Getenv("EMAIL_USER")),
		SMTPPass:     getenv("SMTP_PASS", os.Getenv("EMAIL_PASS")),
		SMTPFrom:     getenv("SMTP_FROM", os.Getenv("EMAIL_USER")),
		// PostgreSQL settings
		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getenv("POSTGRES_PORT", "5432"),
		PostgresUser:     getenv("POSTGRES_USER", ""),
		PostgresPassword: getenv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getenv("POSTGRES_DB", ""),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
	}

	tokenTTL, err := getenvInt("TOKEN_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	if tokenTTL <= 0 {
		return nil, errors.New("TOKEN_TTL_SECONDS must be positive")
	}
	c.TokenTTL = time.Duration(tokenTTL) * time.Second

	resetTTL, err := getenvInt("RESET_TOKEN_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	c.ResetTokenTTL = time.Duration(resetTTL) * time.Minute

	quota, err := getenvInt("QUOTA_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	c.QuotaLimit = int64(quota)

	c.RateLimitPerMinute, err = getenvInt("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}

	c.SMTPPort, err = getenvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	if c.DBAdapter == "postgres" {
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return nil, fmt.Errorf("postgres configuration error: %w", err)
		}
		c.PostgresDSN = dsn
	}

	if c.DBAdapter == "sqlite" && c.SQLiteFile == "" {
		return nil, errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
	}

	env := strings.ToLower(getenv("ENV", ""))
	if env == "production" || env == "prod" {
		if c.JwtSecret == "" || c.JwtSecret == "change-me" {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %s", c.Port)
	}

	return c, nil
}
