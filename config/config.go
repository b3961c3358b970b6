package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	Reminder ReminderConfig
	AutoGen  AutoGenConfig
	Store    StoreConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL         string // if set, used as-is (e.g. postgres://localhost:5432/lms?sslmode=disable)
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// JWTConfig holds JWT validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// EmailConfig for SMTP delivery and send pacing.
type EmailConfig struct {
	FromAddress   string
	FromName      string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	RatePerSecond float64 // 0 disables limiting
	RateBurst     int
}

// ReminderConfig controls "starting soon" notifications.
type ReminderConfig struct {
	LeadMinutes int
	AppName     string
}

// AutoGenConfig controls POST /sessions/autogenerate.
type AutoGenConfig struct {
	Secret      string
	SecretHash  string // bcrypt; takes precedence over Secret
	Hour        int
	Minute      int
	DaysAhead   int
	JoinBaseURL string
	ActorID     uuid.UUID
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	actorID := uuid.Nil
	if v := getEnv("AUTOGEN_ACTOR_ID", ""); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("AUTOGEN_ACTOR_ID: %w", err)
		}
		actorID = id
	}
	rate, err := strconv.ParseFloat(getEnv("EMAIL_RATE_PER_SECOND", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("EMAIL_RATE_PER_SECOND: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "lms"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvInt("DB_MAX_CONNS", 10),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Email: EmailConfig{
			FromAddress:   getEnv("EMAIL_FROM_ADDRESS", "noreply@example.com"),
			FromName:      getEnv("EMAIL_FROM_NAME", "GreenArc Commune"),
			SMTPHost:      getEnv("SMTP_HOST", ""),
			SMTPPort:      getEnvInt("SMTP_PORT", 587),
			SMTPUser:      getEnv("SMTP_USER", ""),
			SMTPPass:      getEnv("SMTP_PASS", ""),
			RatePerSecond: rate,
			RateBurst:     getEnvInt("EMAIL_RATE_BURST", 1),
		},
		Reminder: ReminderConfig{
			LeadMinutes: getEnvInt("REMINDER_LEAD_MINUTES", 30),
			AppName:     getEnv("APP_NAME", "GreenArc Commune"),
		},
		AutoGen: AutoGenConfig{
			Secret:      getEnv("AUTOGEN_SECRET", ""),
			SecretHash:  getEnv("AUTOGEN_SECRET_HASH", ""),
			Hour:        getEnvInt("AUTOGEN_HOUR", 14),
			Minute:      getEnvInt("AUTOGEN_MINUTE", 0),
			DaysAhead:   getEnvInt("AUTOGEN_DAYS_AHEAD", 2),
			JoinBaseURL: getEnv("JOIN_BASE_URL", "https://live.greenarccommune.com/join"),
			ActorID:     actorID,
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.Store.Driver)
	}
	if c.Reminder.LeadMinutes <= 0 {
		return fmt.Errorf("REMINDER_LEAD_MINUTES must be positive, got %d", c.Reminder.LeadMinutes)
	}
	if c.AutoGen.Hour < 0 || c.AutoGen.Hour > 23 {
		return fmt.Errorf("AUTOGEN_HOUR must be 0-23, got %d", c.AutoGen.Hour)
	}
	if c.AutoGen.Minute < 0 || c.AutoGen.Minute > 59 {
		return fmt.Errorf("AUTOGEN_MINUTE must be 0-59, got %d", c.AutoGen.Minute)
	}
	if c.AutoGen.DaysAhead <= 0 {
		return fmt.Errorf("AUTOGEN_DAYS_AHEAD must be positive, got %d", c.AutoGen.DaysAhead)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
