package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultInviteTTLHours is used when PROJECT_INVITE_TTL_HOURS is unset or not positive.
const DefaultInviteTTLHours = 72

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Invitation InvitationConfig
	SMTP       SMTPConfig
	RateLimit  RateLimitConfig
}

type DatabaseConfig struct {
	Host        string `env:"DB_HOST" envDefault:"localhost"`
	Port        int    `env:"DB_PORT" envDefault:"5432"`
	User        string `env:"DB_USER" envDefault:"postgres"`
	Password    string `env:"DB_PASSWORD"`
	Name        string `env:"DB_NAME" envDefault:"collab"`
	SSLMode     string `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	MinConns    int32  `env:"DB_MIN_CONNS" envDefault:"5"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string        `env:"JWT_SECRET_KEY"`
	AccessExpiration time.Duration `env:"JWT_ACCESS_EXPIRATION_TIME" envDefault:"1h"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name               string   `env:"APP_NAME" envDefault:"collab-backend"`
	Version            string   `env:"APP_VERSION" envDefault:"v1.0.0"`
	Port               int      `env:"APP_PORT" envDefault:"8080"`
	Env                string   `env:"APP_ENV" envDefault:"development"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string   `env:"LOG_FORMAT" envDefault:"json"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
}

// InvitationConfig controls invite links and their lifetime.
type InvitationConfig struct {
	BaseURL       string        `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	TTLHours      int           `env:"PROJECT_INVITE_TTL_HOURS" envDefault:"72"`
	SweepInterval time.Duration `env:"INVITATION_SWEEP_INTERVAL" envDefault:"1h"`
}

// TTL returns how long a freshly issued invite stays valid.
func (c InvitationConfig) TTL() time.Duration {
	hours := c.TTLHours
	if hours <= 0 {
		hours = DefaultInviteTTLHours
	}
	return time.Duration(hours) * time.Hour
}

// SMTPConfig holds outbound mail transport settings. An empty Host or zero
// Port leaves the mailer unconfigured.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"`
	Secure   bool   `env:"SMTP_SECURE"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"EMAIL_FROM"`
	FromName string `env:"EMAIL_FROM_NAME" envDefault:"Collab"`
}

// Configured reports whether enough settings are present to open a connection.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0
}

// ImplicitTLS reports whether the connection must start with TLS rather than STARTTLS.
func (c SMTPConfig) ImplicitTLS() bool {
	return c.Secure || c.Port == 465
}

// RateLimitConfig bounds how often one user may send invitations.
type RateLimitConfig struct {
	InviteRequests int           `env:"RATE_LIMIT_INVITE_REQUESTS" envDefault:"10"`
	InviteWindow   time.Duration `env:"RATE_LIMIT_INVITE_WINDOW" envDefault:"1m"`
	InviteBurst    int           `env:"RATE_LIMIT_INVITE_BURST" envDefault:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Debug("No .env file found, using process environment")
	}

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

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
	if c.JWT.AccessExpiration <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive")
	}
	if strings.TrimSpace(c.Invitation.BaseURL) == "" {
		return fmt.Errorf("CLIENT_URL must not be empty")
	}
	if c.SMTP.Configured() && c.SMTP.From == "" {
		return fmt.Errorf("EMAIL_FROM is required when SMTP_HOST is set")
	}
	if c.RateLimit.InviteRequests <= 0 || c.RateLimit.InviteWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_INVITE_REQUESTS and RATE_LIMIT_INVITE_WINDOW must be positive")
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
