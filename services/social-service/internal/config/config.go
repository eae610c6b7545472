package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/discovery"
	"github.com/vasapolrittideah/social-network-api/shared/logger"
	"github.com/vasapolrittideah/social-network-api/shared/mailer"
	"github.com/vasapolrittideah/social-network-api/shared/mongodb"
	"github.com/vasapolrittideah/social-network-api/shared/provider"
)

// PasswordResetTokenTTL is the only accepted lifetime of a password reset token.
const PasswordResetTokenTTL = time.Hour

// StorageDriver selects the repository implementation.
type StorageDriver string

const (
	StorageMongo  StorageDriver = "mongo"
	StorageMemory StorageDriver = "memory"
)

// SocialServiceConfig is the complete configuration of the social service.
type SocialServiceConfig struct {
	HTTP    HTTPConfig
	GRPC    GRPCConfig
	Token   TokenConfig
	Session SessionConfig

	FrontendURL         string        `env:"FRONTEND_URL"           envDefault:"http://localhost:3000"`
	AppPasswordResetURL string        `env:"APP_PASSWORD_RESET_URL" envDefault:"http://localhost:3000/reset-password"`
	StorageDriver       StorageDriver `env:"STORAGE_DRIVER"         envDefault:"mongo"`

	Mongo     mongodb.Config
	SMTP      mailer.Config
	Google    provider.GoogleConfig
	Discovery discovery.Config
	Log       logger.Config
}

// HTTPConfig configures the public REST listener.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR"             envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// GRPCConfig configures the internal gRPC listener.
type GRPCConfig struct {
	Port int `env:"GRPC_PORT" envDefault:"9090"`
}

// TokenConfig configures access and password reset tokens.
type TokenConfig struct {
	AccessTokenSecret           string        `env:"ACCESS_TOKEN_SECRET,required"`
	AccessTokenExpiresIn        time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN"         envDefault:"24h"`
	PasswordResetTokenExpiresIn time.Duration `env:"PASSWORD_RESET_TOKEN_EXPIRES_IN" envDefault:"1h"`
	Issuer                      string        `env:"TOKEN_ISSUER"                    envDefault:"social-service"`
}

// SessionConfig configures the server-side session cookie.
type SessionConfig struct {
	CookieName string `env:"SESSION_COOKIE_NAME"   envDefault:"social_session"`
	Secure     bool   `env:"SESSION_COOKIE_SECURE" envDefault:"true"`
	Domain     string `env:"SESSION_COOKIE_DOMAIN"`
}

// Load reads an optional .env file, then parses and validates the environment.
func Load() (*SocialServiceConfig, error) {
	// A missing .env file is fine; the real environment wins anyway.
	_ = godotenv.Load()

	return Parse()
}

// Parse builds the configuration from the current environment only.
func Parse() (*SocialServiceConfig, error) {
	cfg, err := env.ParseAs[SocialServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *SocialServiceConfig) validate() error {
	if err := c.Token.validate(); err != nil {
		return err
	}

	switch c.StorageDriver {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if _, err := url.ParseRequestURI(c.FrontendURL); err != nil {
		return fmt.Errorf("invalid FRONTEND_URL: %w", err)
	}
	if _, err := url.ParseRequestURI(c.AppPasswordResetURL); err != nil {
		return fmt.Errorf("invalid APP_PASSWORD_RESET_URL: %w", err)
	}

	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid GRPC_PORT %d", c.GRPC.Port)
	}

	if c.Session.CookieName == "" {
		return errors.New("missing SESSION_COOKIE_NAME environment variable")
	}

	return nil
}

func (c TokenConfig) validate() error {
	if len(c.AccessTokenSecret) < auth.MinSecretLength {
		return fmt.Errorf("ACCESS_TOKEN_SECRET: %w", auth.ErrWeakSecret)
	}
	if c.AccessTokenExpiresIn <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRES_IN must be positive")
	}
	if c.PasswordResetTokenExpiresIn != PasswordResetTokenTTL {
		return fmt.Errorf("PASSWORD_RESET_TOKEN_EXPIRES_IN must be %s", PasswordResetTokenTTL)
	}
	if c.Issuer == "" {
		return errors.New("missing TOKEN_ISSUER environment variable")
	}

	return nil
}
