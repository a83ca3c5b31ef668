package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aussiebroadwan/identity/pkg/jwtx"
)

type Config struct {
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`     // Shared HS256 secret, at least 32 bytes
	Issuer          string        `env:"JWT_ISSUER" envDefault:"identity"` // Issuer claim for tokens
	AppID           string        `env:"APP_ID"`                           // Optional: emitted as the appId claim
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"2h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	CodeTTL      time.Duration `env:"CODE_TTL"       envDefault:"5m"`
	CodeMaxSends int64         `env:"CODE_MAX_SENDS" envDefault:"5"`
	CodeWindow   time.Duration `env:"CODE_WINDOW"    envDefault:"1h"`
	SMSMock      bool          `env:"SMS_MOCK"       envDefault:"true"` // Log codes instead of sending them

	// RedisURL backs the send-code rate window. Empty uses a process-local
	// counter, only fit for a single replica.
	RedisURL string `env:"REDIS_URL"`

	DatabaseFile string `env:"DATABASE_FILE" envDefault:"identity.db"`
	PepperFile   string `env:"PEPPER_FILE"   envDefault:"pepper"`

	// TrustGatewayHeaders resolves the caller from X-User-Id. Only enable
	// when the service is reachable through the gateway alone.
	TrustGatewayHeaders bool `env:"TRUST_GATEWAY_HEADERS" envDefault:"false"`

	Env                  string        `env:"ENV"                   envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                 int           `env:"PORT"                  envDefault:"8081"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL"))
	}
	if c.CodeTTL <= 0 || c.CodeWindow <= 0 {
		errs = append(errs, errors.New("CODE_TTL and CODE_WINDOW must be positive"))
	}
	if c.CodeMaxSends < 1 {
		errs = append(errs, errors.New("CODE_MAX_SENDS must be at least 1"))
	}
	return errors.Join(errs...)
}
