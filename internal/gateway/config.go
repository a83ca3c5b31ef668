package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aussiebroadwan/identity/pkg/jwtx"
)

// Config configures the edge gateway.
type Config struct {
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"` // Same secret the identity service signs with
	Issuer    string `env:"JWT_ISSUER" envDefault:"identity"`

	// PublicPaths are path prefixes served without authentication.
	PublicPaths []string `env:"GATEWAY_PUBLIC_PATHS" envSeparator:"," envDefault:"/auth/,/actuator/,/livez,/readyz"`

	// Routes maps a path prefix to an upstream base URL, the longest
	// matching prefix wins.
	Routes map[string]string `env:"GATEWAY_ROUTES" envSeparator:"," envKeyValSeparator:"=" envDefault:"/auth/=http://localhost:8081"`

	RateLimitRPS   int `env:"GATEWAY_RATE_LIMIT_RPS"   envDefault:"10"`
	RateLimitBurst int `env:"GATEWAY_RATE_LIMIT_BURST" envDefault:"20"`

	// Circuit breaker settings, applied per upstream.
	BreakerMaxFailures uint32        `env:"GATEWAY_BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerOpenTimeout time.Duration `env:"GATEWAY_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
	UpstreamTimeout    time.Duration `env:"GATEWAY_UPSTREAM_TIMEOUT"     envDefault:"30s"`

	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
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

// Validate rejects settings the gateway cannot run with.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if len(c.Routes) == 0 {
		errs = append(errs, errors.New("GATEWAY_ROUTES must name at least one route"))
	}
	for prefix, target := range c.Routes {
		if !strings.HasPrefix(prefix, "/") {
			errs = append(errs, fmt.Errorf("route %q must start with /", prefix))
		}
		u, err := url.Parse(target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("route %q has invalid upstream %q", prefix, target))
		}
	}
	if c.RateLimitRPS < 1 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("GATEWAY_RATE_LIMIT_RPS and GATEWAY_RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}
