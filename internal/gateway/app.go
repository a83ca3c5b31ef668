package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/authsdk"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application is the edge gateway process.
type Application struct {
	cfg       Config
	logger    *slog.Logger
	startTime time.Time

	proxy   *Proxy
	handler http.Handler
	server  *http.Server
}

// New wires the gateway from cfg.
func New(cfg Config) (*Application, error) {
	logger := slogx.New(slogx.Config{
		Service: "gateway",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	return newApplication(cfg, logger, nil)
}

func newApplication(cfg Config, logger *slog.Logger, transport http.RoundTripper) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger, startTime: time.Now()}

	verifier, err := jwtx.NewVerifierHS256([]byte(cfg.JWTSecret), jwtx.VerifyOptions{Issuer: cfg.Issuer})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize verifier: %w", err)
	}

	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConnsPerHost:   32,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: cfg.UpstreamTimeout,
		}
	}

	app.proxy, err = NewProxy(cfg.Routes, BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, transport, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build routes: %w", err)
	}

	auth := &Authenticator{
		Tokens:      &service.TokenService{Verifier: verifier},
		PublicPaths: cfg.PublicPaths,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", app.health)
	mux.HandleFunc("GET /readyz", app.health)
	mux.Handle("/", Chain(app.proxy,
		AuthFilter{Auth: auth},
		RateLimitFilter{Config: httpx.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimitRPS,
			Window:            time.Second,
			Burst:             cfg.RateLimitBurst,
		}},
	))
	app.handler = slogx.HTTPMiddleware(logger)(mux)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return app, nil
}

// Handler returns the gateway's root handler.
func (app *Application) Handler() http.Handler { return app.handler }

func (app *Application) health(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(app.startTime).String(),
		Version: BuildVersion,
	})
}

// Run serves until a shutdown signal arrives.
func (app *Application) Run() error {
	app.logger.Info("gateway starting", "port", app.cfg.Port, "routes", len(app.cfg.Routes))

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

// Shutdown drains in-flight requests within the grace period.
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		return app.server.Close()
	}
	app.logger.Info("gateway stopped")
	return nil
}
