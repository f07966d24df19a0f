package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/clinic/internal/config"
	"github.com/ehr/clinic/internal/domain/clinical"
	"github.com/ehr/clinic/internal/domain/dashboard"
	"github.com/ehr/clinic/internal/domain/identity"
	"github.com/ehr/clinic/internal/domain/patient"
	"github.com/ehr/clinic/internal/domain/scheduling"
	"github.com/ehr/clinic/internal/platform/auth"
	"github.com/ehr/clinic/internal/platform/db"
	"github.com/ehr/clinic/internal/platform/httperr"
	"github.com/ehr/clinic/internal/platform/middleware"
)

const (
	requestTimeout = 30 * time.Second
	maxBodySize    = "1M"
	version        = "0.1.0"
)

// stores is the persistence behind one app instance.
type stores struct {
	users        identity.Repository
	patients     patient.Repository
	notes        clinical.Repository
	appointments scheduling.AppointmentRepository
	tx           db.Transactor
}

type app struct {
	issuer     *auth.SessionIssuer
	identity   *identity.Service
	patients   *patient.Service
	clinical   *clinical.Service
	scheduling *scheduling.Service
	dashboard  *dashboard.Service
}

func newApp(cfg *config.Config, s stores, logger zerolog.Logger) (*app, error) {
	policy, err := patient.ParseTransitionPolicy(cfg.StatusTransitions)
	if err != nil {
		return nil, err
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	identitySvc := identity.NewService(s.users, auth.NewBcryptHasher(cost), logger)
	patientSvc := patient.NewService(s.patients, identitySvc, policy, logger)

	return &app{
		issuer:     auth.NewSessionIssuer([]byte(cfg.JWTSecret), cfg.SessionTTL),
		identity:   identitySvc,
		patients:   patientSvc,
		clinical:   clinical.NewService(s.notes, patientSvc, s.tx, logger),
		scheduling: scheduling.NewService(s.appointments, patientSvc, identitySvc, logger),
		dashboard:  dashboard.NewService(patientSvc),
	}, nil
}

type routerOptions struct {
	CORSOrigins []string
	HSTS        bool
	RateLimit   middleware.RateLimitConfig
	Limiter     middleware.Limiter
	DB          db.Pinger
}

func newRouter(a *app, opts routerOptions, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httperr.Handler(logger)

	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewMemoryLimiter(opts.RateLimit)
	}

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.SecurityHeaders(opts.HSTS))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.RateLimitWith(limiter, opts.RateLimit, logger))
	e.Use(middleware.RequestTimeout(requestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if opts.DB != nil {
		e.GET("/health/db", db.HealthHandler(opts.DB))
	}
	e.GET("/metrics", middleware.MetricsHandler())

	api := e.Group("/api", auth.Authenticate(a.issuer, a.identity, auth.AuthSkipper))
	identity.NewHandler(a.identity, a.issuer).RegisterRoutes(api)
	patient.NewHandler(a.patients).RegisterRoutes(api)
	clinical.NewHandler(a.clinical).RegisterRoutes(api)
	scheduling.NewHandler(a.scheduling).RegisterRoutes(api)
	dashboard.NewHandler(a.dashboard).RegisterRoutes(api)

	return e
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	return rl
}

// newLimiter returns the Redis limiter when REDIS_URL is set and reachable,
// and the in-process limiter otherwise. The returned func releases it.
func newLimiter(ctx context.Context, cfg *config.Config, rl middleware.RateLimitConfig, logger zerolog.Logger) (middleware.Limiter, func()) {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryLimiter(rl), func() {}
	}
	rdb, err := middleware.NewRedisLimiter(ctx, cfg.RedisURL, rl)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, using in-process rate limiter")
		return middleware.NewMemoryLimiter(rl), func() {}
	}
	logger.Info().Msg("using redis rate limiter")
	return rdb, func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("close redis")
		}
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: stdout}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(stdout).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.JWTSecretFallback {
		logger.Warn().Msg("JWT_SECRET not set, using the development signing secret")
	}
	return cfg, logger, nil
}
