package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"relay/internal/config"
	"relay/internal/constants"
	"relay/internal/dispatch"
	"relay/internal/locale"
	"relay/internal/logger"
	"relay/internal/policy"
	"relay/internal/relay"
	"relay/internal/telegram"
	"relay/pkg/circuitbreaker"
	"relay/pkg/health"
	"relay/pkg/metrics"
	"relay/pkg/middleware"
	"relay/pkg/ratelimit"
	"relay/pkg/tracing"
)

const (
	healthPath  = "/health"
	readyPath   = "/ready"
	metricsPath = "/metrics"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	server         *http.Server
	router         *gin.Engine
	health         *health.CheckerRegistry
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
		health: health.NewCheckerRegistry(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	for _, warning := range config.Warnings(a.config) {
		a.logger.WarnwCtx(ctx, "Configuration warning", "warning", warning)
	}

	tp, err := tracing.Init(a.config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.Register()

	service, err := a.initRelay(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize relay: %w", err)
	}

	a.initRouter(service)
	a.initServer()
	return nil
}

func (a *App) initRelay(ctx context.Context) (*relay.Service, error) {
	catalog := locale.NewCatalog(a.config.Notification.LocalesDir, a.config.Notification.Locale, a.logger)
	if err := catalog.Preload(a.config.Notification.Locale); err != nil {
		a.logger.WarnwCtx(ctx, "Locale catalog not loaded, notifications will carry raw keys",
			"locale", a.config.Notification.Locale,
			"dir", a.config.Notification.LocalesDir,
			"error", err,
		)
	}

	var sender telegram.Sender = telegram.NewClient(telegram.Config{
		APIURL:                a.config.Telegram.APIURL,
		Token:                 a.config.Telegram.BotToken,
		ParseMode:             telegram.ParseModeHTML,
		DisableWebPagePreview: true,
	})

	if cb := a.config.CircuitBreaker; cb.Enabled {
		cbConfig := circuitbreaker.DefaultConfig("telegram")
		cbConfig.MaxRequests = cb.MaxRequests
		cbConfig.Interval = cb.Interval
		cbConfig.Timeout = cb.Timeout
		cbConfig.ReadyToTrip = circuitbreaker.RatioTrip(cb.MinRequests, cb.FailureRatio)
		breakerSender := telegram.NewBreakerSender(sender, cbConfig)
		a.health.Register(health.NewBreakerChecker(breakerSender.Breaker()))
		sender = breakerSender
	}

	limiter, err := ratelimit.New(ratelimit.Config{
		PerSecond: a.config.RateLimit.PerSecond,
	})
	if err != nil {
		return nil, err
	}

	dispatcher := dispatch.New(dispatch.Config{
		Recipients:  a.config.Telegram.AdminIDs,
		SendTimeout: a.config.Telegram.SendTimeout(),
	}, sender, limiter, a.logger)

	decider := policy.New(policy.Config{
		BaseURL: a.config.Chatwoot.BaseURL,
		Locale:  a.config.Notification.Locale,
	}, catalog)

	a.health.Register(health.NewFuncChecker("locales", func(ctx context.Context) error {
		return catalog.Preload(a.config.Notification.Locale)
	}))

	return relay.NewService(decider, dispatcher, a.logger), nil
}

func (a *App) initRouter(service *relay.Service) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.tracerProvider.Enabled() {
		router.Use(tracing.GinMiddleware(constants.ServiceName, healthPath, readyPath, metricsPath))
	}

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.logger, healthPath, readyPath, metricsPath))

	relay.NewHandler(service, a.config.Chatwoot.Providers, a.logger).RegisterRoutes(router)

	router.GET(readyPath, func(c *gin.Context) {
		h := a.health.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET(metricsPath, gin.WrapH(promhttp.Handler()))

	a.router = router
}

func (a *App) initServer() {
	a.server = &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout(),
		WriteTimeout: a.config.Server.WriteTimeout(),
	}
}

// Run serves until ctx is cancelled or the listener fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "Server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
