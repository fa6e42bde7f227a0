package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/adapters/database/pgsql"
	"github.com/SscSPs/cashdesk_backoffice/internal/adapters/notify"
	"github.com/SscSPs/cashdesk_backoffice/internal/adapters/settings"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/handlers"
	"github.com/SscSPs/cashdesk_backoffice/internal/middleware"
	"github.com/SscSPs/cashdesk_backoffice/internal/platform/config"
	"github.com/SscSPs/cashdesk_backoffice/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

//go:generate swag init -g main.go -d ./,../../internal/handlers,../../internal/dto,../../internal/core/domain -o ../docs

// @title Cash Desk Back Office API
// @version 1.0
// @description Ledger, exchange desk and approval workflows of a currency exchange back office.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Back office stopped with an error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if _, err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath, database.MigrateUp, logger); err != nil {
		return err
	}

	repos := pgsql.NewRepositories(dbPool)
	if err := repos.Exchange.EnsureTills(ctx, cfg.Currencies(), "system"); err != nil {
		return err
	}

	notifier, closeNotifier := newNotifier(cfg, logger)
	defer closeNotifier()
	dispatcher := services.NewDispatcher(notifier, services.WithNotifyTimeout(cfg.NotifyTimeout))

	serviceContainer := services.NewServiceContainer(
		cfg,
		repos.Provider(),
		settings.NewFileProvider(cfg.SettingsFile, cfg.LocalCurrency),
		dispatcher,
	)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), corsMiddleware(cfg))

	rateLimiter, err := middleware.NewMemoryLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}
	r.Use(middleware.RateLimit(rateLimiter))

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}
	if err := handlers.RegisterRoutes(r, cfg, serviceContainer); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serve(ctx, server, dispatcher, logger)
}

// serve runs server until ctx is done or the listener fails. In-flight notifications
// are drained on every exit path.
func serve(ctx context.Context, server *http.Server, dispatcher *services.Dispatcher, logger *slog.Logger) error {
	defer dispatcher.Wait()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// newNotifier publishes to RabbitMQ when AMQP_URL is set and logs events otherwise.
// An unreachable broker degrades to logging; workflows never depend on delivery.
func newNotifier(cfg *config.Config, logger *slog.Logger) (portssvc.Notifier, func()) {
	if cfg.AMQPURL == "" {
		return notify.NewLogNotifier(logger), func() {}
	}
	n, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, notifications will only be logged", slog.String("error", err.Error()))
		return notify.NewLogNotifier(logger), func() {}
	}
	return n, func() {
		if err := n.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ notifier", slog.String("error", err.Error()))
		}
	}
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.ExposeHeaders = []string{"X-Request-ID"}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	return cors.New(corsCfg)
}
