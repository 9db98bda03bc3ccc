package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"betpool/api"
	"betpool/auth"
	"betpool/config"
	"betpool/database"
	"betpool/events"
	"betpool/notify"
	"betpool/observability"
	"betpool/repository"
	"betpool/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)

	log.WithFields(log.Fields{
		"environment":   cfg.Environment,
		"reversal_mode": cfg.ReversalMode,
	}).Info("Starting betpool...")

	databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)

	// Initialize database connection
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	if err := database.RunMigrationsWithURL(databaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	metrics := observability.NewMetrics()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	ledgerService := service.NewLedgerService(uowFactory, metrics)
	services := api.Services{
		Settlement:    service.NewSettlementService(uowFactory, cfg, metrics),
		Lifecycle:     service.NewLifecycleService(uowFactory, cfg),
		Participation: service.NewParticipationService(uowFactory, cfg, metrics),
		Ledger:        ledgerService,
		Notifications: service.NewNotificationService(uowFactory),
	}
	log.Info("Services initialized")

	// Notification sinks
	sinks := []notify.Sink{notify.NewStoreSink(repository.NewNotificationRepository(db))}

	if cfg.DiscordEnabled() {
		session, err := notify.OpenDiscordSession(cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("failed to open Discord session: %w", err)
		}
		defer session.Close()
		sinks = append(sinks, notify.NewDiscordSink(session, cfg.DiscordChannelID))
		log.WithField("channel_id", cfg.DiscordChannelID).Info("Discord notifications enabled")
	}

	if cfg.NATSEnabled() {
		natsClient := notify.NewNATSClient(cfg.NATSURL)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer natsClient.Close()
		if err := natsClient.EnsureNotificationStream(); err != nil {
			return err
		}
		sinks = append(sinks, notify.NewNATSSink(natsClient))
		log.WithField("url", cfg.NATSURL).Info("NATS notifications enabled")
	}

	dispatcher := notify.NewDispatcher(repository.NewUserRepository(db), metrics, sinks...)
	dispatcher.Register(eventBus)

	verifier := auth.NewVerifier(cfg.JWTSecret, ledgerService)
	router := api.NewRouter(api.NewHandler(services), verifier, metrics, db.Health)

	apiServer := api.NewServer(cfg.HTTPPort, router)
	metricsServer := observability.NewMetricsServer(cfg.MetricsPort, metrics, db.Health)

	serveErr := make(chan error, 2)
	for _, srv := range []*http.Server{apiServer, metricsServer} {
		go func(srv *http.Server) {
			log.WithField("addr", srv.Addr).Info("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case runErr = <-serveErr:
		log.WithError(runErr).Error("HTTP server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, srv := range []*http.Server{apiServer, metricsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).WithField("addr", srv.Addr).Warn("Server shutdown failed")
		}
	}

	// Let in-flight notification handlers finish before the pool closes
	if err := eventBus.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("Shutdown timeout exceeded while draining events")
	}

	log.Info("Shutdown completed")
	return runErr
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
