package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mindfuel/dispatch/api"
	"github.com/mindfuel/dispatch/config"
	"github.com/mindfuel/dispatch/datastore"
	"github.com/mindfuel/dispatch/delivery"
	"github.com/mindfuel/dispatch/dispatch"
	"github.com/mindfuel/dispatch/logging"
	"github.com/mindfuel/dispatch/metrics"
	"github.com/mindfuel/dispatch/quotes"
	rh "github.com/mindfuel/dispatch/route-handlers"
	"github.com/mindfuel/dispatch/scheduler"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, os.Getenv("LOG_CONSOLE") == "YES")
	metrics.Register()

	db, err := datastore.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}
	defer db.Close()
	log.Info().Msg("database connection successful")

	migrationsPath := filepath.Join(".", "datastore", "migrations")
	if err := datastore.ApplyMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	log.Info().Msg("database schema up to date")

	subscriberRepo := datastore.NewSubscriberRepository(db, log)
	deliveryLogRepo := datastore.NewDeliveryLogRepository(db)

	transport, err := buildTransport(cfg.Mail)
	if err != nil {
		log.Fatal().Err(err).Msg("mail transport setup failed")
	}
	deliverer := delivery.NewDeliverer(transport, delivery.Policy{
		MaxAttempts: cfg.Dispatch.MaxAttempts,
		BaseDelay:   cfg.Dispatch.BaseDelay(),
	}, log)

	quoteClient := quotes.NewClient(cfg.Quotes.URL, http.DefaultClient, log)
	reporter := dispatch.NewReporter(deliveryLogRepo, deliverer, cfg.Mail.OperatorEmail, log)
	dispatcher := dispatch.NewDispatcher(dispatch.Config{
		FetchLimit:   cfg.Quotes.FetchLimit,
		FetchTimeout: cfg.Quotes.Timeout(),
		Workers:      cfg.Dispatch.Workers,
		RatePerSec:   cfg.Dispatch.RatePerSec,
	}, quoteClient, subscriberRepo, deliveryLogRepo, deliverer, reporter, log)

	runScheduler := scheduler.New(dispatcher, log)

	subscriberHandler := rh.NewSubscriberHandler(subscriberRepo)
	logHandler := rh.NewDeliveryLogHandler(deliveryLogRepo, reporter)
	apiRouter := api.SetupRoutes(log, subscriberHandler, logHandler)

	mainRouter := chi.NewRouter()
	mainRouter.Mount("/", apiRouter)
	mainRouter.Post("/api/dispatch/run", runScheduler.HandleTick)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	if err := runScheduler.StartCron(rootCtx, cfg.Scheduler.Cron); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.Scheduler.Cron).Msg("invalid cron expression")
	}
	defer runScheduler.Stop()

	startServer(cfg.Port, mainRouter, log)
}

// buildTransport selects the outbound mail transport from config.
func buildTransport(cfg config.MailConfig) (delivery.Transport, error) {
	switch cfg.Provider {
	case "smtp":
		return delivery.NewSMTPTransport(delivery.SMTPConfig{
			Host:          cfg.SMTP.Host,
			Port:          cfg.SMTP.Port,
			Username:      cfg.SMTP.Username,
			Password:      cfg.SMTP.Password,
			From:          cfg.FromEmail,
			SkipTLSVerify: cfg.SMTP.SkipTLSVerify,
		}), nil
	case "sendgrid":
		return delivery.NewSendGridTransport(delivery.SendGridConfig{
			APIKey:    cfg.SendGrid.APIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Provider)
	}
}

func startServer(port string, router http.Handler, log zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdownSignal
	log.Info().Msg("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("server gracefully stopped")
}
