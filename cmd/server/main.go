// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/courtly/courtly/internal/booking"
	"github.com/courtly/courtly/internal/config"
	"github.com/courtly/courtly/internal/db"
	"github.com/courtly/courtly/internal/metrics"
	"github.com/courtly/courtly/internal/payments"
	"github.com/courtly/courtly/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	if cfg.Features.EnableMetrics {
		metrics.Register()
	}

	gateway := payments.NewClient(cfg.Payments.GatewayURL, cfg.Payments.APIKey)

	manager, err := booking.NewManager(database,
		booking.WithHoldTTL(cfg.HoldDuration()),
		booking.WithGateway(gateway),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build booking manager")
	}

	reconciler, err := payments.NewReconciler(manager)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build payment reconciler")
	}

	var verifier *payments.Verifier
	if cfg.Payments.WebhookSecret != "" {
		verifier, err = payments.NewVerifier(cfg.Payments.WebhookSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build webhook verifier")
		}
	} else {
		log.Warn().Msg("PAYMENT_WEBHOOK_SECRET not set, webhook endpoint disabled")
	}

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterHoldExpiryJob(manager, cfg.Booking.SweepCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register hold expiry job")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	server := newServer(cfg, manager, reconciler, verifier)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
