package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	mongoadapter "github.com/usetix/tix/internal/adapters/mongo"
	"github.com/usetix/tix/internal/adapters/postgres"
	"github.com/usetix/tix/internal/config"
	"github.com/usetix/tix/internal/observability"
	"github.com/usetix/tix/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := postgres.NewRepository(pool)
	bookingRepo := postgres.NewBookingRepository(repo)
	ticketRepo := postgres.NewTicketTypeRepository(repo)
	eventRepo := postgres.NewEventRepository(repo)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	auditor := mongoadapter.NewAuditLogger(mongoClient.Database("tix"), logger)

	bookings := service.NewBookingService(bookingRepo, ticketRepo, eventRepo, auditor, nil, cfg.BookingTTL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run(ctx, bookings, logger, time.Minute)
	logger.Info("expiry worker exiting")
}

// run releases lapsed pending bookings on each tick, handing their
// inventory back.
func run(ctx context.Context, bookings *service.BookingService, logger observability.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			released, err := bookings.ExpireOverdue(ctx, now.UTC())
			if err != nil {
				logger.Error("expiry sweep failed", err)
				continue
			}
			if released > 0 {
				logger.WithField("released", released).Info("expired pending bookings released")
			}
		}
	}
}
