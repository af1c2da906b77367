package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/usetix/tix/internal/adapters/postgres"
	"github.com/usetix/tix/internal/adapters/rabbit"
	"github.com/usetix/tix/internal/config"
	"github.com/usetix/tix/internal/observability"
)

const (
	pollInterval = 2 * time.Second
	batchSize    = 100
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

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	pub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run(ctx, repo, pub, logger)
	logger.Info("outbox publisher exiting")
}

// run drains NEW outbox records to the broker in batches. A record that
// fails to publish stays NEW and is retried on the next poll; the
// dedupe key travels as the message id so consumers can drop replays.
func run(ctx context.Context, repo *postgres.Repository, pub *rabbit.Publisher, logger observability.Logger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := drain(ctx, repo, pub, logger); err != nil {
				logger.Error("outbox drain failed", err)
			}
			if age, err := repo.OldestUnpublishedAge(ctx, time.Now().UTC()); err == nil {
				observability.OutboxLag.Set(age.Seconds())
			}
		}
	}
}

func drain(ctx context.Context, repo *postgres.Repository, pub *rabbit.Publisher, logger observability.Logger) error {
	records, err := repo.GetUnpublishedOutbox(ctx, batchSize)
	if err != nil {
		return err
	}
	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Timestamp:   rec.CreatedAt,
			Body:        rec.Payload,
		}
		if err := pub.Publish(ctx, rec.EventType, msg); err != nil {
			logger.WithField("outbox_id", rec.ID.String()).Error("publish failed", err)
			continue
		}
		if err := repo.MarkPublished(ctx, rec.ID, time.Now().UTC()); err != nil {
			logger.WithField("outbox_id", rec.ID.String()).Error("mark published failed", err)
		}
	}
	return nil
}
