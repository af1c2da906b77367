package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	cloudinaryadapter "github.com/usetix/tix/internal/adapters/cloudinary"
	mongoadapter "github.com/usetix/tix/internal/adapters/mongo"
	"github.com/usetix/tix/internal/adapters/postgres"
	redisadapter "github.com/usetix/tix/internal/adapters/redis"
	stripeadapter "github.com/usetix/tix/internal/adapters/stripe"
	"github.com/usetix/tix/internal/auth"
	"github.com/usetix/tix/internal/config"
	httphandler "github.com/usetix/tix/internal/http"
	"github.com/usetix/tix/internal/idempotency"
	"github.com/usetix/tix/internal/observability"
	"github.com/usetix/tix/internal/ratelimit"
	"github.com/usetix/tix/internal/service"
	"github.com/usetix/tix/internal/tickets"
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
	userRepo := postgres.NewUserRepository(repo)
	eventRepo := postgres.NewEventRepository(repo)
	ticketRepo := postgres.NewTicketTypeRepository(repo)
	bookingRepo := postgres.NewBookingRepository(repo)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	auditor := mongoadapter.NewAuditLogger(mongoClient.Database("tix"), logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, cfg.IdempotencyTTL)
	rl := ratelimit.NewRateLimiter(redisCache)

	images, err := cloudinaryadapter.NewImageStore(cfg.CloudinaryURL)
	if err != nil {
		log.Fatalf("failed to init image store: %v", err)
	}
	payments := stripeadapter.NewPaymentClient(cfg.StripeSecretKey)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry)
	identity := service.NewIdentityService(userRepo, issuer, redisCache, cfg.SessionTTL, logger)
	catalog := service.NewCatalogService(eventRepo, ticketRepo, images, logger)
	bookings := service.NewBookingService(bookingRepo, ticketRepo, eventRepo, auditor, tickets.NewRenderer(), cfg.BookingTTL, logger)
	paymentSvc := service.NewPaymentService(bookings, userRepo, payments, auditor, logger)
	dashboard := service.NewDashboardService(eventRepo, userRepo)

	handlers := httphandler.NewHandlers(cfg, identity, catalog, bookings, paymentSvc, dashboard, idemp, images, repo, redisCache, logger)
	router := httphandler.SetupRouter(handlers, identity, logger, rl)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", cfg.Addr).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", err)
		os.Exit(1)
	}
	logger.Info("server exiting")
}
