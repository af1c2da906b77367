package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	PostgresDSN     string
	MongoURI        string
	RedisAddr       string
	RabbitURL       string
	JWTSecret       string
	TokenExpiry     time.Duration
	BookingTTL      time.Duration
	StripeSecretKey string
	CloudinaryURL   string
	OTLPEndpoint    string
	SessionTTL      time.Duration
	IdempotencyTTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	bookingTTL, _ := time.ParseDuration(os.Getenv("BOOKING_TTL"))
	if bookingTTL == 0 {
		bookingTTL = 15 * time.Minute
	}
	tokenExpiry, _ := time.ParseDuration(os.Getenv("TOKEN_EXPIRY"))
	if tokenExpiry == 0 {
		tokenExpiry = 7 * 24 * time.Hour
	}
	sessionTTL, _ := time.ParseDuration(os.Getenv("SESSION_TTL"))
	if sessionTTL == 0 {
		sessionTTL = 24 * time.Hour
	}
	idempTTL, _ := time.ParseDuration(os.Getenv("IDEMPOTENCY_TTL"))
	if idempTTL == 0 {
		idempTTL = time.Hour
	}

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return &Config{
		Addr:            addr,
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		MongoURI:        os.Getenv("MONGO_URI"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RabbitURL:       os.Getenv("RABBIT_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenExpiry:     tokenExpiry,
		BookingTTL:      bookingTTL,
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		CloudinaryURL:   os.Getenv("CLOUDINARY_URL"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SessionTTL:      sessionTTL,
		IdempotencyTTL:  idempTTL,
	}, nil
}
