package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mgtravels/busbooking/config"
	"github.com/mgtravels/busbooking/internal/bootstrap"
	"github.com/mgtravels/busbooking/internal/cache"
	"github.com/mgtravels/busbooking/internal/kafka"
	"github.com/mgtravels/busbooking/internal/pnr"
	"github.com/mgtravels/busbooking/internal/repository"
	"github.com/mgtravels/busbooking/internal/service/booking"
	"github.com/mgtravels/busbooking/internal/service/trips"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zone, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatalf("load timezone %q: %v", cfg.Booking.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.TripsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	tripRepo := repository.NewTripRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool, time.Duration(cfg.Booking.LockTimeoutSeconds)*time.Second)

	tripService := trips.NewTripService(tripRepo, bookingRepo, redisCache, zone)
	bookingService := booking.NewBookingService(
		bookingRepo,
		tripRepo,
		redisCache,
		producer,
		pnr.New(cfg.Booking.PNRPrefix),
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.SegmentHoldSeconds)*time.Second,
		zone,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, tripService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
