package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mgtravels/busbooking/config"
	"github.com/mgtravels/busbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client   *redis.Client
	tripsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, tripsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		tripsTTL: tripsTTL,
	}
}

// GetTripsForDay returns the cached running-trip list for a day slot, or nil
// on a miss.
func (c *RedisCache) GetTripsForDay(ctx context.Context, dayNo int) ([]domain.Trip, error) {
	data, err := c.client.Get(ctx, tripsKey(dayNo)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var trips []domain.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

func (c *RedisCache) SetTripsForDay(ctx context.Context, dayNo int, trips []domain.Trip) error {
	payload, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tripsKey(dayNo), payload, c.tripsTTL).Err()
}

// AcquireSegmentHold takes a short advisory hold on an exact
// (trip, date, seat, segment) tuple. It fast-fails duplicate submissions of
// the same request; bookings on disjoint segments use different keys and
// are never blocked. Correctness does not depend on this hold: the database
// transaction is the serialization point.
func (c *RedisCache) AcquireSegmentHold(ctx context.Context, tripID int64, travelDate time.Time, seatNo string, seg domain.Segment, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, holdKey(tripID, travelDate, seatNo, seg), "held", ttl).Result()
}

func (c *RedisCache) ReleaseSegmentHold(ctx context.Context, tripID int64, travelDate time.Time, seatNo string, seg domain.Segment) error {
	return c.client.Del(ctx, holdKey(tripID, travelDate, seatNo, seg)).Err()
}

func tripsKey(dayNo int) string {
	return fmt.Sprintf("cache:trips:day:%d", dayNo)
}

func holdKey(tripID int64, travelDate time.Time, seatNo string, seg domain.Segment) string {
	return fmt.Sprintf("hold:trip:%d:%s:seat:%s:%d-%d", tripID, travelDate.Format("2006-01-02"), seatNo, seg.From, seg.To)
}
