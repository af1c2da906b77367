package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Sessions back the cookie credential: an opaque session id maps to the
// user it authenticates.

func (c *Cache) SetSession(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	return c.client.Set(ctx, "sess:"+sessionID, userID.String(), ttl).Err()
}

func (c *Cache) GetSession(ctx context.Context, sessionID string) (uuid.UUID, error) {
	val, err := c.client.Get(ctx, "sess:"+sessionID).Result()
	if err == redis.Nil {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (c *Cache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, "sess:"+sessionID).Err()
}
