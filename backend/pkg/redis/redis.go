package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
)

// Client wraps go-redis for the two jobs Redis does here:
// the delayed task queue and request rate limiting.
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects and pings
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── delayed queue ──

// popDueScript removes and returns up to ARGV[2] members scored at or below ARGV[1].
// Running it as one script keeps two workers from claiming the same member.
var popDueScript = goredis.NewScript(`
local items = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
if #items > 0 then
	redis.call('ZREM', KEYS[1], unpack(items))
end
return items
`)

// EnqueueAt adds member to the sorted set key, due at at
func (c *Client) EnqueueAt(ctx context.Context, key, member string, at time.Time) error {
	return c.rdb.ZAdd(ctx, key, goredis.Z{Score: float64(at.UnixMilli()), Member: member}).Err()
}

// PopDue claims members due by now
func (c *Client) PopDue(ctx context.Context, key string, now time.Time, limit int64) ([]string, error) {
	items, err := popDueScript.Run(ctx, c.rdb, []string{key}, now.UnixMilli(), limit).StringSlice()
	if err != nil && err != goredis.Nil {
		return nil, err
	}
	return items, nil
}

// Pending counts queued members
func (c *Client) Pending(ctx context.Context, key string) (int64, error) {
	return c.rdb.ZCard(ctx, key).Result()
}

// ── rate limiting ──

// CheckRateLimit counts a hit in a fixed window and reports whether it is within limit
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			c.logger.Warn("rate limit key without ttl", zap.String("key", key), zap.Error(err))
		}
	}
	return n <= int64(limit), nil
}

// Close releases the connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}
