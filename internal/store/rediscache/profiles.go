package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"calbook/internal/domain"
	"calbook/internal/store"
)

const keyPrefix = "calbook:profile:"

// KV is the slice of the redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient dials redis and pings it once.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// ProfileCache is a read-through cache in front of a ProfileReader. Redis
// failures are logged and the read falls through to the backing store.
type ProfileCache struct {
	kv     KV
	next   store.ProfileReader
	ttl    time.Duration
	logger *slog.Logger
}

func NewProfileCache(kv KV, next store.ProfileReader, ttl time.Duration, logger *slog.Logger) *ProfileCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileCache{kv: kv, next: next, ttl: ttl, logger: logger.With(slog.String("component", "profile_cache"))}
}

var _ store.ProfileReader = (*ProfileCache)(nil)

type cachedProfile struct {
	Days          string `json:"days"`
	StartMinutes  int    `json:"start_minutes"`
	EndMinutes    int    `json:"end_minutes"`
	BufferMinutes int    `json:"buffer_minutes"`
}

func (c *ProfileCache) Profile(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
	key := keyPrefix + userName

	if p, ok := c.lookup(ctx, key); ok {
		return p, nil
	}

	p, err := c.next.Profile(ctx, userName)
	if err != nil {
		return domain.AvailabilityProfile{}, err
	}

	payload, err := json.Marshal(cachedProfile{
		Days:          domain.FormatWeekdayMask(p.Weekdays),
		StartMinutes:  int(p.DayStart / time.Minute),
		EndMinutes:    int(p.DayEnd / time.Minute),
		BufferMinutes: int(p.Buffer / time.Minute),
	})
	if err != nil {
		return p, nil
	}
	if err := c.kv.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "profile cache write failed", slog.String("user", userName), slog.Any("err", err))
	}
	return p, nil
}

// Invalidate drops the cached profile of userName so the next read goes to
// the backing store.
func (c *ProfileCache) Invalidate(ctx context.Context, userName string) error {
	if err := c.kv.Del(ctx, keyPrefix+userName).Err(); err != nil {
		return fmt.Errorf("invalidate profile %s: %w", userName, err)
	}
	return nil
}

func (c *ProfileCache) lookup(ctx context.Context, key string) (domain.AvailabilityProfile, bool) {
	raw, err := c.kv.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "profile cache read failed", slog.String("key", key), slog.Any("err", err))
		}
		return domain.AvailabilityProfile{}, false
	}

	var cp cachedProfile
	if err := json.Unmarshal(raw, &cp); err != nil {
		c.logger.WarnContext(ctx, "profile cache entry corrupt", slog.String("key", key), slog.Any("err", err))
		return domain.AvailabilityProfile{}, false
	}

	u := domain.User{
		AvailDays:         cp.Days,
		AvailStartMinutes: cp.StartMinutes,
		AvailEndMinutes:   cp.EndMinutes,
		BufferMinutes:     cp.BufferMinutes,
	}
	p, err := u.Profile()
	if err != nil {
		return domain.AvailabilityProfile{}, false
	}
	return p, true
}
