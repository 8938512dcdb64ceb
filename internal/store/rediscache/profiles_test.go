package rediscache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"calbook/internal/domain"
	"calbook/internal/store"
)

type fakeKV struct {
	data   map[string]string
	getErr error
	setErr error
	delErr error
	sets   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.sets++
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.delErr != nil {
		return redis.NewIntResult(0, f.delErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type fakeProfiles struct {
	profileFn func(ctx context.Context, userName string) (domain.AvailabilityProfile, error)
	calls     int
}

func (f *fakeProfiles) Profile(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
	f.calls++
	if f.profileFn == nil {
		panic("unexpected call to Profile")
	}
	return f.profileFn(ctx, userName)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProfileCache_ReadThrough(t *testing.T) {
	want := domain.AvailabilityProfile{
		Weekdays: [5]bool{true, true, false, true, true},
		DayStart: 8 * time.Hour,
		DayEnd:   16*time.Hour + 30*time.Minute,
		Buffer:   10 * time.Minute,
	}
	next := &fakeProfiles{profileFn: func(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
		return want, nil
	}}
	kv := newFakeKV()
	c := NewProfileCache(kv, next, time.Minute, discardLogger())

	for i := 0; i < 3; i++ {
		got, err := c.Profile(context.Background(), "alice")
		if err != nil {
			t.Fatalf("Profile error: %v", err)
		}
		if got != want {
			t.Fatalf("profile = %+v, want %+v", got, want)
		}
	}
	if next.calls != 1 {
		t.Fatalf("backing store calls = %d, want 1", next.calls)
	}
	if _, ok := kv.data[keyPrefix+"alice"]; !ok {
		t.Fatalf("entry not written")
	}
}

func TestProfileCache_NotFoundIsNotCached(t *testing.T) {
	next := &fakeProfiles{profileFn: func(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
		return domain.AvailabilityProfile{}, store.ErrNotFound
	}}
	kv := newFakeKV()
	c := NewProfileCache(kv, next, time.Minute, discardLogger())

	if _, err := c.Profile(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if kv.sets != 0 {
		t.Fatalf("sets = %d, want 0", kv.sets)
	}
}

func TestProfileCache_RedisFailureFallsThrough(t *testing.T) {
	next := &fakeProfiles{profileFn: func(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
		return domain.DefaultProfile(), nil
	}}
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	c := NewProfileCache(kv, next, time.Minute, discardLogger())

	got, err := c.Profile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if got != domain.DefaultProfile() {
		t.Fatalf("profile = %+v", got)
	}
}

func TestProfileCache_CorruptEntryIgnored(t *testing.T) {
	next := &fakeProfiles{profileFn: func(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
		return domain.DefaultProfile(), nil
	}}
	kv := newFakeKV()
	kv.data[keyPrefix+"alice"] = "{not json"
	c := NewProfileCache(kv, next, time.Minute, discardLogger())

	if _, err := c.Profile(context.Background(), "alice"); err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("backing store calls = %d, want 1", next.calls)
	}
}

func TestProfileCache_InvalidateForcesReload(t *testing.T) {
	current := domain.DefaultProfile()
	next := &fakeProfiles{profileFn: func(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
		return current, nil
	}}
	kv := newFakeKV()
	c := NewProfileCache(kv, next, time.Hour, discardLogger())

	if _, err := c.Profile(context.Background(), "alice"); err != nil {
		t.Fatalf("Profile error: %v", err)
	}

	current.DayStart = 7 * time.Hour
	if err := c.Invalidate(context.Background(), "alice"); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	if _, ok := kv.data[keyPrefix+"alice"]; ok {
		t.Fatalf("entry still cached after Invalidate")
	}

	got, err := c.Profile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if got.DayStart != 7*time.Hour {
		t.Fatalf("day start = %s, want the updated 07:00", got.DayStart)
	}
	if next.calls != 2 {
		t.Fatalf("backing store calls = %d, want 2", next.calls)
	}
}

func TestProfileCache_InvalidateError(t *testing.T) {
	kv := newFakeKV()
	kv.delErr = errors.New("connection refused")
	c := NewProfileCache(kv, &fakeProfiles{}, time.Hour, discardLogger())

	if err := c.Invalidate(context.Background(), "alice"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRedisIntegration_ProfileCache(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("CALBOOK_TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("CALBOOK_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := NewClient(ctx, Options{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	user := "it-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = client.Del(context.Background(), keyPrefix+user).Err() })

	next := &fakeProfiles{profileFn: func(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
		return domain.DefaultProfile(), nil
	}}
	c := NewProfileCache(client, next, time.Minute, discardLogger())

	for i := 0; i < 2; i++ {
		if _, err := c.Profile(ctx, user); err != nil {
			t.Fatalf("Profile error: %v", err)
		}
	}
	if next.calls != 1 {
		t.Fatalf("backing store calls = %d, want 1", next.calls)
	}

	if err := c.Invalidate(ctx, user); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	if _, err := c.Profile(ctx, user); err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("backing store calls after invalidate = %d, want 2", next.calls)
	}
}
