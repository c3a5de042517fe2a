package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sweedalp/smart-bookmark-app/internal/logger"
	redisstore "github.com/sweedalp/smart-bookmark-app/internal/store/redis"
)

func TestHealthProbe_Probe(t *testing.T) {
	log := logger.New("error", false)

	var dbDown atomic.Bool
	probe := NewHealthProbe(map[string]Check{
		"postgres": func(ctx context.Context) error {
			if dbDown.Load() {
				return errors.New("connection refused")
			}
			return nil
		},
		"redis": func(ctx context.Context) error { return nil },
	}, log, time.Hour, time.Second)

	if probe.Ready() {
		t.Fatal("Ready() before first probe should be false")
	}

	probe.Probe(context.Background())
	if !probe.Ready() {
		t.Fatal("Ready() with all components up should be true")
	}

	dbDown.Store(true)
	probe.Probe(context.Background())
	if probe.Ready() {
		t.Fatal("Ready() with postgres down should be false")
	}

	snap := probe.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() returned %d components, want 2", len(snap))
	}
	if snap[0].Name != "postgres" || snap[0].Up || snap[0].Error != "connection refused" {
		t.Errorf("postgres status = %+v", snap[0])
	}
	if snap[1].Name != "redis" || !snap[1].Up {
		t.Errorf("redis status = %+v", snap[1])
	}

	dbDown.Store(false)
	probe.Probe(context.Background())
	if !probe.Ready() {
		t.Error("Ready() after recovery should be true")
	}
}

func TestHealthProbe_TimeoutMarksDown(t *testing.T) {
	probe := NewHealthProbe(map[string]Check{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, logger.New("error", false), time.Hour, 10*time.Millisecond)

	probe.Probe(context.Background())
	snap := probe.Snapshot()
	if len(snap) != 1 || snap[0].Up {
		t.Fatalf("slow component should be down, got %+v", snap)
	}
}

func TestHealthProbe_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisstore.NewStore(client)

	probe := NewHealthProbe(map[string]Check{"redis": store.Ping}, logger.New("error", false), time.Hour, time.Second)

	probe.Probe(context.Background())
	if !probe.Ready() {
		t.Fatalf("redis should be up: %+v", probe.Snapshot())
	}

	mr.Close()
	probe.Probe(context.Background())
	if probe.Ready() {
		t.Fatal("redis should be down after server close")
	}
}

func TestHealthProbe_StartStop(t *testing.T) {
	var calls atomic.Int32
	probe := NewHealthProbe(map[string]Check{
		"x": func(context.Context) error { calls.Add(1); return nil },
	}, logger.New("error", false), 5*time.Millisecond, time.Second)

	if err := probe.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	probe.Stop()
	probe.Stop()

	if calls.Load() < 3 {
		t.Fatalf("expected periodic probes, got %d", calls.Load())
	}
}
