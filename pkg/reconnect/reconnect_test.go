package reconnect

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/svclife/pkg/lifecycle"
)

func fastConfig(maxAttempts int) Config {
	return Config{
		Base:        time.Millisecond,
		Max:         5 * time.Millisecond,
		MaxAttempts: maxAttempts,
	}
}

func TestRun_SucceedsAfterFailures(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	svc, err := lifecycle.New(lifecycle.WithConnect(func(context.Context, func()) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return errors.New("dial refused")
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r := New(svc, fastConfig(0), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !svc.IsReady() {
		t.Error("service not Ready after Run")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Errorf("connect hook ran %d times, want 3", calls)
	}
}

func TestRun_AttemptsExhausted(t *testing.T) {
	svc, err := lifecycle.New(lifecycle.WithConnect(func(context.Context, func()) error {
		return errors.New("dial refused")
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r := New(svc, fastConfig(3), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Run(ctx); !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Run error = %v, want ErrAttemptsExhausted", err)
	}
	if got := svc.State(); got != lifecycle.StateOffline {
		t.Errorf("state = %v, want Offline", got)
	}
}

func TestRun_AlreadyReady(t *testing.T) {
	svc, err := lifecycle.New(lifecycle.WithConnect(func(context.Context, func()) error { return nil }))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := svc.Connect(ctx).Wait(ctx); err != nil {
		t.Fatalf("Connect did not settle: %v", err)
	}

	r := New(svc, fastConfig(1), nil)
	if err := r.Run(ctx); err != nil {
		t.Errorf("Run on a ready service failed: %v", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	svc, err := lifecycle.New(lifecycle.WithConnect(func(context.Context, func()) error {
		return errors.New("dial refused")
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r := New(svc, Config{Base: time.Hour, Max: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestWatch_ReconnectsAfterDisconnect(t *testing.T) {
	var mu sync.Mutex
	connects := 0
	svc, err := lifecycle.New(lifecycle.WithConnect(func(context.Context, func()) error {
		mu.Lock()
		defer mu.Unlock()
		connects++
		return nil
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ready := make(chan struct{}, 2)
	svc.OnConnected(func() { ready <- struct{}{} })

	r := New(svc, fastConfig(0), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("service never came up")
	}

	svc.Disconnect()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("service never reconnected after Disconnect")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch error = %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if connects < 2 {
		t.Errorf("connect hook ran %d times, want at least 2", connects)
	}
}
