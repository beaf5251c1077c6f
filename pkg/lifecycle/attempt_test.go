package lifecycle

import (
	"context"
	"testing"
	"time"
)

func TestAttempt_StateBeforeAndAfterSettlement(t *testing.T) {
	release := make(chan struct{})
	svc := mustNew(t, WithInit(func(context.Context) error {
		<-release
		return nil
	}))

	a := svc.Initialize(context.Background())
	if _, settled := a.State(); settled {
		t.Error("State() reported settled while the hook is still running")
	}

	close(release)
	if got := wait(t, a); got != StateReady {
		t.Fatalf("settled state = %v, want Ready", got)
	}
	state, settled := a.State()
	if !settled || state != StateReady {
		t.Errorf("State() = (%v, %v), want (Ready, true)", state, settled)
	}
}

func TestAttempt_WaitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	svc := mustNew(t, WithInit(func(context.Context) error {
		<-block
		return nil
	}))

	a := svc.Initialize(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := a.Wait(ctx); err == nil {
		t.Error("Wait returned without error despite the expired context")
	}

	// Abandoning the wait does not abandon the attempt.
	if _, settled := a.State(); settled {
		t.Error("attempt settled just because a waiter gave up")
	}
}

func TestAttempt_DoneClosesOnSettlement(t *testing.T) {
	svc := mustNew(t)
	a := svc.Initialize(context.Background())

	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done() not closed after settlement")
	}
}
