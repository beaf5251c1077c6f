// Package reconnect drives a lifecycle.Service back to Ready after
// failures or disconnects. The state machine itself never retries a failed
// phase; this package is the retrying caller, with jittered exponential
// backoff between attempts.
package reconnect

import (
	"context"
	"errors"
	"time"

	"github.com/bft-labs/svclife/pkg/lifecycle"
	"github.com/bft-labs/svclife/pkg/log"
)

// ErrAttemptsExhausted is returned by Run when MaxAttempts consecutive
// attempts failed to bring the service to Ready.
var ErrAttemptsExhausted = errors.New("reconnect attempts exhausted")

// Config holds configuration options for a Reconnector.
type Config struct {
	// Base is the first retry delay.
	// Default: 500 milliseconds
	Base time.Duration

	// Max caps the retry delay.
	// Default: 30 seconds
	Max time.Duration

	// MaxAttempts bounds consecutive failed attempts per Run.
	// 0 means unbounded.
	MaxAttempts int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Base: 500 * time.Millisecond,
		Max:  30 * time.Second,
	}
}

// Reconnector repeatedly drives a service's phases until it is Ready.
type Reconnector struct {
	svc    *lifecycle.Service
	cfg    Config
	logger log.Logger
}

// New creates a Reconnector for the given service. A nil logger disables
// logging.
func New(svc *lifecycle.Service, cfg Config, logger log.Logger) *Reconnector {
	if cfg.Base <= 0 {
		cfg.Base = 500 * time.Millisecond
	}
	if cfg.Max <= 0 {
		cfg.Max = 30 * time.Second
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Reconnector{svc: svc, cfg: cfg, logger: logger}
}

// Run drives the service to Ready, backing off between failed attempts.
// Authenticate composes the full phase chain, so a single call per attempt
// covers initialization and connection for every service type. Returns nil
// once the service is Ready, ErrAttemptsExhausted after MaxAttempts
// failures, or ctx.Err() on cancellation.
func (r *Reconnector) Run(ctx context.Context) error {
	b := NewBackoff(r.cfg.Base, r.cfg.Max)
	failures := 0
	for {
		if _, err := r.svc.Authenticate(ctx).Wait(ctx); err != nil {
			return err
		}
		if r.svc.IsReady() {
			return nil
		}

		failures++
		r.logger.Warn("service not ready, backing off",
			log.String("state", r.svc.State().String()),
			log.Int("failures", failures),
		)
		if r.cfg.MaxAttempts > 0 && failures >= r.cfg.MaxAttempts {
			return ErrAttemptsExhausted
		}
		if err := b.Sleep(ctx); err != nil {
			return err
		}
	}
}

// Watch runs until ctx is done, re-driving the service to Ready whenever it
// drops to Offline. The initial Run happens immediately. Returns ctx.Err()
// on cancellation or the first Run error other than cancellation.
func (r *Reconnector) Watch(ctx context.Context) error {
	offline := make(chan struct{}, 1)
	r.svc.Tracker().OnChange(func(prev, cur lifecycle.State) {
		if cur == lifecycle.StateOffline && prev != lifecycle.StateInitializing {
			select {
			case offline <- struct{}{}:
			default:
			}
		}
	})

	for {
		if err := r.Run(ctx); err != nil {
			return err
		}
		select {
		case <-offline:
			r.logger.Info("connection lost, reconnecting")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
