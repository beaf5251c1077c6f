package lifecycle

import (
	"context"
	"errors"

	"github.com/bft-labs/svclife/pkg/log"
)

// ErrNilHook is returned by New when a hook option was supplied with a nil
// function. Omit the option entirely to get the no-op default.
var ErrNilHook = errors.New("nil hook")

// InitFunc prepares the service for use. Returning an error marks the
// initialization attempt as failed; the service reverts to Created.
type InitFunc func(ctx context.Context) error

// ConnectFunc establishes the service's connection. The disconnect
// capability severs the connection when invoked; it may be called from
// inside the hook or stored and called later.
type ConnectFunc func(ctx context.Context, disconnect func()) error

// AuthFunc authenticates an established connection. The deauthenticate
// capability drops authentication (Ready back to Online) when invoked.
type AuthFunc func(ctx context.Context, deauthenticate func()) error

// Option configures optional behavior of a Service.
type Option func(*options)

type options struct {
	init       InitFunc
	initSet    bool
	connect    ConnectFunc
	connectSet bool
	auth       AuthFunc
	authSet    bool
	logger     log.Logger
	listeners  []Listener
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithInit sets the initialization hook. Supplying a nil function is a
// construction error; a service without an init hook initializes by
// transitioning straight through.
func WithInit(fn InitFunc) Option {
	return func(o *options) {
		o.init = fn
		o.initSet = true
	}
}

// WithConnect sets the connect hook. Its presence (without an auth hook)
// makes the service TypePublic.
func WithConnect(fn ConnectFunc) Option {
	return func(o *options) {
		o.connect = fn
		o.connectSet = true
	}
}

// WithAuth sets the authentication hook. Its presence makes the service
// TypePrivate regardless of the other hooks.
func WithAuth(fn AuthFunc) Option {
	return func(o *options) {
		o.auth = fn
		o.authSet = true
	}
}

// WithLogger sets a logger for state transitions and phase failures.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStateListener registers a listener on the service's tracker at
// construction time, before any transition can occur.
func WithStateListener(fn Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, fn)
	}
}
