package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/svclife/pkg/log"
)

// Service drives a service through its lifecycle phases (initialize,
// connect, authenticate) using the hooks it was constructed with. Use New()
// to create an instance; the zero value is not usable.
//
// Phase methods are safe for concurrent use: callers that invoke a phase
// while an attempt for it is pending join the pending attempt instead of
// starting a new one, and the hook runs exactly once per attempt.
type Service struct {
	typ     Type
	tracker *Tracker
	logger  log.Logger

	init    InitFunc
	connect ConnectFunc
	auth    AuthFunc

	mu          sync.Mutex
	initAttempt *Attempt
	connAttempt *Attempt
	authAttempt *Attempt

	onInitialized   []func()
	onConnected     []func()
	onAuthenticated []func()
}

// New creates a Service in StateCreated. The service type is derived from
// the supplied hooks: an auth hook makes it Private, otherwise a connect
// hook makes it Public, otherwise it is Local. Hook options carrying a nil
// function fail with an error naming the hook.
func New(opts ...Option) (*Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.initSet && o.init == nil {
		return nil, fmt.Errorf("init hook: %w", ErrNilHook)
	}
	if o.connectSet && o.connect == nil {
		return nil, fmt.Errorf("connect hook: %w", ErrNilHook)
	}
	if o.authSet && o.auth == nil {
		return nil, fmt.Errorf("auth hook: %w", ErrNilHook)
	}

	typ := TypeLocal
	switch {
	case o.auth != nil:
		typ = TypePrivate
	case o.connect != nil:
		typ = TypePublic
	}

	s := &Service{
		typ:     typ,
		tracker: NewTracker(),
		logger:  o.logger,
		init:    o.init,
		connect: o.connect,
		auth:    o.auth,
	}
	if s.init == nil {
		s.init = func(context.Context) error { return nil }
	}
	if s.connect == nil {
		s.connect = func(context.Context, func()) error { return nil }
	}
	if s.auth == nil {
		s.auth = func(context.Context, func()) error { return nil }
	}

	s.tracker.OnChange(func(prev, cur State) {
		s.logger.Debug("state transition",
			log.String("from", prev.String()),
			log.String("to", cur.String()),
		)
	})
	for _, fn := range o.listeners {
		s.tracker.OnChange(fn)
	}

	return s, nil
}

// Type returns the service type derived at construction.
func (s *Service) Type() Type {
	return s.typ
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return s.tracker.State()
}

// Tracker returns the service's state tracker, for querying the state and
// subscribing to changes. Transitions are requested only through the
// service's phase methods and capabilities.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// Initialize runs the initialization phase. If an initialization attempt is
// already pending the same *Attempt is returned and the hook is not invoked
// again. The attempt always settles: on hook failure the service reverts to
// Created and the attempt resolves with that state.
func (s *Service) Initialize(ctx context.Context) *Attempt {
	s.mu.Lock()
	if a := s.initAttempt; a != nil {
		s.mu.Unlock()
		return a
	}
	a := newAttempt()
	s.initAttempt = a
	s.mu.Unlock()

	go s.runInitialize(ctx, a)
	return a
}

func (s *Service) runInitialize(ctx context.Context, a *Attempt) {
	defer s.settle(&s.initAttempt, a)

	if !s.tracker.CompareAndTransition(StateInitializing, StateCreated) {
		return // already past Created; nothing to do
	}

	if err := runHook("init", func() error { return s.init(ctx) }); err != nil {
		s.logger.Warn("initialization failed", log.Err(err))
		s.tracker.Transition(StateCreated)
		return
	}

	if s.typ == TypeLocal {
		s.tracker.Transition(StateReady)
	} else {
		s.tracker.Transition(StateOffline)
	}
	s.fire(&s.onInitialized)
}

// Connect runs the connection phase, initializing first if needed. For
// Local services it only ensures initialization has completed; the connect
// hook never runs. Memoized like Initialize, and the attempt always
// settles: on hook failure the service reverts to Offline.
func (s *Service) Connect(ctx context.Context) *Attempt {
	s.mu.Lock()
	if a := s.connAttempt; a != nil {
		s.mu.Unlock()
		return a
	}
	a := newAttempt()
	s.connAttempt = a
	s.mu.Unlock()

	go s.runConnect(ctx, a)
	return a
}

func (s *Service) runConnect(ctx context.Context, a *Attempt) {
	defer s.settle(&s.connAttempt, a)

	if s.tracker.InState(StateCreated, StateInitializing) {
		if _, err := s.Initialize(ctx).Wait(ctx); err != nil {
			return
		}
	}
	if s.typ == TypeLocal {
		return
	}

	gen, ok := s.tracker.beginPhase(StateConnecting, StateOffline)
	if !ok {
		return // not Offline: either already connected or initialization failed
	}

	err := runHook("connect", func() error { return s.connect(ctx, s.Disconnect) })
	if err != nil {
		s.logger.Warn("connect failed", log.Err(err))
		s.tracker.CompareAndTransition(StateOffline, StateConnecting)
		return
	}

	target := StateOnline
	if s.typ == TypePublic {
		target = StateReady
	}
	if !s.tracker.completePhase(target, gen) {
		return // disconnected from inside the hook; trust the observed state
	}
	s.fire(&s.onConnected)
}

// Authenticate runs the authentication phase, connecting (and initializing)
// first if needed. For Local and Public services it only ensures the
// earlier phases have completed; the auth hook never runs. Memoized like
// the other phases, and the attempt always settles: on hook failure the
// service reverts to Online.
func (s *Service) Authenticate(ctx context.Context) *Attempt {
	s.mu.Lock()
	if a := s.authAttempt; a != nil {
		s.mu.Unlock()
		return a
	}
	a := newAttempt()
	s.authAttempt = a
	s.mu.Unlock()

	go s.runAuthenticate(ctx, a)
	return a
}

func (s *Service) runAuthenticate(ctx context.Context, a *Attempt) {
	defer s.settle(&s.authAttempt, a)

	if s.tracker.InState(StateCreated, StateInitializing, StateOffline, StateConnecting) {
		if _, err := s.Connect(ctx).Wait(ctx); err != nil {
			return
		}
	}
	if s.typ != TypePrivate {
		return
	}

	gen, ok := s.tracker.beginPhase(StateAuthenticating, StateOnline)
	if !ok {
		return // not Online: either already Ready or the connection fell through
	}

	err := runHook("auth", func() error { return s.auth(ctx, s.deauthenticate) })
	if err != nil {
		s.logger.Warn("authentication failed", log.Err(err))
		s.tracker.CompareAndTransition(StateOnline, StateAuthenticating)
		return
	}

	if !s.tracker.completePhase(StateReady, gen) {
		return // disconnected from inside the hook; trust the observed state
	}
	s.fire(&s.onAuthenticated)
}

// Disconnect severs the connection: from Connecting, Online, Authenticating
// or Ready the service drops straight to Offline, discarding any
// authentication. In any other state it is a no-op. This is the same
// capability handed to the connect hook; it may be stored and invoked at
// any later time.
func (s *Service) Disconnect() {
	s.tracker.CompareAndTransition(StateOffline,
		StateConnecting, StateOnline, StateAuthenticating, StateReady)
}

// deauthenticate drops authentication: Ready back to Online. No-op in any
// other state. Handed to the auth hook only.
func (s *Service) deauthenticate() {
	s.tracker.CompareAndTransition(StateOnline, StateReady)
}

// OnInitialized registers a handler invoked after every successful
// initialization. Returns the service for chaining.
func (s *Service) OnInitialized(fn func()) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInitialized = append(s.onInitialized, fn)
	return s
}

// OnConnected registers a handler invoked after every successful
// connection, including reconnects. Returns the service for chaining.
func (s *Service) OnConnected(fn func()) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnected = append(s.onConnected, fn)
	return s
}

// OnAuthenticated registers a handler invoked after every successful
// authentication. Returns the service for chaining.
func (s *Service) OnAuthenticated(fn func()) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAuthenticated = append(s.onAuthenticated, fn)
	return s
}

// IsInitialized reports whether initialization has completed.
func (s *Service) IsInitialized() bool {
	return !s.tracker.InState(StateCreated, StateInitializing)
}

// IsConnected reports whether the service holds an established connection.
// The second result is false for Local services, which have no connection
// phase for the question to apply to.
func (s *Service) IsConnected() (bool, bool) {
	if s.typ == TypeLocal {
		return false, false
	}
	return s.tracker.InState(StateOnline, StateAuthenticating, StateReady), true
}

// IsAuthenticated reports whether the service is authenticated. The second
// result is false for Local and Public services.
func (s *Service) IsAuthenticated() (bool, bool) {
	if s.typ != TypePrivate {
		return false, false
	}
	return s.tracker.State() == StateReady, true
}

// IsReady reports whether the service has reached Ready.
func (s *Service) IsReady() bool {
	return s.tracker.State() == StateReady
}

// settle clears the memo slot and resolves the attempt with the state as
// currently observed. The slot is cleared first so a caller woken by the
// attempt can immediately start a new one.
func (s *Service) settle(slot **Attempt, a *Attempt) {
	s.mu.Lock()
	*slot = nil
	s.mu.Unlock()
	a.settle(s.tracker.State())
}

// fire invokes the handlers registered in slot, in registration order.
func (s *Service) fire(slot *[]func()) {
	s.mu.Lock()
	handlers := append([]func(){}, *slot...)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// runHook invokes fn, normalizing a panic into the same failure signal as a
// returned error.
func runHook(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s hook panicked: %v", name, r)
		}
	}()
	return fn()
}
