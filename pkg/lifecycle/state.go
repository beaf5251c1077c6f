package lifecycle

import "sync"

// Type classifies a service by which hooks it was built with.
// It is fixed at construction and never changes.
type Type int

const (
	// TypeLocal services have no connection phase; initialization alone
	// takes them to Ready.
	TypeLocal Type = iota
	// TypePublic services connect but do not authenticate.
	TypePublic
	// TypePrivate services connect and then authenticate.
	TypePrivate
)

// String returns a human-readable representation of the type.
func (t Type) String() string {
	switch t {
	case TypeLocal:
		return "Local"
	case TypePublic:
		return "Public"
	case TypePrivate:
		return "Private"
	default:
		return "Unknown"
	}
}

// State represents the lifecycle state of a service.
type State int

const (
	StateCreated State = iota
	StateInitializing
	StateOffline
	StateConnecting
	StateOnline
	StateAuthenticating
	StateReady
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateInitializing:
		return "Initializing"
	case StateOffline:
		return "Offline"
	case StateConnecting:
		return "Connecting"
	case StateOnline:
		return "Online"
	case StateAuthenticating:
		return "Authenticating"
	case StateReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Listener is notified after every state transition.
type Listener func(previous, current State)

// Tracker holds the current lifecycle state and fans out change
// notifications. It performs no validation of transition legality; that is
// the owning Service's responsibility.
//
// A zero Tracker is ready to use and in StateCreated. A Tracker must not be
// copied after first use.
type Tracker struct {
	mu        sync.Mutex
	state     State
	gen       uint64
	listeners []Listener
}

// NewTracker creates a Tracker in StateCreated.
func NewTracker() *Tracker {
	return &Tracker{state: StateCreated}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// InState reports whether the current state is one of the candidates.
func (t *Tracker) InState(candidates ...State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range candidates {
		if t.state == c {
			return true
		}
	}
	return false
}

// Generation returns a counter that increments on every transition.
// Capturing it before an operation and comparing after detects any
// intervening transition, even one that restored the original state.
func (t *Tracker) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// OnChange registers a listener. Listeners persist for the tracker's
// lifetime and are invoked synchronously, in registration order, before the
// transitioning call returns.
func (t *Tracker) OnChange(fn Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// transitionLocked records the state change and returns what notify needs.
// Callers must hold t.mu and release it before calling notify.
func (t *Tracker) transitionLocked(next State) (State, []Listener) {
	prev := t.state
	t.state = next
	t.gen++
	return prev, t.listeners
}

func notify(listeners []Listener, prev, next State) {
	for _, fn := range listeners {
		fn(prev, next)
	}
}

// Transition sets the state and notifies all listeners with
// (previous, current). Listeners run outside the tracker lock so they may
// query the tracker, but strictly before Transition returns.
func (t *Tracker) Transition(next State) {
	t.mu.Lock()
	prev, listeners := t.transitionLocked(next)
	t.mu.Unlock()
	notify(listeners, prev, next)
}

// CompareAndTransition transitions to next only if the current state is one
// of from. The check and the state change are atomic with respect to other
// transitions. Returns true if the transition happened.
func (t *Tracker) CompareAndTransition(next State, from ...State) bool {
	t.mu.Lock()
	matched := false
	for _, c := range from {
		if t.state == c {
			matched = true
			break
		}
	}
	if !matched {
		t.mu.Unlock()
		return false
	}
	prev, listeners := t.transitionLocked(next)
	t.mu.Unlock()
	notify(listeners, prev, next)
	return true
}

// beginPhase is CompareAndTransition plus the generation observed at the
// moment of the transition, so a later completePhase can tell whether any
// other transition slipped in between.
func (t *Tracker) beginPhase(next State, from ...State) (uint64, bool) {
	t.mu.Lock()
	matched := false
	for _, c := range from {
		if t.state == c {
			matched = true
			break
		}
	}
	if !matched {
		t.mu.Unlock()
		return 0, false
	}
	prev, listeners := t.transitionLocked(next)
	gen := t.gen
	t.mu.Unlock()
	notify(listeners, prev, next)
	return gen, true
}

// completePhase transitions to next only if no transition happened since the
// generation returned by beginPhase. Returns true if the transition happened.
func (t *Tracker) completePhase(next State, gen uint64) bool {
	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return false
	}
	prev, listeners := t.transitionLocked(next)
	t.mu.Unlock()
	notify(listeners, prev, next)
	return true
}
