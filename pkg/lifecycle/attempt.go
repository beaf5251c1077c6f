package lifecycle

import "context"

// Attempt is the shared result of one in-flight phase. All callers that
// invoke a phase method while an attempt is pending receive the same
// *Attempt. An attempt always settles, whether the phase succeeded or the
// hook failed; callers inspect the settled state (or the service's
// predicates) to tell the two apart.
type Attempt struct {
	done  chan struct{}
	state State
}

func newAttempt() *Attempt {
	return &Attempt{done: make(chan struct{})}
}

// settle records the final observed state and wakes all waiters.
// Must be called exactly once.
func (a *Attempt) settle(s State) {
	a.state = s
	close(a.done)
}

// Done returns a channel that is closed when the attempt settles.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the attempt settles or ctx is done. On settlement it
// returns the service state as observed when the phase completed; the error
// is non-nil only when ctx expired first. Phase failures do not produce an
// error here.
func (a *Attempt) Wait(ctx context.Context) (State, error) {
	select {
	case <-a.done:
		return a.state, nil
	case <-ctx.Done():
		return StateCreated, ctx.Err()
	}
}

// State returns the settled state. The second result is false while the
// attempt is still pending.
func (a *Attempt) State() (State, bool) {
	select {
	case <-a.done:
		return a.state, true
	default:
		return StateCreated, false
	}
}
