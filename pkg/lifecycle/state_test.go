package lifecycle

import (
	"fmt"
	"testing"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateCreated, "Created"},
		{StateInitializing, "Initializing"},
		{StateOffline, "Offline"},
		{StateConnecting, "Connecting"},
		{StateOnline, "Online"},
		{StateAuthenticating, "Authenticating"},
		{StateReady, "Ready"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestType_String(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{TypeLocal, "Local"},
		{TypePublic, "Public"},
		{TypePrivate, "Private"},
		{Type(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type(%d).String() = %q, want %q", int(tt.typ), got, tt.want)
		}
	}
}

func TestTracker_InitialState(t *testing.T) {
	tr := NewTracker()
	if got := tr.State(); got != StateCreated {
		t.Errorf("initial state = %v, want StateCreated", got)
	}
}

func TestTracker_InState(t *testing.T) {
	tr := NewTracker()
	tr.Transition(StateOffline)

	if !tr.InState(StateOffline) {
		t.Error("InState(Offline) = false, want true")
	}
	if !tr.InState(StateCreated, StateOffline, StateReady) {
		t.Error("InState with multiple candidates missed the current state")
	}
	if tr.InState(StateCreated, StateReady) {
		t.Error("InState = true for candidates not containing the current state")
	}
	if tr.InState() {
		t.Error("InState() with no candidates = true, want false")
	}
}

func TestTracker_TransitionNotifiesInOrder(t *testing.T) {
	tr := NewTracker()

	var events []string
	for i := 0; i < 3; i++ {
		i := i
		tr.OnChange(func(prev, cur State) {
			events = append(events, fmt.Sprintf("%d:%v->%v", i, prev, cur))
		})
	}

	tr.Transition(StateInitializing)
	tr.Transition(StateOffline)

	want := []string{
		"0:Created->Initializing",
		"1:Created->Initializing",
		"2:Created->Initializing",
		"0:Initializing->Offline",
		"1:Initializing->Offline",
		"2:Initializing->Offline",
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestTracker_ListenerSeesNewStateOnQuery(t *testing.T) {
	tr := NewTracker()

	var observed State
	tr.OnChange(func(prev, cur State) {
		observed = tr.State()
	})

	tr.Transition(StateInitializing)
	if observed != StateInitializing {
		t.Errorf("listener observed %v via State(), want Initializing", observed)
	}
}

func TestTracker_Generation(t *testing.T) {
	tr := NewTracker()

	g0 := tr.Generation()
	tr.Transition(StateInitializing)
	g1 := tr.Generation()
	if g1 != g0+1 {
		t.Errorf("generation after one transition = %d, want %d", g1, g0+1)
	}

	// A round trip back to the same state still moves the generation.
	tr.Transition(StateCreated)
	tr.Transition(StateInitializing)
	if got := tr.Generation(); got != g1+2 {
		t.Errorf("generation after round trip = %d, want %d", got, g1+2)
	}
}

func TestTracker_CompareAndTransition(t *testing.T) {
	tr := NewTracker()
	tr.Transition(StateOffline)

	notified := 0
	tr.OnChange(func(prev, cur State) { notified++ })

	if tr.CompareAndTransition(StateConnecting, StateCreated, StateReady) {
		t.Error("CompareAndTransition succeeded from a non-matching state")
	}
	if notified != 0 {
		t.Errorf("listeners notified %d times on a refused transition, want 0", notified)
	}
	if got := tr.State(); got != StateOffline {
		t.Errorf("state after refused transition = %v, want Offline", got)
	}

	if !tr.CompareAndTransition(StateConnecting, StateOffline) {
		t.Error("CompareAndTransition failed from a matching state")
	}
	if notified != 1 {
		t.Errorf("listeners notified %d times, want 1", notified)
	}
	if got := tr.State(); got != StateConnecting {
		t.Errorf("state = %v, want Connecting", got)
	}
}

func TestTracker_PhaseCompletionDetectsInterleavedTransition(t *testing.T) {
	tr := NewTracker()
	tr.Transition(StateOffline)

	gen, ok := tr.beginPhase(StateConnecting, StateOffline)
	if !ok {
		t.Fatal("beginPhase refused a matching state")
	}

	// Simulate a reentrant disconnect and a later return to the nominal
	// state; the generation still exposes the interleaving.
	tr.Transition(StateOffline)
	tr.Transition(StateConnecting)

	if tr.completePhase(StateReady, gen) {
		t.Error("completePhase succeeded despite interleaved transitions")
	}
	if got := tr.State(); got != StateConnecting {
		t.Errorf("state = %v, want Connecting (untouched)", got)
	}
}
