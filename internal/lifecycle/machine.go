// Package lifecycle drives each capacity through its activation cycle:
// paused, activated, running a pipeline, deactivated again. One controller
// goroutine owns each capacity; no state is ever written from outside it.
package lifecycle

import (
	"fmt"
)

// State is a capacity's position in its lifecycle. There is no terminal
// state: the machine cycles for as long as the process runs.
type State string

const (
	StatePaused          State = "Paused"
	StateActivating      State = "Activating"
	StateActiveIdle      State = "ActiveIdle"
	StateRunningPipeline State = "RunningPipeline"
	StateDeactivating    State = "Deactivating"
)

// legalTransitions enumerates every edge the machine may take.
//
// Activating -> Paused is the activation-failure edge.
// ActiveIdle -> Deactivating covers dispatch failures: the capacity is up
// but no run could be started, so it goes straight back down.
// Deactivating -> ActiveIdle is the deactivation-retries-exhausted edge;
// the capacity is deliberately left active and the failure escalated,
// never left ambiguous.
// Paused <-> ActiveIdle are the operator edges for manual-policy resources.
var legalTransitions = map[State][]State{
	StatePaused:          {StateActivating, StateActiveIdle},
	StateActivating:      {StateActiveIdle, StatePaused},
	StateActiveIdle:      {StateRunningPipeline, StateDeactivating, StatePaused},
	StateRunningPipeline: {StateDeactivating},
	StateDeactivating:    {StatePaused, StateActiveIdle},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrIllegalTransition is returned when a transition is refused.
type ErrIllegalTransition struct {
	From, To State
}

func (e ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal lifecycle transition %s -> %s", e.From, e.To)
}
