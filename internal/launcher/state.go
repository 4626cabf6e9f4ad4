package launcher

import "fmt"

var allowedTransitions = map[Status]map[Status]struct{}{
	StatusPending: {
		StatusDispatched: {},
	},
	StatusDispatched: {
		StatusRunning: {},
		StatusAborted: {},
	},
	StatusRunning: {
		StatusExited:  {},
		StatusAborted: {},
	},
}

// IllegalTransitionError is returned when a task skips or leaves a terminal
// state.
type IllegalTransitionError struct {
	Task string
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot transition task %s from %q to %q", e.Task, e.From, e.To)
}

// CanTransition reports whether a task in status s may move to next.
func (s Status) CanTransition(next Status) bool {
	_, ok := allowedTransitions[s][next]
	return ok
}

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s == StatusExited || s == StatusAborted
}

func (r *TaskResult) advance(next Status) error {
	if !r.Status.CanTransition(next) {
		return &IllegalTransitionError{Task: r.Invocation.Label(), From: r.Status, To: next}
	}
	r.Status = next
	return nil
}
