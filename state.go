package coordinate

import "fmt"

// TransactionState is the aggregate outcome of one coordination attempt.
//
// StateSucceeded and StateRolledBack assert that every node in the group
// ended the attempt mutually consistent: either all of them applied the
// action, or all partial work was compensated back out.  StateFailed is the
// explicit signal that this could not be established and the caller has to
// escalate.  StateToBeRetried is only ever terminal for a single attempt;
// the retry policy either feeds it back into a new dispatch or forces it to
// StateFailed on exhaustion, so it never reaches a caller of Coordinate.
type TransactionState int

const (
	StateUnknown TransactionState = iota
	// StateSucceeded means every node applied the action.
	StateSucceeded
	// StateRolledBack means at least one node failed permanently and the
	// nodes that had already applied the action were compensated back to
	// their pre-transaction state.
	StateRolledBack
	// StateToBeRetried means only transient failures were observed; the
	// whole dispatch is eligible for re-attempt without compensation.
	StateToBeRetried
	// StateFailed means consistency could not be restored (a compensation
	// call failed) or retries were exhausted.
	StateFailed
)

// String returns the string representation of the TransactionState.
func (s TransactionState) String() string {
	switch s {
	case StateSucceeded:
		return "succeeded"
	case StateRolledBack:
		return "rolled_back"
	case StateToBeRetried:
		return "to_be_retried"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown TransactionState: %d", int(s))
	}
}

// Terminal reports whether the state ends a Coordinate call.
func (s TransactionState) Terminal() bool {
	switch s {
	case StateSucceeded, StateRolledBack, StateFailed:
		return true
	default:
		return false
	}
}

// phase identifies where inside an attempt the coordinator currently is.
// Used for logging only; the aggregate outcome is a TransactionState.
type phase int

const (
	phaseDispatching phase = iota
	phaseClassifying
	phaseCompensating
)

func (p phase) String() string {
	switch p {
	case phaseDispatching:
		return "dispatching"
	case phaseClassifying:
		return "classifying"
	case phaseCompensating:
		return "compensating"
	default:
		return "unknown"
	}
}
