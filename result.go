package coordinate

import (
	"errors"
	"fmt"
)

// Outcome is the tri-state classification of a single node call.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeOK
	OutcomeTransient
	OutcomePermanent
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	default:
		return fmt.Sprintf("unknown Outcome: %d", int(o))
	}
}

// NodeResult is the outcome of one dispatch (or compensation) call against
// one node.  Results are produced fresh on every attempt and never mutated,
// only replaced.
type NodeResult struct {
	// Node identifies the node the call targeted.
	Node NodeID
	// Outcome classifies the call.
	Outcome Outcome
	// Payload is the response body when the call succeeded.
	Payload []byte
	// Err carries the failure detail otherwise.
	Err error
}

// OK reports whether the node applied the action.
func (r NodeResult) OK() bool {
	return r.Outcome == OutcomeOK
}

// AlreadyApplied reports whether the node rejected the action because it
// already holds the desired end state.
func (r NodeResult) AlreadyApplied() bool {
	return r.Outcome == OutcomePermanent && errors.Is(r.Err, ErrAlreadyApplied)
}

// okResult builds a successful NodeResult.
func okResult(node NodeID, payload []byte) NodeResult {
	return NodeResult{Node: node, Outcome: OutcomeOK, Payload: payload}
}

// errResult builds a NodeResult from a classified error.
func errResult(node NodeID, err error) NodeResult {
	return NodeResult{Node: node, Outcome: ClassifyError(err), Err: err}
}
