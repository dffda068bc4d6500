package coordinate

import (
	"errors"
	"fmt"
)

// ErrAlreadyApplied marks a permanent node failure that actually means the
// node already holds the desired end state: a create rejected because the
// resource exists, or a delete rejected because it is gone.  When every node
// reports it the group has converged and the classifier treats the attempt
// as succeeded.
var ErrAlreadyApplied = errors.New("action already applied")

// NodeError represents a classified failure of a single node call.
type NodeError struct {
	error
	outcome Outcome
}

// TransientFailure wraps an error as a transient node failure (timeout,
// connection refused, 5xx).  Transient failures make the whole attempt
// eligible for retry and never trigger compensation on their own.
func TransientFailure(err error) error {
	return &NodeError{error: fmt.Errorf("transient node failure: %w", err), outcome: OutcomeTransient}
}

// PermanentFailure wraps an error as a permanent node failure (4xx,
// validation rejection).  A permanent failure on any node means a uniform
// retry cannot succeed; already-applied nodes must be compensated.
func PermanentFailure(err error) error {
	return &NodeError{error: fmt.Errorf("permanent node failure: %w", err), outcome: OutcomePermanent}
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (e *NodeError) Unwrap() error {
	return e.error
}

// Outcome returns the classification the error carries.
func (e *NodeError) Outcome() Outcome {
	return e.outcome
}

// ClassifyError maps an error returned by a NodeClient to an Outcome.
// Unclassified errors (including context cancellation) count as transient;
// the coordinator checks its context separately, so a cancelled call never
// masquerades as a permanent rejection.
func ClassifyError(err error) Outcome {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.outcome
	}
	return OutcomeTransient
}

// ExhaustionError reports that the attempt ceiling was reached while the
// last attempt was still retryable.  Distinct from CompensationError so
// callers can tell "gave up retrying" from "could not restore consistency".
type ExhaustionError struct {
	Attempts int
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts", e.Attempts)
}

// CompensationError reports that one or more compensation calls failed: the
// coordinator can no longer assert consistency across the group and the
// caller must escalate.  Results holds the per-node compensation outcomes
// for operator follow-up.
type CompensationError struct {
	Results []NodeResult
}

func (e *CompensationError) Error() string {
	failed := 0
	for _, r := range e.Results {
		if r.Outcome != OutcomeOK {
			failed++
		}
	}
	return fmt.Sprintf("compensation failed on %d of %d nodes", failed, len(e.Results))
}
