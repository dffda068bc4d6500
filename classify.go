package coordinate

// Classify reduces the per-node results of one dispatch into the aggregate
// TransactionState of the attempt.  Pure function: calling it twice with the
// same results yields the same state.
//
// Policy:
//   - every node ok: StateSucceeded
//   - every node rejected with ErrAlreadyApplied: StateSucceeded — the group
//     already converged on the desired end state, there is nothing to undo
//     and nothing a retry could add
//   - at least one permanent failure: StateRolledBack, which instructs the
//     coordinator to run compensation before finalizing the attempt as
//     rolled back (or failed, if compensation itself fails).  A permanent
//     failure anywhere means a uniform retry cannot succeed, so this takes
//     precedence over any transient failures in the same batch.
//   - otherwise (at least one transient failure, no permanent): StateToBeRetried;
//     a uniform retry may still reach full success without undoing partial
//     work, so no compensation is issued yet.
func Classify(results []NodeResult) TransactionState {
	var ok, transient, permanent, alreadyApplied int
	for _, r := range results {
		switch r.Outcome {
		case OutcomeOK:
			ok++
		case OutcomeTransient:
			transient++
		case OutcomePermanent:
			permanent++
			if r.AlreadyApplied() {
				alreadyApplied++
			}
		}
	}

	switch {
	case ok == len(results):
		return StateSucceeded
	case alreadyApplied == len(results) && len(results) > 0:
		return StateSucceeded
	case permanent > 0:
		return StateRolledBack
	default:
		return StateToBeRetried
	}
}

// SucceededNodes returns the IDs of the nodes whose result was ok, in result
// order.  These are exactly the nodes the compensator must target when the
// attempt has to be undone.
func SucceededNodes(results []NodeResult) []NodeID {
	var nodes []NodeID
	for _, r := range results {
		if r.OK() {
			nodes = append(nodes, r.Node)
		}
	}
	return nodes
}

// ClassifyCompensation reduces the per-node results of a compensation
// fan-out.  A node rejecting the inverse action with ErrAlreadyApplied
// counts as compensated: the pre-transaction state is already in place.
// Anything else short of ok means consistency could not be restored.
func ClassifyCompensation(results []NodeResult) TransactionState {
	for _, r := range results {
		if !r.OK() && !r.AlreadyApplied() {
			return StateFailed
		}
	}
	return StateRolledBack
}
