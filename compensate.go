package coordinate

import (
	"context"

	"pkt.systems/pslog"
)

// Compensator undoes the partial work of a failed attempt by issuing the
// inverse action to exactly the nodes that applied the original one.
type Compensator struct {
	dispatcher *Dispatcher
	policy     DeletePolicy
	logger     pslog.Logger
}

// NewCompensator creates a Compensator sharing the dispatcher's fan-out
// discipline.
func NewCompensator(dispatcher *Dispatcher, policy DeletePolicy, logger pslog.Logger) *Compensator {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &Compensator{dispatcher: dispatcher, policy: policy, logger: logger}
}

// Compensate issues the inverse of action to the given nodes concurrently
// and returns one NodeResult per node, in the order handed in.
//
// When the delete policy declares the action non-compensable, synthetic ok
// results are returned without any network calls; the attempt then resolves
// to rolled back by definition.  Compensate never retries or recurses into
// itself; whether a failed compensation ends the whole call is the
// coordinator's decision.
func (c *Compensator) Compensate(ctx context.Context, nodes []NodeID, action ActionSpec) []NodeResult {
	inverse, ok := action.Inverse(c.policy)
	if !ok {
		c.logger.Info("compensation is a no-op under the configured delete policy",
			"verb", action.Verb.String(), "nodes", len(nodes))
		results := make([]NodeResult, len(nodes))
		for i, node := range nodes {
			results[i] = okResult(node, nil)
		}
		return results
	}

	c.logger.Info("compensating partially applied action",
		"verb", action.Verb.String(), "inverse", inverse.Verb.String(), "nodes", len(nodes))
	return c.dispatcher.fanOut(ctx, nodes, inverse)
}
