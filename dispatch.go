package coordinate

import (
	"context"
	"sync"

	"pkt.systems/pslog"
)

// Dispatcher fans one action out to every node of a group concurrently and
// gathers the per-node outcomes.
type Dispatcher struct {
	clients *ClientRegistry
	logger  pslog.Logger
}

// NewDispatcher creates a Dispatcher over the given client registry.
func NewDispatcher(clients *ClientRegistry, logger pslog.Logger) *Dispatcher {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &Dispatcher{clients: clients, logger: logger}
}

// Dispatch invokes the action on every node of the group concurrently and
// returns one NodeResult per node, in the group's stable node order.
//
// Every node call runs as an independent goroutine: a failure, timeout, or
// hang on one node never cancels or delays the in-flight calls to its
// siblings.  Failures are captured as classified NodeResult entries, never
// propagated as errors that would abort the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, group *Group, action ActionSpec) []NodeResult {
	return d.fanOut(ctx, group.Nodes(), action)
}

// fanOut is shared by dispatch and compensation: same concurrency
// discipline, possibly a subset of the group's nodes.  Each goroutine writes
// only its own slot of the result slice, so no shared mutable state exists
// across node calls and the result order matches the node order handed in.
func (d *Dispatcher) fanOut(ctx context.Context, nodes []NodeID, action ActionSpec) []NodeResult {
	results := make([]NodeResult, len(nodes))

	var wg sync.WaitGroup
	for i, node := range nodes {
		wg.Add(1)
		go func(i int, node NodeID) {
			defer wg.Done()
			client, err := d.clients.Get(node)
			if err != nil {
				results[i] = errResult(node, PermanentFailure(err))
				return
			}
			payload, err := client.Call(ctx, action)
			if err != nil {
				d.logger.Debug("node call failed",
					"node", string(node), "verb", action.Verb.String(), "error", err)
				results[i] = errResult(node, err)
				return
			}
			results[i] = okResult(node, payload)
		}(i, node)
	}
	wg.Wait()

	return results
}
