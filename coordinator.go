package coordinate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"
)

// Coordinator drives a single logical write to full application or full
// reversal across every node of a group.  One Coordinate call runs a strict
// sequence of attempts; within an attempt the node calls run concurrently,
// but the state machine itself (dispatch, classify, compensate, resolve)
// advances sequentially and no two attempts of the same call overlap.
type Coordinator struct {
	membership  Membership
	dispatcher  *Dispatcher
	compensator *Compensator
	policy      Policy
	logger      pslog.Logger
	metrics     *Metrics

	// sleep waits out the inter-attempt backoff; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Coordinator.
type Option func(*options)

type options struct {
	policy       Policy
	deletePolicy DeletePolicy
	logger       pslog.Logger
	metrics      *Metrics
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithDeletePolicy selects how deletes are compensated.
func WithDeletePolicy(p DeletePolicy) Option {
	return func(o *options) { o.deletePolicy = p }
}

// WithLogger supplies a logger for coordination diagnostics.
func WithLogger(logger pslog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics attaches a counter set to the coordinator.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a Coordinator over the given membership source and client
// registry.
func New(membership Membership, clients *ClientRegistry, opts ...Option) *Coordinator {
	o := options{
		policy:       DefaultPolicy(),
		deletePolicy: DeleteRecreate,
		logger:       pslog.NoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	dispatcher := NewDispatcher(clients, o.logger.With("svc", "dispatch"))
	return &Coordinator{
		membership:  membership,
		dispatcher:  dispatcher,
		compensator: NewCompensator(dispatcher, o.deletePolicy, o.logger.With("svc", "compensate")),
		policy:      o.policy,
		logger:      o.logger.With("svc", "coordinator"),
		metrics:     o.metrics,
		sleep:       sleepContext,
	}
}

// Attempt records one full dispatch-classify-compensate cycle.  Attempts
// exist only for the duration of the Coordinate call that produced them;
// there is no durable transaction history.
type Attempt struct {
	// Number is the 1-based attempt counter.
	Number int
	// State is the resolved state of this attempt.
	State TransactionState
	// Results holds the per-node dispatch outcomes, in group node order.
	Results []NodeResult
	// Compensations holds the per-node compensation outcomes, when the
	// attempt required compensation.
	Compensations []NodeResult
	StartTime     time.Time
	EndTime       time.Time
}

// Result is the terminal outcome of one Coordinate call, with enough
// per-attempt detail for operator follow-up when it resolves to failed.
type Result struct {
	// TxnID correlates log lines and responses for this call.
	TxnID string
	// Group is the group the action targeted.
	Group GroupID
	// State is the terminal state: succeeded, rolled back, or failed.
	State TransactionState
	// Attempts holds every attempt made, oldest first.
	Attempts []Attempt
}

// LastAttempt returns the most recent attempt, or nil before the first
// dispatch.
func (r *Result) LastAttempt() *Attempt {
	if len(r.Attempts) == 0 {
		return nil
	}
	return &r.Attempts[len(r.Attempts)-1]
}

// Coordinate applies the action to every node of the group and returns the
// terminal TransactionState wrapped in a Result.
//
// The returned error is nil for StateSucceeded and StateRolledBack.  For
// StateFailed it is an *ExhaustionError (retries ran out while the attempt
// was still retryable), a *CompensationError (consistency could not be
// restored), or the context's error when the call was cancelled.  The Result
// is returned alongside the error so callers keep the per-node detail.
//
// Cancellation is honored at every suspension point: between node calls and
// during backoff.  A cancellation that interrupts compensation resolves to
// StateFailed, never StateRolledBack, because the coordinator cannot know
// whether the undo completed everywhere.
func (c *Coordinator) Coordinate(ctx context.Context, group GroupID, action ActionSpec) (*Result, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	g, err := c.membership.Lookup(group)
	if err != nil {
		return nil, err
	}
	if g.Len() == 0 {
		return nil, fmt.Errorf("group %q has no nodes", group)
	}

	res := &Result{TxnID: uuid.NewString(), Group: group}
	logger := c.logger.With("txn", res.TxnID, "group", string(group), "verb", action.Verb.String())
	logger.Info("coordinating", "nodes", g.Len())

	for attempt := 1; ; attempt++ {
		rec := Attempt{Number: attempt, StartTime: time.Now()}

		logger.Debug("attempt", "n", attempt, "phase", phaseDispatching.String())
		c.metrics.observeAttempt()
		rec.Results = c.dispatcher.Dispatch(ctx, g, action)
		if err := ctx.Err(); err != nil {
			return c.abort(res, rec, logger, err)
		}

		logger.Debug("attempt", "n", attempt, "phase", phaseClassifying.String())
		state := Classify(rec.Results)

		if state == StateRolledBack {
			logger.Debug("attempt", "n", attempt, "phase", phaseCompensating.String())
			targets := SucceededNodes(rec.Results)
			rec.Compensations = c.compensator.Compensate(ctx, targets, action)
			c.metrics.observeCompensations(len(rec.Compensations))
			if err := ctx.Err(); err != nil {
				// The undo may or may not have completed; failed is the
				// only honest answer.
				return c.abort(res, rec, logger, err)
			}
			state = ClassifyCompensation(rec.Compensations)
		}

		rec.State = state
		rec.EndTime = time.Now()
		res.Attempts = append(res.Attempts, rec)

		switch state {
		case StateSucceeded, StateRolledBack:
			res.State = state
			c.metrics.observeTerminal(state)
			logger.Info("transaction resolved", "state", state.String(), "attempts", attempt)
			return res, nil
		case StateFailed:
			res.State = state
			c.metrics.observeTerminal(state)
			cerr := &CompensationError{Results: rec.Compensations}
			logger.Error("transaction failed, consistency not restored",
				"attempts", attempt, "error", cerr)
			return res, cerr
		}

		decision := c.policy.Next(attempt, state)
		if !decision.Retry {
			res.State = StateFailed
			c.metrics.observeTerminal(StateFailed)
			xerr := &ExhaustionError{Attempts: attempt}
			logger.Error("transaction failed", "attempts", attempt, "error", xerr)
			return res, xerr
		}

		logger.Debug("backing off before retry", "n", attempt, "wait", decision.Wait.String())
		if err := c.sleep(ctx, decision.Wait); err != nil {
			return c.abort(res, rec, logger, err)
		}
	}
}

// abort finalizes a cancelled call as failed, preserving the attempt that
// was in flight.
func (c *Coordinator) abort(res *Result, rec Attempt, logger pslog.Logger, err error) (*Result, error) {
	rec.State = StateFailed
	rec.EndTime = time.Now()
	if len(res.Attempts) == 0 || res.Attempts[len(res.Attempts)-1].Number != rec.Number {
		res.Attempts = append(res.Attempts, rec)
	}
	res.State = StateFailed
	c.metrics.observeTerminal(StateFailed)
	logger.Warn("transaction aborted", "error", err)
	return res, err
}

// sleepContext waits out d unless the context expires first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
