package coordinate

import (
	"fmt"
	"math"
	"time"
)

// Policy governs whether and how the whole dispatch-classify-compensate
// cycle repeats.  It is a plain value with no side effects: given the
// attempt number just finished and its resolved state it either stops or
// names the backoff to wait before the next attempt.  Succeeded, rolled
// back, and failed attempts are always terminal; only a retryable attempt
// under the ceiling earns another cycle.
type Policy struct {
	// MaxAttempts caps the number of dispatch cycles per Coordinate call.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt.
	BaseDelay time.Duration
	// Multiplier grows the backoff exponentially per attempt.
	Multiplier float64
	// MaxDelay caps the backoff.  Zero means uncapped.
	MaxDelay time.Duration
}

// DefaultPolicy returns the retry policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultBackoffMultiplier,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Decision is the policy's verdict after one attempt.
type Decision struct {
	// Retry reports whether another attempt is warranted.
	Retry bool
	// Wait is the backoff to observe before the next attempt; meaningful
	// only when Retry is true.
	Wait time.Duration
}

// Next decides what happens after attempt number attempt (1-based) resolved
// to state.  A false Retry with state still StateToBeRetried means the
// ceiling was hit and the caller must force StateFailed with an exhaustion
// marker; StateToBeRetried is never a valid call-site outcome.
func (p Policy) Next(attempt int, state TransactionState) Decision {
	if state != StateToBeRetried {
		return Decision{}
	}
	if attempt >= p.MaxAttempts {
		return Decision{}
	}
	return Decision{Retry: true, Wait: p.Backoff(attempt)}
}

// Backoff returns the delay before attempt n+1, growing exponentially and
// non-decreasing in n: BaseDelay * Multiplier^(n-1), capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("invalid retry policy: max attempts must be at least 1")
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("invalid retry policy: base delay must not be negative")
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("invalid retry policy: backoff multiplier must be at least 1")
	}
	return nil
}
