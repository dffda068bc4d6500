package coordinate

import (
	"fmt"
	"time"
)

const (
	// DefaultListen is the default TCP endpoint the service binds to.
	DefaultListen = ":8460"
	// DefaultResource is the resource collection path actions target on
	// every node.
	DefaultResource = "v1/group"
	// DefaultMaxAttempts caps the dispatch cycles per Coordinate call.
	DefaultMaxAttempts = 5
	// DefaultBaseDelay is the backoff before the second attempt.
	DefaultBaseDelay = 100 * time.Millisecond
	// DefaultBackoffMultiplier defines the exponential backoff ratio.
	DefaultBackoffMultiplier = 2.0
	// DefaultMaxDelay caps the inter-attempt backoff.
	DefaultMaxDelay = 5 * time.Second
	// DefaultNodeTimeout bounds each individual node call.
	DefaultNodeTimeout = 5 * time.Second
)

// Config carries the full configuration surface of the service: the listen
// address, the retry/backoff values, the per-node call timeout, and the
// group membership definitions.
type Config struct {
	// Listen is the TCP endpoint the HTTP front door binds to.
	Listen string
	// MaxAttempts caps dispatch cycles per coordination call.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt.
	BaseDelay time.Duration
	// BackoffMultiplier grows the backoff exponentially per attempt.
	BackoffMultiplier float64
	// MaxDelay caps the inter-attempt backoff.
	MaxDelay time.Duration
	// NodeTimeout bounds each individual node call.
	NodeTimeout time.Duration
	// DeletePolicy selects the compensating action for deletes.
	DeletePolicy DeletePolicy
	// Groups maps each group ID to its node IDs and base addresses.
	Groups map[GroupID]map[NodeID]string
}

// DefaultConfig returns a Config with every tunable at its default and no
// groups defined.
func DefaultConfig() Config {
	return Config{
		Listen:            DefaultListen,
		MaxAttempts:       DefaultMaxAttempts,
		BaseDelay:         DefaultBaseDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
		MaxDelay:          DefaultMaxDelay,
		NodeTimeout:       DefaultNodeTimeout,
		DeletePolicy:      DeleteRecreate,
	}
}

// RetryPolicy derives the retry policy value from the config.
func (c Config) RetryPolicy() Policy {
	return Policy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		Multiplier:  c.BackoffMultiplier,
		MaxDelay:    c.MaxDelay,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		return err
	}
	if c.NodeTimeout <= 0 {
		return fmt.Errorf("node timeout must be positive")
	}
	if len(c.Groups) == 0 {
		return fmt.Errorf("at least one group must be configured")
	}
	for gid, nodes := range c.Groups {
		if len(nodes) == 0 {
			return fmt.Errorf("group %q has no nodes", gid)
		}
		for nid, addr := range nodes {
			if addr == "" {
				return fmt.Errorf("group %q node %q has no address", gid, nid)
			}
		}
	}
	return nil
}
