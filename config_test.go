package coordinate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Groups = map[GroupID]map[NodeID]string{
		"g1": {"n1": "http://localhost:9001", "n2": "http://localhost:9002"},
	}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Listen = ""
	assert.ErrorContains(t, cfg.Validate(), "listen")

	cfg = validConfig()
	cfg.MaxAttempts = 0
	assert.ErrorContains(t, cfg.Validate(), "max attempts")

	cfg = validConfig()
	cfg.NodeTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "node timeout")

	cfg = validConfig()
	cfg.Groups = nil
	assert.ErrorContains(t, cfg.Validate(), "at least one group")

	cfg = validConfig()
	cfg.Groups["g2"] = map[NodeID]string{}
	assert.ErrorContains(t, cfg.Validate(), "no nodes")

	cfg = validConfig()
	cfg.Groups["g1"]["n3"] = ""
	assert.ErrorContains(t, cfg.Validate(), "no address")
}

func TestConfigRetryPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.MaxAttempts = 7
	cfg.BaseDelay = 50 * time.Millisecond
	cfg.BackoffMultiplier = 3
	cfg.MaxDelay = 2 * time.Second

	p := cfg.RetryPolicy()
	assert.Equal(t, 7, p.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 3.0, p.Multiplier)
	assert.Equal(t, 2*time.Second, p.MaxDelay)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DeleteRecreate, cfg.DeletePolicy)
}
