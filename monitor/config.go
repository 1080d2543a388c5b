package monitor

import (
	"errors"
	"fmt"

	"github.com/eth2030/eclipsemonitor/core"
	"github.com/eth2030/eclipsemonitor/core/types"
)

// Config defaults.
const (
	DefaultCheckpointInterval  = 430
	DefaultMaxFutureSkew       = 15
	DefaultMinDiffPercent      = 103
	DefaultMaxWaitTime         = 400
	DefaultStatusStride        = 3
	DefaultMaxBootstrapReplans = 64
)

var (
	ErrZeroCheckpointInterval = errors.New("monitor: checkpoint interval must be positive")
	ErrZeroEstimateInterval   = errors.New("monitor: estimate interval must be positive")
	ErrZeroStatusStride       = errors.New("monitor: status stride must be positive")
)

// Config holds the static parameters of a monitor. It is not modified after
// New.
type Config struct {
	Network core.Network

	// GenesisHash pins the hash of the first header. When nil and StartBlock
	// is 0 the network's genesis hash is used; otherwise the first header
	// at StartBlock is trusted on first use.
	GenesisHash *types.Hash
	StartBlock  uint64

	// CheckpointInterval is the number of accepted headers per checkpoint.
	CheckpointInterval uint64
	// MaxFutureSkew bounds header timestamps ahead of the local clock, in seconds.
	MaxFutureSkew uint64
	// EstimateInterval is the block time assumed by difficulty estimation.
	EstimateInterval uint64
	// MinDiffPercent scales the runtime difficulty floor, in 1/128ths of the
	// checkpoint window median.
	MinDiffPercent uint8
	// MaxWaitTime is the longest gap, in seconds, between receiving a
	// runtime header and its parent. Zero disables the check.
	MaxWaitTime uint64
	// StatusStride logs every Nth checkpoint during bootstrap I.
	StatusStride uint64
	// MaxBootstrapReplans bounds bootstrap I replans that move the plan end
	// before each further one is escalated. Zero disables escalation.
	MaxBootstrapReplans uint64
}

// DefaultConfig returns the defaults for network.
func DefaultConfig(network core.Network) Config {
	estimate := uint64(13)
	if network == core.Goerli {
		estimate = 15
	}
	return Config{
		Network:             network,
		CheckpointInterval:  DefaultCheckpointInterval,
		MaxFutureSkew:       DefaultMaxFutureSkew,
		EstimateInterval:    estimate,
		MinDiffPercent:      DefaultMinDiffPercent,
		MaxWaitTime:         DefaultMaxWaitTime,
		StatusStride:        DefaultStatusStride,
		MaxBootstrapReplans: DefaultMaxBootstrapReplans,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Network.Config() == nil {
		return fmt.Errorf("%w: %v", core.ErrUnknownNetwork, c.Network)
	}
	if c.CheckpointInterval == 0 {
		return ErrZeroCheckpointInterval
	}
	if c.EstimateInterval == 0 {
		return ErrZeroEstimateInterval
	}
	if c.StatusStride == 0 {
		return ErrZeroStatusStride
	}
	return nil
}

// pinnedGenesis returns the hash the first header must have, if any.
func (c *Config) pinnedGenesis() (types.Hash, bool) {
	if c.GenesisHash != nil {
		return *c.GenesisHash, true
	}
	if c.StartBlock == 0 {
		return c.Network.Config().GenesisHash, true
	}
	return types.Hash{}, false
}
