// Package core describes the networks the monitor can follow: their fork
// schedules, consensus engines and genesis hashes.
package core

import (
	"fmt"
	"strings"

	"github.com/eth2030/eclipsemonitor/core/types"
)

// Network is the closed set of chains the monitor knows how to validate.
type Network uint8

const (
	Mainnet Network = iota + 1
	Goerli
)

// ParseNetwork maps a configuration name to a Network.
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(name) {
	case "mainnet", "ethereum":
		return Mainnet, nil
	case "goerli":
		return Goerli, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
}

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Goerli:
		return "goerli"
	default:
		return fmt.Sprintf("network(%d)", uint8(n))
	}
}

// Config returns the chain configuration for n, or nil for an unknown network.
func (n Network) Config() *ChainConfig {
	switch n {
	case Mainnet:
		return MainnetChainConfig
	case Goerli:
		return GoerliChainConfig
	default:
		return nil
	}
}

// Engine identifies the pre-merge consensus engine of a chain.
type Engine uint8

const (
	EngineEthash Engine = iota
	EngineClique
)

// ChainConfig holds chain-level configuration for fork scheduling.
// Pre-merge forks are activated by block number, post-merge by timestamp.
// A nil fork field means the fork is not scheduled.
type ChainConfig struct {
	Network     Network
	ChainID     uint64
	Engine      Engine
	GenesisHash types.Hash

	// Block-number based forks (pre-merge)
	HomesteadBlock      *uint64
	ByzantiumBlock      *uint64
	ConstantinopleBlock *uint64
	MuirGlacierBlock    *uint64
	LondonBlock         *uint64
	ArrowGlacierBlock   *uint64
	GrayGlacierBlock    *uint64

	// ParisBlock is the first proof-of-stake block.
	ParisBlock *uint64

	// Timestamp-based forks (post-merge)
	ShanghaiTime *uint64
	CancunTime   *uint64
}

func u64(v uint64) *uint64 { return &v }

var (
	// MainnetChainConfig is the Ethereum mainnet schedule.
	MainnetChainConfig = &ChainConfig{
		Network:             Mainnet,
		ChainID:             1,
		Engine:              EngineEthash,
		GenesisHash:         types.HexToHash("0xd4e56740f876aef8c010b86a40d5f56745a118d0906a34e69aec8c0db1cb8fa3"),
		HomesteadBlock:      u64(1_150_000),
		ByzantiumBlock:      u64(4_370_000),
		ConstantinopleBlock: u64(7_280_000),
		MuirGlacierBlock:    u64(9_200_000),
		LondonBlock:         u64(12_965_000),
		ArrowGlacierBlock:   u64(13_773_000),
		GrayGlacierBlock:    u64(15_050_000),
		ParisBlock:          u64(15_537_394),
		ShanghaiTime:        u64(1_681_338_455),
		CancunTime:          u64(1_710_338_135),
	}

	// GoerliChainConfig is the Goerli testnet schedule (Clique before the merge).
	GoerliChainConfig = &ChainConfig{
		Network:             Goerli,
		ChainID:             5,
		Engine:              EngineClique,
		GenesisHash:         types.HexToHash("0xbf7e331f7f7c1dd2e05159666b3bf8bc7a8a3a9eb1d518969eab529dd9b88c1a"),
		HomesteadBlock:      u64(0),
		ByzantiumBlock:      u64(0),
		ConstantinopleBlock: u64(0),
		LondonBlock:         u64(5_062_605),
		ParisBlock:          u64(7_382_819),
		ShanghaiTime:        u64(1_678_832_736),
		CancunTime:          u64(1_705_473_120),
	}
)

func isBlockForked(fork *uint64, num uint64) bool {
	return fork != nil && *fork <= num
}

func isTimestampForked(fork *uint64, time uint64) bool {
	return fork != nil && *fork <= time
}

// IsHomestead returns whether the given block number is at or past Homestead.
func (c *ChainConfig) IsHomestead(num uint64) bool { return isBlockForked(c.HomesteadBlock, num) }

// IsByzantium returns whether the given block number is at or past Byzantium.
func (c *ChainConfig) IsByzantium(num uint64) bool { return isBlockForked(c.ByzantiumBlock, num) }

// IsConstantinople returns whether the given block number is at or past Constantinople.
func (c *ChainConfig) IsConstantinople(num uint64) bool {
	return isBlockForked(c.ConstantinopleBlock, num)
}

// IsMuirGlacier returns whether the given block number is at or past Muir Glacier.
func (c *ChainConfig) IsMuirGlacier(num uint64) bool { return isBlockForked(c.MuirGlacierBlock, num) }

// IsLondon returns whether the given block number is at or past London.
func (c *ChainConfig) IsLondon(num uint64) bool { return isBlockForked(c.LondonBlock, num) }

// IsArrowGlacier returns whether the given block number is at or past Arrow Glacier.
func (c *ChainConfig) IsArrowGlacier(num uint64) bool { return isBlockForked(c.ArrowGlacierBlock, num) }

// IsGrayGlacier returns whether the given block number is at or past Gray Glacier.
func (c *ChainConfig) IsGrayGlacier(num uint64) bool { return isBlockForked(c.GrayGlacierBlock, num) }

// IsParis returns whether the given block is a proof-of-stake block.
func (c *ChainConfig) IsParis(num uint64) bool { return isBlockForked(c.ParisBlock, num) }

// IsShanghai returns whether the given block time is at or past Shanghai.
func (c *ChainConfig) IsShanghai(time uint64) bool { return isTimestampForked(c.ShanghaiTime, time) }

// IsCancun returns whether the given block time is at or past Cancun.
func (c *ChainConfig) IsCancun(time uint64) bool { return isTimestampForked(c.CancunTime, time) }
