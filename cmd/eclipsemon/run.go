package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/eth2030/eclipsemonitor/log"
	"github.com/eth2030/eclipsemonitor/monitor"
	"github.com/eth2030/eclipsemonitor/node"
)

func run(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := log.ParseLevel(cfg.Log.Level)
	logger := log.NewWriter(c.App.ErrWriter, level, cfg.Log.Format)
	logger.Info("eclipsemon starting", "version", version, "commit", commit,
		"network", cfg.Monitor.Network, "start", cfg.Monitor.StartBlock, "host", cfg.Host.URL)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}
	defer func() {
		if err := n.Close(); err != nil {
			logger.Warn("close failed", "err", err)
		}
	}()
	return n.Run(ctx)
}

// secStateView is the printed form of a decoded security state.
type secStateView struct {
	GenesisHash         string `json:"genesisHash"`
	CheckpointHash      string `json:"checkpointHash"`
	CheckpointNumber    string `json:"checkpointNumber"`
	CheckpointIteration uint64 `json:"checkpointIteration"`
}

func decodeSecState(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("secstate decode: want 1 argument, got %d", c.NArg())
	}
	arg := c.Args().First()
	if !strings.HasPrefix(arg, "0x") {
		arg = "0x" + arg
	}
	raw, err := hexutil.Decode(arg)
	if err != nil {
		return fmt.Errorf("secstate decode: %w", err)
	}
	s, err := monitor.DecodeSecState(raw)
	if err != nil {
		return err
	}
	view := secStateView{
		GenesisHash:         s.GenesisHash.Hex(),
		CheckpointHash:      s.CheckpointHash.Hex(),
		CheckpointNumber:    new(big.Int).SetBytes(s.CheckpointNumber).String(),
		CheckpointIteration: s.CheckpointIteration,
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
