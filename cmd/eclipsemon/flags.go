package main

import (
	"io"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/eth2030/eclipsemonitor/node"
)

var runFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML configuration file; flags override its values",
		EnvVars: []string{"ECLIPSEMON_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "rpc-url",
		Aliases: []string{"r"},
		Usage:   "JSON-RPC endpoint of the host node",
		EnvVars: []string{"ECLIPSEMON_RPC_URL"},
	},
	&cli.StringFlag{
		Name:    "rpc-api",
		Usage:   "Host API used for raw data: debug or eth",
		EnvVars: []string{"ECLIPSEMON_RPC_API"},
	},
	&cli.StringFlag{
		Name:    "network",
		Aliases: []string{"n"},
		Usage:   "Network: mainnet or goerli",
		EnvVars: []string{"ECLIPSEMON_NETWORK"},
	},
	&cli.Uint64Flag{
		Name:    "start-block",
		Aliases: []string{"s"},
		Usage:   "First block to validate",
		EnvVars: []string{"ECLIPSEMON_START_BLOCK"},
	},
	&cli.Uint64Flag{
		Name:    "checkpoint-interval",
		Usage:   "Accepted headers per checkpoint",
		EnvVars: []string{"ECLIPSEMON_CHECKPOINT_INTERVAL"},
	},
	&cli.StringFlag{
		Name:    "metrics-addr",
		Usage:   "Listen address for /metrics and /health; empty disables",
		EnvVars: []string{"ECLIPSEMON_METRICS_ADDR"},
	},
	&cli.StringFlag{
		Name:    "redis-addr",
		Usage:   "Redis address for event and heartbeat publishing",
		EnvVars: []string{"ECLIPSEMON_REDIS_ADDR"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level: debug, info, warn or error",
		EnvVars: []string{"ECLIPSEMON_LOG_LEVEL"},
	},
	&cli.StringFlag{
		Name:    "log-format",
		Usage:   "Log format: json or text",
		EnvVars: []string{"ECLIPSEMON_LOG_FORMAT"},
	},
}

// buildConfig loads the config file, if any, and applies the flags set on
// the command line.
func buildConfig(c *cli.Context) (node.Config, error) {
	cfg := node.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = node.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("rpc-url") {
		cfg.Host.URL = c.String("rpc-url")
	}
	if c.IsSet("rpc-api") {
		cfg.Host.API = c.String("rpc-api")
	}
	if c.IsSet("network") {
		cfg.Monitor.Network = c.String("network")
	}
	if c.IsSet("start-block") {
		cfg.Monitor.StartBlock = c.Uint64("start-block")
	}
	if c.IsSet("checkpoint-interval") {
		cfg.Monitor.CheckpointInterval = c.Uint64("checkpoint-interval")
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if c.IsSet("redis-addr") {
		cfg.Redis.Addr = c.String("redis-addr")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	return cfg, nil
}

func writeConfig(w io.Writer, cfg node.Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
