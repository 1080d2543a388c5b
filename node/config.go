// Package node runs the eclipse monitor as a daemon: it loads the
// configuration, connects to the host node, feeds headers to the monitor
// and publishes events and heartbeats.
package node

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/robfig/cron/v3"

	"github.com/eth2030/eclipsemonitor/core"
	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/events"
	"github.com/eth2030/eclipsemonitor/geth"
	"github.com/eth2030/eclipsemonitor/log"
	"github.com/eth2030/eclipsemonitor/monitor"
)

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Config is the daemon configuration.
type Config struct {
	Log           LogConfig            `toml:"log"`
	Monitor       MonitorConfig        `toml:"monitor"`
	Host          HostConfig           `toml:"host"`
	Metrics       MetricsConfig        `toml:"metrics"`
	Heartbeat     HeartbeatConfig      `toml:"heartbeat"`
	Redis         RedisConfig          `toml:"redis"`
	Subscriptions []SubscriptionConfig `toml:"subscription"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MonitorConfig mirrors monitor.Config. Zero values take the network
// defaults.
type MonitorConfig struct {
	Network             string `toml:"network"`
	GenesisHash         string `toml:"genesis_hash"`
	StartBlock          uint64 `toml:"start_block"`
	CheckpointInterval  uint64 `toml:"checkpoint_interval"`
	MaxFutureSkew       uint64 `toml:"max_future_skew"`
	EstimateInterval    uint64 `toml:"estimate_interval"`
	MinDiffPercent      uint8  `toml:"min_diff_percent"`
	MaxWaitTime         uint64 `toml:"max_wait_time"`
	StatusStride        uint64 `toml:"status_stride"`
	MaxBootstrapReplans uint64 `toml:"max_bootstrap_replans"`
}

type HostConfig struct {
	URL          string   `toml:"url"`
	API          string   `toml:"api"`
	Timeout      Duration `toml:"timeout"`
	Retries      int      `toml:"retries"`
	RetryBase    Duration `toml:"retry_base"`
	RetryMax     Duration `toml:"retry_max"`
	Concurrency  int      `toml:"concurrency"`
	Batch        int      `toml:"batch"`
	PollInterval Duration `toml:"poll_interval"`
	// StallAfter marks the feeder degraded when no header was accepted for
	// this long.
	StallAfter Duration `toml:"stall_after"`
}

type MetricsConfig struct {
	// Addr is the listen address; empty disables the server.
	Addr string `toml:"addr"`
}

type HeartbeatConfig struct {
	// Spec is a cron spec; empty disables the heartbeat.
	Spec string `toml:"spec"`
}

type RedisConfig struct {
	// Addr is host:port; empty disables the Redis sink.
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

type SubscriptionConfig struct {
	Name    string   `toml:"name"`
	Address string   `toml:"address"`
	Topics  []string `toml:"topics"`
	Match   string   `toml:"match"`
}

// DefaultConfig returns a mainnet configuration without a host URL.
func DefaultConfig() Config {
	retry := geth.DefaultRetryConfig()
	return Config{
		Log:     LogConfig{Level: "info", Format: log.FormatJSON},
		Monitor: MonitorConfig{Network: core.Mainnet.String()},
		Host: HostConfig{
			API:          string(geth.APIDebug),
			Timeout:      Duration{geth.DefaultTimeout},
			Retries:      retry.Attempts,
			RetryBase:    Duration{retry.BaseDelay},
			RetryMax:     Duration{retry.MaxDelay},
			Concurrency:  8,
			Batch:        64,
			PollInterval: Duration{4 * time.Second},
			StallAfter:   Duration{5 * time.Minute},
		},
		Metrics:   MetricsConfig{Addr: ":9090"},
		Heartbeat: HeartbeatConfig{Spec: "@every 30s"},
		Redis:     RedisConfig{Channel: "eclipsemon"},
	}
}

// LoadConfig overlays the TOML file at path on DefaultConfig. Unknown keys
// are an error. The result is not validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != log.FormatJSON && c.Log.Format != log.FormatText {
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.Log.Format))
	}
	if _, err := c.MonitorConfig(); err != nil {
		errs = append(errs, err)
	}
	if c.Host.URL == "" {
		errs = append(errs, errors.New("config: host url must not be empty"))
	}
	if _, err := geth.ParseAPI(c.Host.API); err != nil {
		errs = append(errs, err)
	}
	if c.Host.Concurrency < 1 || c.Host.Batch < 1 {
		errs = append(errs, fmt.Errorf("config: host concurrency and batch must be positive, got %d and %d",
			c.Host.Concurrency, c.Host.Batch))
	}
	if c.Host.PollInterval.Duration <= 0 {
		errs = append(errs, errors.New("config: host poll interval must be positive"))
	}
	if c.Heartbeat.Spec != "" {
		if _, err := cron.ParseStandard(c.Heartbeat.Spec); err != nil {
			errs = append(errs, fmt.Errorf("config: heartbeat spec: %w", err))
		}
	}
	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		errs = append(errs, errors.New("config: redis channel must not be empty"))
	}
	names := make([]string, 0, len(c.Subscriptions))
	for i := range c.Subscriptions {
		s := &c.Subscriptions[i]
		if _, err := s.description(); err != nil {
			errs = append(errs, fmt.Errorf("config: subscription %d: %w", i, err))
		}
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("config: subscription %d has no name", i))
		} else if slices.Contains(names, s.Name) {
			errs = append(errs, fmt.Errorf("config: duplicate subscription %q", s.Name))
		}
		names = append(names, s.Name)
	}
	return errors.Join(errs...)
}

// MonitorConfig builds the monitor configuration.
func (c *Config) MonitorConfig() (monitor.Config, error) {
	network, err := core.ParseNetwork(c.Monitor.Network)
	if err != nil {
		return monitor.Config{}, err
	}
	mc := monitor.DefaultConfig(network)
	mc.StartBlock = c.Monitor.StartBlock
	if c.Monitor.GenesisHash != "" {
		h, err := parseHash(c.Monitor.GenesisHash)
		if err != nil {
			return mc, fmt.Errorf("config: genesis hash: %w", err)
		}
		mc.GenesisHash = &h
	}
	setIfNonZero(&mc.CheckpointInterval, c.Monitor.CheckpointInterval)
	setIfNonZero(&mc.MaxFutureSkew, c.Monitor.MaxFutureSkew)
	setIfNonZero(&mc.EstimateInterval, c.Monitor.EstimateInterval)
	setIfNonZero(&mc.MinDiffPercent, c.Monitor.MinDiffPercent)
	setIfNonZero(&mc.MaxWaitTime, c.Monitor.MaxWaitTime)
	setIfNonZero(&mc.StatusStride, c.Monitor.StatusStride)
	setIfNonZero(&mc.MaxBootstrapReplans, c.Monitor.MaxBootstrapReplans)
	return mc, mc.Validate()
}

// RetryConfig builds the host retry policy.
func (c *Config) RetryConfig(rs RandomSource) geth.RetryConfig {
	return geth.RetryConfig{
		Attempts:  c.Host.Retries,
		BaseDelay: c.Host.RetryBase.Duration,
		MaxDelay:  c.Host.RetryMax.Duration,
		Jitter:    Jitter(rs),
	}
}

func setIfNonZero[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// description parses the subscription without a callback.
func (s *SubscriptionConfig) description() (events.Description, error) {
	var d events.Description
	addr, err := hexutil.Decode(s.Address)
	if err != nil || len(addr) != types.AddressLength {
		return d, fmt.Errorf("invalid address %q", s.Address)
	}
	d.Address = types.BytesToAddress(addr)
	if len(s.Topics) > types.MaxTopicsPerLog {
		return d, fmt.Errorf("%w: %d", events.ErrTooManyTopics, len(s.Topics))
	}
	for _, t := range s.Topics {
		h, err := parseHash(t)
		if err != nil {
			return d, fmt.Errorf("topic %q: %w", t, err)
		}
		d.Topics = append(d.Topics, h)
	}
	if d.Mode, err = events.ParseMatchMode(s.Match); err != nil {
		return d, err
	}
	return d, nil
}

func parseHash(s string) (types.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return types.Hash{}, err
	}
	if len(b) != types.HashLength {
		return types.Hash{}, fmt.Errorf("want %d bytes, got %d", types.HashLength, len(b))
	}
	return types.BytesToHash(b), nil
}
