package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/eth2030/eclipsemonitor/consensus"
	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/events"
	"github.com/eth2030/eclipsemonitor/geth"
	"github.com/eth2030/eclipsemonitor/log"
	"github.com/eth2030/eclipsemonitor/metrics"
	"github.com/eth2030/eclipsemonitor/monitor"
	"github.com/eth2030/eclipsemonitor/notify"
)

// Node owns the monitor and the services around it.
type Node struct {
	cfg Config
	log *log.Logger

	registry  *prometheus.Registry
	monitor   *monitor.Monitor
	feeder    *Feeder
	heartbeat *Heartbeat
	server    *metrics.Server
	health    *HealthChecker
	sink      notify.Sink
	closers   []func() error
}

// New validates cfg, connects to the host and, if configured, to Redis.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Discard()
	}
	api, _ := geth.ParseAPI(cfg.Host.API)
	client, err := geth.Dial(ctx, cfg.Host.URL, api, cfg.Host.Timeout.Duration)
	if err != nil {
		return nil, err
	}
	sinks := notify.Fanout{notify.NewLogSink(logger)}
	if cfg.Redis.Addr != "" {
		rs, err := notify.NewRedisSink(ctx, notify.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, logger)
		if err != nil {
			client.Close()
			return nil, err
		}
		sinks = append(sinks, rs)
	}
	bridge := geth.NewRetrying(client, cfg.RetryConfig(CryptoRandom{}), logger)
	n, err := newNode(cfg, bridge, sinks, consensus.SystemClock{}, logger)
	if err != nil {
		client.Close()
		sinks.Close()
		return nil, err
	}
	n.closers = append(n.closers, func() error { client.Close(); return nil })
	return n, nil
}

// newNode wires the services around an already connected host and sink.
func newNode(cfg Config, host geth.Bridge, sink notify.Sink, clock consensus.Clock, logger *log.Logger) (*Node, error) {
	if logger == nil {
		logger = log.Discard()
	}
	mcfg, err := cfg.MonitorConfig()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	met, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	mon, err := monitor.New(mcfg, monitor.Deps{Host: host, Clock: clock, Logger: logger, Metrics: met})
	if err != nil {
		return nil, err
	}

	n := &Node{
		cfg:      cfg,
		log:      logger.Module("node"),
		registry: reg,
		monitor:  mon,
		health:   NewHealthChecker(),
		sink:     sink,
		closers:  []func() error{sink.Close},
	}
	n.feeder = NewFeeder(host, mon, FeederConfig{
		Start:        mcfg.StartBlock,
		Concurrency:  cfg.Host.Concurrency,
		Batch:        cfg.Host.Batch,
		PollInterval: cfg.Host.PollInterval.Duration,
		RetryDelay:   cfg.Host.RetryBase.Duration,
	}, logger)
	if cfg.Heartbeat.Spec != "" {
		if n.heartbeat, err = NewHeartbeat(cfg.Heartbeat.Spec, mon, sink, logger); err != nil {
			return nil, fmt.Errorf("node: heartbeat: %w", err)
		}
	}
	if cfg.Metrics.Addr != "" {
		n.server = metrics.NewServer(cfg.Metrics.Addr, reg, n.health.Serve)
	}
	n.health.Register("monitor", monitorCheck(mon, n.feeder))
	n.health.Register("feeder", feederCheck(n.feeder, cfg.Host.StallAfter.Duration, time.Now))

	for _, sc := range cfg.Subscriptions {
		if _, err := n.subscribe(sc); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// subscribe registers sc with the monitor. Matches are published to the
// sink; a failed publish is logged and does not cancel the listener.
func (n *Node) subscribe(sc SubscriptionConfig) (events.ListenerID, error) {
	d, err := sc.description()
	if err != nil {
		return 0, fmt.Errorf("node: subscription %q: %w", sc.Name, err)
	}
	name := sc.Name
	d.Callback = func(hdr *types.HeaderRecord, l *types.Log, id events.ListenerID) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.sink.PublishEvent(ctx, notify.NewEvent(name, hdr, l, id)); err != nil {
			n.log.Warn("event publish failed", "subscription", name, "number", hdr.Number(), "err", err)
		}
		return nil
	}
	id, err := n.monitor.Listen(d)
	if err != nil {
		return 0, fmt.Errorf("node: subscription %q: %w", name, err)
	}
	n.log.Info("subscription registered", "name", name, "id", id, "address", d.Address.Hex())
	return id, nil
}

// Monitor returns the monitor.
func (n *Node) Monitor() *monitor.Monitor { return n.monitor }

// Health returns the current health report.
func (n *Node) Health() *HealthReport { return n.health.CheckAll() }

// Run supervises the feeder, the heartbeat and the metrics server until ctx
// is cancelled or one of them fails.
func (n *Node) Run(ctx context.Context) error {
	n.log.Info("node starting", "network", n.cfg.Monitor.Network, "start", n.cfg.Monitor.StartBlock,
		"host", n.cfg.Host.URL, "subscriptions", len(n.cfg.Subscriptions))
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.feeder.Run(ctx) })
	if n.heartbeat != nil {
		g.Go(func() error { return n.heartbeat.Run(ctx) })
	}
	if n.server != nil {
		g.Go(func() error { return n.server.Run(ctx) })
	}
	err := g.Wait()
	s := n.monitor.Status()
	n.log.Info("node stopped", "phase", s.Phase, "last", s.LastNumber, "iteration", s.SecState.CheckpointIteration)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the host connection and the sinks.
func (n *Node) Close() error {
	var errs []error
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs = append(errs, n.closers[i]())
	}
	return errors.Join(errs...)
}
