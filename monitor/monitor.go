// Package monitor tracks an Ethereum chain fed header by header from an
// untrusted host. It validates linkage and consensus rules, keeps a
// checkpointed security state, walks the bootstrap phases up to the chain
// tip and delivers logs of accepted blocks to listeners.
package monitor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/eth2030/eclipsemonitor/consensus"
	"github.com/eth2030/eclipsemonitor/core"
	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/events"
	"github.com/eth2030/eclipsemonitor/log"
	"github.com/eth2030/eclipsemonitor/metrics"
)

// Host is the untrusted node the monitor queries.
type Host interface {
	events.ReceiptsProvider
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// Deps are the collaborators of a Monitor. Only Host is required.
type Deps struct {
	Host    Host
	Clock   consensus.Clock
	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// Status is a point-in-time view of the monitor.
type Status struct {
	Phase      Phase
	LastNumber uint64
	Validated  bool
	SecState   SecState
	Listeners  int
}

// Monitor is safe for concurrent use. Update is serialized; queries take a
// read lock and never observe a partially applied header.
type Monitor struct {
	cfg   Config
	chain *core.ChainConfig

	validator *consensus.Validator
	floor     *consensus.DifficultyFloor
	events    *events.Manager
	host      Host
	clock     consensus.Clock
	log       *log.Logger
	metrics   *metrics.Metrics

	mu             sync.RWMutex
	machine        *phaseMachine
	tracker        *checkpointTracker
	genesis        types.Hash
	last           *types.HeaderRecord
	lastReceivedAt uint64
}

// New creates a monitor in BootstrapI waiting for the start block.
func New(cfg Config, deps Deps) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Host == nil {
		return nil, ErrNoHost
	}
	if deps.Clock == nil {
		deps.Clock = consensus.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	chain := cfg.Network.Config()
	diff := consensus.NewDifficulty(chain, cfg.EstimateInterval)
	m := &Monitor{
		cfg:       cfg,
		chain:     chain,
		validator: consensus.NewValidator(chain, diff, deps.Clock, cfg.MaxFutureSkew),
		floor:     consensus.NewDifficultyFloor(cfg.MinDiffPercent),
		events:    events.NewManager(deps.Logger, deps.Metrics),
		host:      deps.Host,
		clock:     deps.Clock,
		log:       deps.Logger.Module("monitor"),
		metrics:   deps.Metrics,
		machine:   newPhaseMachine(newBootstrapPlanner(cfg.CheckpointInterval, cfg.MaxBootstrapReplans), cfg.StatusStride),
		tracker:   newCheckpointTracker(cfg.CheckpointInterval),
	}
	if pinned, ok := cfg.pinnedGenesis(); ok {
		m.genesis = pinned
	}
	m.metrics.SetPhase(int(BootstrapI))
	return m, nil
}

// Update offers the next raw header. On error the header is not accepted,
// except for *events.ListenerError and a replan *events.HostUnavailableError
// which are reported after the header was committed.
func (m *Monitor) Update(ctx context.Context, raw []byte) error {
	start := time.Now()
	defer func() { m.metrics.ObserveUpdate(time.Since(start)) }()

	hdr, err := types.NewHeaderRecord(raw)
	if err != nil {
		m.metrics.HeaderRejected(metrics.ReasonParse)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.NowInSeconds()
	if err := m.admit(ctx, hdr, now); err != nil {
		return m.reject(err)
	}

	num := hdr.Number()
	effects := m.machine.effects(num, m.tracker.completes(), m.tracker.iteration+1)

	var listenerErr error
	if err := m.events.CheckEvents(ctx, hdr, m.host); err != nil {
		var lerr *events.ListenerError
		if !errors.As(err, &lerr) {
			return m.reject(err)
		}
		listenerErr = err
	}

	m.commit(hdr, now)

	replanned := false
	for _, e := range effects[1:] {
		switch e {
		case EffectReplan:
			if err := m.replan(ctx); err != nil {
				return errors.Join(err, listenerErr)
			}
			replanned = true
		case EffectLogStatus:
			m.logStatus(num)
		}
	}
	if m.machine.phase != BootstrapI || replanned {
		if err := m.advance(ctx, num); err != nil {
			return errors.Join(err, listenerErr)
		}
	}
	return listenerErr
}

// admit checks hdr against the current state without modifying it.
func (m *Monitor) admit(ctx context.Context, hdr *types.HeaderRecord, now uint64) error {
	if m.last == nil {
		return m.admitFirst(ctx, hdr)
	}
	if err := m.validator.Validate(m.last, hdr); err != nil {
		return err
	}
	if m.machine.phase == Runtime && !m.chain.IsParis(hdr.Number()) {
		if err := m.floor.Check(hdr); err != nil {
			return err
		}
		if err := consensus.CheckReceiveGap(hdr.Number(), m.lastReceivedAt, now, m.cfg.MaxWaitTime); err != nil {
			return err
		}
	}
	return nil
}

// admitFirst checks the start block and derives the initial plan.
func (m *Monitor) admitFirst(ctx context.Context, hdr *types.HeaderRecord) error {
	if hdr.Number() != m.cfg.StartBlock {
		return &consensus.ValidationError{
			Kind: consensus.KindNumber, Number: hdr.Number(), Err: ErrNotStartBlock,
			Expected: m.cfg.StartBlock, Actual: hdr.Number(),
		}
	}
	if pinned, ok := m.cfg.pinnedGenesis(); ok && hdr.Hash() != pinned {
		return &consensus.ValidationError{
			Kind: consensus.KindLinkage, Number: hdr.Number(), Err: ErrGenesisMismatch,
			Expected: pinned.Hex(), Actual: hdr.Hash().Hex(),
		}
	}
	latest, err := m.host.LatestBlockNumber(ctx)
	if err != nil {
		return &events.HostUnavailableError{Op: "latest block number", Err: err}
	}
	m.metrics.SetHostLatest(latest)
	plan := m.machine.planner.init(hdr.Number(), latest)
	m.log.Info("bootstrap plan", "start", plan.Start, "latest", latest,
		"interval", m.cfg.CheckpointInterval, "end", plan.End, "sync", plan.Sync)
	return nil
}

func (m *Monitor) reject(err error) error {
	reason := metrics.ReasonValidation
	var (
		perr *types.ParseError
		herr *events.HostUnavailableError
	)
	switch {
	case errors.As(err, &perr):
		reason = metrics.ReasonParse
	case errors.As(err, &herr):
		reason = metrics.ReasonHost
	case errors.Is(err, events.ErrIntegrity):
		reason = metrics.ReasonIntegrity
	}
	m.metrics.HeaderRejected(reason)
	m.log.Warn("header rejected", "reason", reason, "err", err)
	return err
}

func (m *Monitor) commit(hdr *types.HeaderRecord, now uint64) {
	if m.last == nil {
		m.genesis = hdr.Hash()
	}
	m.last = hdr
	m.lastReceivedAt = now
	if window, ok := m.tracker.add(hdr); ok {
		if !m.chain.IsParis(hdr.Number()) {
			m.floor.Update(window)
		}
		m.metrics.SetCheckpointIteration(m.tracker.iteration)
	}
	m.metrics.HeaderValidated(hdr.Number())
}

func (m *Monitor) replan(ctx context.Context) error {
	latest, err := m.host.LatestBlockNumber(ctx)
	if err != nil {
		m.log.Warn("replan failed", "err", err)
		return &events.HostUnavailableError{Op: "latest block number", Err: err}
	}
	m.metrics.SetHostLatest(latest)
	res := m.machine.planner.replan(m.machine.phase, latest)
	switch {
	case res.Decreased:
		m.log.Warn("host tip decreased, keeping plan", "latest", latest, "previous", m.machine.planner.latest)
	case res.Escalated:
		m.log.Error("bootstrap plan keeps moving", "replans", m.machine.planner.replans,
			"bound", m.cfg.MaxBootstrapReplans, "end", res.Next.End, "latest", latest)
	case res.changed():
		m.log.Info("bootstrap replan", "latest", latest, "end", res.Next.End, "sync", res.Next.Sync)
	}
	if res.changed() || res.Escalated {
		m.metrics.Replan(res.Escalated)
	}
	return nil
}

func (m *Monitor) advance(ctx context.Context, num uint64) error {
	entered, err := m.machine.transition(num, func() (uint64, error) {
		latest, err := m.host.LatestBlockNumber(ctx)
		if err != nil {
			return 0, &events.HostUnavailableError{Op: "latest block number", Err: err}
		}
		m.metrics.SetHostLatest(latest)
		return latest, nil
	})
	for _, p := range entered {
		m.log.Info("phase changed", "phase", p, "number", num, "sync", m.machine.planner.plan.Sync)
	}
	m.metrics.SetPhase(int(m.machine.phase))
	return err
}

func (m *Monitor) logStatus(num uint64) {
	m.log.Info("checkpoint",
		"phase", m.machine.phase,
		"number", num,
		"genesis", m.genesis.Hex(),
		"checkpoint", m.tracker.hash.Hex(),
		"iteration", m.tracker.iteration,
	)
}

// SecurityState returns a copy of the current security state.
func (m *Monitor) SecurityState() SecState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.secStateLocked()
}

func (m *Monitor) secStateLocked() SecState {
	return SecState{
		GenesisHash:         m.genesis,
		CheckpointHash:      m.tracker.hash,
		CheckpointNumber:    m.tracker.checkpointNumber(),
		CheckpointIteration: m.tracker.iteration,
	}
}

// LastValidatedBlockNumber returns the minimal big-endian number of the last
// accepted header, or nil before the first one.
func (m *Monitor) LastValidatedBlockNumber() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil
	}
	return m.last.NumberBytes()
}

// LastValidated returns the last accepted block number and whether any
// header has been accepted.
func (m *Monitor) LastValidated() (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return 0, false
	}
	return m.last.Number(), true
}

// Phase returns the current phase.
func (m *Monitor) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.machine.phase
}

// Status returns a consistent snapshot of phase, progress and state.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Status{Phase: m.machine.phase, SecState: m.secStateLocked(), Listeners: m.events.Len()}
	if m.last != nil {
		s.LastNumber, s.Validated = m.last.Number(), true
	}
	return s
}

// DifficultyFloor returns the current runtime difficulty floor.
func (m *Monitor) DifficultyFloor() *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.floor.Floor()
}

// Listen registers a listener. It does not take the monitor lock, so it may
// be called from inside a callback.
func (m *Monitor) Listen(d events.Description) (events.ListenerID, error) {
	return m.events.Listen(d)
}

// Cancel removes a listener; see Listen.
func (m *Monitor) Cancel(id events.ListenerID) bool { return m.events.Cancel(id) }

// Events exposes the event manager.
func (m *Monitor) Events() *events.Manager { return m.events }
