// Package events delivers logs from validated blocks to registered
// listeners. Receipts come from the untrusted host and are only used after
// their Merkle-Patricia root matches the header.
package events

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/log"
	"github.com/eth2030/eclipsemonitor/metrics"
)

type listener struct {
	id        ListenerID
	desc      Description
	cancelled atomic.Bool
}

// Manager owns the listener table. Listen and Cancel may be called from any
// goroutine, including from inside a callback, and never wait for an
// in-flight CheckEvents. CheckEvents itself must not run concurrently with
// another CheckEvents; the monitor serializes it under its own lock.
type Manager struct {
	lastID    atomic.Uint64
	listeners *xsync.Map[ListenerID, *listener]

	log     *log.Logger
	metrics *metrics.Metrics
}

// NewManager creates an empty manager. m may be nil.
func NewManager(logger *log.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		listeners: xsync.NewMap[ListenerID, *listener](),
		log:       logger.Module("events"),
		metrics:   m,
	}
}

// Listen registers d and returns its id.
func (m *Manager) Listen(d Description) (ListenerID, error) {
	if err := d.validate(); err != nil {
		return 0, err
	}
	d.Topics = slices.Clone(d.Topics)
	l := &listener{id: ListenerID(m.lastID.Add(1)), desc: d}
	m.listeners.Store(l.id, l)
	m.log.Debug("listener registered", "id", l.id, "address", d.Address.Hex(), "topics", len(d.Topics), "mode", d.Mode)
	return l.id, nil
}

// Cancel deactivates a listener. The callback is never invoked again once
// Cancel returns, even for logs of the block currently being processed.
// It reports whether the listener was active.
func (m *Manager) Cancel(id ListenerID) bool {
	l, ok := m.listeners.LoadAndDelete(id)
	if !ok {
		return false
	}
	l.cancelled.Store(true)
	return true
}

// Len returns the number of active listeners.
func (m *Manager) Len() int { return m.listeners.Size() }

// candidates returns the active listeners whose address and topics pass the
// header bloom, in id order.
func (m *Manager) candidates(bloom types.Bloom) []*listener {
	var out []*listener
	m.listeners.Range(func(_ ListenerID, l *listener) bool {
		if !l.cancelled.Load() && l.desc.mayMatch(bloom) {
			out = append(out, l)
		}
		return true
	})
	slices.SortFunc(out, func(a, b *listener) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}

// CheckEvents delivers the logs of a validated header to the listeners that
// match them. Receipts are fetched only when some listener may match the
// header bloom, and callbacks only run after the receipts root has been
// verified. Logs are visited in block order and, for each log, listeners in
// id order.
//
// A failing or panicking callback cancels its listener; the remaining
// callbacks still run and the failures are returned as one *ListenerError.
func (m *Manager) CheckEvents(ctx context.Context, hdr *types.HeaderRecord, provider ReceiptsProvider) error {
	active := m.candidates(hdr.Bloom())
	if len(active) == 0 {
		return nil
	}

	raw, err := provider.ReceiptsByNumber(ctx, hdr.Number())
	if err != nil {
		return &HostUnavailableError{Op: fmt.Sprintf("receipts of block %d", hdr.Number()), Err: err}
	}
	m.metrics.ReceiptsFetched()

	view, err := NewReceiptsView(hdr, raw)
	if err != nil {
		return err
	}
	if err := view.Verify(hdr); err != nil {
		m.metrics.IntegrityFailure()
		m.log.Error("receipts rejected", "number", hdr.Number(), "err", err)
		return err
	}

	var failures []ListenerFailure
	for _, lg := range view.Logs {
		for _, l := range active {
			if l.cancelled.Load() || !l.desc.matches(lg) {
				continue
			}
			if err := m.invoke(hdr, lg, l); err != nil {
				m.Cancel(l.id)
				m.metrics.ListenerError()
				m.log.Warn("listener cancelled", "id", l.id, "number", hdr.Number(), "log", lg.Index, "err", err)
				failures = append(failures, ListenerFailure{ID: l.id, LogIndex: lg.Index, Err: err})
			}
		}
	}
	if len(failures) > 0 {
		return &ListenerError{Number: hdr.Number(), Failures: failures}
	}
	return nil
}

// invoke runs one callback, turning a panic into an error.
func (m *Manager) invoke(hdr *types.HeaderRecord, lg *types.Log, l *listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	m.metrics.EventDelivered()
	return l.desc.Callback(hdr, lg, l.id)
}
