package node

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/eth2030/eclipsemonitor/monitor"
)

// Status constants.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// SubsystemHealth describes the health of a single subsystem.
type SubsystemHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthReport is the aggregate result of checking all subsystems.
type HealthReport struct {
	// OverallStatus is the worst subsystem status.
	OverallStatus string             `json:"status"`
	Subsystems    []*SubsystemHealth `json:"subsystems"`
	CheckedAt     int64              `json:"checkedAt"`
	Uptime        int64              `json:"uptime"`
}

// CheckFunc reports the health of one subsystem.
type CheckFunc func() *SubsystemHealth

// HealthChecker aggregates registered subsystem checks. All methods are
// safe for concurrent use.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	order     []string
	startTime time.Time
	now       func() time.Time
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]CheckFunc), startTime: time.Now(), now: time.Now}
}

// Register adds or replaces the check for name.
func (hc *HealthChecker) Register(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	if _, ok := hc.checks[name]; !ok {
		hc.order = append(hc.order, name)
	}
	hc.checks[name] = check
}

// CheckAll runs every check in registration order.
func (hc *HealthChecker) CheckAll() *HealthReport {
	hc.mu.RLock()
	names := append([]string(nil), hc.order...)
	checks := make([]CheckFunc, len(names))
	for i, n := range names {
		checks[i] = hc.checks[n]
	}
	hc.mu.RUnlock()

	now := hc.now()
	report := &HealthReport{
		OverallStatus: StatusHealthy,
		CheckedAt:     now.Unix(),
		Uptime:        int64(now.Sub(hc.startTime).Seconds()),
	}
	for i, check := range checks {
		h := check()
		if h == nil {
			h = &SubsystemHealth{Status: StatusUnhealthy}
		}
		h.Name = names[i]
		report.Subsystems = append(report.Subsystems, h)
		switch h.Status {
		case StatusUnhealthy:
			report.OverallStatus = StatusUnhealthy
		case StatusDegraded:
			if report.OverallStatus != StatusUnhealthy {
				report.OverallStatus = StatusDegraded
			}
		}
	}
	return report
}

// Serve renders the report for the metrics server's /health endpoint. A
// degraded node is still reported as up.
func (hc *HealthChecker) Serve() (bool, []byte) {
	report := hc.CheckAll()
	body, err := json.Marshal(report)
	if err != nil {
		body = []byte(report.OverallStatus)
	}
	return report.OverallStatus != StatusUnhealthy, body
}

// feederCheck is degraded when no header was accepted within stallAfter.
func feederCheck(f *Feeder, stallAfter time.Duration, now func() time.Time) CheckFunc {
	return func() *SubsystemHealth {
		idle := now().Sub(f.LastProgress())
		if stallAfter > 0 && idle > stallAfter {
			return &SubsystemHealth{Status: StatusDegraded, Message: fmt.Sprintf("no header accepted for %s", idle.Round(time.Second))}
		}
		return &SubsystemHealth{Status: StatusHealthy}
	}
}

// monitorCheck is degraded until the monitor reaches runtime.
func monitorCheck(status StatusSource, f *Feeder) CheckFunc {
	return func() *SubsystemHealth {
		s := status.Status()
		msg := fmt.Sprintf("phase %s, block %d of %d", s.Phase, s.LastNumber, f.HostTip())
		if s.Phase != monitor.Runtime {
			return &SubsystemHealth{Status: StatusDegraded, Message: msg}
		}
		return &SubsystemHealth{Status: StatusHealthy, Message: msg}
	}
}
