package monitor

// bootstrapPlan is where bootstrap I ends and which block sync waits for.
type bootstrapPlan struct {
	Start uint64
	End   uint64
	Sync  uint64
}

// planEnd leaves the last two full checkpoint windows before latest to
// bootstrap II, keeping at least one window in bootstrap I.
func planEnd(start, latest, interval uint64) uint64 {
	var windows uint64
	if latest >= start {
		windows = (latest - start + 1) / interval
	}
	n := uint64(1)
	if windows > 2 {
		n = windows - 2
	}
	return start + n*interval - 1
}

// replanResult describes one replan for logging and metrics.
type replanResult struct {
	Prev, Next bootstrapPlan
	Latest     uint64
	// Decreased is set when the host reported a lower tip than before; the
	// previous plan is kept.
	Decreased bool
	// Escalated is set once end-moving replans exceed the configured bound.
	Escalated bool
}

func (r replanResult) changed() bool { return r.Prev != r.Next }

type bootstrapPlanner struct {
	interval   uint64
	maxReplans uint64

	plan    bootstrapPlan
	latest  uint64
	replans uint64
}

func newBootstrapPlanner(interval, maxReplans uint64) *bootstrapPlanner {
	return &bootstrapPlanner{interval: interval, maxReplans: maxReplans}
}

// init derives the first plan.
func (p *bootstrapPlanner) init(start, latest uint64) bootstrapPlan {
	p.latest = latest
	p.plan = bootstrapPlan{Start: start, End: planEnd(start, latest, p.interval), Sync: latest}
	return p.plan
}

// replan re-derives the plan from a new host tip. During bootstrap I the end
// and the sync target move; afterwards only the sync target does.
func (p *bootstrapPlanner) replan(phase Phase, latest uint64) replanResult {
	res := replanResult{Prev: p.plan, Latest: latest}
	if latest < p.latest {
		res.Decreased = true
		res.Next = p.plan
		return res
	}
	p.latest = latest
	if phase == BootstrapI {
		p.plan.End = planEnd(p.plan.Start, latest, p.interval)
		if p.plan.End != res.Prev.End {
			p.replans++
			res.Escalated = p.maxReplans > 0 && p.replans > p.maxReplans
		}
	}
	p.plan.Sync = latest
	res.Next = p.plan
	return res
}
