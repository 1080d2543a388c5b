package monitor

// Effect is a side effect the monitor performs for an accepted header.
type Effect uint8

const (
	// EffectCheckEvents delivers the header's logs to listeners. It runs
	// before the header is committed.
	EffectCheckEvents Effect = iota
	// EffectReplan queries the host tip and re-derives the bootstrap plan.
	EffectReplan
	// EffectLogStatus logs the security state after a checkpoint.
	EffectLogStatus
)

func (e Effect) String() string {
	switch e {
	case EffectCheckEvents:
		return "check-events"
	case EffectReplan:
		return "replan"
	case EffectLogStatus:
		return "log-status"
	default:
		return "unknown"
	}
}

// phaseMachine decides effects and transitions from the current phase and
// plan. It does no I/O.
type phaseMachine struct {
	phase        Phase
	planner      *bootstrapPlanner
	statusStride uint64
}

func newPhaseMachine(planner *bootstrapPlanner, statusStride uint64) *phaseMachine {
	return &phaseMachine{phase: BootstrapI, planner: planner, statusStride: statusStride}
}

// effects returns, in execution order, the effects for accepting header
// num. checkpoint is set when num completes a checkpoint whose iteration
// will be iteration.
func (pm *phaseMachine) effects(num uint64, checkpoint bool, iteration uint64) []Effect {
	out := []Effect{EffectCheckEvents}
	switch pm.phase {
	case BootstrapI:
		if num >= pm.planner.plan.End {
			out = append(out, EffectReplan)
		}
	case BootstrapII, Sync:
		out = append(out, EffectReplan)
	}
	if checkpoint && (pm.phase != BootstrapI || iteration%pm.statusStride == 0) {
		out = append(out, EffectLogStatus)
	}
	return out
}

// transition advances the phase after header num was committed and, when
// requested, replanned. Entering Sync needs a fresh tip, supplied by tip.
// It returns the phases entered, in order.
func (pm *phaseMachine) transition(num uint64, tip func() (uint64, error)) ([]Phase, error) {
	var entered []Phase
	switch pm.phase {
	case BootstrapI:
		if num >= pm.planner.plan.End {
			pm.phase = BootstrapII
			entered = append(entered, BootstrapII)
		}
		return entered, nil
	case BootstrapII:
		if num < pm.planner.plan.Sync {
			return nil, nil
		}
		pm.phase = Sync
		entered = append(entered, Sync)
		latest, err := tip()
		if err != nil {
			return entered, err
		}
		pm.planner.replan(Sync, latest)
	case Runtime:
		return nil, nil
	}
	if pm.phase == Sync && pm.planner.plan.Sync <= num {
		pm.phase = Runtime
		entered = append(entered, Runtime)
	}
	return entered, nil
}
