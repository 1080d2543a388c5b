package monitor

import "fmt"

// Phase is the monitor's position in the bootstrap sequence. Phases only
// move forward.
type Phase uint8

const (
	BootstrapI Phase = iota
	BootstrapII
	Sync
	Runtime
)

func (p Phase) String() string {
	switch p {
	case BootstrapI:
		return "bootstrap-i"
	case BootstrapII:
		return "bootstrap-ii"
	case Sync:
		return "sync"
	case Runtime:
		return "runtime"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}
