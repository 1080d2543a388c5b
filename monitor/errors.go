package monitor

import "errors"

var (
	ErrNotStartBlock   = errors.New("monitor: first header is not the start block")
	ErrGenesisMismatch = errors.New("monitor: first header does not match the pinned genesis")
	ErrNoHost          = errors.New("monitor: host is required")
)
