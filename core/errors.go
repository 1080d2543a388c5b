package core

import "errors"

var ErrUnknownNetwork = errors.New("core: unknown network")
