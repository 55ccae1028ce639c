package config

import "errors"

// ErrInvalid wraps the aggregated validation failures returned by Load.
var ErrInvalid = errors.New("config: invalid configuration")
