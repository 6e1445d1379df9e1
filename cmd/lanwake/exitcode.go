package main

import (
	"errors"

	"github.com/fgeck/lanwake/internal/config"
	"github.com/fgeck/lanwake/internal/hosts"
	"github.com/fgeck/lanwake/internal/mac"
	"github.com/fgeck/lanwake/internal/services/runner"
	"github.com/fgeck/lanwake/internal/services/wol"
)

// Process exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitConfig     = 3
	exitInvalidMAC = 4
	exitLookup     = 5
	exitTransport  = 6
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, runner.ErrUsage):
		return exitUsage
	case errors.Is(err, config.ErrLoad), errors.Is(err, hosts.ErrLoad):
		return exitConfig
	case errors.Is(err, mac.ErrInvalidFormat), errors.Is(err, wol.ErrInvalidArgument):
		return exitInvalidMAC
	case errors.Is(err, hosts.ErrNotFound), errors.Is(err, hosts.ErrInvalidRange):
		return exitLookup
	case errors.Is(err, wol.ErrTransport):
		return exitTransport
	default:
		return exitFailure
	}
}
