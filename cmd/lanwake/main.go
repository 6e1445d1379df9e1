// Package main is the entry point for lanwake.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	args, err := translateLegacyArgs(os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("wrong options provided")
		os.Exit(exitCode(err))
	}

	if err := Execute(args); err != nil {
		os.Exit(exitCode(err))
	}
}
