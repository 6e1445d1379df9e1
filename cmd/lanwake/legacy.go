package main

import (
	"fmt"
	"strings"

	"github.com/fgeck/lanwake/internal/services/runner"
)

// legacyModes maps the old single-argument flags to subcommands.
var legacyModes = map[string]string{
	"-all":    "all",
	"-single": "single",
	"-range":  "range",
}

// translateLegacyArgs rewrites "lanwake -all|-single|-range" (any case) to
// the matching subcommand. A legacy flag combined with anything else is a
// usage error. Other arguments are returned unchanged.
func translateLegacyArgs(args []string) ([]string, error) {
	for _, arg := range args {
		mode, ok := legacyModes[strings.ToLower(arg)]
		if !ok {
			continue
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %s must be the only argument; valid arguments are -all, -single, -range", runner.ErrUsage, arg)
		}
		return []string{mode}, nil
	}
	return args, nil
}
