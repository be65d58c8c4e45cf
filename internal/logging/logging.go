// Package logging configures the process-wide logger for a faultsim
// run. Everything in the simulator logs through slog: tick boundaries
// at debug level, fault injection and run completion at info. The CSV
// outputs never go through the logger.
package logging

import (
	"log/slog"
	"os"
)

// Configure installs a text handler on stderr as the slog default.
// With debug set, the executor's per-tick logging becomes visible;
// otherwise a run logs only fault injection and completion.
func Configure(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}
