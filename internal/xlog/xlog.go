// Package xlog builds the process's hclog.Logger, the sink for every
// progress and diagnostic line the driver emits. Console output needs
// one write path serializing stderr so progress and error lines are not
// interleaved; hclog.Logger already serializes writes to its Output
// internally, so no separate mutex is needed here. Grounded on
// hashicorp-nomad's hclog.New(&hclog.LoggerOptions{...}) construction
// (e.g. client/driver/executor/executor_test.go).
package xlog

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Config controls the root logger's construction.
type Config struct {
	// Name prefixes every log line, e.g. "abductio".
	Name string
	// Level is parsed with hclog.LevelFromString; an empty or
	// unrecognized value falls back to hclog.Info.
	Level string
	// JSON requests hclog's structured JSON output, used when the CLI's
	// -f json flag is set.
	JSON bool
	// Output defaults to os.Stderr, matching the original's "progress
	// and error lines" on stderr.
	Output io.Writer
}

// New builds the root logger for cfg.
func New(cfg Config) hclog.Logger {
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       cfg.Name,
		Level:      level,
		Output:     out,
		JSONFormat: cfg.JSON,
	})
}

// ForPhase returns a logger scoped to one of the driver's named phases
// (metrics.PhaseCompile/PhaseEnumerate/PhaseILP/PhaseSolve), so every
// line it emits carries the phase name as a segment of the logger name.
func ForPhase(root hclog.Logger, phase string) hclog.Logger {
	return root.Named(phase)
}
