package program

import (
	"log/slog"

	"github.com/ccaven/lunch/engine/profiler"
)

type ProgramBuilderOption func(*program)

// WithKey sets the program's identifier. Defaults to "<vertex key>+<fragment key>".
//
// Parameters:
//   - key: the identifier used in logs and errors
//
// Returns:
//   - ProgramBuilderOption: a function that sets the program's key
func WithKey(key string) ProgramBuilderOption {
	return func(p *program) {
		p.key = key
	}
}

// WithLogger sets the logger the program reports links, reloads and skipped uploads to.
// Defaults to common.Logger().
//
// Parameters:
//   - l: the logger to use
//
// Returns:
//   - ProgramBuilderOption: a function that sets the program's logger
func WithLogger(l *slog.Logger) ProgramBuilderOption {
	return func(p *program) {
		p.logger = l
	}
}

// WithProfiler makes the program count its uniform uploads and dispatch errors on prof.
//
// Parameters:
//   - prof: the profiler to report to
//
// Returns:
//   - ProgramBuilderOption: a function that attaches the profiler
func WithProfiler(prof *profiler.Profiler) ProgramBuilderOption {
	return func(p *program) {
		p.profiler = prof
	}
}

// WithoutVertexArray stops the program from creating its own vertex array on backends that
// support them, for hosts that manage vertex arrays themselves.
//
// Returns:
//   - ProgramBuilderOption: a function that disables the owned vertex array
func WithoutVertexArray() ProgramBuilderOption {
	return func(p *program) {
		p.noVertexArray = true
	}
}
