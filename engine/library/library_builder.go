package library

import (
	"log/slog"

	"github.com/ccaven/lunch/engine/program"
)

type LibraryBuilderOption func(*library)

// WithWorkers sets the maximum number of workers loading sources in parallel.
// Defaults to runtime.NumCPU().
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - LibraryBuilderOption: a function that sets the worker count
func WithWorkers(n int) LibraryBuilderOption {
	return func(l *library) {
		l.workers = max(n, 1)
	}
}

// WithLogger sets the logger used by the library and the programs it builds.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - LibraryBuilderOption: a function that sets the library's logger
func WithLogger(logger *slog.Logger) LibraryBuilderOption {
	return func(l *library) {
		l.logger = logger
	}
}

// WithProgramOptions sets extra options applied to every program the library builds,
// e.g. program.WithProfiler.
//
// Parameters:
//   - options: the program options
//
// Returns:
//   - LibraryBuilderOption: a function that sets the program options
func WithProgramOptions(options ...program.ProgramBuilderOption) LibraryBuilderOption {
	return func(l *library) {
		l.programOptions = append(l.programOptions, options...)
	}
}
