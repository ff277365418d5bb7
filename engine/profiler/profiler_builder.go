package profiler

import (
	"log/slog"
	"time"
)

type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often Tick reports statistics.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the reporting interval
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithLogger sets the logger statistics are reported to.
//
// Parameters:
//   - l: the logger to use
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the profiler's logger
func WithLogger(l *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = l
	}
}
