package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerCounts(t *testing.T) {
	p := NewProfiler(WithInterval(time.Hour))

	p.RecordUpload()
	p.RecordUpload()
	p.RecordError()
	assert.False(t, p.Tick())

	assert.Equal(t, Stats{Frames: 1, Uploads: 2, Errors: 1}, p.Snapshot())
}

func TestProfilerReports(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := NewProfiler(WithInterval(0), WithLogger(logger))

	p.RecordUpload()
	p.RecordError()
	assert.True(t, p.Tick())

	out := buf.String()
	assert.Contains(t, out, "msg=profiler")
	assert.Contains(t, out, "dispatch_errors=1")
	assert.Contains(t, out, "uploads_per_sec=")
	assert.Equal(t, Stats{}, p.Snapshot())
}
