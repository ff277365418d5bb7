package backend

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/ccaven/lunch/engine/shader"
)

var (
	// ErrCompile matches every *CompileError.
	ErrCompile = errors.New("backend: shader compilation failed")

	// ErrLink matches every *LinkError.
	ErrLink = errors.New("backend: program link failed")

	// ErrUnsupportedCapability is returned when an operation needs an optional capability
	// the backend does not implement.
	ErrUnsupportedCapability = errors.New("backend: capability not supported")
)

// CompileError reports a failed shader compilation together with the backend's info log.
type CompileError struct {
	Stage shader.Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("backend: %s shader compilation failed: %s", e.Stage, e.Log)
}

// Is makes errors.Is(err, ErrCompile) hold for every CompileError.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompile
}

// LinkError reports a failed program link together with the backend's info log.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return "backend: program link failed: " + e.Log
}

// Is makes errors.Is(err, ErrLink) hold for every LinkError.
func (e *LinkError) Is(target error) bool {
	return target == ErrLink
}
