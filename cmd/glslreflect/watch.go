package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cogentcore.org/core/base/errors"
	"github.com/ccaven/lunch/common"
	"github.com/ccaven/lunch/engine/backend/glbackend"
	"github.com/ccaven/lunch/engine/library"
	"github.com/ccaven/lunch/engine/profiler"
	"github.com/ccaven/lunch/engine/program"
	"github.com/ccaven/lunch/engine/window"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Watch builds every program of a manifest on a GL window and rebuilds programs whose sources
// change, printing their tables after each rebuild. Pressing R rebuilds every program.
func Watch(c *Config) error {
	if err := setup(c); err != nil {
		return err
	}
	dir, err := filepath.Abs(c.Dir)
	if err != nil {
		return err
	}
	fsys := os.DirFS(dir)
	manifest, err := library.LoadManifest(fsys, c.Manifest)
	if err != nil {
		return err
	}

	win, err := window.NewWindow(window.WithTitle("glslreflect: " + c.Manifest))
	if err != nil {
		return err
	}
	defer func() { errors.Log(win.Close()) }()
	b, err := glbackend.New()
	if err != nil {
		return err
	}

	prof := profiler.NewProfiler()
	lib := library.NewLibrary(fsys, manifest, library.WithProgramOptions(program.WithProfiler(prof)))
	defer func() { errors.Log(lib.Close()) }()

	// Load and build errors leave the failing programs unbuilt; fixing their sources
	// builds them on the next reload.
	errors.Log(lib.Load())
	errors.Log(lib.Build(b))
	for _, name := range lib.Names() {
		if p, ok := lib.Program(name); ok {
			errors.Log(writeProgram(os.Stdout, p))
		}
	}
	if err := lib.Watch(dir); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "watching %s for changes to %d programs\n", dir, len(manifest.Programs))

	win.SetKeyDownCallback(func(key uint32) {
		if glfw.Key(key) != glfw.KeyR {
			return
		}
		for _, spec := range manifest.Programs {
			lib.Invalidate(spec.Vertex)
		}
	})

	start := time.Now()
	win.SetUpdateCallback(func() {
		reloaded, err := lib.ApplyPending(b)
		errors.Log(err)
		for _, name := range reloaded {
			if p, ok := lib.Program(name); ok {
				errors.Log(writeProgram(os.Stdout, p))
			}
		}
		elapsed := float32(time.Since(start).Seconds())
		for _, name := range lib.Names() {
			animate(lib, name, elapsed)
		}
		prof.Tick()
	})
	win.ProcessMessages()
	return nil
}

// animate binds the program and feeds the conventional uTime uniform when it declares one.
func animate(lib library.Library, name string, elapsed float32) {
	p, ok := lib.Program(name)
	if !ok {
		return
	}
	entry, ok := p.Uniforms().Get("uTime")
	if !ok || entry.GLSLType != "float" {
		return
	}
	if err := p.SetUniform("uTime", elapsed); err != nil {
		common.Logger().Debug("uTime upload failed", "program", name, "error", err)
	}
}
