package main

import (
	"fmt"
	"io"
	"os"

	"cogentcore.org/core/base/errors"
	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/backend/glbackend"
	"github.com/ccaven/lunch/engine/backend/wgpubackend"
	"github.com/ccaven/lunch/engine/program"
	"github.com/ccaven/lunch/engine/shader"
	"github.com/ccaven/lunch/engine/window"
)

// Check links one vertex and one fragment source on a real backend and reports the names the
// driver dropped as inactive, or the compile and link logs when building fails.
func Check(c *Config) error {
	if err := setup(c); err != nil {
		return err
	}
	defines, err := c.defines()
	if err != nil {
		return err
	}
	vs, fs, err := loadPair(c.Files, defines)
	if err != nil {
		return err
	}

	b, closer, err := openBackend(c)
	if err != nil {
		return err
	}
	defer closer()

	return check(os.Stdout, b, vs, fs)
}

// loadPair loads exactly one source of each stage.
func loadPair(files []string, defines map[string]string) (shader.Shader, shader.Shader, error) {
	var vs, fs shader.Shader
	for _, file := range files {
		s, err := loadFile(file, defines)
		if err != nil {
			return nil, nil, err
		}
		slot := &vs
		if s.Stage() == shader.StageFragment {
			slot = &fs
		}
		if *slot != nil {
			return nil, nil, fmt.Errorf("check: more than one %s source given", s.Stage())
		}
		*slot = s
	}
	if vs == nil || fs == nil {
		return nil, nil, fmt.Errorf("check: need one vertex and one fragment source")
	}
	return vs, fs, nil
}

// openBackend creates the configured backend and returns the function releasing it.
func openBackend(c *Config) (backend.Backend, func(), error) {
	switch c.Backend {
	case "gl":
		win, err := window.NewWindow(
			window.WithTitle("glslreflect"),
			window.WithSize(64, 64),
			window.WithHidden(),
		)
		if err != nil {
			return nil, nil, err
		}
		b, err := glbackend.New()
		if err != nil {
			errors.Log(win.Close())
			return nil, nil, err
		}
		return b, func() { errors.Log(win.Close()) }, nil
	case "wgpu":
		b, err := wgpubackend.NewHeadless(c.Fallback)
		if err != nil {
			return nil, nil, err
		}
		return b, b.(interface{ Release() }).Release, nil
	}
	return nil, nil, fmt.Errorf("check: unknown backend %q, want gl or wgpu", c.Backend)
}

// check builds the program on b and writes its tables, or the driver logs on failure.
func check(w io.Writer, b backend.Backend, vs, fs shader.Shader) error {
	p, err := program.NewProgram(b, vs, fs)
	if err != nil {
		var compileErr *backend.CompileError
		var linkErr *backend.LinkError
		switch {
		case errors.As(err, &compileErr):
			fmt.Fprintf(w, "%s shader failed to compile:\n%s\n", compileErr.Stage, compileErr.Log)
		case errors.As(err, &linkErr):
			fmt.Fprintf(w, "program failed to link:\n%s\n", linkErr.Log)
		}
		return err
	}
	defer p.Release()

	if err := writeProgram(w, p); err != nil {
		return err
	}
	inactive := append(p.Attributes().Inactive(), p.Uniforms().Inactive()...)
	if len(inactive) == 0 {
		fmt.Fprintln(w, "every declared name is active")
		return nil
	}
	fmt.Fprintf(w, "%d declared names are inactive and will be skipped on upload: %v\n", len(inactive), inactive)
	return nil
}
