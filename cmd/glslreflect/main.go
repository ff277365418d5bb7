// Command glslreflect inspects the attributes and uniforms GLSL sources declare, checks them
// against a real driver and hot-reloads shader libraries while they are edited.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cogentcore.org/core/cli"
	"github.com/ccaven/lunch/common"
)

// Config is the configuration shared by every glslreflect command.
type Config struct {

	// Files are the shader sources to inspect. The stage of each file is inferred from
	// its extension (.vert, .vs, .vsh or .frag, .fs, .fsh).
	Files []string `posarg:"leftover" required:"-"`

	// Defines are NAME=VALUE pairs injected into every source after its #version line.
	// A bare NAME defines it as 1.
	Defines []string `flag:"D,define"`

	// LogLevel is the minimum level logged to stderr: debug, info, warn or error.
	LogLevel string `flag:"log-level" default:"warn"`

	// Backend is the backend check links programs on: gl or wgpu.
	Backend string `cmd:"check" default:"gl"`

	// Fallback requests the software adapter when checking on the wgpu backend.
	Fallback bool `cmd:"check"`

	// Dir is the directory watch reads the manifest and shader sources from.
	Dir string `cmd:"watch" default:"."`

	// Manifest is the TOML manifest watch loads, relative to Dir.
	Manifest string `cmd:"watch" default:"shaders.toml"`
}

func main() {
	opts := cli.DefaultOptions("glslreflect", "Reflect GLSL attributes and uniforms, check them on a driver and hot-reload shader libraries.")
	cli.Run(opts, &Config{},
		&cli.Cmd[*Config]{Func: Scan, Name: "scan", Doc: "Print the attribute and uniform tables of the given sources.", Root: true},
		&cli.Cmd[*Config]{Func: Check, Name: "check", Doc: "Link a vertex and a fragment source and report inactive names and driver logs."},
		&cli.Cmd[*Config]{Func: Watch, Name: "watch", Doc: "Build a shader library and rebuild its programs when their sources change."},
	)
}

// setup installs the stderr logger for the configured level.
func setup(c *Config) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// defines parses the -D flags.
func (c *Config) defines() (map[string]string, error) {
	out := make(map[string]string, len(c.Defines))
	for _, d := range c.Defines {
		name, value, found := strings.Cut(d, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid define %q", d)
		}
		if !found {
			value = "1"
		}
		out[name] = value
	}
	return out, nil
}
