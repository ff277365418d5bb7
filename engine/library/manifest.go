// Package library loads a set of named shader programs described by a TOML manifest, builds
// them on a backend and hot-reloads them when their source files change.
package library

import (
	"bytes"
	"fmt"
	"io/fs"
	"maps"

	"cogentcore.org/core/base/errors"
	"github.com/pelletier/go-toml/v2"
)

// ErrManifest is returned for manifests that cannot be decoded or describe invalid programs.
var ErrManifest = errors.New("library: invalid manifest")

// ProgramSpec describes one program of a manifest.
type ProgramSpec struct {
	// Name identifies the program in the library.
	Name string `toml:"name"`

	// Vertex is the slash-separated path of the vertex source.
	Vertex string `toml:"vertex"`

	// Fragment is the slash-separated path of the fragment source.
	Fragment string `toml:"fragment"`

	// Defines are injected into both stages and override the manifest-wide defines.
	Defines map[string]string `toml:"defines"`
}

// Manifest is the decoded form of a library manifest:
//
//	[defines]
//	MAX_LIGHTS = "4"
//
//	[[program]]
//	name = "basic"
//	vertex = "basic.vert"
//	fragment = "basic.frag"
//	defines = { USE_FOG = "1" }
type Manifest struct {
	// Defines are injected into every program.
	Defines map[string]string `toml:"defines"`

	// Programs lists the programs in build order.
	Programs []ProgramSpec `toml:"program"`
}

// DefinesFor returns the manifest-wide defines overlaid with the program's own.
func (m Manifest) DefinesFor(spec ProgramSpec) map[string]string {
	out := make(map[string]string, len(m.Defines)+len(spec.Defines))
	maps.Copy(out, m.Defines)
	maps.Copy(out, spec.Defines)
	return out
}

// ParseManifest decodes and validates a TOML manifest. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Manifest: the decoded manifest
//   - error: ErrManifest wrapping the decode or validation failure
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	if err := m.validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// LoadManifest reads and decodes a TOML manifest from fsys.
//
// Parameters:
//   - fsys: the file system to read from
//   - name: the slash-separated path of the manifest
//
// Returns:
//   - Manifest: the decoded manifest
//   - error: the read error, or ErrManifest
func LoadManifest(fsys fs.FS, name string) (Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Manifest{}, fmt.Errorf("library: failed to read manifest %q: %w", name, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

func (m Manifest) validate() error {
	seen := make(map[string]bool, len(m.Programs))
	for i, p := range m.Programs {
		switch {
		case p.Name == "":
			return fmt.Errorf("%w: program %d has no name", ErrManifest, i)
		case seen[p.Name]:
			return fmt.Errorf("%w: program %q declared twice", ErrManifest, p.Name)
		case p.Vertex == "" || p.Fragment == "":
			return fmt.Errorf("%w: program %q needs a vertex and a fragment source", ErrManifest, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
