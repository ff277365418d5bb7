package library

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/backend/recorder"
	"github.com/ccaven/lunch/engine/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	basicVert  = "#version 330 core\n#include \"common.glsl\"\nin vec2 aPosition;\nuniform mat4 uMVP;\nvoid main() {}\n"
	basicFrag  = "#version 330 core\nuniform vec3 uColor;\nout vec4 fragColor;\nvoid main() {}\n"
	commonGLSL = "uniform float uTime;\n"

	spriteVert = "attribute vec2 aPosition;\nattribute vec2 aUV;\nuniform vec2 uOffset;\n"
	spriteFrag = "uniform sampler2D uSprite;\n"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"shaders.toml":       {Data: []byte(manifestTOML)},
		"basic.vert":         {Data: []byte(basicVert)},
		"basic.frag":         {Data: []byte(basicFrag)},
		"common.glsl":        {Data: []byte(commonGLSL)},
		"sprite/sprite.vert": {Data: []byte(spriteVert)},
		"sprite/sprite.frag": {Data: []byte(spriteFrag)},
	}
}

func newTestLibrary(t *testing.T, fsys fstest.MapFS) Library {
	t.Helper()
	m, err := LoadManifest(fsys, "shaders.toml")
	require.NoError(t, err)
	l := NewLibrary(fsys, m, WithWorkers(2))
	t.Cleanup(func() { assert.NoError(t, l.Close()) })
	return l
}

func TestLibraryLoadAndBuild(t *testing.T) {
	l := newTestLibrary(t, testFS())
	assert.Equal(t, []string{"basic", "sprite"}, l.Names())

	_, ok := l.Program("basic")
	assert.False(t, ok)

	require.NoError(t, l.Load())
	vs, fs, ok := l.Shaders("basic")
	require.True(t, ok)
	assert.Contains(t, vs.Source(), "#define QUALITY 2")
	assert.Contains(t, vs.Source(), "#define MAX_LIGHTS 4")
	assert.Equal(t, []string{"common.glsl"}, vs.Includes())
	assert.Equal(t, shader.StageFragment, fs.Stage())

	r := recorder.New()
	require.NoError(t, l.Build(r))

	basic, ok := l.Program("basic")
	require.True(t, ok)
	assert.Equal(t, "basic", basic.Key())
	assert.Equal(t, []string{"uTime", "uMVP", "uColor"}, basic.Uniforms().Names())

	sprite, ok := l.Program("sprite")
	require.True(t, ok)
	assert.Equal(t, []string{"aPosition", "aUV"}, sprite.Attributes().Names())

	// already built programs are skipped
	r.Reset()
	require.NoError(t, l.Build(r))
	assert.Empty(t, r.CallsTo(recorder.MethodLinkProgram))
}

func TestLibraryLoadErrors(t *testing.T) {
	fsys := testFS()
	delete(fsys, "common.glsl")
	l := newTestLibrary(t, fsys)

	err := l.Load()
	require.ErrorIs(t, err, shader.ErrInclude)
	assert.Contains(t, err.Error(), `program "basic"`)

	_, _, ok := l.Shaders("basic")
	assert.False(t, ok)
	_, _, ok = l.Shaders("sprite")
	assert.True(t, ok)

	require.NoError(t, l.Build(recorder.New()))
	_, ok = l.Program("basic")
	assert.False(t, ok)
}

func TestLibraryBuildErrors(t *testing.T) {
	l := newTestLibrary(t, testFS())
	require.NoError(t, l.Load())

	r := recorder.New()
	r.FailLink("link failed")
	err := l.Build(r)
	require.ErrorIs(t, err, backend.ErrLink)
	assert.Contains(t, err.Error(), `program "sprite"`)
}

func TestLibraryInvalidate(t *testing.T) {
	l := newTestLibrary(t, testFS())
	require.NoError(t, l.Load())

	assert.Equal(t, []string{"basic"}, l.Invalidate("common.glsl"))
	assert.Empty(t, l.Invalidate("common.glsl"))
	assert.Equal(t, []string{"sprite"}, l.Invalidate("sprite/sprite.frag"))
	assert.Empty(t, l.Invalidate("unrelated.txt"))
	assert.Equal(t, []string{"basic", "sprite"}, l.Pending())
}

func TestLibraryApplyPending(t *testing.T) {
	fsys := testFS()
	l := newTestLibrary(t, fsys)
	require.NoError(t, l.Load())
	r := recorder.New()
	require.NoError(t, l.Build(r))
	basic, _ := l.Program("basic")
	first := basic.Handle()

	fsys["basic.frag"] = &fstest.MapFile{Data: []byte("uniform vec4 uTint;\n")}
	l.Invalidate("basic.frag")

	reloaded, err := l.ApplyPending(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"basic"}, reloaded)
	assert.Empty(t, l.Pending())
	assert.NotEqual(t, first, basic.Handle())
	assert.Equal(t, []string{"uTime", "uMVP", "uTint"}, basic.Uniforms().Names())

	// a failing reload keeps the previous program and sources
	r.FailCompile(shader.StageFragment, "syntax error")
	l.Invalidate("basic.frag")
	reloaded, err = l.ApplyPending(r)
	require.ErrorIs(t, err, backend.ErrCompile)
	assert.Empty(t, reloaded)
	assert.Equal(t, []string{"uTime", "uMVP", "uTint"}, basic.Uniforms().Names())
	require.NoError(t, basic.SetUniform("uTint", []float32{1, 1, 1, 1}))
}

func TestLibraryApplyPendingBuildsMissing(t *testing.T) {
	fsys := testFS()
	l := newTestLibrary(t, fsys)
	require.NoError(t, l.Load())

	r := recorder.New()
	r.FailLink("link failed")
	require.Error(t, l.Build(r))
	r.FailLink("")

	l.Invalidate("basic.vert")
	reloaded, err := l.ApplyPending(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"basic"}, reloaded)
	_, ok := l.Program("basic")
	assert.True(t, ok)
}

// writeTestDir writes testFS to a temporary directory and returns its path.
func writeTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, f := range testFS() {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, f.Data, 0o644))
	}
	return dir
}

func TestLibraryWatch(t *testing.T) {
	dir := writeTestDir(t)
	fsys := os.DirFS(dir)
	m, err := LoadManifest(fsys, "shaders.toml")
	require.NoError(t, err)
	l := NewLibrary(fsys, m)
	t.Cleanup(func() { assert.NoError(t, l.Close()) })
	require.NoError(t, l.Load())
	require.NoError(t, l.Watch(dir))
	require.Error(t, l.Watch(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sprite", "sprite.frag"), []byte("uniform sampler2D uOther;\n"), 0o644))
	require.Eventually(t, func() bool {
		return len(l.Pending()) == 1 && l.Pending()[0] == "sprite"
	}, 5*time.Second, 20*time.Millisecond)

	r := recorder.New()
	reloaded, err := l.ApplyPending(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"sprite"}, reloaded)
	vs, fs, ok := l.Shaders("sprite")
	require.True(t, ok)
	assert.Equal(t, "sprite.vertex", vs.Key())
	_, ok = fs.Uniform("uOther")
	assert.True(t, ok)
}

func TestLibraryWatchCloseCycles(t *testing.T) {
	dir := writeTestDir(t)
	fsys := os.DirFS(dir)
	m, err := LoadManifest(fsys, "shaders.toml")
	require.NoError(t, err)
	l := NewLibrary(fsys, m, WithWorkers(2))
	require.NoError(t, l.Load())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		path := filepath.Join(dir, "basic.frag")
		for {
			select {
			case <-stop:
				return
			default:
				_ = os.WriteFile(path, []byte(basicFrag), 0o644)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	for range 20 {
		require.NoError(t, l.Watch(dir))
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, l.Close())
	}

	// the watcher still works after the cycles
	require.NoError(t, l.Watch(dir))
	assert.Eventually(t, func() bool {
		return slices.Contains(l.Pending(), "basic")
	}, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, l.Close())
	close(stop)
	wg.Wait()
}

func TestLibraryCloseBoundsGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()
	for range 10 {
		m, err := LoadManifest(testFS(), "shaders.toml")
		require.NoError(t, err)
		l := NewLibrary(testFS(), m, WithWorkers(4))
		require.NoError(t, l.Load())
		require.NoError(t, l.Close())
	}

	// Libraries with the same worker count share one pool, so ten libraries start at most
	// one pool's workers.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+4
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLibraryApplyPendingKeepsConcurrentInvalidations(t *testing.T) {
	l := newTestLibrary(t, testFS())
	require.NoError(t, l.Load())
	r := recorder.New()
	require.NoError(t, l.Build(r))

	var queued int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 500 {
			if slices.Contains(l.Invalidate("sprite/sprite.frag"), "sprite") {
				queued++
			}
		}
	}()

	var consumed int
	apply := func() {
		reloaded, err := l.ApplyPending(r)
		require.NoError(t, err)
		if slices.Contains(reloaded, "sprite") {
			consumed++
		}
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			apply()
		}
	}
	apply()

	// every invalidation that queued the program is consumed by exactly one ApplyPending
	assert.Equal(t, queued, consumed)
	assert.Empty(t, l.Pending())
}
