package library

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/keylist"
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/ccaven/lunch/common"
	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/program"
	"github.com/ccaven/lunch/engine/shader"
	"github.com/fsnotify/fsnotify"
)

// entry is one program of the library together with its loaded sources.
type entry struct {
	spec     ProgramSpec
	vertex   shader.Shader
	fragment shader.Shader
	program  program.Program
}

// library is the implementation of the Library interface.
type library struct {
	fsys     fs.FS
	manifest Manifest
	entries  *keylist.List[string, *entry]

	workers        int
	pool           worker.DynamicWorkerPool
	logger         *slog.Logger
	programOptions []program.ProgramBuilderOption

	// mu guards the shaders of entries and pending, which the watcher goroutine reads and writes.
	mu      sync.Mutex
	pending map[string]bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

var (
	poolsMu sync.Mutex
	pools   = make(map[int]worker.DynamicWorkerPool)
)

// sharedPool returns the process-wide load pool with n workers, creating it on first use.
// automation pools start every worker up front and cannot reliably stop them (Stop sends ids
// on one channel shared by all workers, which drop ids that are not theirs), so libraries
// share pools instead of owning one each.
func sharedPool(n int) worker.DynamicWorkerPool {
	poolsMu.Lock()
	defer poolsMu.Unlock()
	p, ok := pools[n]
	if !ok {
		p = worker.NewDynamicWorkerPool(n, 256, 1*time.Second)
		pools[n] = p
	}
	return p
}

// Library is a named set of shader programs described by a Manifest.
// Loading, i.e. reading, pre-processing and scanning sources, runs on a worker pool. Every
// backend call (Build, ApplyPending, Close) must be made from the render thread.
type Library interface {
	// Load reads, pre-processes and scans the sources of every program in parallel.
	// Programs whose sources fail to load are skipped by Build.
	//
	// Returns:
	//   - error: the load errors of all failing programs, joined
	Load() error

	// Build compiles and links every loaded program that has not been built yet.
	//
	// Parameters:
	//   - b: the backend to build on
	//
	// Returns:
	//   - error: the build errors of all failing programs, joined
	Build(b backend.Backend) error

	// Program retrieves a built program.
	//
	// Parameters:
	//   - name: the program name from the manifest
	//
	// Returns:
	//   - program.Program: the program
	//   - bool: false when the name is unknown or the program is not built
	Program(name string) (program.Program, bool)

	// Shaders retrieves the loaded sources of a program.
	//
	// Parameters:
	//   - name: the program name from the manifest
	//
	// Returns:
	//   - shader.Shader: the vertex stage
	//   - shader.Shader: the fragment stage
	//   - bool: false when the name is unknown or its sources are not loaded
	Shaders(name string) (shader.Shader, shader.Shader, bool)

	// Names lists the program names in manifest order.
	//
	// Returns:
	//   - []string: the program names
	Names() []string

	// Invalidate queues every program reading path, directly or through an include, for
	// reload by ApplyPending.
	//
	// Parameters:
	//   - path: a slash-separated path inside the library's file system
	//
	// Returns:
	//   - []string: the names of the programs queued by this call
	Invalidate(path string) []string

	// Pending lists the programs queued for reload, in manifest order.
	//
	// Returns:
	//   - []string: the queued program names
	Pending() []string

	// ApplyPending reloads the queued programs. A program that fails to reload keeps its
	// previous sources and backend program; a program that was never built is built on b.
	//
	// Parameters:
	//   - b: the backend to build not-yet-built programs on
	//
	// Returns:
	//   - []string: the names of the programs successfully reloaded
	//   - error: the reload errors, joined
	ApplyPending(b backend.Backend) ([]string, error)

	// Watch starts watching dir, the OS directory the library's file system is rooted at,
	// and queues programs whose sources change.
	//
	// Parameters:
	//   - dir: the directory to watch recursively
	//
	// Returns:
	//   - error: if the watcher could not be started
	Watch(dir string) error

	// Close stops the watcher, waiting for its goroutine to exit, and releases every built
	// program. Watch may be called again afterwards.
	//
	// Returns:
	//   - error: the watcher's close error
	Close() error
}

var _ Library = &library{}

// NewLibrary creates a library for the programs of manifest, reading sources from fsys.
//
// Parameters:
//   - fsys: the file system sources and includes are read from
//   - manifest: the programs to manage
//   - options: functional options applied after defaults
//
// Returns:
//   - Library: the library, with nothing loaded yet
func NewLibrary(fsys fs.FS, manifest Manifest, options ...LibraryBuilderOption) Library {
	l := &library{
		fsys:     fsys,
		manifest: manifest,
		entries:  keylist.New[string, *entry](),
		workers:  runtime.NumCPU(),
		pending:  make(map[string]bool),
	}
	for _, option := range options {
		option(l)
	}
	for _, spec := range manifest.Programs {
		l.entries.Set(spec.Name, &entry{spec: spec})
	}

	// Resolve the pool after options so WithWorkers can override the default.
	l.pool = sharedPool(max(l.workers, 1))
	return l
}

func (l *library) log() *slog.Logger {
	return common.LoggerOr(l.logger)
}

// loadSources reads one program's two stages.
func (l *library) loadSources(spec ProgramSpec) (shader.Shader, shader.Shader, error) {
	defines := shader.WithDefines(l.manifest.DefinesFor(spec))
	vs, err := shader.LoadShader(l.fsys, spec.Name+".vertex", shader.StageVertex, spec.Vertex, defines)
	if err != nil {
		return nil, nil, fmt.Errorf("program %q: %w", spec.Name, err)
	}
	fs, err := shader.LoadShader(l.fsys, spec.Name+".fragment", shader.StageFragment, spec.Fragment, defines)
	if err != nil {
		return nil, nil, fmt.Errorf("program %q: %w", spec.Name, err)
	}
	return vs, fs, nil
}

func (l *library) Load() error {
	type loaded struct {
		vertex, fragment shader.Shader
		err              error
	}
	specs := l.manifest.Programs
	results := make([]loaded, len(specs))

	// The pool has no per-batch barrier, so a WaitGroup collects this batch.
	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		l.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				vs, fs, err := l.loadSources(spec)
				results[i] = loaded{vertex: vs, fragment: fs, err: err}
				return nil, err
			},
		})
	}
	wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for i, spec := range specs {
		if results[i].err != nil {
			errs = append(errs, results[i].err)
			continue
		}
		e := l.entries.At(spec.Name)
		e.vertex, e.fragment = results[i].vertex, results[i].fragment
	}
	l.log().Info("shader library loaded", "programs", len(specs), "failed", len(errs))
	return errors.Join(errs...)
}

func (l *library) Build(b backend.Backend) error {
	var errs []error
	for _, e := range l.entries.Values {
		if e.program != nil {
			continue
		}
		l.mu.Lock()
		vs, fs := e.vertex, e.fragment
		l.mu.Unlock()
		if vs == nil || fs == nil {
			continue
		}
		if err := l.build(b, e, vs, fs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *library) build(b backend.Backend, e *entry, vs, fs shader.Shader) error {
	options := append([]program.ProgramBuilderOption{
		program.WithKey(e.spec.Name),
		program.WithLogger(l.logger),
	}, l.programOptions...)
	p, err := program.NewProgram(b, vs, fs, options...)
	if err != nil {
		return fmt.Errorf("program %q: %w", e.spec.Name, err)
	}
	e.program = p
	return nil
}

func (l *library) Program(name string) (program.Program, bool) {
	e, ok := l.entries.AtTry(name)
	if !ok || e.program == nil {
		return nil, false
	}
	return e.program, true
}

func (l *library) Shaders(name string) (shader.Shader, shader.Shader, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries.AtTry(name)
	if !ok || e.vertex == nil {
		return nil, nil, false
	}
	return e.vertex, e.fragment, true
}

func (l *library) Names() []string {
	return slices.Clone(l.entries.Keys)
}

func (l *library) Invalidate(path string) []string {
	path = filepath.ToSlash(filepath.Clean(path))
	l.mu.Lock()
	defer l.mu.Unlock()

	queued := make([]string, 0)
	for _, e := range l.entries.Values {
		if !l.dependsOn(e, path) {
			continue
		}
		if !l.pending[e.spec.Name] {
			l.pending[e.spec.Name] = true
			queued = append(queued, e.spec.Name)
		}
	}
	if len(queued) > 0 {
		l.log().Debug("shader source changed", "path", path, "programs", queued)
	}
	return queued
}

// dependsOn reports whether e reads path. Callers hold l.mu.
func (l *library) dependsOn(e *entry, path string) bool {
	if e.spec.Vertex == path || e.spec.Fragment == path {
		return true
	}
	for _, s := range []shader.Shader{e.vertex, e.fragment} {
		if s != nil && slices.Contains(s.Includes(), path) {
			return true
		}
	}
	return false
}

func (l *library) Pending() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.pending))
	for _, name := range l.entries.Keys {
		if l.pending[name] {
			out = append(out, name)
		}
	}
	return out
}

func (l *library) ApplyPending(b backend.Backend) ([]string, error) {
	l.mu.Lock()
	names := make([]string, 0, len(l.pending))
	for _, name := range l.entries.Keys {
		if l.pending[name] {
			names = append(names, name)
		}
	}
	l.pending = make(map[string]bool)
	l.mu.Unlock()

	reloaded := make([]string, 0, len(names))
	var errs []error
	for _, name := range names {
		e := l.entries.At(name)
		vs, fs, err := l.loadSources(e.spec)
		if err != nil {
			l.log().Warn("shader reload failed", "program", name, "error", err)
			errs = append(errs, err)
			continue
		}

		if e.program == nil {
			err = l.build(b, e, vs, fs)
		} else if err = e.program.Reload(vs, fs); err != nil {
			err = fmt.Errorf("program %q: %w", name, err)
		}
		if err != nil {
			l.log().Warn("shader reload failed", "program", name, "error", err)
			errs = append(errs, err)
			continue
		}

		l.mu.Lock()
		e.vertex, e.fragment = vs, fs
		l.mu.Unlock()
		reloaded = append(reloaded, name)
		l.log().Info("shader program reloaded", "program", name)
	}
	return reloaded, errors.Join(errs...)
}

func (l *library) Watch(dir string) error {
	if l.watcher != nil {
		return fmt.Errorf("library: already watching")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("library: failed to create watcher: %w", err)
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		errors.Log(watcher.Close())
		return fmt.Errorf("library: failed to watch %q: %w", dir, err)
	}

	l.watcher = watcher
	l.done = make(chan struct{})
	l.stopped = make(chan struct{})
	go l.watchLoop(watcher, dir, l.done, l.stopped)
	return nil
}

// watchLoop queues the programs reading each changed file until done is closed or the
// watcher's channels close. It closes stopped on return.
func (l *library) watchLoop(watcher *fsnotify.Watcher, dir string, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			rel, err := filepath.Rel(dir, event.Name)
			if errors.Log(err) != nil {
				continue
			}
			l.Invalidate(rel)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			errors.Log(fmt.Errorf("library: watcher: %w", err))
		}
	}
}

func (l *library) Close() error {
	var err error
	if l.watcher != nil {
		close(l.done)
		<-l.stopped
		err = l.watcher.Close()
		l.watcher, l.done, l.stopped = nil, nil, nil
	}
	for _, e := range l.entries.Values {
		if e.program != nil {
			e.program.Release()
			e.program = nil
		}
	}
	return err
}
