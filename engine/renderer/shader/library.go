package shader

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// library is the implementation of the Library interface.
type library struct {
	mu       *sync.RWMutex
	raw      map[string]string
	resolved map[string]string
	dirty    bool
	revision uint64

	report common.Reporter
}

// Library is a named collection of WGSL sources. Sources may #include each other by name; includes are
// resolved once, when Resolve is called, and resolved sources are served until a source is registered again.
// A Library is safe for concurrent use.
type Library interface {
	// Register adds or replaces the source stored under name and marks the library for re-resolution.
	//
	// Parameters:
	//   - name: the source name, which is also its #include name
	//   - source: the raw WGSL source
	Register(name, source string)

	// Has reports whether a source is registered under name.
	Has(name string) bool

	// Names returns the registered source names in sorted order.
	Names() []string

	// Resolve expands the includes of every registered source. It fails on the first unknown include or
	// include cycle and leaves the previous resolution in place.
	//
	// Returns:
	//   - error: ErrUnknownInclude or ErrIncludeCycle wrapped with the include chain
	Resolve() error

	// Source returns the resolved source registered under name with every conditional block evaluated
	// against an empty define set. The library is resolved first if needed.
	//
	// Parameters:
	//   - name: the source name
	//
	// Returns:
	//   - string: the compilable source
	//   - error: ErrUnknownShader, or a resolution error
	Source(name string) (string, error)

	// Variant returns the resolved source registered under name with conditional blocks evaluated against
	// defines. A define is NAME or NAME=VALUE; valued defines are also emitted as WGSL constants.
	//
	// Parameters:
	//   - name: the source name
	//   - defines: the defines to apply
	//
	// Returns:
	//   - string: the compilable source
	//   - error: ErrUnknownShader, ErrUnbalancedConditional, or a resolution error
	Variant(name string, defines ...string) (string, error)

	// LoadDir registers every *.wgsl file in dir under its base name without extension, replacing
	// sources of the same name.
	//
	// Parameters:
	//   - dir: the directory to scan
	//
	// Returns:
	//   - int: the number of sources loaded
	//   - error: an error if the directory or a file could not be read
	LoadDir(dir string) (int, error)

	// Revision returns a counter that increases every time a source is registered.
	Revision() uint64
}

var _ Library = &library{}

// NewLibrary creates a Library. The built-in engine sources are registered unless WithoutBuiltins is given.
//
// Parameters:
//   - options: functional options such as WithSource or WithLibraryReporter
//
// Returns:
//   - Library: the new library
func NewLibrary(options ...LibraryBuilderOption) Library {
	l := &library{
		mu:       &sync.RWMutex{},
		raw:      make(map[string]string),
		resolved: make(map[string]string),
		dirty:    true,
		report:   common.LogReporter,
	}
	cfg := libraryConfig{builtins: true}
	for _, opt := range options {
		opt(l, &cfg)
	}
	if cfg.builtins {
		for name, src := range builtinSources() {
			if _, ok := l.raw[name]; !ok {
				l.raw[name] = src
			}
		}
	}
	return l
}

func (l *library) Register(name, source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.raw[name] = source
	l.dirty = true
	l.revision++
}

func (l *library) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.raw[name]
	return ok
}

func (l *library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.raw))
}

func (l *library) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

func (l *library) Resolve() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolveLocked()
}

func (l *library) resolveLocked() error {
	if !l.dirty {
		return nil
	}
	out := make(map[string]string, len(l.raw))
	for _, name := range slices.Sorted(maps.Keys(l.raw)) {
		src, err := expandIncludes(name, l.raw)
		if err != nil {
			return fmt.Errorf("shader: resolving %q: %w", name, err)
		}
		out[name] = src
	}
	l.resolved = out
	l.dirty = false
	return nil
}

func (l *library) Source(name string) (string, error) {
	return l.Variant(name)
}

func (l *library) Variant(name string, defines ...string) (string, error) {
	l.mu.Lock()
	if err := l.resolveLocked(); err != nil {
		l.mu.Unlock()
		return "", err
	}
	src, ok := l.resolved[name]
	l.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShader, name)
	}

	out, err := applyDefines(src, parseDefines(defines))
	if err != nil {
		return "", fmt.Errorf("shader: variant of %q: %w", name, err)
	}
	return out, nil
}

func (l *library) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("shader: reading %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".wgsl" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, fmt.Errorf("shader: reading %s: %w", e.Name(), err)
		}
		l.Register(sourceName(e.Name()), string(data))
		n++
	}
	if n > 0 {
		l.report.Report("shader: loaded %d source(s) from %s", n, dir)
	}
	return n, nil
}

// sourceName maps a file name to its library name.
func sourceName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}
