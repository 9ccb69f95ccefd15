package shader

import "github.com/Carmen-Shannon/oxy-deferred/common"

// libraryConfig holds construction-only settings of a Library.
type libraryConfig struct {
	builtins bool
}

// LibraryBuilderOption is a functional option used to configure a Library during construction.
type LibraryBuilderOption func(l *library, cfg *libraryConfig)

// WithSource registers a source at construction. It takes precedence over a built-in of the same name.
//
// Parameters:
//   - name: the source name
//   - source: the raw WGSL source
//
// Returns:
//   - LibraryBuilderOption: a function that registers the source
func WithSource(name, source string) LibraryBuilderOption {
	return func(l *library, _ *libraryConfig) {
		l.raw[name] = source
	}
}

// WithoutBuiltins starts the library empty.
//
// Returns:
//   - LibraryBuilderOption: a function that disables the built-in sources
func WithoutBuiltins() LibraryBuilderOption {
	return func(_ *library, cfg *libraryConfig) {
		cfg.builtins = false
	}
}

// WithLibraryReporter sets the sink for library diagnostics.
//
// Parameters:
//   - r: the reporter
//
// Returns:
//   - LibraryBuilderOption: a function that sets the reporter
func WithLibraryReporter(r common.Reporter) LibraryBuilderOption {
	return func(l *library, _ *libraryConfig) {
		if r != nil {
			l.report = r
		}
	}
}
