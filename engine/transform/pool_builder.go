package transform

import "github.com/Carmen-Shannon/oxy-deferred/common"

// PoolBuilderOption configures a pool during NewPool.
type PoolBuilderOption func(p *pool, initialSize *int)

// WithInitialSize sets the number of slots allocated up front.
//
// Parameters:
//   - size: slot count, clamped to at least 1
//
// Returns:
//   - PoolBuilderOption: the option
func WithInitialSize(size int) PoolBuilderOption {
	return func(p *pool, initialSize *int) {
		*initialSize = size
	}
}

// WithReporter sets the diagnostic sink for pool growth and misuse.
//
// Parameters:
//   - r: the reporter
//
// Returns:
//   - PoolBuilderOption: the option
func WithReporter(r common.Reporter) PoolBuilderOption {
	return func(p *pool, _ *int) {
		p.report = r
	}
}
