package light

import "github.com/Carmen-Shannon/oxy-deferred/common"

// LightManagerBuilderOption is a function that configures a LightManager during construction.
type LightManagerBuilderOption func(*lightManager)

// WithShadowMapSize is an option builder that sets the resolution of the shadow maps the manager's pool
// creates. It has no effect when WithShadowMapPool is also given.
//
// Parameters:
//   - size: the width and height in texels
//
// Returns:
//   - LightManagerBuilderOption: a function that applies the size option
func WithShadowMapSize(size int) LightManagerBuilderOption {
	return func(m *lightManager) {
		if size > 0 {
			m.shadowMapSize = size
		}
	}
}

// WithShadowMapPool is an option builder that makes the manager borrow from an existing pool.
//
// Parameters:
//   - pool: the pool to borrow from
//
// Returns:
//   - LightManagerBuilderOption: a function that applies the pool option
func WithShadowMapPool(pool ShadowMapPool) LightManagerBuilderOption {
	return func(m *lightManager) {
		m.pool = pool
	}
}

// WithReporter is an option builder that sets where misuse such as removing an unknown light is reported.
//
// Parameters:
//   - r: the reporter
//
// Returns:
//   - LightManagerBuilderOption: a function that applies the reporter option
func WithReporter(r common.Reporter) LightManagerBuilderOption {
	return func(m *lightManager) {
		m.report = r
	}
}
