package game_object

import "github.com/Carmen-Shannon/oxy-deferred/common"

// InstanceManagerBuilderOption configures an InstanceManager during NewInstanceManager.
type InstanceManagerBuilderOption func(*instanceManager)

// WithInstanceReporter sets the diagnostic sink for lifecycle misuse.
//
// Parameters:
//   - r: the reporter
//
// Returns:
//   - InstanceManagerBuilderOption: the option
func WithInstanceReporter(r common.Reporter) InstanceManagerBuilderOption {
	return func(m *instanceManager) {
		m.report = r
	}
}
