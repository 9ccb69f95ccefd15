package backend

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendBuilderOption is a functional option used to configure the WebGPU backend during construction.
type BackendBuilderOption func(*wgpuBackend)

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: whether to force the fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that sets the adapter preference
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(b *wgpuBackend) {
		b.forceFallbackAdapter = force
	}
}

// WithPresentMode sets the initial surface present mode.
//
// Parameters:
//   - mode: the PresentMode to configure the surface with
//
// Returns:
//   - BackendBuilderOption: a function that sets the present mode
func WithPresentMode(mode renderer.PresentMode) BackendBuilderOption {
	return func(b *wgpuBackend) {
		if mode == renderer.PresentModeUncapped {
			b.presentMode = wgpu.PresentModeImmediate
			return
		}
		b.presentMode = wgpu.PresentModeFifo
	}
}

// WithUniformArenaSize sets the per-frame uniform arena size in bytes. Every draw takes one aligned slot.
//
// Parameters:
//   - size: the arena size in bytes
//
// Returns:
//   - BackendBuilderOption: a function that sets the arena size
func WithUniformArenaSize(size uint64) BackendBuilderOption {
	return func(b *wgpuBackend) {
		if size > 0 {
			b.arenaSize = size
		}
	}
}
