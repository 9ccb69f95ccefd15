package pipeline

import "github.com/Carmen-Shannon/oxy-deferred/engine/renderer"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithEntryPoints sets the vertex and fragment entry points explicitly.
//
// Parameters:
//   - vertex: the vertex entry point name
//   - fragment: the fragment entry point name, or "" to derive it from the source
//
// Returns:
//   - PipelineBuilderOption: a function that sets the entry points for this pipeline
func WithEntryPoints(vertex, fragment string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexEntry = vertex
		p.fragmentEntry = fragment
		p.explicitEntries = true
	}
}

// WithDepthOnly makes the pipeline render depth without any color targets or fragment stage.
//
// Returns:
//   - PipelineBuilderOption: a function that removes the color targets of this pipeline
func WithDepthOnly() PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthOnly = true
	}
}

// WithColorFormats sets the formats of the color targets in attachment order.
//
// Parameters:
//   - formats: the color target formats
//
// Returns:
//   - PipelineBuilderOption: a function that sets the color targets for this pipeline
func WithColorFormats(formats ...renderer.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.colorFormats = append([]renderer.TextureFormat(nil), formats...)
	}
}

// WithDepthFormat sets the depth target format. renderer.FormatUndefined removes the depth target.
//
// Parameters:
//   - format: the depth format
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth target for this pipeline
func WithDepthFormat(format renderer.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = format
	}
}

// WithDepthTestEnabled sets whether depth testing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth test enabled state for this pipeline
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled sets whether depth writing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth writes should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth write enabled state for this pipeline
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithDepthBias sets the constant and slope-scaled depth bias, used by shadow map programs to avoid acne.
//
// Parameters:
//   - bias: the constant depth bias
//   - slopeScale: the slope-scaled depth bias
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth bias for this pipeline
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthBias = bias
		p.depthBiasSlopeScale = slopeScale
	}
}

// WithBlend sets the blend mode applied to every color target.
//
// Parameters:
//   - mode: the blend mode
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend mode for this pipeline
func WithBlend(mode renderer.BlendMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blend = mode
	}
}

// WithCullMode sets the face culling mode.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode renderer.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the primitive topology
//
// Returns:
//   - PipelineBuilderOption: a function that sets the topology for this pipeline
func WithTopology(topology renderer.Topology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFullscreen configures a pass-through program that draws a 4-vertex triangle strip over the whole
// target: no depth, no culling.
//
// Returns:
//   - PipelineBuilderOption: a function that applies the fullscreen settings
func WithFullscreen() PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = renderer.TopologyTriangleStrip
		p.depthFormat = renderer.FormatUndefined
		p.depthTestEnabled = false
		p.depthWriteEnabled = false
		p.cullMode = renderer.CullNone
	}
}
