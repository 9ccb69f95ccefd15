package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string
	source      string

	vertexEntry     string
	fragmentEntry   string
	explicitEntries bool
	depthOnly       bool

	colorFormats []renderer.TextureFormat
	depthFormat  renderer.TextureFormat

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32

	blend    renderer.BlendMode
	cullMode renderer.CullMode
	topology renderer.Topology
}

// Pipeline describes a render program: a resolved WGSL source, its entry points, the formats of the
// targets it renders into, and its fixed-function state. A Pipeline is handed to
// renderer.Backend.CreateProgram to obtain a compiled renderer.Program.
type Pipeline interface {
	renderer.ProgramDescriptor

	// WithSource returns a copy of the pipeline that uses a different source, keeping every other setting.
	// Entry points are derived again from the new source unless they were set explicitly.
	//
	// Parameters:
	//   - source: the resolved WGSL source
	//
	// Returns:
	//   - Pipeline: the copy
	WithSource(source string) Pipeline
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline with all specified options applied.
//
// Defaults: depth test and depth write enabled against a Depth32Float target, no culling, triangle list
// topology, no blending, one RGBA16Float color target. Entry points not set with WithEntryPoints are taken
// from the first @vertex and @fragment functions of the source.
//
// Parameters:
//   - pipelineKey: a unique identifier for the pipeline
//   - source: the resolved WGSL source
//   - opts: functional options applied in order
//
// Returns:
//   - Pipeline: the configured pipeline
func NewPipeline(pipelineKey string, source string, opts ...PipelineBuilderOption) Pipeline {
	if source == "" {
		panic(fmt.Sprintf("pipeline: %s must have a source", pipelineKey))
	}
	p := &pipeline{
		pipelineKey:       pipelineKey,
		source:            source,
		colorFormats:      []renderer.TextureFormat{renderer.FormatRGBA16Float},
		depthFormat:       renderer.FormatDepth32Float,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blend:             renderer.BlendNone,
		cullMode:          renderer.CullNone,
		topology:          renderer.TopologyTriangleList,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.deriveEntryPoints()
	return p
}

func (p *pipeline) Key() string {
	return p.pipelineKey
}

func (p *pipeline) Source() string {
	return p.source
}

func (p *pipeline) VertexEntry() string {
	return p.vertexEntry
}

func (p *pipeline) FragmentEntry() string {
	if p.depthOnly {
		return ""
	}
	return p.fragmentEntry
}

func (p *pipeline) ColorFormats() []renderer.TextureFormat {
	if p.depthOnly {
		return nil
	}
	out := make([]renderer.TextureFormat, len(p.colorFormats))
	copy(out, p.colorFormats)
	return out
}

func (p *pipeline) DepthFormat() renderer.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled && p.depthFormat != renderer.FormatUndefined
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled && p.depthFormat != renderer.FormatUndefined
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) CullMode() renderer.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() renderer.Topology {
	return p.topology
}

func (p *pipeline) Blend() renderer.BlendMode {
	return p.blend
}

func (p *pipeline) WithSource(source string) Pipeline {
	cp := *p
	cp.source = source
	cp.colorFormats = append([]renderer.TextureFormat(nil), p.colorFormats...)
	if !cp.explicitEntries {
		cp.vertexEntry, cp.fragmentEntry = "", ""
	}
	cp.deriveEntryPoints()
	return &cp
}

// deriveEntryPoints fills entry points that were not set explicitly from the source.
func (p *pipeline) deriveEntryPoints() {
	if p.vertexEntry != "" && (p.fragmentEntry != "" || p.depthOnly) {
		return
	}
	r := shader.Reflect(p.source)
	if p.vertexEntry == "" {
		p.vertexEntry = r.VertexEntry
	}
	if p.fragmentEntry == "" {
		p.fragmentEntry = r.FragmentEntry
	}
	if p.vertexEntry == "" {
		panic(fmt.Sprintf("pipeline: %s has no @vertex entry point", p.pipelineKey))
	}
}
