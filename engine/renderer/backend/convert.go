package backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormats maps WGSL vertex attribute types to wgpu vertex formats.
var vertexFormats = map[string]wgpu.VertexFormat{
	"f32":       wgpu.VertexFormatFloat32,
	"vec2f":     wgpu.VertexFormatFloat32x2,
	"vec2<f32>": wgpu.VertexFormatFloat32x2,
	"vec3f":     wgpu.VertexFormatFloat32x3,
	"vec3<f32>": wgpu.VertexFormatFloat32x3,
	"vec4f":     wgpu.VertexFormatFloat32x4,
	"vec4<f32>": wgpu.VertexFormatFloat32x4,
	"i32":       wgpu.VertexFormatSint32,
	"vec2i":     wgpu.VertexFormatSint32x2,
	"vec2<i32>": wgpu.VertexFormatSint32x2,
	"vec3i":     wgpu.VertexFormatSint32x3,
	"vec3<i32>": wgpu.VertexFormatSint32x3,
	"vec4i":     wgpu.VertexFormatSint32x4,
	"vec4<i32>": wgpu.VertexFormatSint32x4,
	"u32":       wgpu.VertexFormatUint32,
	"vec2u":     wgpu.VertexFormatUint32x2,
	"vec2<u32>": wgpu.VertexFormatUint32x2,
	"vec3u":     wgpu.VertexFormatUint32x3,
	"vec3<u32>": wgpu.VertexFormatUint32x3,
	"vec4u":     wgpu.VertexFormatUint32x4,
	"vec4<u32>": wgpu.VertexFormatUint32x4,
}

// textureDimensions maps reflected view dimensions to wgpu.
var textureDimensions = map[string]wgpu.TextureViewDimension{
	"1d":         wgpu.TextureViewDimension1D,
	"2d":         wgpu.TextureViewDimension2D,
	"2d_array":   wgpu.TextureViewDimension2DArray,
	"3d":         wgpu.TextureViewDimension3D,
	"cube":       wgpu.TextureViewDimensionCube,
	"cube_array": wgpu.TextureViewDimensionCubeArray,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"float": wgpu.TextureSampleTypeFloat,
	"sint":  wgpu.TextureSampleTypeSint,
	"uint":  wgpu.TextureSampleTypeUint,
}

// textureFormat resolves an engine format to wgpu, substituting the configured surface format.
func (b *wgpuBackend) textureFormat(f renderer.TextureFormat) wgpu.TextureFormat {
	switch f {
	case renderer.FormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case renderer.FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case renderer.FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	case renderer.FormatSurface:
		return b.surfaceFormat
	default:
		return wgpu.TextureFormatUndefined
	}
}

func textureUsage(u renderer.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&renderer.TextureUsageRenderTarget != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&renderer.TextureUsageSampled != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&renderer.TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

func bufferUsage(u renderer.BufferUsage) wgpu.BufferUsage {
	switch u {
	case renderer.BufferUsageIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case renderer.BufferUsageStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	}
}

func loadOp(op renderer.LoadOp) wgpu.LoadOp {
	if op == renderer.LoadKeep {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func cullMode(m renderer.CullMode) wgpu.CullMode {
	switch m {
	case renderer.CullBack:
		return wgpu.CullModeBack
	case renderer.CullFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

func topology(t renderer.Topology) wgpu.PrimitiveTopology {
	switch t {
	case renderer.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case renderer.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func blendState(m renderer.BlendMode) *wgpu.BlendState {
	switch m {
	case renderer.BlendAdditive:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case renderer.BlendAlpha:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	default:
		return nil
	}
}

// layoutEntry converts a reflected binding into a wgpu layout entry visible to both stages. The uniform
// block at group 0 binding 0 is bound with a dynamic offset into the frame's uniform arena.
func layoutEntry(b shader.Binding) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    b.Binding,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	switch b.Kind {
	case shader.BindingUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = b.MinSize
		entry.Buffer.HasDynamicOffset = b.Group == 0 && b.Binding == renderer.BindingUniforms
	case shader.BindingStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		entry.Buffer.MinBindingSize = b.MinSize
	case shader.BindingStorageReadWrite:
		entry.Visibility = wgpu.ShaderStageFragment
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		entry.Buffer.MinBindingSize = b.MinSize
	case shader.BindingTexture:
		entry.Texture.SampleType = sampleTypes[b.SampleType]
		entry.Texture.ViewDimension = textureDimensions[b.Dimension]
	case shader.BindingDepthTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = textureDimensions[b.Dimension]
	case shader.BindingSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case shader.BindingComparisonSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	}
	return entry
}

// vertexLayouts converts reflected vertex input structs into wgpu buffer layouts, one per slot.
func vertexLayouts(layouts []shader.VertexLayout) ([]wgpu.VertexBufferLayout, error) {
	out := make([]wgpu.VertexBufferLayout, 0, len(layouts))
	for _, l := range layouts {
		attrs := make([]wgpu.VertexAttribute, 0, len(l.Attributes))
		for _, a := range l.Attributes {
			f, ok := vertexFormats[a.Type]
			if !ok {
				return nil, fmt.Errorf("backend: %s uses unsupported vertex type %s", l.Struct, a.Type)
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         f,
				Offset:         a.Offset,
				ShaderLocation: a.Location,
			})
		}
		out = append(out, wgpu.VertexBufferLayout{
			ArrayStride: l.Stride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return out, nil
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}
