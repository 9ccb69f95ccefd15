package shader

// BindingKind classifies a resource declared with @group/@binding.
type BindingKind int

const (
	BindingUnknown BindingKind = iota
	BindingUniform
	BindingStorage
	BindingStorageReadWrite
	BindingTexture
	BindingDepthTexture
	BindingSampler
	BindingComparisonSampler
)

// String returns the WGSL-style name of the kind.
func (k BindingKind) String() string {
	switch k {
	case BindingUniform:
		return "uniform"
	case BindingStorage:
		return "storage"
	case BindingStorageReadWrite:
		return "storage_read_write"
	case BindingTexture:
		return "texture"
	case BindingDepthTexture:
		return "depth_texture"
	case BindingSampler:
		return "sampler"
	case BindingComparisonSampler:
		return "sampler_comparison"
	default:
		return "unknown"
	}
}

// Binding is one resource declaration parsed from a WGSL source.
type Binding struct {
	Group   uint32
	Binding uint32
	Name    string
	Kind    BindingKind

	// MinSize is the byte size of a buffer binding's type, or the element stride for a runtime-sized array.
	MinSize uint64

	// Dimension is the texture view dimension such as "2d" or "cube".
	Dimension string

	// SampleType is "float", "sint" or "uint" for sampled textures.
	SampleType string
}

// VertexAttribute is one @location field of a vertex input struct.
type VertexAttribute struct {
	Location uint32

	// Type is the WGSL type of the field, such as "vec3f" or "vec4<u32>".
	Type   string
	Offset uint64
}

// VertexLayout describes one vertex buffer consumed by the vertex entry point.
type VertexLayout struct {
	Struct     string
	Stride     uint64
	Attributes []VertexAttribute
}

// Reflection is the interface of a WGSL program as seen by a backend.
type Reflection struct {
	VertexEntry   string
	FragmentEntry string

	// Bindings are sorted by group, then binding.
	Bindings []Binding

	// VertexLayouts are in vertex entry parameter order, one per buffer slot.
	VertexLayouts []VertexLayout
}

// Group returns the bindings of group g.
func (r Reflection) Group(g uint32) []Binding {
	var out []Binding
	for _, b := range r.Bindings {
		if b.Group == g {
			out = append(out, b)
		}
	}
	return out
}

// Lookup returns the binding at group g, index b.
func (r Reflection) Lookup(g, b uint32) (Binding, bool) {
	for _, bd := range r.Bindings {
		if bd.Group == g && bd.Binding == b {
			return bd, true
		}
	}
	return Binding{}, false
}

// MaxGroup returns the highest group index used, or -1 when the source declares no bindings.
func (r Reflection) MaxGroup() int {
	m := -1
	for _, b := range r.Bindings {
		if int(b.Group) > m {
			m = int(b.Group)
		}
	}
	return m
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}
