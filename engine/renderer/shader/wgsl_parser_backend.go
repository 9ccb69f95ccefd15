package shader

import (
	"strconv"
	"strings"
)

// wgslPrimitiveLayoutMap maps WGSL scalar, vector and matrix type names to their byte size and alignment.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},
	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},
	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// vertexTypeSizes maps WGSL types accepted as vertex attributes to their packed byte size.
var vertexTypeSizes = map[string]uint64{
	"f32":       4,
	"vec2f":     8,
	"vec2<f32>": 8,
	"vec3f":     12,
	"vec3<f32>": 12,
	"vec4f":     16,
	"vec4<f32>": 16,
	"i32":       4,
	"vec2i":     8,
	"vec2<i32>": 8,
	"vec3i":     12,
	"vec3<i32>": 12,
	"vec4i":     16,
	"vec4<i32>": 16,
	"u32":       4,
	"vec2u":     8,
	"vec2<u32>": 8,
	"vec3u":     12,
	"vec3<u32>": 12,
	"vec4u":     16,
	"vec4<u32>": 16,
}

// roundUpAlign rounds value up to the next multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a WGSL type name to its size and alignment using primitives and previously
// computed struct layouts. A runtime-sized array resolves to one element stride.
//
// Parameters:
//   - typeName: the WGSL type name, e.g. "f32", "LightUniform", "array<mat4x4f, 64>"
//   - knownTypes: already-resolved struct layouts
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false for unknown types
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}
	if !strings.HasPrefix(typeName, "array<") || !strings.HasSuffix(typeName, ">") {
		return wgslTypeLayout{}, false
	}

	inner := typeName[len("array<") : len(typeName)-1]
	elemName, countStr, fixed := strings.Cut(inner, ",")
	elem, ok := resolveTypeLayout(strings.TrimSpace(elemName), knownTypes)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elem.align, elem.size)
	if !fixed {
		return wgslTypeLayout{stride, elem.align}, true
	}
	count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{count * stride, elem.align}, true
}

// computeStructLayout lays out a struct's fields at aligned offsets and rounds the size up to the largest
// field alignment. A trailing runtime-sized array contributes one element.
func computeStructLayout(ps parsedStruct, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	offset := uint64(0)
	maxAlign := uint64(1)
	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(field.typeName, knownTypes)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		maxAlign = max(maxAlign, fl.align)
	}
	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes resolves the layouts of every struct, iterating until structs that embed other
// structs can be resolved.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)
	for len(remaining) > 0 {
		next := remaining[:0]
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}

// classifyResource determines the binding kind from the address space qualifier and type name, filling
// the texture dimension and sample type for texture bindings.
//
// Parameters:
//   - addressSpace: the var<...> qualifier such as "uniform" or "storage, read", empty for handle types
//   - typeName: the WGSL type such as "texture_2d<f32>" or "sampler_comparison"
//
// Returns:
//   - Binding: a binding with Kind and texture details populated
func classifyResource(addressSpace, typeName string) Binding {
	var b Binding
	if addressSpace != "" {
		switch {
		case addressSpace == "uniform":
			b.Kind = BindingUniform
		case strings.HasPrefix(addressSpace, "storage") && strings.Contains(addressSpace, "read_write"):
			b.Kind = BindingStorageReadWrite
		case strings.HasPrefix(addressSpace, "storage"):
			b.Kind = BindingStorage
		}
		return b
	}

	base, param := splitTypeParams(typeName)
	switch {
	case typeName == "sampler":
		b.Kind = BindingSampler
	case typeName == "sampler_comparison":
		b.Kind = BindingComparisonSampler
	case strings.HasPrefix(base, "texture_depth_"):
		b.Kind = BindingDepthTexture
		b.Dimension = strings.TrimPrefix(base, "texture_depth_")
		b.SampleType = "depth"
	case strings.HasPrefix(base, "texture_") && !strings.HasPrefix(base, "texture_storage_"):
		b.Kind = BindingTexture
		b.Dimension = strings.TrimPrefix(base, "texture_")
		switch param {
		case "i32":
			b.SampleType = "sint"
		case "u32":
			b.SampleType = "uint"
		default:
			b.SampleType = "float"
		}
	}
	return b
}

// splitTypeParams splits "texture_2d<f32>" into ("texture_2d", "f32").
func splitTypeParams(typeName string) (base string, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return before, strings.TrimSpace(strings.TrimSuffix(after, ">"))
}

// stripComments removes line and nested block comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i++
				continue
			}
			if source[i] == '*' && source[i+1] == '/' && depth > 0 {
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// isVertexInputStruct reports whether every field of the struct is a @location attribute.
func isVertexInputStruct(ps parsedStruct) bool {
	if len(ps.fields) == 0 {
		return false
	}
	for _, f := range ps.fields {
		if f.isBuiltin || f.location < 0 {
			return false
		}
	}
	return true
}

// buildVertexLayout packs the struct's fields in declaration order. It fails when a field type cannot
// be a vertex attribute.
func buildVertexLayout(ps parsedStruct) (VertexLayout, bool) {
	layout := VertexLayout{Struct: ps.name, Attributes: make([]VertexAttribute, 0, len(ps.fields))}
	var offset uint64
	for _, f := range ps.fields {
		size, ok := vertexTypeSizes[f.typeName]
		if !ok {
			return VertexLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, VertexAttribute{
			Location: uint32(f.location),
			Type:     f.typeName,
			Offset:   offset,
		})
		offset += size
	}
	layout.Stride = offset
	return layout, true
}

// splitAtTopLevelCommas splits s at commas not nested inside angle brackets or parentheses.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
