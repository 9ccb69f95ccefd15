package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field or parameter: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	// or handle types: @group(1) @binding(0) var gPosition: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// Reflect parses the entry points, resource bindings and vertex buffer layouts of a resolved WGSL
// source. Unrecognized declarations are skipped rather than reported; the backend's compiler is the
// authority on validity.
//
// Parameters:
//   - source: the resolved WGSL source
//
// Returns:
//   - Reflection: the parsed program interface
func Reflect(source string) Reflection {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	sizes := computeStructSizes(structs)

	r := Reflection{
		VertexEntry:   parseEntryPoint(cleaned, vertexEntryRegex),
		FragmentEntry: parseEntryPoint(cleaned, fragmentEntryRegex),
		Bindings:      parseBindings(cleaned, sizes),
	}
	if r.VertexEntry != "" {
		r.VertexLayouts = parseVertexLayouts(cleaned, r.VertexEntry, structs)
	}
	return r
}

// parseBindings extracts every @group(N) @binding(M) declaration, sorted by group then binding.
//
// Parameters:
//   - cleaned: WGSL source with comments stripped
//   - structSizes: layouts of the source's structs
//
// Returns:
//   - []Binding: the parsed bindings
func parseBindings(cleaned string, structSizes map[string]wgslTypeLayout) []Binding {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1)
	out := make([]Binding, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		typeName := strings.TrimSpace(match[5])

		b := classifyResource(strings.TrimSpace(match[3]), typeName)
		b.Group = uint32(group)
		b.Binding = uint32(binding)
		b.Name = strings.TrimSpace(match[4])

		if b.Kind == BindingUniform || b.Kind == BindingStorage || b.Kind == BindingStorageReadWrite {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok && layout.size > 0 {
				b.MinSize = layout.size
			}
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out
}

// parseEntryPoint returns the name of the first function annotated for re, or "".
func parseEntryPoint(cleaned string, re *regexp.Regexp) string {
	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseVertexLayouts returns one layout per struct-typed parameter of the vertex entry point that is a
// pure vertex input struct. Builtin parameters such as @builtin(vertex_index) contribute nothing.
//
// Parameters:
//   - cleaned: WGSL source with comments stripped
//   - entry: the vertex entry point name
//   - structs: the parsed structs of the source
//
// Returns:
//   - []VertexLayout: the layouts in parameter order
func parseVertexLayouts(cleaned, entry string, structs []parsedStruct) []VertexLayout {
	params, ok := entryParams(cleaned, entry)
	if !ok {
		return nil
	}
	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}

	var out []VertexLayout
	for _, p := range splitAtTopLevelCommas(params) {
		p = strings.TrimSpace(p)
		if p == "" || builtinRegex.MatchString(p) {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(p)
		if fm == nil {
			continue
		}
		ps, ok := byName[strings.TrimSpace(fm[2])]
		if !ok || !isVertexInputStruct(ps) {
			continue
		}
		if layout, ok := buildVertexLayout(ps); ok {
			out = append(out, layout)
		}
	}
	return out
}

// entryParams returns the text between the parentheses of fn entry(...), honoring nested parentheses.
func entryParams(cleaned, entry string) (string, bool) {
	loc := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(entry) + `\s*\(`).FindStringIndex(cleaned)
	if loc == nil {
		return "", false
	}
	depth := 1
	for i := loc[1]; i < len(cleaned); i++ {
		switch cleaned[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return cleaned[loc[1]:i], true
			}
		}
	}
	return "", false
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields parses the body of a struct block into individual fields.
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		field.isBuiltin = builtinRegex.MatchString(line)
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}
	return fields
}
