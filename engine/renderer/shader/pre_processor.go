// pre_processor.go implements the two source transforms applied before a WGSL program is compiled:
// #include <name> splicing against the library's registered sources, and #ifdef/#ifndef/#else/#endif
// selection against a set of defines.
package shader

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

var (
	// ErrUnknownShader is returned when a source name is not registered.
	ErrUnknownShader = errors.New("shader: unknown shader")

	// ErrUnknownInclude is returned when an #include names an unregistered source.
	ErrUnknownInclude = errors.New("shader: unknown include")

	// ErrIncludeCycle is returned when a source transitively includes itself.
	ErrIncludeCycle = errors.New("shader: include cycle")

	// ErrUnbalancedConditional is returned for a stray #else/#endif or an unterminated #ifdef.
	ErrUnbalancedConditional = errors.New("shader: unbalanced conditional")
)

// includeRegex matches a whole include directive line and captures the included name.
var includeRegex = regexp.MustCompile(`[\t ]*#include\s+<([a-zA-Z0-9_]+)>`)

// expandIncludes returns the source registered under name with every #include replaced, recursively,
// by the included source. Each name is spliced at most once per expansion; later includes of the same
// name expand to nothing.
//
// Parameters:
//   - name: the root source name
//   - raw: registered sources keyed by name
//
// Returns:
//   - string: the expanded source
//   - error: ErrUnknownShader, ErrUnknownInclude or ErrIncludeCycle wrapped with the include chain
func expandIncludes(name string, raw map[string]string) (string, error) {
	if _, ok := raw[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShader, name)
	}
	seen := map[string]bool{name: true}
	return expandInto(name, raw, []string{name}, seen)
}

func expandInto(name string, raw map[string]string, stack []string, seen map[string]bool) (string, error) {
	src := raw[name]
	matches := includeRegex.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(src[last:m[0]])
		last = m[1]
		inc := src[m[2]:m[3]]

		if slices.Contains(stack, inc) {
			return "", fmt.Errorf("%w: %s -> %s", ErrIncludeCycle, strings.Join(stack, " -> "), inc)
		}
		if _, ok := raw[inc]; !ok {
			return "", fmt.Errorf("%w: <%s> in %s", ErrUnknownInclude, inc, strings.Join(stack, " -> "))
		}
		if seen[inc] {
			continue
		}
		seen[inc] = true

		body, err := expandInto(inc, raw, append(stack, inc), seen)
		if err != nil {
			return "", err
		}
		sb.WriteString(body)
	}
	sb.WriteString(src[last:])
	return sb.String(), nil
}

// parseDefines splits NAME and NAME=VALUE entries into a define map.
func parseDefines(defines []string) map[string]string {
	out := make(map[string]string, len(defines))
	for _, d := range defines {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, value, _ := strings.Cut(d, "=")
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out
}

// conditional is one open #ifdef/#ifndef block.
type conditional struct {
	parentActive bool
	taken        bool
	inElse       bool
}

// applyDefines keeps the lines selected by the conditional directives and drops the directives
// themselves. Defines with a value are emitted as WGSL constants at the top of the result.
//
// Parameters:
//   - src: the include-expanded source
//   - defines: define names mapped to their value, "" for a bare define
//
// Returns:
//   - string: the selected source
//   - error: ErrUnbalancedConditional wrapped with the offending line number
func applyDefines(src string, defines map[string]string) (string, error) {
	var sb strings.Builder
	for _, name := range slices.Sorted(maps.Keys(defines)) {
		if v := defines[name]; v != "" {
			fmt.Fprintf(&sb, "const %s = %s;\n", name, v)
		}
	}

	var stack []conditional
	active := true
	for i, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		directive, arg, _ := strings.Cut(trimmed, " ")
		arg = strings.TrimSpace(arg)

		switch directive {
		case "#ifdef", "#ifndef":
			_, defined := defines[arg]
			cond := defined == (directive == "#ifdef")
			stack = append(stack, conditional{parentActive: active, taken: cond})
			active = active && cond
			continue
		case "#else":
			if len(stack) == 0 || stack[len(stack)-1].inElse {
				return "", fmt.Errorf("%w: unexpected #else on line %d", ErrUnbalancedConditional, i+1)
			}
			top := &stack[len(stack)-1]
			top.inElse = true
			active = top.parentActive && !top.taken
			continue
		case "#endif":
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: unexpected #endif on line %d", ErrUnbalancedConditional, i+1)
			}
			active = stack[len(stack)-1].parentActive
			stack = stack[:len(stack)-1]
			continue
		}
		if active {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	if len(stack) > 0 {
		return "", fmt.Errorf("%w: %d unterminated block(s)", ErrUnbalancedConditional, len(stack))
	}
	return sb.String(), nil
}
