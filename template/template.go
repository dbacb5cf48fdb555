// Package template evaluates the `{expr}` / `{if ...}` grammar used in
// user-supplied start/end G-code (spec.md §4.10), grounded on CuraEngine's
// GcodeTemplateResolver
// (original_source/src/GcodeTemplateResolver.cpp,
// original_source/include/GcodeTemplateResolver.h).
package template

import (
	"strconv"
	"strings"
)

// Context provides setting lookups to the resolver. The template grammar
// lets a block select which extruder's local settings apply, so
// implementations must support both the global and a specific extruder's
// view.
type Context interface {
	// Lookup returns the value of a setting by key from the global
	// context, or ok=false if the key is unknown.
	Lookup(key string) (value string, ok bool)
	// LookupExtruder is like Lookup but scoped to a specific extruder,
	// falling back to the global value if the extruder doesn't override
	// the key.
	LookupExtruder(extruder int, key string) (value string, ok bool)
}

// postSliceSymbols is the hard-coded allow-list of identifiers that must be
// preserved verbatim (unexpanded) for a later pass, rather than treated as
// an error, when they don't resolve against Context (spec.md §4.10).
var postSliceSymbols = map[string]bool{
	"print_time":      true,
	"filament_amount":  true,
	"filament_weight":  true,
	"filament_cost":    true,
	"jobname":          true,
}

// Resolve expands every `{...}` block in tmpl using ctx, returning the
// resolved string with a trailing newline appended if tmpl doesn't already
// end with one (spec.md §4.10). A quoted literal block `{"..."}` is
// replaced with its literal contents verbatim, including any braces inside
// the quotes (supplemented from original_source, see SPEC_FULL.md §4).
func Resolve(tmpl string, ctx Context) string {
	var out strings.Builder
	state := newConditionalState()

	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '{' {
			if state.shouldEmit() {
				out.WriteByte(tmpl[i])
			}
			i++
			continue
		}

		end := matchingBrace(tmpl, i)
		if end == -1 {
			// Unterminated block: emit the rest verbatim and stop, like a
			// parse error that leaves the raw template in the output
			// (spec.md §7).
			if state.shouldEmit() {
				out.WriteString(tmpl[i:])
			}
			break
		}

		block := tmpl[i+1 : end]
		resolved, consumedAsControl := evalBlock(block, ctx, state)
		if state.shouldEmit() && !consumedAsControl {
			out.WriteString(resolved)
		}
		i = end + 1
	}

	result := out.String()
	if !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}

// matchingBrace returns the index of the '}' matching the '{' at open, or
// -1 if none exists (single-level, no nested braces inside a block other
// than the quoted-literal escape which this scans past specially).
func matchingBrace(s string, open int) int {
	inQuote := false
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '}':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

type conditionalState struct {
	// stack of whether the current branch (down to the matching endif) is
	// "taken" -- a simple boolean, since nested conditionals are rejected
	// (spec.md §4.10: "nested conditionals are rejected as an error").
	active       bool
	branchTaken  bool
	inConditional bool
}

func newConditionalState() *conditionalState {
	return &conditionalState{active: true}
}

func (c *conditionalState) shouldEmit() bool {
	return c.active
}

// evalBlock evaluates one `{ ... }` block. The bool return reports whether
// the block was a control-flow keyword (if/elif/else/endif) that never
// produces literal output itself.
func evalBlock(block string, ctx Context, state *conditionalState) (string, bool) {
	trimmed := strings.TrimSpace(block)

	if strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) && len(trimmed) >= 2 {
		return trimmed[1 : len(trimmed)-1], false
	}

	fields := strings.Fields(trimmed)
	if len(fields) > 0 {
		switch fields[0] {
		case "if":
			if state.inConditional {
				// Nested conditional: reject, leave raw.
				return "{" + block + "}", false
			}
			state.inConditional = true
			cond := strings.TrimSpace(strings.TrimPrefix(trimmed, "if"))
			taken := evalCondition(cond, ctx)
			state.branchTaken = taken
			state.active = taken
			return "", true
		case "elif":
			if !state.inConditional {
				return "{" + block + "}", false
			}
			if state.branchTaken {
				state.active = false
				return "", true
			}
			cond := strings.TrimSpace(strings.TrimPrefix(trimmed, "elif"))
			taken := evalCondition(cond, ctx)
			state.branchTaken = taken
			state.active = taken
			return "", true
		case "else":
			if !state.inConditional {
				return "{" + block + "}", false
			}
			state.active = !state.branchTaken
			state.branchTaken = true
			return "", true
		case "endif":
			if !state.inConditional {
				return "{" + block + "}", false
			}
			state.inConditional = false
			state.active = true
			state.branchTaken = false
			return "", true
		}
	}

	return resolveExpression(trimmed, ctx), false
}

// resolveExpression evaluates `EXPRESSION (',' EXPRESSION)?`: the optional
// second expression selects the extruder whose settings provide context
// (spec.md §4.10).
func resolveExpression(expr string, ctx Context) string {
	parts := splitTopLevelComma(expr)
	key := strings.TrimSpace(parts[0])

	if len(parts) == 2 {
		extruder, ok := resolveExtruderSelector(strings.TrimSpace(parts[1]), ctx)
		if ok {
			if val, ok := ctx.LookupExtruder(extruder, key); ok {
				return val
			}
		}
	}

	if val, ok := ctx.Lookup(key); ok {
		return val
	}

	if postSliceSymbols[key] {
		return "{" + expr + "}"
	}

	// Unknown identifier -- per spec.md §7, leave the template unexpanded.
	return "{" + expr + "}"
}

// resolveExtruderSelector coerces an integer, float, or string expression
// result to an extruder index (spec.md §4.10).
func resolveExtruderSelector(expr string, ctx Context) (int, bool) {
	if n, err := strconv.Atoi(expr); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return int(f), true
	}
	if val, ok := ctx.Lookup(expr); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n, true
		}
	}
	return 0, false
}

func splitTopLevelComma(s string) []string {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return []string{s[:i], s[i+1:]}
			}
		}
	}
	return []string{s}
}

// evalCondition evaluates a boolean expression over settings. The grammar
// supported is intentionally small (spec.md leaves the full arithmetic
// expression language's grammar unspecified beyond "over settings"):
// `key`, `key == value`, `key != value`, `key > value`, `key < value`, and
// boolean truthiness of a bare key otherwise.
func evalCondition(cond string, ctx Context) bool {
	for _, op := range []string{"==", "!=", ">=", "<=", ">", "<"} {
		if idx := strings.Index(cond, op); idx != -1 {
			left := strings.TrimSpace(cond[:idx])
			right := strings.TrimSpace(cond[idx+len(op):])
			leftVal, ok := ctx.Lookup(left)
			if !ok {
				return false
			}
			return compare(leftVal, right, op)
		}
	}
	val, ok := ctx.Lookup(strings.TrimSpace(cond))
	if !ok {
		return false
	}
	return isTruthy(val)
}

func compare(left, right, op string) bool {
	lf, lerr := strconv.ParseFloat(left, 64)
	rf, rerr := strconv.ParseFloat(right, 64)
	if lerr == nil && rerr == nil {
		switch op {
		case "==":
			return lf == rf
		case "!=":
			return lf != rf
		case ">":
			return lf > rf
		case "<":
			return lf < rf
		case ">=":
			return lf >= rf
		case "<=":
			return lf <= rf
		}
	}
	switch op {
	case "==":
		return left == right
	case "!=":
		return left != right
	default:
		return false
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}

// MapContext is a trivial Context backed by plain maps, useful for tests
// and small embedding programs that don't have a full Settings bundle.
type MapContext struct {
	Global    map[string]string
	Extruders map[int]map[string]string
}

func (m MapContext) Lookup(key string) (string, bool) {
	v, ok := m.Global[key]
	return v, ok
}

func (m MapContext) LookupExtruder(extruder int, key string) (string, bool) {
	if ext, ok := m.Extruders[extruder]; ok {
		if v, ok := ext[key]; ok {
			return v, true
		}
	}
	return m.Lookup(key)
}
