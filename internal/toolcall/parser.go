package toolcall

import (
	"encoding/json"
	"regexp"
	"strings"

	"locode/internal/logging"
)

// Call is a structured tool invocation extracted from model output text.
// Calls are value objects: two calls are the same invocation when their
// tool name and parameter contents match.
type Call struct {
	Tool   string
	Params map[string]any
}

// knownTools is the fixed set of tools the agent can invoke.
var knownTools = map[string]bool{
	"read_file":   true,
	"write_file":  true,
	"run_command": true,
	"list_files":  true,
	"web_search":  true,
}

// KnownTools returns the enumerated tool names in a stable order.
func KnownTools() []string {
	return []string{"read_file", "write_file", "run_command", "list_files", "web_search"}
}

// IsKnownTool reports whether name is one of the enumerated tools.
func IsKnownTool(name string) bool {
	return knownTools[name]
}

var (
	jsonFencePattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFencePattern  = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\\s*(.*?)\\s*```")

	// Some models emit a channel-style recipient marker instead of a
	// "tool" field, e.g. `to=run_command {"command": "ls"}`.
	hintPattern = regexp.MustCompile(`to=([A-Za-z_][A-Za-z0-9_]*)`)
)

// Parse attempts to extract exactly one tool invocation from model text.
// It returns nil when no well-formed invocation naming a known tool is
// found. Decode errors never surface; they degrade to a nil result.
func Parse(text string) *Call {
	if text == "" {
		return nil
	}

	raw := extractObject(fencedCandidate(text))
	if raw == "" {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return nil
	}

	name := stringField(obj, "tool")
	if name == "" {
		name = stringField(obj, "name")
	}
	if IsKnownTool(name) {
		// A named tool is authoritative; any hint elsewhere in the text
		// is ignored.
		call := &Call{Tool: name, Params: resolveParams(obj)}
		logging.Debug("parsed tool call", "tool", call.Tool, "param_count", len(call.Params))
		return call
	}

	return parseWithHint(text, obj)
}

// fencedCandidate returns the interior of the first fenced code block,
// preferring a json-tagged fence, or the whole text when none exists.
func fencedCandidate(text string) string {
	if m := jsonFencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := anyFencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// extractObject locates the first balanced JSON object in text by brace
// counting. Braces inside string literals do not affect the count.
// Trailing prose after the closing brace is ignored. Returns "" when no
// position brings the count back to zero.
func extractObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// resolveParams extracts the parameter object from a decoded tool call.
// It checks "params", then "arguments", then "args"; when none is
// present, the remaining top-level fields are the parameters.
func resolveParams(obj map[string]any) map[string]any {
	for _, key := range []string{"params", "arguments", "args"} {
		if v, ok := obj[key]; ok {
			return coerceParams(v)
		}
	}

	params := make(map[string]any)
	for k, v := range obj {
		if k == "tool" || k == "name" {
			continue
		}
		params[k] = v
	}
	return params
}

// coerceParams normalizes a parameter value to a map. Textual values get
// a second decode attempt; anything that is not object-shaped becomes an
// empty parameter set.
func coerceParams(v any) map[string]any {
	switch p := v.(type) {
	case map[string]any:
		if p == nil {
			return map[string]any{}
		}
		return p
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(p), &decoded); err != nil || decoded == nil {
			return map[string]any{}
		}
		return decoded
	default:
		return map[string]any{}
	}
}

// parseWithHint handles the case where the decoded object names no known
// tool but the surrounding text carries a to=<tool> recipient marker.
func parseWithHint(text string, obj map[string]any) *Call {
	m := hintPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return nil
	}
	name := text[m[2]:m[3]]
	if !IsKnownTool(name) {
		return nil
	}

	// A bare {"arguments": ...} envelope unwraps directly.
	if len(obj) == 1 {
		if v, ok := obj["arguments"]; ok {
			return &Call{Tool: name, Params: coerceParams(v)}
		}
	}

	// Retry parameter resolution against the text after the hint marker.
	if raw := extractObject(text[m[1]:]); raw != "" {
		var after map[string]any
		if err := json.Unmarshal([]byte(raw), &after); err == nil && after != nil {
			return &Call{Tool: name, Params: resolveParams(after)}
		}
	}

	return &Call{Tool: name, Params: resolveParams(obj)}
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}
