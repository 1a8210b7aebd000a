package toolcall

import (
	"reflect"
	"testing"
)

func TestParseFencedJSONBlock(t *testing.T) {
	text := "Sure, let's check:\n```json\n{\"tool\":\"list_files\",\"params\":{\"path\":\".\"}}\n```\nDone."
	call := Parse(text)
	if call == nil {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "list_files" {
		t.Errorf("tool = %q, want list_files", call.Tool)
	}
	want := map[string]any{"path": "."}
	if !reflect.DeepEqual(call.Params, want) {
		t.Errorf("params = %v, want %v", call.Params, want)
	}
}

func TestParseBareObjectWithTrailingProse(t *testing.T) {
	text := `{"tool":"read_file","params":{"file_path":"main.go"}} and then I will explain the result.`
	call := Parse(text)
	if call == nil {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "read_file" {
		t.Errorf("tool = %q, want read_file", call.Tool)
	}
	if call.Params["file_path"] != "main.go" {
		t.Errorf("file_path = %v, want main.go", call.Params["file_path"])
	}
}

func TestParseNestedObjectAndBracesInStrings(t *testing.T) {
	text := `{"tool":"write_file","params":{"file_path":"a.json","content":"{\"nested\": {\"deep\": 1}}"}} trailing`
	call := Parse(text)
	if call == nil {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "write_file" {
		t.Errorf("tool = %q, want write_file", call.Tool)
	}
	content, _ := call.Params["content"].(string)
	if content != `{"nested": {"deep": 1}}` {
		t.Errorf("content = %q", content)
	}
}

func TestParseNameFieldAlias(t *testing.T) {
	call := Parse(`{"name":"run_command","args":{"command":"ls"}}`)
	if call == nil {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "run_command" {
		t.Errorf("tool = %q, want run_command", call.Tool)
	}
	if call.Params["command"] != "ls" {
		t.Errorf("command = %v", call.Params["command"])
	}
}

func TestParseParamKeyFallbackOrder(t *testing.T) {
	cases := []struct {
		name string
		text string
		want map[string]any
	}{
		{"params", `{"tool":"list_files","params":{"path":"a"}}`, map[string]any{"path": "a"}},
		{"arguments", `{"tool":"list_files","arguments":{"path":"b"}}`, map[string]any{"path": "b"}},
		{"args", `{"tool":"list_files","args":{"path":"c"}}`, map[string]any{"path": "c"}},
		{"top-level", `{"tool":"list_files","path":"d"}`, map[string]any{"path": "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call := Parse(tc.text)
			if call == nil {
				t.Fatal("expected a tool call")
			}
			if !reflect.DeepEqual(call.Params, tc.want) {
				t.Errorf("params = %v, want %v", call.Params, tc.want)
			}
		})
	}
}

func TestParseStringParamsRedecoded(t *testing.T) {
	call := Parse(`{"tool":"web_search","params":"{\"query\":\"golang\"}"}`)
	if call == nil {
		t.Fatal("expected a tool call")
	}
	if call.Params["query"] != "golang" {
		t.Errorf("query = %v, want golang", call.Params["query"])
	}
}

func TestParseMalformedParamsBecomeEmpty(t *testing.T) {
	cases := []string{
		`{"tool":"web_search","params":"not json"}`,
		`{"tool":"web_search","params":[1,2]}`,
		`{"tool":"web_search","params":42}`,
	}
	for _, text := range cases {
		call := Parse(text)
		if call == nil {
			t.Fatalf("expected a tool call for %q", text)
		}
		if len(call.Params) != 0 {
			t.Errorf("params = %v, want empty", call.Params)
		}
	}
}

func TestParseRejectsUnknownTool(t *testing.T) {
	if call := Parse(`{"tool":"delete_everything","params":{}}`); call != nil {
		t.Errorf("expected nil, got %v", call)
	}
}

func TestParseNoToolCall(t *testing.T) {
	cases := []string{
		"",
		"Just a plain text answer with no JSON.",
		"An unbalanced brace { never closes",
		`{"tool":"read_file" this is not json}`,
		"[1, 2, 3]",
	}
	for _, text := range cases {
		if call := Parse(text); call != nil {
			t.Errorf("Parse(%q) = %v, want nil", text, call)
		}
	}
}

func TestParseHintWithArgumentsEnvelope(t *testing.T) {
	text := `to=web_search {"arguments":{"query":"go modules"}}`
	call := Parse(text)
	if call == nil {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "web_search" {
		t.Errorf("tool = %q, want web_search", call.Tool)
	}
	if call.Params["query"] != "go modules" {
		t.Errorf("query = %v", call.Params["query"])
	}
}

func TestParseHintIgnoredWhenToolNamed(t *testing.T) {
	// A named tool wins over a conflicting hint.
	text := `to=run_command {"tool":"list_files","params":{"path":"."}}`
	call := Parse(text)
	if call == nil {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "list_files" {
		t.Errorf("tool = %q, want list_files", call.Tool)
	}
}

func TestParseHintWithUnknownNameGivesNil(t *testing.T) {
	if call := Parse(`to=explode {"arguments":{}}`); call != nil {
		t.Errorf("expected nil, got %v", call)
	}
}

func TestParsePrefersJSONFenceOverOtherFences(t *testing.T) {
	text := "```python\nprint('hi')\n```\n```json\n{\"tool\":\"read_file\",\"params\":{\"file_path\":\"x\"}}\n```"
	call := Parse(text)
	if call == nil {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "read_file" {
		t.Errorf("tool = %q, want read_file", call.Tool)
	}
}

func TestParseResultAlwaysWellFormed(t *testing.T) {
	// For any input, a non-nil result names a known tool and has a
	// non-nil parameter map.
	inputs := []string{
		`{"tool":"list_files"}`,
		`{"name":"web_search","arguments":"{}"}`,
		`{"tool":"run_command","args":null}`,
	}
	for _, text := range inputs {
		call := Parse(text)
		if call == nil {
			continue
		}
		if !IsKnownTool(call.Tool) {
			t.Errorf("Parse(%q) returned unknown tool %q", text, call.Tool)
		}
		if call.Params == nil {
			t.Errorf("Parse(%q) returned nil params", text)
		}
	}
}
