package tools

import (
	"testing"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<b>bold</b> claim", "bold claim"},
		{"a &amp; b", "a & b"},
		{"  <span>trimmed</span>  ", "trimmed"},
		{"", ""},
	}
	for _, c := range cases {
		if got := cleanText(c.in); got != c.want {
			t.Errorf("cleanText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecodeRedirect(t *testing.T) {
	link := "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fgolang.org%2Fdoc%2F&rut=abc"
	if got := decodeRedirect(link); got != "https://golang.org/doc/" {
		t.Errorf("decodeRedirect = %q", got)
	}

	direct := "https://example.com/page"
	if got := decodeRedirect(direct); got != direct {
		t.Errorf("decodeRedirect should pass through non-redirect URLs, got %q", got)
	}
}

func TestClampResults(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{7, 7},
		{10, 10},
		{50, searchResultLimit},
	}
	for _, c := range cases {
		if got := clampResults(c.in); got != c.want {
			t.Errorf("clampResults(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseRenderedResults(t *testing.T) {
	payload := "Title: search\n" +
		"Markdown Content:\n" +
		"[![logo](https://img.example/l.png)](https://example.com)\n" +
		"[Go Documentation](https://duckduckgo.com/l/?uddg=https%3A%2F%2Fgolang.org%2Fdoc%2F)\n" +
		"[Unrelated](https://example.com/direct)\n" +
		"[Go Documentation again](https://duckduckgo.com/l/?uddg=https%3A%2F%2Fgolang.org%2Fdoc%2F)\n" +
		"[Effective Go](https://duckduckgo.com/l/?uddg=https%3A%2F%2Fgolang.org%2Fdoc%2Feffective_go)\n"

	results := parseRenderedResults(payload, 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	if results[0].URL != "https://golang.org/doc/" {
		t.Errorf("first URL = %q", results[0].URL)
	}
	if results[0].Title != "Go Documentation" {
		t.Errorf("first title = %q", results[0].Title)
	}
	if results[1].URL != "https://golang.org/doc/effective_go" {
		t.Errorf("second URL = %q", results[1].URL)
	}
}

func TestParseRenderedResultsLimit(t *testing.T) {
	payload := "Markdown Content:\n" +
		"[One](https://duckduckgo.com/l/?uddg=https%3A%2F%2Fa.example)\n" +
		"[Two](https://duckduckgo.com/l/?uddg=https%3A%2F%2Fb.example)\n" +
		"[Three](https://duckduckgo.com/l/?uddg=https%3A%2F%2Fc.example)\n"

	results := parseRenderedResults(payload, 2)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
}

func TestWebSearchValidate(t *testing.T) {
	tool := NewWebSearchTool()
	if err := tool.Validate(map[string]any{}); err == nil {
		t.Error("expected validation error for missing query")
	}
	if err := tool.Validate(map[string]any{"query": "   "}); err == nil {
		t.Error("expected validation error for blank query")
	}
	if err := tool.Validate(map[string]any{"query": "go generics"}); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
