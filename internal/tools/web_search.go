package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"google.golang.org/genai"
)

const (
	// searchResultLimit is the hard cap on returned results.
	searchResultLimit = 10
	// defaultSearchResults is used when max_results is absent.
	defaultSearchResults = 5
)

// WebSearchTool searches the web via the DuckDuckGo Instant Answer API,
// which needs no API key. When the instant answer comes back empty, a
// rendered results page is fetched and its links are parsed instead.
type WebSearchTool struct {
	client *http.Client
}

// NewWebSearchTool creates a web_search tool.
func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Description() string {
	return "Searches the web via DuckDuckGo Instant Answer."
}

func (t *WebSearchTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "The search query.",
				},
				"max_results": {
					Type:        genai.TypeInteger,
					Description: "Number of results to return (default 5, max 10).",
				},
			},
			Required: []string{"query"},
		},
	}
}

func (t *WebSearchTool) Validate(params map[string]any) error {
	query, ok := GetString(params, "query")
	if !ok || strings.TrimSpace(query) == "" {
		return NewValidationError("query", "is required")
	}
	return nil
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

func (t *WebSearchTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	query := strings.TrimSpace(GetStringDefault(params, "query", ""))
	maxResults := clampResults(GetIntDefault(params, "max_results", defaultSearchResults))

	results, err := t.instantAnswer(ctx, query)
	if err != nil {
		return NewErrorResult(fmt.Sprintf("search failed: %s", err)), nil
	}

	if len(results) == 0 {
		results, err = t.renderedResults(ctx, query, maxResults)
		if err != nil {
			return NewErrorResult(fmt.Sprintf("search failed: %s", err)), nil
		}
	}

	if len(results) == 0 {
		return NewSuccessResult(fmt.Sprintf("No results found for %q.", query)), nil
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Search results for %q:\n", query)
	for _, r := range results {
		snippet := ""
		if r.Snippet != "" {
			snippet = " - " + r.Snippet
		}
		fmt.Fprintf(&out, "- [%s](%s)%s\n", r.Title, r.URL, snippet)
	}
	return NewSuccessResult(out.String()), nil
}

// clampResults bounds an explicit max_results to [1, searchResultLimit].
func clampResults(n int) int {
	if n < 1 {
		return 1
	}
	if n > searchResultLimit {
		return searchResultLimit
	}
	return n
}

// ddgTopic is a node of the RelatedTopics tree; category nodes carry
// nested Topics instead of a link.
type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	Abstract      string     `json:"Abstract"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Results       []ddgTopic `json:"Results"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// instantAnswer queries the DuckDuckGo Instant Answer API.
func (t *WebSearchTool) instantAnswer(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")
	params.Set("t", "locode")

	body, err := t.fetch(ctx, "https://api.duckduckgo.com/?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var data ddgResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var results []SearchResult
	seen := make(map[string]bool)
	add := func(title, urlValue, snippet string) {
		if urlValue == "" || seen[urlValue] {
			return
		}
		seen[urlValue] = true
		cleanTitle := cleanText(title)
		if cleanTitle == "" {
			cleanTitle = urlValue
		}
		results = append(results, SearchResult{
			Title:   cleanTitle,
			URL:     urlValue,
			Snippet: cleanText(snippet),
		})
	}

	if data.AbstractURL != "" {
		heading := data.Heading
		if heading == "" {
			heading = query
		}
		snippet := data.AbstractText
		if snippet == "" {
			snippet = data.Abstract
		}
		add(heading, data.AbstractURL, snippet)
	}

	for _, item := range data.Results {
		add(item.Text, item.FirstURL, item.Text)
	}

	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, topic := range topics {
			if len(topic.Topics) > 0 {
				walk(topic.Topics)
				continue
			}
			add(topic.Text, topic.FirstURL, topic.Text)
		}
	}
	walk(data.RelatedTopics)

	return results, nil
}

// markdownLinkPattern matches non-image markdown links at line start.
var markdownLinkPattern = regexp.MustCompile(`^\[([^!\]][^\]]*)\]\((http[^)]+)\)`)

// renderedResults fetches a rendered DuckDuckGo results page through a
// markdown proxy and extracts its redirect links.
func (t *WebSearchTool) renderedResults(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	fetchURL := "https://r.jina.ai/http://duckduckgo.com/html/?q=" + url.QueryEscape(query)
	body, err := t.fetch(ctx, fetchURL)
	if err != nil {
		return nil, err
	}
	return parseRenderedResults(string(body), limit), nil
}

// parseRenderedResults extracts result links from a markdown-rendered
// DuckDuckGo results page.
func parseRenderedResults(payload string, limit int) []SearchResult {
	lines := strings.Split(payload, "\n")
	start := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "Markdown Content:" {
			start = i + 1
			break
		}
	}

	var results []SearchResult
	seen := make(map[string]bool)
	for _, line := range lines[start:] {
		m := markdownLinkPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		title, link := m[1], m[2]
		if !strings.Contains(link, "duckduckgo.com/l/?") {
			continue
		}
		target := decodeRedirect(link)
		if seen[target] {
			continue
		}
		seen[target] = true

		cleanTitle := cleanText(title)
		if cleanTitle == "" {
			cleanTitle = target
		}
		results = append(results, SearchResult{Title: cleanTitle, URL: target})
		if len(results) >= limit {
			break
		}
	}
	return results
}

// decodeRedirect unwraps a DuckDuckGo redirect URL to its target.
func decodeRedirect(urlValue string) string {
	parsed, err := url.Parse(urlValue)
	if err != nil {
		return urlValue
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return urlValue
}

func (t *WebSearchTool) fetch(ctx context.Context, fetchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "locode/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// cleanText strips HTML tags and decodes entities from a snippet.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tok.Text())
		}
	}
	return strings.TrimSpace(b.String())
}
