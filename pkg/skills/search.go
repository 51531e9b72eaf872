package skills

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const skillUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// SearchSkill queries the DuckDuckGo HTML endpoint and extracts result
// links with regexes. No API key required.
type SearchSkill struct {
	httpClient *http.Client
	endpoint   string
}

const searchMaxResults = 5

var (
	ddgLinkRx    = regexp.MustCompile(`<a[^>]*class="[^"]*result__a[^"]*"[^>]*href="([^"]+)"[^>]*>([\s\S]*?)</a>`)
	ddgSnippetRx = regexp.MustCompile(`<a class="result__snippet[^"]*".*?>([\s\S]*?)</a>`)
	tagRx        = regexp.MustCompile(`<[^>]+>`)
	searchStripRx = regexp.MustCompile(`(?i)^\s*(search( for)?|look\s*up|lookup|find|query)\s*[:\-]?\s*`)
)

func (s *SearchSkill) Name() string        { return "search" }
func (s *SearchSkill) Description() string { return "DuckDuckGo HTML search." }

func (s *SearchSkill) Triggers() []string {
	return []string{`\b(search|look\s*up|lookup|find|query)\b`}
}

func (s *SearchSkill) client() *http.Client {
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return s.httpClient
}

func (s *SearchSkill) Run(ctx context.Context, query string, sc *Context) (string, error) {
	q := searchStripRx.ReplaceAllString(strings.TrimSpace(query), "")
	if q == "" {
		q = query
	}

	endpoint := s.endpoint
	if endpoint == "" {
		endpoint = "https://html.duckduckgo.com/html/"
	}
	searchURL := fmt.Sprintf("%s?q=%s", endpoint, url.QueryEscape(q))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", skillUserAgent)

	resp, err := s.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return extractSearchResults(string(body), searchMaxResults, q)
}

func extractSearchResults(html string, count int, query string) (string, error) {
	matches := ddgLinkRx.FindAllStringSubmatch(html, count+5)
	if len(matches) == 0 {
		return fmt.Sprintf("No results found for: %s", query), nil
	}

	snippetMatches := ddgSnippetRx.FindAllStringSubmatch(html, count+5)

	maxItems := len(matches)
	if count < maxItems {
		maxItems = count
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Results for: %s", query))
	for i := 0; i < maxItems; i++ {
		urlStr := unwrapDDGLink(matches[i][1])
		title := strings.TrimSpace(stripTags(matches[i][2]))

		lines = append(lines, fmt.Sprintf("%d. %s\n   %s", i+1, title, urlStr))

		if i < len(snippetMatches) {
			snippet := strings.TrimSpace(stripTags(snippetMatches[i][1]))
			if snippet != "" {
				lines = append(lines, fmt.Sprintf("   %s", snippet))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// unwrapDDGLink resolves DuckDuckGo redirect links of the form
// //duckduckgo.com/l/?uddg=<urlencoded target> to the real target.
func unwrapDDGLink(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func stripTags(content string) string {
	return tagRx.ReplaceAllString(content, "")
}

func init() {
	RegisterFactory("search", func() Skill { return &SearchSkill{} })
}
