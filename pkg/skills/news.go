package skills

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// NewsSkill fetches top headlines from public RSS feeds. No API key.
type NewsSkill struct {
	feeds      []string
	httpClient *http.Client
}

var newsFeeds = []string{
	"https://feeds.bbci.co.uk/news/rss.xml",
	"https://www.npr.org/rss/rss.php?id=1001",
	"https://apnews.com/hub/ap-top-news?output=rss",
}

const (
	newsMaxItems = 9
	newsPerFeed  = 4
)

var newsQueryStripRx = regexp.MustCompile(`(?i)^\s*(news|headlines?|top stor(?:y|ies)|about)\s*[:\-]?\s*`)
var newsWordRx = regexp.MustCompile(`[A-Za-z0-9\-]+`)

func (s *NewsSkill) Name() string        { return "news" }
func (s *NewsSkill) Description() string { return "Top headlines via RSS (no API key)." }

func (s *NewsSkill) Triggers() []string {
	return []string{`\b(news|headline[s]?|top stor(?:y|ies)|breaking)\b`}
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// keywordsFromQuery strips the leading trigger words and keeps terms of
// three or more characters as filter keywords.
func keywordsFromQuery(q string) []string {
	s := newsQueryStripRx.ReplaceAllString(strings.TrimSpace(q), "")
	var out []string
	for _, w := range newsWordRx.FindAllString(s, -1) {
		if len(w) >= 3 {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

func matchKeywords(item rssItem, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	blob := strings.ToLower(item.Title + " " + item.Description)
	for _, k := range keywords {
		if !strings.Contains(blob, k) {
			return false
		}
	}
	return true
}

func (s *NewsSkill) fetchFeed(ctx context.Context, url string) ([]rssItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", skillUserAgent)

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	return feed.Channel.Items, nil
}

func (s *NewsSkill) client() *http.Client {
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return s.httpClient
}

func (s *NewsSkill) Run(ctx context.Context, query string, sc *Context) (string, error) {
	keywords := keywordsFromQuery(query)
	feeds := s.feeds
	if len(feeds) == 0 {
		feeds = newsFeeds
	}

	var picked []rssItem
	seen := map[string]bool{}
	var lastErr error
	for _, url := range feeds {
		items, err := s.fetchFeed(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		taken := 0
		for _, item := range items {
			if taken >= newsPerFeed || len(picked) >= newsMaxItems {
				break
			}
			if !matchKeywords(item, keywords) {
				continue
			}
			title := strings.TrimSpace(item.Title)
			if title == "" || seen[strings.ToLower(title)] {
				continue
			}
			seen[strings.ToLower(title)] = true
			picked = append(picked, item)
			taken++
		}
	}

	if len(picked) == 0 {
		if lastErr != nil {
			return "", fmt.Errorf("fetch headlines: %w", lastErr)
		}
		if len(keywords) > 0 {
			return fmt.Sprintf("No headlines matched %q right now.", strings.Join(keywords, " ")), nil
		}
		return "No headlines available right now.", nil
	}

	var b strings.Builder
	b.WriteString("Here are the top headlines:\n")
	for i, item := range picked {
		line := fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(item.Title))
		if d := formatPubDate(item.PubDate); d != "" {
			line += " (" + d + ")"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatPubDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 02, 2006")
		}
	}
	return ""
}

func init() {
	RegisterFactory("news", func() Skill { return &NewsSkill{} })
}
