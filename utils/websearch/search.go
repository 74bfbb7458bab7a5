// Package websearch finds and extracts web content for the /web command:
// SearX instances first for structured JSON results, DuckDuckGo's HTML
// frontend as the scraping fallback, plus page text extraction for the
// synthesis prompt.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"ollamacli/utils/config"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher queries SearX instances in order and falls back to scraping
// DuckDuckGo when none answers.
type Searcher struct {
	instances []string
	ddgURL    string
	client    *http.Client
}

// NewSearcher uses a set of public SearX instances. Overriding the fields
// is only done in tests.
func NewSearcher() *Searcher {
	return &Searcher{
		instances: []string{
			"https://search.privacyguides.net",
			"https://searx.be",
			"https://search.sapti.me",
			"https://searx.tiekoetter.com",
		},
		ddgURL: "https://html.duckduckgo.com/html/",
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Search returns up to n results. SearX instances are tried in order; the
// DuckDuckGo scrape is the last resort. An empty slice with a nil error
// means the search worked but found nothing.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]Result, error) {
	for _, instance := range s.instances {
		results, err := s.searchSearX(ctx, instance, query, n)
		if err != nil {
			config.DebugLog("[WebSearch] SearX instance %s failed: %v", instance, err)
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return s.searchDuckDuckGo(query, n)
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (s *Searcher) searchSearX(ctx context.Context, instance, query string, n int) ([]Result, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&categories=general",
		strings.TrimRight(instance, "/"), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var results []Result
	for _, item := range body.Results {
		results = append(results, Result{Title: item.Title, URL: item.URL, Snippet: item.Content})
		if len(results) == n {
			break
		}
	}
	return results, nil
}

func (s *Searcher) searchDuckDuckGo(query string, n int) ([]Result, error) {
	var results []Result

	c := colly.NewCollector(colly.UserAgent(userAgent), colly.IgnoreRobotsTxt())
	c.SetRequestTimeout(10 * time.Second)
	c.OnHTML("div.result", func(e *colly.HTMLElement) {
		if len(results) >= n {
			return
		}
		title := strings.TrimSpace(e.ChildText("a.result__a"))
		if title == "" {
			return
		}
		results = append(results, Result{
			Title:   title,
			URL:     e.ChildAttr("a.result__a", "href"),
			Snippet: strings.TrimSpace(e.ChildText("a.result__snippet")),
		})
	})

	if err := c.Visit(s.ddgURL + "?q=" + url.QueryEscape(query)); err != nil {
		return nil, fmt.Errorf("error searching DuckDuckGo: %w", err)
	}
	c.Wait()
	return results, nil
}

// maxPageExtract bounds how much of one page feeds the synthesis prompt.
const maxPageExtract = 4000

// FetchPage downloads one result page and extracts its visible text,
// scripts and styles removed, whitespace collapsed, truncated to a prompt-
// friendly size.
func (s *Searcher) FetchPage(pageURL string) (string, error) {
	var text string

	c := colly.NewCollector(colly.UserAgent(userAgent), colly.IgnoreRobotsTxt())
	c.SetRequestTimeout(15 * time.Second)
	c.OnHTML("body", func(e *colly.HTMLElement) {
		dom := e.DOM.Clone()
		dom.Find("script, style, noscript").Remove()
		text = collapseWhitespace(dom.Text())
	})

	if err := c.Visit(pageURL); err != nil {
		return "", fmt.Errorf("error fetching %s: %w", pageURL, err)
	}
	c.Wait()

	if len(text) > maxPageExtract {
		text = text[:maxPageExtract] + "\n[...]"
	}
	return text, nil
}

func collapseWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		for _, chunk := range strings.Split(strings.TrimSpace(line), "  ") {
			chunk = strings.TrimSpace(chunk)
			if chunk != "" {
				lines = append(lines, chunk)
			}
		}
	}
	return strings.Join(lines, "\n")
}
