package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSearchSearXInstance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("missing format=json, got query %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("q") != "go generics" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"title": "Go generics", "url": "https://go.dev/a", "content": "Type parameters."},
			{"title": "Second", "url": "https://go.dev/b", "content": "More."},
			{"title": "Third", "url": "https://go.dev/c", "content": "Even more."}
		]}`))
	}))
	defer server.Close()

	s := &Searcher{
		instances: []string{server.URL},
		client:    &http.Client{Timeout: time.Second},
	}
	results, err := s.Search(context.Background(), "go generics", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Go generics" || results[0].URL != "https://go.dev/a" || results[0].Snippet != "Type parameters." {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestSearchFallsBackToDuckDuckGo(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer broken.Close()

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "weather" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
		}
		w.Write([]byte(`<html><body>
			<div class="result">
				<a class="result__a" href="https://example.com/one">First hit</a>
				<a class="result__snippet">First snippet</a>
			</div>
			<div class="result">
				<a class="result__a" href="https://example.com/two">Second hit</a>
				<a class="result__snippet">Second snippet</a>
			</div>
		</body></html>`))
	}))
	defer ddg.Close()

	s := &Searcher{
		instances: []string{broken.URL},
		ddgURL:    ddg.URL + "/",
		client:    &http.Client{Timeout: time.Second},
	}
	results, err := s.Search(context.Background(), "weather", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "First hit" || results[0].URL != "https://example.com/one" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Snippet != "Second snippet" {
		t.Errorf("unexpected second snippet: %q", results[1].Snippet)
	}
}

func TestFetchPageStripsScriptsAndTruncates(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 400)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<script>var hidden = "not text";</script>
			<style>.x { color: red; }</style>
			<p>Visible paragraph.</p>
			<p>` + long + `</p>
		</body></html>`))
	}))
	defer server.Close()

	s := NewSearcher()
	text, err := s.FetchPage(server.URL)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if strings.Contains(text, "hidden") || strings.Contains(text, "color: red") {
		t.Error("script or style content leaked into the extract")
	}
	if !strings.Contains(text, "Visible paragraph.") {
		t.Error("visible text missing from the extract")
	}
	if !strings.HasSuffix(text, "\n[...]") {
		t.Error("long page was not truncated")
	}
	if len(text) > maxPageExtract+len("\n[...]") {
		t.Errorf("extract too long: %d bytes", len(text))
	}
}

func TestCollapseWhitespace(t *testing.T) {
	in := "  Title  \n\n\n   spaced    out   \n"
	got := collapseWhitespace(in)
	if got != "Title\nspaced\nout" {
		t.Errorf("unexpected collapse result: %q", got)
	}
}
