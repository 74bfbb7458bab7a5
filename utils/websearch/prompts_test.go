package websearch

import (
	"strings"
	"testing"
)

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"golang context tutorial"`, "golang context tutorial"},
		{"'quoted'\n", "quoted"},
		{"first line\nsecond line", "first line"},
		{"  plain  ", "plain"},
	}
	for _, tt := range tests {
		if got := CleanQuery(tt.in); got != tt.want {
			t.Errorf("CleanQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSourceContextNumbersFromOne(t *testing.T) {
	results := []Result{
		{Title: "A", URL: "https://a.example", Snippet: "alpha"},
		{Title: "B", URL: "https://b.example"},
	}
	ctx := SourceContext(results, []string{"page text for a"})

	if !strings.Contains(ctx, "--- Source [1] ---") || !strings.Contains(ctx, "--- Source [2] ---") {
		t.Errorf("missing source headers:\n%s", ctx)
	}
	if !strings.Contains(ctx, "Snippet: alpha") {
		t.Error("snippet missing")
	}
	if !strings.Contains(ctx, "page text for a") {
		t.Error("page excerpt missing")
	}
	if strings.Contains(ctx, "Snippet:\n") {
		t.Error("empty snippet should be omitted")
	}
}

func TestSynthesisPromptIncludesQuestionAndCitationRule(t *testing.T) {
	prompt := SynthesisPrompt("what is searx?", "--- Source [1] ---\nTitle: X\n\n")
	if !strings.Contains(prompt, "Question: what is searx?") {
		t.Error("question missing")
	}
	if !strings.Contains(prompt, "[Source 1]") {
		t.Error("citation instruction missing")
	}
}

func TestLinkSources(t *testing.T) {
	results := []Result{
		{URL: "https://a.example"},
		{URL: "https://b.example"},
	}
	in := "Per [Source 1] and [Source 2], yes. See also [Source 9]."
	got := LinkSources(in, results)

	if !strings.Contains(got, "[Source 1](https://a.example)") {
		t.Errorf("first citation not linked: %q", got)
	}
	if !strings.Contains(got, "[Source 2](https://b.example)") {
		t.Errorf("second citation not linked: %q", got)
	}
	if !strings.Contains(got, "[Source 9].") {
		t.Errorf("out-of-range citation should stay untouched: %q", got)
	}
}

func TestLinkSourcesDropsStrayRedirects(t *testing.T) {
	in := "Answer (  //duckduckgo.com/l/?uddg=abc) continues."
	got := LinkSources(in, nil)
	if strings.Contains(got, "duckduckgo.com/l/") {
		t.Errorf("redirect link survived: %q", got)
	}
	if !strings.Contains(got, "Answer") || !strings.Contains(got, "continues.") {
		t.Errorf("surrounding text damaged: %q", got)
	}
}
