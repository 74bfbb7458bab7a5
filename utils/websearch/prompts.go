package websearch

import (
	"fmt"
	"regexp"
	"strings"
)

// RefinementPrompt asks the model to turn a conversational question into a
// search-engine query. The answer is used verbatim, so the instructions
// forbid any surrounding commentary.
func RefinementPrompt(question string) string {
	return fmt.Sprintf("Given the user's question, create a concise, effective search-engine query that will find the most relevant results. Return only the query itself, with no quotes and no explanation.\n\nQuestion: %s\n\nQuery:", question)
}

// CleanQuery strips the wrapping quotes and stray newlines a model sometimes
// adds around a refined query.
func CleanQuery(raw string) string {
	query := strings.TrimSpace(raw)
	query = strings.Trim(query, `"'`)
	if i := strings.IndexByte(query, '\n'); i >= 0 {
		query = query[:i]
	}
	return strings.TrimSpace(query)
}

// SourceContext renders the numbered source blocks fed to the synthesis
// prompt. Sources are numbered from 1 to match the citation instructions.
func SourceContext(results []Result, pages []string) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "--- Source [%d] ---\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", r.Title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "Snippet: %s\n", r.Snippet)
		}
		if i < len(pages) && pages[i] != "" {
			fmt.Fprintf(&b, "Page excerpt:\n%s\n", pages[i])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// SynthesisPrompt asks the model to answer the question from the fetched
// sources, citing them as [Source N] so LinkSources can turn the citations
// into links.
func SynthesisPrompt(question, sourceContext string) string {
	var b strings.Builder
	b.WriteString("Answer the question below using only the web sources provided.\n\n")
	b.WriteString(sourceContext)
	b.WriteString("Instructions:\n")
	b.WriteString("1. Answer the question directly and completely.\n")
	b.WriteString("2. Cite the sources you use as [Source 1], [Source 2], and so on.\n")
	b.WriteString("3. If the sources do not contain the answer, say so instead of guessing.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}

// SynthesisSystem is the system prompt for the synthesis turn.
const SynthesisSystem = "You are a research assistant. You answer questions based strictly on the web sources you are given, and you always cite them."

var (
	sourceRefPattern = regexp.MustCompile(`\[Source (\d+)\]`)
	strayDDGLink     = regexp.MustCompile(`\s*\(\s*//duckduckgo\.com/l/.*\)\s*`)
)

// LinkSources rewrites the model's [Source N] citations into markdown links
// pointing at the matching result URL, and drops any raw DuckDuckGo redirect
// links the model copied out of the context.
func LinkSources(answer string, results []Result) string {
	answer = sourceRefPattern.ReplaceAllStringFunc(answer, func(ref string) string {
		var n int
		fmt.Sscanf(ref, "[Source %d]", &n)
		if n < 1 || n > len(results) || results[n-1].URL == "" {
			return ref
		}
		return fmt.Sprintf("%s(%s)", ref, results[n-1].URL)
	})
	return strayDDGLink.ReplaceAllString(answer, " ")
}
