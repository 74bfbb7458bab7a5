package processor

import "strings"

// Classification is the rendering mode decided for a streaming response.
type Classification int

const (
	// ClassUnknown means not enough tokens have arrived to decide.
	ClassUnknown Classification = iota
	// ClassToolCall means the response carries directive tags or fenced code.
	ClassToolCall
	// ClassProse means the response is plain conversational text.
	ClassProse
)

func (c Classification) String() string {
	switch c {
	case ClassToolCall:
		return "tool-call"
	case ClassProse:
		return "prose"
	}
	return "unknown"
}

// openingTags are the directive prefixes that commit a response to the
// tool-call rendering mode as soon as one appears in the stream.
var openingTags = []string{
	"<project_creation>",
	"<file_modifications>",
	"<shell>",
}

// Accumulator collects streamed tokens into a response buffer and
// classifies the response as tool call or prose. Classification may stay
// unknown while tokens arrive but never flips once committed, so the
// caller's rendering mode stays stable for the rest of the response.
type Accumulator struct {
	buf   strings.Builder
	class Classification
}

// Feed appends one token to the buffer and updates the classification. Only
// the directive tags can commit mid-stream; fenced blocks are judged after
// the stream completes, so prose that merely mentions backticks keeps
// rendering live.
func (a *Accumulator) Feed(token string) {
	a.buf.WriteString(token)
	if a.class != ClassUnknown {
		return
	}
	text := a.buf.String()
	for _, tag := range openingTags {
		if strings.Contains(text, tag) {
			a.class = ClassToolCall
			return
		}
	}
}

// Text returns the accumulated response so far.
func (a *Accumulator) Text() string {
	return a.buf.String()
}

// Classification returns the committed rendering mode, or ClassUnknown
// while the stream could still turn into a tool call.
func (a *Accumulator) Classification() Classification {
	return a.class
}

// Finalize commits the classification once the stream has ended. A complete
// fenced code block makes the response a tool call; anything else without a
// directive prefix is prose. An unpaired fence does not count.
func (a *Accumulator) Finalize() Classification {
	if a.class == ClassUnknown {
		if strings.Count(a.buf.String(), "```") >= 2 {
			a.class = ClassToolCall
		} else {
			a.class = ClassProse
		}
	}
	return a.class
}

// Reset clears the buffer and classification for the next response.
func (a *Accumulator) Reset() {
	a.buf.Reset()
	a.class = ClassUnknown
}
