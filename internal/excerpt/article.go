// Package excerpt slices spans out of source documents: fuzzy text-anchor
// matching for articles, timestamp-index matching for video transcripts,
// and collapsed-context bundling for multi-excerpt sequences.
package excerpt

import (
	"fmt"
	"unicode"

	"github.com/starford/ansuz/internal/models"
)

// Error is an extraction failure destined to become a Diagnostic.
type Error struct {
	Message    string
	Suggestion string
}

func (e *Error) Error() string { return e.Message }

// Span is a byte range within a source body.
type Span struct {
	Start int
	End   int
}

// FindSpan locates the span selected by a pair of text anchors within a
// frontmatter-stripped article body. An empty from starts at the first
// content character; an empty to runs to end of document; the to anchor's
// own match is included in the span. Anchor matching is case-insensitive
// and treats straight and curly quote variants as equivalent, and requires
// exactly one occurrence.
func FindSpan(body, from, to string) (Span, error) {
	span := Span{Start: 0, End: len(body)}

	hay, offsets := normalize(body)
	if from != "" {
		start, _, err := matchOne(hay, offsets, from)
		if err != nil {
			return Span{}, err
		}
		span.Start = start
	}
	if to != "" {
		_, end, err := matchOne(hay, offsets, to)
		if err != nil {
			return Span{}, err
		}
		span.End = end
	}
	if span.End < span.Start {
		return Span{}, &Error{
			Message:    fmt.Sprintf("Anchor %q ends before anchor %q begins", to, from),
			Suggestion: "Swap the from and to anchors or pick anchors in document order",
		}
	}
	return span, nil
}

// ExtractArticle returns the content selected by the anchors. With both
// anchors empty the whole body is returned verbatim.
func ExtractArticle(body, from, to string) (string, error) {
	span, err := FindSpan(body, from, to)
	if err != nil {
		return "", err
	}
	return body[span.Start:span.End], nil
}

// Bundle turns a span sequence over one source body into excerpts
// carrying the elided text between neighbours. Nil (not empty) collapsed
// fields mark "no collapsed region": the first excerpt has no
// CollapsedBefore, the last no CollapsedAfter, and adjacent spans with
// zero gap yield nil on both sides. A neighbour pair that is reversed or
// overlapping has no elided text between it, so both facing collapsed
// fields stay nil.
func Bundle(body string, spans []Span) []models.Excerpt {
	out := make([]models.Excerpt, len(spans))
	for i, s := range spans {
		out[i].Content = body[s.Start:s.End]
		if i > 0 && spans[i-1].End < s.Start {
			g := body[spans[i-1].End:s.Start]
			out[i].CollapsedBefore = &g
		}
		if i < len(spans)-1 && s.End < spans[i+1].Start {
			g := body[s.End:spans[i+1].Start]
			out[i].CollapsedAfter = &g
		}
	}
	return out
}

// SpansOrdered reports whether each span starts at or after the end of
// the one before it, the ordering Bundle needs to compute collapsed
// context between every neighbour pair.
func SpansOrdered(spans []Span) bool {
	for i := 1; i < len(spans); i++ {
		if spans[i].Start < spans[i-1].End {
			return false
		}
	}
	return true
}

// matchOne finds the unique occurrence of anchor in the normalized
// haystack and maps it back to byte offsets in the original body.
func matchOne(hay []rune, offsets []int, anchor string) (start, end int, err error) {
	needle, _ := normalize(anchor)
	if len(needle) == 0 {
		return 0, 0, &Error{Message: "Anchor is empty"}
	}

	first := -1
	count := 0
	for i := 0; i+len(needle) <= len(hay); i++ {
		if runesEqual(hay[i:i+len(needle)], needle) {
			if first < 0 {
				first = i
			}
			count++
		}
	}

	switch {
	case count == 0:
		return 0, 0, &Error{
			Message:    fmt.Sprintf("Anchor not found: %q", anchor),
			Suggestion: "Check the anchor's spelling and quote style against the source text",
		}
	case count > 1:
		return 0, 0, &Error{
			Message:    fmt.Sprintf("Anchor found multiple times: %q", anchor),
			Suggestion: "Use a longer anchor to make the match unique",
		}
	}
	return offsets[first], offsets[first+len(needle)], nil
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// normalize lowercases text and folds curly quotes onto their straight
// equivalents, returning the normalized runes plus a byte offset for each
// rune position (with one extra sentinel entry for end-of-text).
func normalize(text string) ([]rune, []int) {
	runes := make([]rune, 0, len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		offsets = append(offsets, i)
		runes = append(runes, foldRune(r))
	}
	offsets = append(offsets, len(text))
	return runes, offsets
}

func foldRune(r rune) rune {
	switch r {
	case '‘', '’': // curly single quotes
		return '\''
	case '“', '”': // curly double quotes
		return '"'
	}
	return unicode.ToLower(r)
}
