package excerpt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IndexEntry is one line of a transcript's sidecar time index. Start is
// formatted m:ss.cc.
type IndexEntry struct {
	Text  string `json:"text"`
	Start string `json:"start"`
}

// ParseSidecar decodes a .timestamps.json sidecar file.
func ParseSidecar(data []byte) ([]IndexEntry, error) {
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("excerpt: parse sidecar: %w", err)
	}
	return entries, nil
}

var (
	stampRe = regexp.MustCompile(`^(\d{1,3}):(\d{2})$`)
	startRe = regexp.MustCompile(`^(\d{1,3}):(\d{2})(?:\.(\d{1,2}))?$`)
)

// parseStamp parses an mm:ss anchor into seconds.
func parseStamp(s string) (float64, error) {
	m := stampRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, &Error{
			Message:    fmt.Sprintf("Invalid timestamp: %q", s),
			Suggestion: "Use mm:ss, e.g. 12:05",
		}
	}
	minutes, _ := strconv.Atoi(m[1])
	seconds, _ := strconv.Atoi(m[2])
	return float64(minutes*60 + seconds), nil
}

// parseStart parses a sidecar start value (m:ss.cc) into seconds.
func parseStart(s string) (float64, error) {
	m := startRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("excerpt: invalid sidecar start %q", s)
	}
	minutes, _ := strconv.Atoi(m[1])
	seconds, _ := strconv.Atoi(m[2])
	total := float64(minutes*60 + seconds)
	if m[3] != "" {
		frac, _ := strconv.ParseFloat("0."+m[3], 64)
		total += frac
	}
	return total, nil
}

// ExtractVideo slices transcript lines between two mm:ss anchors using the
// sidecar index: from resolves to the nearest entry at-or-after it, to to
// the nearest entry at-or-before it. Empty anchors mean start / end of the
// transcript.
func ExtractVideo(entries []IndexEntry, from, to string) (string, error) {
	if len(entries) == 0 {
		return "", &Error{Message: "Timestamp index is empty"}
	}

	starts := make([]float64, len(entries))
	for i, e := range entries {
		sec, err := parseStart(e.Start)
		if err != nil {
			return "", &Error{Message: fmt.Sprintf("Invalid start value in timestamp index: %q", e.Start)}
		}
		starts[i] = sec
	}

	lo, hi := 0, len(entries)-1
	if from != "" {
		sec, err := parseStamp(from)
		if err != nil {
			return "", err
		}
		lo = -1
		for i, s := range starts {
			if s >= sec {
				lo = i
				break
			}
		}
		if lo < 0 {
			return "", timestampNotFound(from)
		}
	}
	if to != "" {
		sec, err := parseStamp(to)
		if err != nil {
			return "", err
		}
		hi = -1
		for i := len(starts) - 1; i >= 0; i-- {
			if starts[i] <= sec {
				hi = i
				break
			}
		}
		if hi < 0 {
			return "", timestampNotFound(to)
		}
	}
	if hi < lo {
		return "", &Error{
			Message:    fmt.Sprintf("Empty timestamp range: from %s to %s", from, to),
			Suggestion: "Make sure the from timestamp precedes the to timestamp",
		}
	}

	lines := make([]string, 0, hi-lo+1)
	for _, e := range entries[lo : hi+1] {
		lines = append(lines, e.Text)
	}
	return strings.Join(lines, "\n"), nil
}

func timestampNotFound(stamp string) *Error {
	return &Error{
		Message:    fmt.Sprintf("Timestamp not found: %s", stamp),
		Suggestion: "Check the timestamp against the transcript's time index",
	}
}
