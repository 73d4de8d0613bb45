// Package parser provides the lexical layer of the compiler: frontmatter
// blocks, typed headings, key:: value field blocks, and wikilink targets.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/models"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	fieldRe    = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*)::\s?(.*)$`)
	wikilinkRe = regexp.MustCompile(`!?\[\[(.*?)\]\]`)
)

// Tag names with tier significance.
const (
	TagWIP    = "wip"
	TagIgnore = "validator-ignore"
)

// Frontmatter is the parsed metadata header of a document.
type Frontmatter struct {
	Fields map[string]string
	Tags   []string
}

// SplitFrontmatter separates the leading --- YAML block from the body.
// Absence of a block is not an error at this layer: it returns empty
// metadata and the original text unchanged, and the caller reports any
// missing required fields.
func SplitFrontmatter(text string) (Frontmatter, string) {
	fm := Frontmatter{Fields: map[string]string{}}

	const delim = "---"
	trimmed := strings.TrimLeft(text, "\n\r")
	if !strings.HasPrefix(trimmed, delim+"\n") {
		return fm, text
	}

	rest := trimmed[len(delim):]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return fm, text
	}

	yamlBlock := rest[:idx]
	body := strings.TrimLeft(rest[idx+1+len(delim):], "\n\r")

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlBlock), &raw); err != nil {
		// Invalid YAML: treat the whole file as body.
		return fm, text
	}

	for k, v := range raw {
		switch vv := v.(type) {
		case []interface{}:
			if k == "tags" {
				for _, item := range vv {
					if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
						fm.Tags = append(fm.Tags, strings.TrimSpace(s))
					}
				}
			}
		case nil:
			fm.Fields[k] = ""
		default:
			fm.Fields[k] = strings.TrimSpace(fmt.Sprint(vv))
		}
	}
	return fm, body
}

// TierOf derives a file's tier from its frontmatter tags. validator-ignore
// wins over wip when both are present.
func TierOf(tags []string) models.Tier {
	tier := models.TierProduction
	for _, t := range tags {
		switch t {
		case TagIgnore:
			return models.TierIgnored
		case TagWIP:
			tier = models.TierWIP
		}
	}
	return tier
}

// Heading is one parsed header line.
type Heading struct {
	Rank  int
	Name  string // type name, e.g. "Learning Outcome"
	Title string // text after the colon, "" when absent
	Line  int    // 1-based line number
}

// ParseHeading parses a single line as a typed header. ok is false for
// non-header lines.
func ParseHeading(line string, lineNo int) (Heading, bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return Heading{}, false
	}
	h := Heading{Rank: len(m[1]), Line: lineNo}
	rest := m[2]
	if i := strings.Index(rest, ":"); i >= 0 {
		h.Name = strings.TrimSpace(rest[:i])
		h.Title = strings.TrimSpace(rest[i+1:])
	} else {
		h.Name = strings.TrimSpace(rest)
	}
	return h, true
}

// Field is one key:: value entry, with the line number of its key line.
type Field struct {
	Key   string
	Value string
	Line  int
}

// ParseFields scans lines for key:: value fields. A matching line starts a
// new field; subsequent non-matching lines are newline-joined onto the
// current value; a line matching stop (when non-nil) ends collection.
// Values are trimmed. No type coercion happens here; boolean
// interpretation belongs to the caller via the schema registry.
func ParseFields(lines []string, startLine int, stop *regexp.Regexp) []Field {
	var out []Field
	cur := -1
	for i, line := range lines {
		if stop != nil && stop.MatchString(line) {
			break
		}
		if m := fieldRe.FindStringSubmatch(line); m != nil {
			out = append(out, Field{Key: m[1], Value: m[2], Line: startLine + i})
			cur = len(out) - 1
			continue
		}
		if cur >= 0 {
			out[cur].Value += "\n" + line
		}
	}
	for i := range out {
		out[i].Value = strings.TrimSpace(out[i].Value)
	}
	return out
}

// ExtractLinkTarget isolates the target path of the first wikilink in text:
// [[path]], ![[path]], or [[path|alias]] (the alias is discarded). It
// returns "" when no link syntax is present, so callers can distinguish
// "field present but malformed" from "field absent".
func ExtractLinkTarget(text string) string {
	m := wikilinkRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	target := m[1]
	if i := strings.Index(target, "|"); i >= 0 {
		target = target[:i]
	}
	return strings.TrimSpace(target)
}
