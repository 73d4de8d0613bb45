// Package schema is the static registry of required/optional/boolean fields
// per content type, section type, and segment type. It is pure data: every
// document parser and the generic unknown-field check consult it, and adding
// a new type means adding a table row, not touching parser logic.
package schema

import (
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// FieldSpec lists the fields a type accepts. Boolean names must also appear
// in Required or Optional.
type FieldSpec struct {
	Required []string
	Optional []string
	Boolean  []string
}

// Allows reports whether name is a known field for this spec.
func (f FieldSpec) Allows(name string) bool {
	for _, r := range f.Required {
		if r == name {
			return true
		}
	}
	for _, o := range f.Optional {
		if o == name {
			return true
		}
	}
	return false
}

// IsBoolean reports whether name is a boolean field for this spec.
func (f FieldSpec) IsBoolean(name string) bool {
	for _, b := range f.Boolean {
		if b == name {
			return true
		}
	}
	return false
}

// SectionSpec describes one section type within a document grammar.
type SectionSpec struct {
	Type models.SectionType
	// TitleRequired and TitleForbidden encode the fixed allowed-title
	// policy; exactly one of them is set for every section type.
	TitleRequired  bool
	TitleForbidden bool
	Fields         FieldSpec
	// Segments lists the segment types allowed inside this section.
	Segments []models.SegmentType
}

// AllowsSegment reports whether the section accepts the given segment type.
func (s SectionSpec) AllowsSegment(t models.SegmentType) bool {
	for _, st := range s.Segments {
		if st == t {
			return true
		}
	}
	return false
}

// DocSpec is the grammar of one content type: the header rank its sections
// sit at (segments are always one rank deeper) and the sections it accepts,
// keyed by lowercased header name.
type DocSpec struct {
	SectionRank int
	Sections    map[string]SectionSpec
}

// Frontmatter fields per content type. The tags list is always optional;
// the parser reads it for tier derivation, it is never required.
var ContentTypes = map[models.ContentType]FieldSpec{
	models.TypeModule:          {Required: []string{"id"}, Optional: []string{"title", "tags"}},
	models.TypeCourse:          {Required: []string{"id"}, Optional: []string{"title", "tags"}},
	models.TypeLearningOutcome: {Required: []string{"id"}, Optional: []string{"tags"}},
	models.TypeLens:            {Required: []string{"id"}, Optional: []string{"tags"}},
	models.TypeArticle:         {Required: []string{"title", "author", "sourceUrl"}, Optional: []string{"tags"}},
	models.TypeVideoTranscript: {Required: []string{"title", "channel", "videoId"}, Optional: []string{"tags"}},
}

// Segment field schemas.
var Segments = map[models.SegmentType]FieldSpec{
	models.SegmentText:           {Required: []string{"content"}, Optional: []string{"id", "optional"}, Boolean: []string{"optional"}},
	models.SegmentChat:           {Required: []string{"instructions"}, Optional: []string{"id", "optional"}, Boolean: []string{"optional"}},
	models.SegmentArticleExcerpt: {Optional: []string{"from", "to", "id", "optional"}, Boolean: []string{"optional"}},
	models.SegmentVideoExcerpt:   {Optional: []string{"from", "to", "id", "optional"}, Boolean: []string{"optional"}},
	models.SegmentQuestion:       {Required: []string{"content"}, Optional: []string{"id", "answer", "optional"}, Boolean: []string{"optional"}},
	models.SegmentLens:           {Required: []string{"source"}, Optional: []string{"optional"}, Boolean: []string{"optional"}},
}

// SegmentNames maps lowercased segment header names to segment types.
var SegmentNames = map[string]models.SegmentType{
	"text":            models.SegmentText,
	"chat":            models.SegmentChat,
	"article excerpt": models.SegmentArticleExcerpt,
	"video excerpt":   models.SegmentVideoExcerpt,
	"question":        models.SegmentQuestion,
	"lens":            models.SegmentLens,
}

// SegmentDisplay maps segment types back to their header spelling.
var SegmentDisplay = map[models.SegmentType]string{
	models.SegmentText:           "Text",
	models.SegmentChat:           "Chat",
	models.SegmentArticleExcerpt: "Article Excerpt",
	models.SegmentVideoExcerpt:   "Video Excerpt",
	models.SegmentQuestion:       "Question",
	models.SegmentLens:           "Lens",
}

// LegacySections and LegacySegments map retired header names to their
// replacements, so parsers can emit a migration hint instead of a bare
// unknown-type error.
var (
	LegacySections = map[string]string{
		"reading": "Page",
	}
	LegacySegments = map[string]string{
		"excerpt":    "Article Excerpt",
		"discussion": "Chat",
	}
)

var sectionOnlyFields = FieldSpec{Optional: []string{"id", "optional"}, Boolean: []string{"optional"}}

var sourceSectionFields = FieldSpec{
	Required: []string{"source"},
	Optional: []string{"id", "optional"},
	Boolean:  []string{"optional"},
}

// Docs holds the section grammar per content type. Article and
// video-transcript files have no section grammar; their body is source
// material consumed by the excerpt extractors.
var Docs = map[models.ContentType]DocSpec{
	models.TypeModule: {
		SectionRank: 1,
		Sections: map[string]SectionSpec{
			"page": {
				Type:          models.SectionPage,
				TitleRequired: true,
				Fields:        sectionOnlyFields,
				Segments:      []models.SegmentType{models.SegmentText, models.SegmentChat, models.SegmentQuestion},
			},
			"learning outcome": {
				Type:           models.SectionLearningOutcome,
				TitleForbidden: true,
				Fields:         sourceSectionFields,
			},
			"uncategorized": {
				Type:           models.SectionUncategorized,
				TitleForbidden: true,
				Fields:         sectionOnlyFields,
				Segments:       []models.SegmentType{models.SegmentLens},
			},
		},
	},
	models.TypeCourse: {
		SectionRank: 1,
		Sections: map[string]SectionSpec{
			"module": {
				Type:           models.SectionModule,
				TitleForbidden: true,
				Fields:         sourceSectionFields,
			},
		},
	},
	models.TypeLearningOutcome: {
		SectionRank: 2,
		Sections: map[string]SectionSpec{
			"lens": {
				Type:           models.SectionLens,
				TitleForbidden: true,
				Fields:         sourceSectionFields,
			},
			"test": {
				Type:           models.SectionTest,
				TitleForbidden: true,
				Fields:         FieldSpec{Optional: []string{"id"}},
				Segments:       []models.SegmentType{models.SegmentQuestion},
			},
		},
	},
	models.TypeLens: {
		SectionRank: 3,
		Sections: map[string]SectionSpec{
			"article": {
				Type:          models.SectionArticle,
				TitleRequired: true,
				Fields:        sourceSectionFields,
				Segments: []models.SegmentType{
					models.SegmentText, models.SegmentChat,
					models.SegmentArticleExcerpt, models.SegmentVideoExcerpt,
				},
			},
			"video": {
				Type:          models.SectionVideo,
				TitleRequired: true,
				Fields:        sourceSectionFields,
				Segments: []models.SegmentType{
					models.SegmentText, models.SegmentChat,
					models.SegmentArticleExcerpt, models.SegmentVideoExcerpt,
				},
			},
		},
	},
}

// knownFields is the derived union of every field name in the registry.
// Recomputed from the tables at init so it can never drift from them.
var knownFields = func() []string {
	seen := map[string]struct{}{}
	add := func(spec FieldSpec) {
		for _, n := range spec.Required {
			seen[n] = struct{}{}
		}
		for _, n := range spec.Optional {
			seen[n] = struct{}{}
		}
	}
	for _, spec := range ContentTypes {
		add(spec)
	}
	for _, spec := range Segments {
		add(spec)
	}
	for _, doc := range Docs {
		for _, sec := range doc.Sections {
			add(sec.Fields)
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}()

// KnownFields returns every field name the registry knows about.
func KnownFields() []string {
	out := make([]string, len(knownFields))
	copy(out, knownFields)
	return out
}

// ClosestField returns the known field nearest to name by edit distance,
// or "" when nothing is within distance 2.
func ClosestField(name string) string {
	lower := strings.ToLower(name)
	best, bestDist := "", 3
	for _, k := range knownFields {
		if d := editDistance(lower, strings.ToLower(k)); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// editDistance is plain Levenshtein over bytes; field names are ASCII.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
