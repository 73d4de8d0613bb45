// Package models defines the domain types for Ansuz.
package models

// ContentType identifies what kind of document a vault file holds,
// derived from its top-level directory.
type ContentType string

// Recognized content types.
const (
	TypeModule          ContentType = "module"
	TypeCourse          ContentType = "course"
	TypeLearningOutcome ContentType = "learning-outcome"
	TypeLens            ContentType = "lens"
	TypeArticle         ContentType = "article"
	TypeVideoTranscript ContentType = "video-transcript"
)

// Tier is a file's authoring-maturity classification, derived from
// frontmatter tags.
type Tier string

// Tiers.
const (
	TierProduction Tier = "production"
	TierWIP        Tier = "wip"
	TierIgnored    Tier = "ignored"
)

// SourceFile is one raw input to the compiler.
type SourceFile struct {
	Path    string
	RawText string
	Type    ContentType
}

// SectionType identifies a section node in a parsed document.
type SectionType string

// Section types.
const (
	SectionPage            SectionType = "page"
	SectionLearningOutcome SectionType = "learning-outcome"
	SectionUncategorized   SectionType = "uncategorized"
	SectionArticle         SectionType = "article"
	SectionVideo           SectionType = "video"
	SectionTest            SectionType = "test"
	SectionLens            SectionType = "lens"
	SectionModule          SectionType = "module"
)

// SegmentType identifies a segment leaf in a parsed document.
type SegmentType string

// Segment types.
const (
	SegmentText           SegmentType = "text"
	SegmentChat           SegmentType = "chat"
	SegmentArticleExcerpt SegmentType = "article-excerpt"
	SegmentVideoExcerpt   SegmentType = "video-excerpt"
	SegmentQuestion       SegmentType = "question"
	SegmentLens           SegmentType = "lens"
)

// Section is a typed node in a document's parse tree.
type Section struct {
	Type     SectionType
	Title    string
	Line     int
	Fields   map[string]string
	Segments []Segment
}

// Source returns the section's source field value, if any.
func (s *Section) Source() string { return s.Fields["source"] }

// Optional reports whether the section is flagged optional.
func (s *Section) Optional() bool { return s.Fields["optional"] == "true" }

// Segment is a typed leaf carrying only the fields its schema permits.
type Segment struct {
	Type   SegmentType
	Line   int
	Fields map[string]string
}

// Source returns the segment's source field value, if any.
func (s *Segment) Source() string { return s.Fields["source"] }

// Optional reports whether the segment is flagged optional.
func (s *Segment) Optional() bool { return s.Fields["optional"] == "true" }

// Document is the parse tree for one vault file.
type Document struct {
	Path        string
	Type        ContentType
	Frontmatter map[string]string
	Tags        []string
	Tier        Tier
	Body        string // frontmatter-stripped content (articles, transcripts)
	Sections    []Section
}

// ID returns the frontmatter id, if any.
func (d *Document) ID() string { return d.Frontmatter["id"] }

// Reference is a directed edge in the content graph.
type Reference struct {
	SourcePath string
	SourceLine int
	TargetPath string
	Kind       string // "learning-outcome", "lens", "article", "video", "module"
}

// Severity of a diagnostic.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Category of a diagnostic, derived from the referencing file's tier.
type Category string

// Categories.
const (
	CategoryProduction Category = "production"
	CategoryWIP        Category = "wip"
)

// Diagnostic is one normalized finding from any compile stage.
type Diagnostic struct {
	File       string   `json:"file"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Category   Category `json:"category"`
	Line       int      `json:"line,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Excerpt is a resolved text span from a source document. CollapsedBefore
// and CollapsedAfter hold the elided text between consecutive excerpts of
// a bundled sequence; nil means "no collapsed region", which is distinct
// from an empty one.
type Excerpt struct {
	Content         string  `json:"content"`
	CollapsedBefore *string `json:"collapsedBefore,omitempty"`
	CollapsedAfter  *string `json:"collapsedAfter,omitempty"`
}

// SourceMeta carries resolved metadata for a flattened lens section.
// Articles fill Author/SourceURL; videos fill Channel/VideoID.
type SourceMeta struct {
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
	Channel   string `json:"channel,omitempty"`
	VideoID   string `json:"videoId,omitempty"`
}

// FlatSegment is a fully resolved segment in the compiler output.
type FlatSegment struct {
	Type            SegmentType `json:"type"`
	ID              string      `json:"id,omitempty"`
	Content         string      `json:"content,omitempty"`
	Instructions    string      `json:"instructions,omitempty"`
	Answer          string      `json:"answer,omitempty"`
	Optional        bool        `json:"optional,omitempty"`
	CollapsedBefore *string     `json:"collapsedBefore,omitempty"`
	CollapsedAfter  *string     `json:"collapsedAfter,omitempty"`
}

// FlatSection is a fully resolved section in the compiler output.
// Type is one of "page", "lens-article", "lens-video", "test".
type FlatSection struct {
	Type              string        `json:"type"`
	Title             string        `json:"title,omitempty"`
	ID                string        `json:"id,omitempty"`
	LearningOutcomeID string        `json:"learningOutcomeId,omitempty"`
	Optional          bool          `json:"optional,omitempty"`
	Meta              *SourceMeta   `json:"meta,omitempty"`
	Segments          []FlatSegment `json:"segments"`
}

// FlattenedModule is the terminal artifact: one ordered, self-contained
// document per module, with every reference resolved.
type FlattenedModule struct {
	Slug     string        `json:"slug"`
	Title    string        `json:"title"`
	Path     string        `json:"path"`
	Sections []FlatSection `json:"sections"`
}

// Result is the output of one full compile.
type Result struct {
	Modules []FlattenedModule `json:"modules"`
	Errors  []Diagnostic      `json:"errors"`
}
