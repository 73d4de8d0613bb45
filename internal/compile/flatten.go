package compile

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/excerpt"
	"github.com/starford/ansuz/internal/models"
)

// flattenModules walks every non-ignored module in slug order and resolves
// its reference graph into one ordered, self-contained section list.
// Subtrees behind unresolved or ignored references are omitted; the
// resolver and tier validator already reported them, so nothing partial or
// garbled ever reaches the output.
func (c *compilation) flattenModules() {
	for _, doc := range c.orderedDocs() {
		if doc.Type != models.TypeModule || doc.Tier == models.TierIgnored {
			continue
		}
		c.result.Modules = append(c.result.Modules, c.flattenModule(doc))
	}
	sort.Slice(c.result.Modules, func(i, j int) bool {
		return c.result.Modules[i].Slug < c.result.Modules[j].Slug
	})
}

func (c *compilation) flattenModule(doc *models.Document) models.FlattenedModule {
	stem := strings.TrimSuffix(path.Base(doc.Path), ".md")
	title := doc.Frontmatter["title"]
	if title == "" {
		title = stem
	}
	mod := models.FlattenedModule{
		Slug:     slugify(stem),
		Title:    title,
		Path:     doc.Path,
		Sections: []models.FlatSection{},
	}

	for i := range doc.Sections {
		sec := &doc.Sections[i]
		switch sec.Type {
		case models.SectionPage:
			mod.Sections = append(mod.Sections, models.FlatSection{
				Type:     "page",
				Title:    sec.Title,
				ID:       sec.Fields["id"],
				Optional: sec.Optional(),
				Segments: flattenPlainSegments(sec.Segments),
			})
		case models.SectionLearningOutcome:
			target := c.usableTarget(doc.Path, sec.Line)
			if target == nil {
				continue
			}
			mod.Sections = append(mod.Sections, c.flattenOutcome(target, sec.Optional())...)
		case models.SectionUncategorized:
			for _, seg := range sec.Segments {
				if seg.Type != models.SegmentLens {
					continue
				}
				target := c.usableTarget(doc.Path, seg.Line)
				if target == nil {
					continue
				}
				mod.Sections = append(mod.Sections, c.flattenLens(target, "", seg.Optional())...)
			}
		}
	}
	return mod
}

// flattenOutcome expands a learning-outcome document into the flat
// sections of its lenses plus its optional test.
func (c *compilation) flattenOutcome(lo *models.Document, optional bool) []models.FlatSection {
	var out []models.FlatSection
	for i := range lo.Sections {
		sec := &lo.Sections[i]
		switch sec.Type {
		case models.SectionLens:
			lens := c.usableTarget(lo.Path, sec.Line)
			if lens == nil {
				continue
			}
			out = append(out, c.flattenLens(lens, lo.ID(), optional || sec.Optional())...)
		case models.SectionTest:
			out = append(out, models.FlatSection{
				Type:              "test",
				ID:                sec.Fields["id"],
				LearningOutcomeID: lo.ID(),
				Optional:          optional,
				Segments:          flattenPlainSegments(sec.Segments),
			})
		}
	}
	return out
}

// flattenLens expands a lens document into lens-article / lens-video
// sections with extracted excerpt content and resolved source metadata.
func (c *compilation) flattenLens(lens *models.Document, outcomeID string, optional bool) []models.FlatSection {
	var out []models.FlatSection
	for i := range lens.Sections {
		sec := &lens.Sections[i]
		if sec.Type != models.SectionArticle && sec.Type != models.SectionVideo {
			continue
		}
		src := c.usableTarget(lens.Path, sec.Line)
		if src == nil {
			continue
		}

		flat := models.FlatSection{
			Title:             sec.Title,
			ID:                sec.Fields["id"],
			LearningOutcomeID: outcomeID,
			Optional:          optional || sec.Optional(),
		}
		if sec.Type == models.SectionArticle {
			flat.Type = "lens-article"
			flat.Meta = &models.SourceMeta{
				Title:     src.Frontmatter["title"],
				Author:    src.Frontmatter["author"],
				SourceURL: src.Frontmatter["sourceUrl"],
			}
			flat.Segments = c.flattenArticleSegments(lens, sec, src)
		} else {
			flat.Type = "lens-video"
			flat.Meta = &models.SourceMeta{
				Title:   src.Frontmatter["title"],
				Channel: src.Frontmatter["channel"],
				VideoID: src.Frontmatter["videoId"],
			}
			flat.Segments = c.flattenVideoSegments(lens, sec, src)
		}
		out = append(out, flat)
	}
	return out
}

// flattenArticleSegments substitutes article-excerpt segments with their
// extracted spans, bundling collapsed context between consecutive
// excerpts from the same source.
func (c *compilation) flattenArticleSegments(lens *models.Document, sec *models.Section, src *models.Document) []models.FlatSegment {
	out := make([]models.FlatSegment, 0, len(sec.Segments))

	// First pass: find spans for every extractable excerpt.
	spanAt := map[int]excerpt.Span{}
	var spans []excerpt.Span
	for si, seg := range sec.Segments {
		if seg.Type != models.SegmentArticleExcerpt {
			continue
		}
		span, err := excerpt.FindSpan(src.Body, seg.Fields["from"], seg.Fields["to"])
		if err != nil {
			c.extractError(lens, seg.Line, err)
			continue
		}
		spanAt[si] = span
		spans = append(spans, span)
	}
	if !excerpt.SpansOrdered(spans) {
		c.outOfOrderWarning(lens, sec.Line)
	}
	bundled := excerpt.Bundle(src.Body, spans)

	next := 0
	for si, seg := range sec.Segments {
		switch seg.Type {
		case models.SegmentArticleExcerpt:
			if _, ok := spanAt[si]; !ok {
				continue // extraction failed; reported above
			}
			ex := bundled[next]
			next++
			out = append(out, models.FlatSegment{
				Type:            seg.Type,
				ID:              seg.Fields["id"],
				Content:         ex.Content,
				CollapsedBefore: ex.CollapsedBefore,
				CollapsedAfter:  ex.CollapsedAfter,
				Optional:        seg.Optional(),
			})
		case models.SegmentText, models.SegmentChat:
			out = append(out, flattenPlainSegment(seg))
		}
	}
	return out
}

func (c *compilation) flattenVideoSegments(lens *models.Document, sec *models.Section, src *models.Document) []models.FlatSegment {
	out := make([]models.FlatSegment, 0, len(sec.Segments))
	entries := c.sidecars[src.Path]
	for _, seg := range sec.Segments {
		switch seg.Type {
		case models.SegmentVideoExcerpt:
			content, err := excerpt.ExtractVideo(entries, seg.Fields["from"], seg.Fields["to"])
			if err != nil {
				c.extractError(lens, seg.Line, err)
				continue
			}
			out = append(out, models.FlatSegment{
				Type:     seg.Type,
				ID:       seg.Fields["id"],
				Content:  content,
				Optional: seg.Optional(),
			})
		case models.SegmentText, models.SegmentChat:
			out = append(out, flattenPlainSegment(seg))
		}
	}
	return out
}

func flattenPlainSegments(segs []models.Segment) []models.FlatSegment {
	out := make([]models.FlatSegment, 0, len(segs))
	for _, seg := range segs {
		switch seg.Type {
		case models.SegmentText, models.SegmentChat, models.SegmentQuestion:
			out = append(out, flattenPlainSegment(seg))
		}
	}
	return out
}

// flattenPlainSegment copies a non-excerpt segment through. Question
// identifiers are opaque: whatever the author wrote in id travels
// unchanged.
func flattenPlainSegment(seg models.Segment) models.FlatSegment {
	return models.FlatSegment{
		Type:         seg.Type,
		ID:           seg.Fields["id"],
		Content:      seg.Fields["content"],
		Instructions: seg.Fields["instructions"],
		Answer:       seg.Fields["answer"],
		Optional:     seg.Optional(),
	}
}

// usableTarget returns the resolved, non-ignored target of the reference
// at (srcPath, line), or nil when the subtree must be omitted. The
// resolver and tier validator have already diagnosed every nil case.
func (c *compilation) usableTarget(srcPath string, line int) *models.Document {
	target, ok := c.resolved[edgeKey{srcPath, line}]
	if !ok {
		return nil
	}
	doc := c.docs[target]
	if doc == nil || doc.Tier == models.TierIgnored {
		return nil
	}
	return doc
}

// extractError converts an extraction failure into a diagnostic against
// the lens that requested the excerpt.
func (c *compilation) extractError(lens *models.Document, line int, err error) {
	suggestion := ""
	if ee, ok := err.(*excerpt.Error); ok {
		suggestion = ee.Suggestion
	}
	cat := models.CategoryProduction
	if lens.Tier == models.TierWIP {
		cat = models.CategoryWIP
	}
	c.diags = append(c.diags, models.Diagnostic{
		File:       lens.Path,
		Message:    err.Error(),
		Severity:   models.SeverityError,
		Category:   cat,
		Line:       line,
		Suggestion: suggestion,
	})
}

// outOfOrderWarning reports excerpts whose anchors appear in the source
// in a different order than they were authored. The excerpts themselves
// still flatten; only the collapsed context between the misordered
// neighbours is dropped.
func (c *compilation) outOfOrderWarning(lens *models.Document, line int) {
	cat := models.CategoryProduction
	if lens.Tier == models.TierWIP {
		cat = models.CategoryWIP
	}
	c.diags = append(c.diags, models.Diagnostic{
		File:       lens.Path,
		Message:    "Excerpts are not in source order",
		Severity:   models.SeverityWarning,
		Category:   cat,
		Line:       line,
		Suggestion: "Reorder the excerpt segments to match the article text",
	})
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases a name and collapses runs of non-alphanumerics into
// single hyphens.
func slugify(name string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
