// Package document parses classified vault files into typed parse trees,
// validating structure and fields against the schema registry. Parsing is
// best-effort: a document with errors still yields a tree covering
// whatever was valid, so later stages can keep analyzing it.
package document

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/schema"
)

// Parse parses one source file into a Document plus diagnostics.
//
// Ignored files (tagged validator-ignore) are parsed for identity only:
// they produce no diagnostics and no sections, but remain present in the
// compile so other files can legally reference them.
func Parse(file models.SourceFile) (*models.Document, []models.Diagnostic) {
	fm, body := parser.SplitFrontmatter(file.RawText)
	doc := &models.Document{
		Path:        file.Path,
		Type:        file.Type,
		Frontmatter: fm.Fields,
		Tags:        fm.Tags,
		Tier:        parser.TierOf(fm.Tags),
		Body:        body,
	}
	if doc.Tier == models.TierIgnored {
		return doc, nil
	}

	p := &docParser{doc: doc, category: categoryFor(doc.Tier)}
	p.checkFrontmatter()
	p.parseSections(file.RawText)
	p.checkContracts()
	return doc, p.diags
}

func categoryFor(tier models.Tier) models.Category {
	if tier == models.TierWIP {
		return models.CategoryWIP
	}
	return models.CategoryProduction
}

type docParser struct {
	doc      *models.Document
	category models.Category
	diags    []models.Diagnostic
}

func (p *docParser) errorf(line int, format string, args ...interface{}) {
	p.diags = append(p.diags, models.Diagnostic{
		File:     p.doc.Path,
		Message:  fmt.Sprintf(format, args...),
		Severity: models.SeverityError,
		Category: p.category,
		Line:     line,
	})
}

func (p *docParser) errorSuggest(line int, suggestion, format string, args ...interface{}) {
	p.diags = append(p.diags, models.Diagnostic{
		File:       p.doc.Path,
		Message:    fmt.Sprintf(format, args...),
		Severity:   models.SeverityError,
		Category:   p.category,
		Line:       line,
		Suggestion: suggestion,
	})
}

func (p *docParser) checkFrontmatter() {
	spec, ok := schema.ContentTypes[p.doc.Type]
	if !ok {
		return
	}
	for _, name := range spec.Required {
		if _, present := p.doc.Frontmatter[name]; !present {
			p.errorf(0, "Missing required field: %s", name)
		}
	}
}

// rawSection and rawSegment hold header-delimited line spans before field
// parsing and validation.
type rawSegment struct {
	h     parser.Heading
	lines []string
}

type rawSection struct {
	h          parser.Heading
	fieldLines []string
	fieldStart int
	segments   []*rawSegment
}

func (p *docParser) parseSections(fullText string) {
	spec, ok := schema.Docs[p.doc.Type]
	if !ok {
		// Articles and transcripts have no section grammar.
		return
	}
	secRank := spec.SectionRank
	segRank := secRank + 1

	lines := strings.Split(p.doc.Body, "\n")
	offset := strings.Count(fullText, "\n") + 1 - len(lines)

	var raws []*rawSection
	var cur *rawSection
	var curSeg *rawSegment

	for i, line := range lines {
		ln := offset + i + 1
		h, isHeading := parser.ParseHeading(line, ln)
		// Headings deeper than the segment rank are plain content (they
		// may legitimately appear inside multi-line field values).
		if isHeading && h.Rank <= segRank {
			switch {
			case h.Rank < secRank:
				p.errorf(ln, "Wrong header rank: %s sections use %q headers", p.doc.Type, strings.Repeat("#", secRank))
				cur, curSeg = nil, nil
			case h.Rank == secRank:
				cur = &rawSection{h: h, fieldStart: ln + 1}
				curSeg = nil
				raws = append(raws, cur)
			default:
				if cur == nil {
					p.errorf(ln, "Wrong header rank: %q segment appears outside of a section", h.Name)
					continue
				}
				curSeg = &rawSegment{h: h}
				cur.segments = append(cur.segments, curSeg)
			}
			continue
		}
		switch {
		case curSeg != nil:
			curSeg.lines = append(curSeg.lines, line)
		case cur != nil:
			cur.fieldLines = append(cur.fieldLines, line)
		}
	}

	for _, raw := range raws {
		if sec := p.buildSection(spec, raw); sec != nil {
			p.doc.Sections = append(p.doc.Sections, *sec)
		}
	}
}

func (p *docParser) buildSection(docSpec schema.DocSpec, raw *rawSection) *models.Section {
	name := strings.ToLower(raw.h.Name)
	secSpec, known := docSpec.Sections[name]
	if !known {
		if repl, legacy := schema.LegacySections[name]; legacy {
			p.errorSuggest(raw.h.Line, fmt.Sprintf("Replace %q with %q", raw.h.Name, repl),
				"Legacy section type %q is no longer supported; use %q instead", raw.h.Name, repl)
		} else {
			p.errorf(raw.h.Line, "Unknown section type: %s", raw.h.Name)
		}
		return nil
	}

	if secSpec.TitleRequired && raw.h.Title == "" {
		p.errorf(raw.h.Line, "Missing title for %s section", raw.h.Name)
	}
	if secSpec.TitleForbidden && raw.h.Title != "" {
		p.errorf(raw.h.Line, "Title not allowed for %s section", raw.h.Name)
	}

	sec := &models.Section{
		Type:   secSpec.Type,
		Title:  raw.h.Title,
		Line:   raw.h.Line,
		Fields: p.collectFields(secSpec.Fields, raw.fieldLines, raw.fieldStart),
	}

	for _, rawSeg := range raw.segments {
		if seg := p.buildSegment(secSpec, raw.h.Name, rawSeg); seg != nil {
			sec.Segments = append(sec.Segments, *seg)
		}
	}
	return sec
}

func (p *docParser) buildSegment(secSpec schema.SectionSpec, secName string, raw *rawSegment) *models.Segment {
	name := strings.ToLower(raw.h.Name)
	segType, known := schema.SegmentNames[name]
	if !known {
		if repl, legacy := schema.LegacySegments[name]; legacy {
			p.errorSuggest(raw.h.Line, fmt.Sprintf("Replace %q with %q", raw.h.Name, repl),
				"Legacy segment type %q is no longer supported; use %q instead", raw.h.Name, repl)
		} else {
			p.errorf(raw.h.Line, "Unknown segment type: %s", raw.h.Name)
		}
		return nil
	}
	if !secSpec.AllowsSegment(segType) {
		p.errorf(raw.h.Line, "%s segment not allowed in %s section",
			schema.SegmentDisplay[segType], secName)
		// Fall through: still parse fields so the tree stays usable.
	}
	if raw.h.Title != "" {
		p.errorf(raw.h.Line, "Title not allowed for %s segment", schema.SegmentDisplay[segType])
	}

	segSpec := schema.Segments[segType]
	return &models.Segment{
		Type:   segType,
		Line:   raw.h.Line,
		Fields: p.collectFields(segSpec, raw.lines, raw.h.Line+1),
	}
}

// collectFields parses field lines and validates them against spec:
// unknown fields error (with a did-you-mean suggestion), malformed
// booleans error, missing required fields error.
func (p *docParser) collectFields(spec schema.FieldSpec, lines []string, startLine int) map[string]string {
	fields := map[string]string{}
	for _, f := range parser.ParseFields(lines, startLine, nil) {
		if !spec.Allows(f.Key) {
			suggestion := ""
			if closest := schema.ClosestField(f.Key); closest != "" {
				suggestion = fmt.Sprintf("Did you mean %q?", closest)
			}
			p.errorSuggest(f.Line, suggestion, "Unknown field: %s", f.Key)
			continue
		}
		if spec.IsBoolean(f.Key) && f.Value != "true" && f.Value != "false" {
			p.errorf(f.Line, "Invalid boolean value for field %q: got %q, expected true or false", f.Key, f.Value)
			continue
		}
		fields[f.Key] = f.Value
	}
	for _, name := range spec.Required {
		if _, present := fields[name]; !present {
			p.errorf(startLine-1, "Missing required field: %s", name)
		}
	}
	// A source field must carry wikilink syntax; a bare path is the
	// "present but malformed" case, distinct from the field being absent.
	if v, present := fields["source"]; present && parser.ExtractLinkTarget(v) == "" {
		p.errorSuggest(startLine-1, "Use [[path]] link syntax",
			"Malformed source link: %q", v)
	}
	return fields
}

// checkContracts applies the per-content-type graph contracts that go
// beyond field schemas.
func (p *docParser) checkContracts() {
	switch p.doc.Type {
	case models.TypeModule:
		p.checkModule()
	case models.TypeLearningOutcome:
		p.checkOutcome()
	case models.TypeLens:
		p.checkLens()
	}
}

func (p *docParser) checkModule() {
	for i := range p.doc.Sections {
		sec := &p.doc.Sections[i]
		if sec.Type != models.SectionUncategorized {
			continue
		}
		lenses := 0
		for _, seg := range sec.Segments {
			if seg.Type == models.SegmentLens {
				lenses++
			}
		}
		if lenses == 0 {
			p.errorf(sec.Line, "An Uncategorized section requires at least one Lens subsection")
		}
	}
}

func (p *docParser) checkOutcome() {
	lenses, tests := 0, 0
	for _, sec := range p.doc.Sections {
		switch sec.Type {
		case models.SectionLens:
			lenses++
		case models.SectionTest:
			tests++
		}
	}
	if lenses == 0 {
		p.errorf(0, "A learning outcome requires at least one Lens section")
	}
	if tests > 1 {
		p.errorf(0, "At most one Test section is allowed in a learning outcome")
	}
}

func (p *docParser) checkLens() {
	sources := 0
	for i := range p.doc.Sections {
		sec := &p.doc.Sections[i]
		var want models.SegmentType
		var secName string
		switch sec.Type {
		case models.SectionArticle:
			want, secName = models.SegmentArticleExcerpt, "Article"
		case models.SectionVideo:
			want, secName = models.SegmentVideoExcerpt, "Video"
		default:
			continue
		}
		sources++

		excerpts := 0
		for _, seg := range sec.Segments {
			switch seg.Type {
			case want:
				excerpts++
			case models.SegmentArticleExcerpt, models.SegmentVideoExcerpt:
				// The other excerpt kind: wrong for this section.
				p.errorf(seg.Line, "%s segment not allowed in %s section; use %s",
					schema.SegmentDisplay[seg.Type], secName, schema.SegmentDisplay[want])
			}
		}
		if excerpts == 0 {
			p.errorf(sec.Line, "A %s section requires at least one %s segment",
				secName, schema.SegmentDisplay[want])
		}
	}
	if sources == 0 {
		p.errorf(0, "A lens requires at least one Article or Video section")
	}
}
