package compile

import (
	"fmt"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// kindTargets maps a reference kind to the content type its target must
// have.
var kindTargets = map[string]models.ContentType{
	"learning-outcome": models.TypeLearningOutcome,
	"lens":             models.TypeLens,
	"article":          models.TypeArticle,
	"video":            models.TypeVideoTranscript,
	"module":           models.TypeModule,
}

// resolve builds the directed reference graph over all parsed documents.
// The graph is an explicit edge list keyed by path, so dangling and cyclic
// references stay representable instead of blowing up recursion later.
// Unresolved and wrongly-typed references become errors here; the
// flattener later omits those subtrees without re-reporting.
func (c *compilation) resolve() {
	for _, doc := range c.orderedDocs() {
		// Ignored files contribute no outgoing edges.
		if doc.Tier == models.TierIgnored {
			continue
		}
		for _, ref := range documentReferences(doc) {
			target := c.lookupPath(ref.TargetPath)
			if target == "" {
				c.refError(doc, ref.SourceLine,
					fmt.Sprintf("Unresolved reference: [[%s]]", ref.TargetPath),
					"Check the link target against the vault's file paths")
				continue
			}
			tdoc := c.docs[target]
			if want := kindTargets[ref.Kind]; tdoc.Type != want {
				c.refError(doc, ref.SourceLine,
					fmt.Sprintf("Reference target is not a %s file: [[%s]]", want, ref.TargetPath), "")
				continue
			}
			ref.SourcePath = doc.Path
			ref.TargetPath = target
			c.edges = append(c.edges, ref)
			c.resolved[edgeKey{doc.Path, ref.SourceLine}] = target
		}
	}
}

// documentReferences extracts the raw (unresolved) edges a document
// asserts through its source fields.
func documentReferences(doc *models.Document) []models.Reference {
	var refs []models.Reference
	add := func(line int, raw, kind string) {
		target := parser.ExtractLinkTarget(raw)
		if target == "" {
			// Absent or malformed source fields were already reported
			// by the document parser.
			return
		}
		refs = append(refs, models.Reference{SourceLine: line, TargetPath: target, Kind: kind})
	}

	for i := range doc.Sections {
		sec := &doc.Sections[i]
		switch {
		case doc.Type == models.TypeModule && sec.Type == models.SectionLearningOutcome:
			add(sec.Line, sec.Source(), "learning-outcome")
		case doc.Type == models.TypeModule && sec.Type == models.SectionUncategorized:
			for _, seg := range sec.Segments {
				if seg.Type == models.SegmentLens {
					add(seg.Line, seg.Source(), "lens")
				}
			}
		case doc.Type == models.TypeCourse && sec.Type == models.SectionModule:
			add(sec.Line, sec.Source(), "module")
		case doc.Type == models.TypeLearningOutcome && sec.Type == models.SectionLens:
			add(sec.Line, sec.Source(), "lens")
		case doc.Type == models.TypeLens && sec.Type == models.SectionArticle:
			add(sec.Line, sec.Source(), "article")
		case doc.Type == models.TypeLens && sec.Type == models.SectionVideo:
			add(sec.Line, sec.Source(), "video")
		}
	}
	return refs
}

// lookupPath resolves a wiki-link target against the input map: exact key
// first, then with the .md extension appended.
func (c *compilation) lookupPath(target string) string {
	if _, ok := c.docs[target]; ok {
		return target
	}
	if _, ok := c.docs[target+".md"]; ok {
		return target + ".md"
	}
	return ""
}

// checkTiers enforces the authoring-maturity policy on every resolved
// edge: production may only reference production; wip may reference
// production and wip but not ignored.
func (c *compilation) checkTiers() {
	for _, e := range c.edges {
		src := c.docs[e.SourcePath]
		tgt := c.docs[e.TargetPath]

		switch {
		case src.Tier == models.TierProduction && tgt.Tier == models.TierWIP:
			c.refError(src, e.SourceLine,
				fmt.Sprintf("Tier violation: a production file references a wip file: %s", e.TargetPath),
				"Finish the target and drop its wip tag, or tag this file wip too")
		case src.Tier == models.TierProduction && tgt.Tier == models.TierIgnored:
			c.refError(src, e.SourceLine,
				fmt.Sprintf("Tier violation: a production file references an ignored file: %s", e.TargetPath),
				"Remove the validator-ignore tag from the target")
		case src.Tier == models.TierWIP && tgt.Tier == models.TierIgnored:
			c.refError(src, e.SourceLine,
				fmt.Sprintf("Tier violation: a wip file references an ignored file: %s", e.TargetPath),
				"Remove the validator-ignore tag from the target")
		}
	}
}

// refError records a reference-stage error whose category derives from the
// referencing file's own tier.
func (c *compilation) refError(src *models.Document, line int, msg, suggestion string) {
	cat := models.CategoryProduction
	if src.Tier == models.TierWIP {
		cat = models.CategoryWIP
	}
	c.diags = append(c.diags, models.Diagnostic{
		File:       src.Path,
		Message:    msg,
		Severity:   models.SeverityError,
		Category:   cat,
		Line:       line,
		Suggestion: suggestion,
	})
}
