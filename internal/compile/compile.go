// Package compile orchestrates the content pipeline: classify each input
// file, parse it into a typed tree, link the cross-file reference graph,
// enforce the tier policy, extract excerpts, and flatten every module into
// a self-contained document. The whole pipeline is a pure, synchronous
// transformation of a path → text map; content problems become
// diagnostics, never Go errors.
package compile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/document"
	"github.com/starford/ansuz/internal/excerpt"
	"github.com/starford/ansuz/internal/models"
)

type edgeKey struct {
	srcPath string
	line    int
}

type compilation struct {
	files map[string]string

	sources    []models.SourceFile
	sidecarRaw map[string]string
	sidecars   map[string][]excerpt.IndexEntry
	docs       map[string]*models.Document
	edges      []models.Reference
	resolved   map[edgeKey]string
	diags      []models.Diagnostic
	result     models.Result
}

// Compile runs the full pipeline over a map of relative file path → raw
// text and returns the flattened modules plus every diagnostic, ordered.
func Compile(files map[string]string) *models.Result {
	c := &compilation{
		files:      files,
		sidecarRaw: map[string]string{},
		sidecars:   map[string][]excerpt.IndexEntry{},
		docs:       map[string]*models.Document{},
		resolved:   map[edgeKey]string{},
	}

	c.classify()
	c.parseAll()
	c.pairSidecars()
	c.resolve()
	c.checkTiers()
	c.flattenModules()

	if c.result.Modules == nil {
		c.result.Modules = []models.FlattenedModule{}
	}
	c.result.Errors = sortDiagnostics(c.diags)
	return &c.result
}

// parseAll runs the per-file document parsers. Every file is validated
// standalone, referenced or not, so authoring errors surface before a
// file is wired into a module.
func (c *compilation) parseAll() {
	for _, src := range c.sources {
		doc, diags := document.Parse(src)
		c.docs[src.Path] = doc
		c.diags = append(c.diags, diags...)
	}
}

// pairSidecars matches transcripts with their .timestamps.json sidecars:
// a transcript without a sidecar is an error, a sidecar without a
// transcript a warning.
func (c *compilation) pairSidecars() {
	for _, doc := range c.orderedDocs() {
		if doc.Type != models.TypeVideoTranscript || doc.Tier == models.TierIgnored {
			continue
		}
		sidecarPath := strings.TrimSuffix(doc.Path, ".md") + sidecarSuffix
		raw, ok := c.sidecarRaw[sidecarPath]
		if !ok {
			c.refError(doc, 0,
				fmt.Sprintf("Missing timestamp sidecar: %s", sidecarPath),
				"Generate the .timestamps.json index for this transcript")
			continue
		}
		entries, err := excerpt.ParseSidecar([]byte(raw))
		if err != nil {
			c.refError(doc, 0, fmt.Sprintf("Invalid timestamp sidecar: %s", sidecarPath), "")
			continue
		}
		c.sidecars[doc.Path] = entries
	}

	orphans := make([]string, 0)
	for sidecarPath := range c.sidecarRaw {
		transcript := strings.TrimSuffix(sidecarPath, sidecarSuffix) + ".md"
		if _, ok := c.docs[transcript]; !ok {
			orphans = append(orphans, sidecarPath)
		}
	}
	sort.Strings(orphans)
	for _, p := range orphans {
		c.diags = append(c.diags, models.Diagnostic{
			File:     p,
			Message:  "Timestamp sidecar has no matching transcript",
			Severity: models.SeverityWarning,
			Category: models.CategoryProduction,
		})
	}
}

// orderedDocs returns the parsed documents in path order, for
// deterministic diagnostics and output.
func (c *compilation) orderedDocs() []*models.Document {
	paths := make([]string, 0, len(c.docs))
	for p := range c.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]*models.Document, len(paths))
	for i, p := range paths {
		out[i] = c.docs[p]
	}
	return out
}

// sortDiagnostics orders diagnostics by file, then line, then message.
func sortDiagnostics(diags []models.Diagnostic) []models.Diagnostic {
	if diags == nil {
		return []models.Diagnostic{}
	}
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Message < diags[j].Message
	})
	return diags
}
