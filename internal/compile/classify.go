package compile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// sidecarSuffix marks a transcript's paired time-index file.
const sidecarSuffix = ".timestamps.json"

// contentDirs maps recognized top-level directories to content types.
var contentDirs = map[string]models.ContentType{
	"modules":           models.TypeModule,
	"courses":           models.TypeCourse,
	"Learning Outcomes": models.TypeLearningOutcome,
	"Lenses":            models.TypeLens,
	"articles":          models.TypeArticle,
	"video_transcripts": models.TypeVideoTranscript,
}

// classify splits the input map into typed source files and raw sidecar
// payloads. Files in directories that near-match a recognized content
// directory (case or pluralization variants) produce a warning with a
// rename suggestion instead of being silently dropped.
func (c *compilation) classify() {
	paths := make([]string, 0, len(c.files))
	for p := range c.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	warned := map[string]struct{}{}
	for _, path := range paths {
		dir, _, ok := strings.Cut(path, "/")
		if !ok {
			continue
		}
		ctype, recognized := contentDirs[dir]
		if !recognized {
			if match := nearMatchDir(dir); match != "" {
				if _, done := warned[dir]; !done {
					warned[dir] = struct{}{}
					c.diags = append(c.diags, models.Diagnostic{
						File:       path,
						Message:    fmt.Sprintf("Unrecognized directory: %q", dir),
						Severity:   models.SeverityWarning,
						Category:   models.CategoryProduction,
						Suggestion: fmt.Sprintf("Rename the directory to %q", match),
					})
				}
			}
			continue
		}

		switch {
		case strings.HasSuffix(path, sidecarSuffix) && ctype == models.TypeVideoTranscript:
			c.sidecarRaw[path] = c.files[path]
		case strings.HasSuffix(path, ".md"):
			c.sources = append(c.sources, models.SourceFile{
				Path:    path,
				RawText: c.files[path],
				Type:    ctype,
			})
		}
	}
}

// nearMatchDir returns the recognized directory a stray name most likely
// meant, or "" when the name is nothing like any of them.
func nearMatchDir(dir string) string {
	fold := func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimSuffix(s, "s")
		return s
	}
	for known := range contentDirs {
		if dir != known && fold(dir) == fold(known) {
			return known
		}
	}
	return ""
}
