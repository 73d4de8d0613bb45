package index

import (
	"errors"
	"os"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testResult() *models.Result {
	return &models.Result{
		Modules: []models.FlattenedModule{
			{
				Slug:  "getting-started",
				Title: "Getting Started",
				Path:  "modules/getting-started.md",
				Sections: []models.FlatSection{
					{
						Type:  "page",
						Title: "Welcome",
						Segments: []models.FlatSegment{
							{Type: models.SegmentText, Content: "The factory system reshaped labour."},
						},
					},
				},
			},
			{
				Slug:     "advanced",
				Title:    "Advanced Topics",
				Path:     "modules/advanced.md",
				Sections: []models.FlatSection{},
			},
		},
		Errors: []models.Diagnostic{
			{File: "modules/broken.md", Message: "Unknown section type: Chapter", Severity: models.SeverityError, Category: models.CategoryProduction, Line: 4},
			{File: "Lenses/draft.md", Message: "Anchor not found: \"x\"", Severity: models.SeverityError, Category: models.CategoryWIP, Line: 7, Suggestion: "Check the anchor"},
		},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM modules`).Scan(&count); err != nil {
		t.Fatalf("modules table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM diagnostics`).Scan(&count); err != nil {
		t.Fatalf("diagnostics table missing: %v", err)
	}
}

func TestReplaceResult_RoundTrip(t *testing.T) {
	db := testDB(t)
	if err := db.ReplaceResult(testResult()); err != nil {
		t.Fatalf("ReplaceResult: %v", err)
	}

	mods, err := db.ListModules()
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("len(mods) = %d, want 2", len(mods))
	}
	// Ordered by slug.
	if mods[0].Slug != "advanced" || mods[1].Slug != "getting-started" {
		t.Errorf("slugs = %q, %q", mods[0].Slug, mods[1].Slug)
	}

	mod, err := db.GetModule("getting-started")
	if err != nil {
		t.Fatalf("GetModule: %v", err)
	}
	if mod.Title != "Getting Started" || len(mod.Sections) != 1 {
		t.Errorf("module = %+v", mod)
	}
	if mod.Sections[0].Segments[0].Content != "The factory system reshaped labour." {
		t.Errorf("sections = %+v", mod.Sections)
	}
}

func TestGetModule_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetModule("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReplaceResult_SwapsEverything(t *testing.T) {
	db := testDB(t)
	if err := db.ReplaceResult(testResult()); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceResult(&models.Result{}); err != nil {
		t.Fatal(err)
	}
	mods, err := db.ListModules()
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 0 {
		t.Errorf("stale modules survived: %+v", mods)
	}
	diags, err := db.Diagnostics("")
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 0 {
		t.Errorf("stale diagnostics survived: %+v", diags)
	}
}

func TestDiagnostics_CategoryFilter(t *testing.T) {
	db := testDB(t)
	if err := db.ReplaceResult(testResult()); err != nil {
		t.Fatal(err)
	}

	all, err := db.Diagnostics("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	wip, err := db.Diagnostics("wip")
	if err != nil {
		t.Fatal(err)
	}
	if len(wip) != 1 || wip[0].Category != models.CategoryWIP {
		t.Errorf("wip = %+v", wip)
	}
	if wip[0].Suggestion != "Check the anchor" || wip[0].Line != 7 {
		t.Errorf("wip[0] = %+v", wip[0])
	}
}

func TestSearch_CaseInsensitiveWithSnippet(t *testing.T) {
	db := testDB(t)
	if err := db.ReplaceResult(testResult()); err != nil {
		t.Fatal(err)
	}

	hits, err := db.Search("FACTORY", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Slug != "getting-started" {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Snippet == "" {
		t.Error("expected a snippet")
	}

	none, err := db.Search("nonexistent-term", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("hits = %+v, want none", none)
	}
}
