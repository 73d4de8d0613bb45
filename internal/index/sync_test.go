package index

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/storage"
)

func testVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

func writeVaultFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSnapshot_CollectsCompilableFiles(t *testing.T) {
	dir, store := testVault(t)
	writeVaultFile(t, dir, "modules/m.md", "---\nid: m\n---\n")
	writeVaultFile(t, dir, "video_transcripts/v.timestamps.json", "[]")
	writeVaultFile(t, dir, "assets/logo.png", "binary")

	files, err := Snapshot(store)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2: %v", len(files), files)
	}
	if files["modules/m.md"] != "---\nid: m\n---\n" {
		t.Errorf("files[modules/m.md] = %q", files["modules/m.md"])
	}
	if _, ok := files["assets/logo.png"]; ok {
		t.Error("non-compilable file snapshotted")
	}
}

func TestSync_CompilesAndStores(t *testing.T) {
	dir, store := testVault(t)
	db := testDB(t)
	writeVaultFile(t, dir, "modules/intro.md", `---
id: mod-intro
title: Intro
---
# Page: Hello

## Text
content:: Hi there.
`)

	res, err := Sync(db, store, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(res.Modules) != 1 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}

	mod, err := db.GetModule("intro")
	if err != nil {
		t.Fatalf("GetModule: %v", err)
	}
	if mod.Title != "Intro" {
		t.Errorf("title = %q", mod.Title)
	}
}

func TestSync_StoresDiagnostics(t *testing.T) {
	dir, store := testVault(t)
	db := testDB(t)
	writeVaultFile(t, dir, "modules/broken.md", "---\nid: b\n---\n# Chapter: One\n")

	if _, err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	diags, err := db.Diagnostics("production")
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || diags[0].File != "modules/broken.md" {
		t.Errorf("diags = %+v", diags)
	}
}
