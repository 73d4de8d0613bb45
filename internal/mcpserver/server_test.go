package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	vaultDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(vaultDir, "modules"), 0o755); err != nil {
		t.Fatal(err)
	}
	moduleText := `---
id: mod-intro
title: Intro
---
# Page: Hello

## Text
content:: Welcome aboard.
`
	if err := os.WriteFile(filepath.Join(vaultDir, "modules", "intro.md"), []byte(moduleText), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "ansuz-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if _, err := index.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}

	return New(store, db, logger)
}

// callTool invokes a tool handler directly; mcp-go has no call-tool test
// helper.
func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error
	switch name {
	case "list_modules":
		result, err = srv.listModules(ctx, req)
	case "get_module":
		result, err = srv.getModule(ctx, req)
	case "get_diagnostics":
		result, err = srv.getDiagnostics(ctx, req)
	case "check_vault":
		result, err = srv.checkVault(ctx, req)
	case "search_modules":
		result, err = srv.searchModules(ctx, req)
	case "get_authoring_contract":
		result, err = srv.getAuthoringContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListModules(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_modules", nil)
	if !strings.Contains(resultText(r), `"slug": "intro"`) {
		t.Errorf("list result = %q", resultText(r))
	}
}

func TestGetModule(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_module", map[string]interface{}{"slug": "intro"})
	text := resultText(r)
	if !strings.Contains(text, `"title": "Intro"`) || !strings.Contains(text, "Welcome aboard.") {
		t.Errorf("module result = %q", text)
	}
}

func TestGetModule_Missing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_module", map[string]interface{}{"slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing module")
	}
}

func TestCheckVault(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "check_vault", nil)
	text := resultText(r)
	if !strings.Contains(text, `"modules": 1`) || !strings.Contains(text, `"productionErrors": 0`) {
		t.Errorf("check result = %q", text)
	}
}

func TestSearchModules(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_modules", map[string]interface{}{"query": "welcome"})
	if !strings.Contains(resultText(r), `"slug": "intro"`) {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestGetAuthoringContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_authoring_contract", nil)
	text := resultText(r)
	if !strings.Contains(text, "Authoring Format Contract") || !strings.Contains(text, "validator-ignore") {
		t.Errorf("contract result = %q", text)
	}
}
