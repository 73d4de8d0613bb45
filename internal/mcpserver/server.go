// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the compiled course vault to LLM tooling via stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp    *server.MCPServer
	store  storage.Provider
	db     *index.DB
	logger *slog.Logger
}

// New creates a new MCP server with all vault tools registered.
func New(store storage.Provider, db *index.DB, logger *slog.Logger) *Server {
	s := &Server{store: store, db: db, logger: logger}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_modules",
		mcp.WithDescription("List all compiled course modules with their slugs and titles."),
	), s.listModules)

	s.mcp.AddTool(mcp.NewTool("get_module",
		mcp.WithDescription("Read a compiled module: its flattened sections with extracted "+
			"article excerpts and video transcript passages."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Module slug (from list_modules)")),
	), s.getModule)

	s.mcp.AddTool(mcp.NewTool("get_diagnostics",
		mcp.WithDescription("List compiler diagnostics from the last compile. "+
			"Production-category errors block publishing; wip-category ones are informational."),
		mcp.WithString("category", mcp.Description("Optional filter: production or wip")),
	), s.getDiagnostics)

	s.mcp.AddTool(mcp.NewTool("check_vault",
		mcp.WithDescription("Recompile the vault from disk and report fresh diagnostics. "+
			"Use after editing content files to verify the authoring format is respected."),
	), s.checkVault)

	s.mcp.AddTool(mcp.NewTool("search_modules",
		mcp.WithDescription("Full-text search through compiled module content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchModules)

	s.mcp.AddTool(mcp.NewTool("get_authoring_contract",
		mcp.WithDescription("Returns the canonical course-content authoring format. "+
			"Call this before writing or editing vault files to ensure correct structure."),
	), s.getAuthoringContract)

	// Resource: authoring format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://authoring-format", "Authoring Format Contract",
			mcp.WithResourceDescription("Canonical wiki-Markdown authoring format for course content."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAuthoringFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listModules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mods, err := s.db.ListModules()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(mods, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getModule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mod, err := s.db.GetModule(slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	out, _ := json.MarshalIndent(mod, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDiagnostics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}
	diags, err := s.db.Diagnostics(category)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(diags, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := index.Sync(s.db, s.store, s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	production := 0
	for _, d := range res.Errors {
		if d.Severity == models.SeverityError && d.Category == models.CategoryProduction {
			production++
		}
	}
	summary := struct {
		Modules          int                 `json:"modules"`
		ProductionErrors int                 `json:"productionErrors"`
		Diagnostics      []models.Diagnostic `json:"diagnostics"`
	}{
		Modules:          len(res.Modules),
		ProductionErrors: production,
		Diagnostics:      res.Errors,
	}
	out, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchModules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getAuthoringContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AuthoringFormatContract), nil
}

func (s *Server) readAuthoringFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://authoring-format",
			MIMEType: "text/markdown",
			Text:     AuthoringFormatContract,
		},
	}, nil
}
