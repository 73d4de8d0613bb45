// Package contentservice coordinates the vault, the compiler, and the
// compiled-output index for the API and MCP layers.
package contentservice

import (
	"context"
	"log/slog"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// Service coordinates storage, compilation, and index operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	logger *slog.Logger
}

// NewService creates a new content service.
func NewService(store storage.Provider, db *index.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, db: db, logger: logger}
}

// ListModules returns summaries of every compiled module.
func (s *Service) ListModules(_ context.Context) ([]index.ModuleSummary, error) {
	return s.db.ListModules()
}

// GetModule returns one flattened module by slug.
func (s *Service) GetModule(_ context.Context, slug string) (*models.FlattenedModule, error) {
	return s.db.GetModule(slug)
}

// Diagnostics returns the latest compile's diagnostics, optionally
// filtered by category.
func (s *Service) Diagnostics(_ context.Context, category string) ([]models.Diagnostic, error) {
	return s.db.Diagnostics(category)
}

// Search performs substring search over flattened module content.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Recompile compiles the vault from scratch and replaces the stored
// output.
func (s *Service) Recompile(_ context.Context) (*models.Result, error) {
	return index.Sync(s.db, s.store, s.logger)
}
