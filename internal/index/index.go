package index

import "github.com/starford/ansuz/internal/models"

// ContentIndex defines the interface for compiled-output storage.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type ContentIndex interface {
	ReplaceResult(res *models.Result) error
	ListModules() ([]ModuleSummary, error)
	GetModule(slug string) (*models.FlattenedModule, error)
	Diagnostics(category string) ([]models.Diagnostic, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ContentIndex at compile time.
var _ ContentIndex = (*DB)(nil)
