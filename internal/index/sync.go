package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/ansuz/internal/compile"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// Snapshot reads every compilable vault file into the path → text map the
// compiler consumes.
func Snapshot(store storage.Provider) (map[string]string, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, err
	}
	files := make(map[string]string, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("index: snapshot %s: %w", m.Path, err)
		}
		files[m.Path] = string(data)
	}
	return files, nil
}

// Sync compiles the vault from scratch and replaces the stored output.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (*models.Result, error) {
	files, err := Snapshot(store)
	if err != nil {
		return nil, err
	}

	res := compile.Compile(files)
	if err := db.ReplaceResult(res); err != nil {
		return nil, err
	}

	logger.Info("sync: compiled",
		slog.Int("files", len(files)),
		slog.Int("modules", len(res.Modules)),
		slog.Int("diagnostics", len(res.Errors)))
	return res, nil
}
