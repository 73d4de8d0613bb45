package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// ModuleSummary is a lightweight row for list responses.
type ModuleSummary struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult is one search hit over flattened module content.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ReplaceResult swaps the stored compile output for a fresh one inside a
// single transaction, so readers never observe a half-synced state.
func (db *DB) ReplaceResult(res *models.Result) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM modules`); err != nil {
		return fmt.Errorf("index: clear modules: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM diagnostics`); err != nil {
		return fmt.Errorf("index: clear diagnostics: %w", err)
	}

	now := time.Now()
	for _, m := range res.Modules {
		sections, err := json.Marshal(m.Sections)
		if err != nil {
			return fmt.Errorf("index: marshal sections: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO modules (slug, title, path, sections, content, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, m.Slug, m.Title, m.Path, string(sections), searchableText(m), now)
		if err != nil {
			return fmt.Errorf("index: insert module: %w", err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO diagnostics (file, severity, category, message, line, suggestion)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare diagnostic insert: %w", err)
	}
	defer stmt.Close()
	for _, d := range res.Errors {
		if _, err := stmt.Exec(d.File, string(d.Severity), string(d.Category), d.Message, d.Line, d.Suggestion); err != nil {
			return fmt.Errorf("index: insert diagnostic: %w", err)
		}
	}

	return tx.Commit()
}

// ListModules returns summaries for every stored module, ordered by slug.
func (db *DB) ListModules() ([]ModuleSummary, error) {
	rows, err := db.conn.Query(`SELECT slug, title, path, updated_at FROM modules ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("index: list modules: %w", err)
	}
	defer rows.Close()

	out := []ModuleSummary{}
	for rows.Next() {
		var m ModuleSummary
		if err := rows.Scan(&m.Slug, &m.Title, &m.Path, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetModule returns one flattened module by slug.
func (db *DB) GetModule(slug string) (*models.FlattenedModule, error) {
	var m models.FlattenedModule
	var sections string
	err := db.conn.QueryRow(`SELECT slug, title, path, sections FROM modules WHERE slug = ?`, slug).
		Scan(&m.Slug, &m.Title, &m.Path, &sections)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	if err := json.Unmarshal([]byte(sections), &m.Sections); err != nil {
		return nil, fmt.Errorf("index: unmarshal sections for %s: %w", slug, err)
	}
	return &m, nil
}

// Diagnostics returns stored diagnostics, optionally filtered by category,
// ordered by file, then line.
func (db *DB) Diagnostics(category string) ([]models.Diagnostic, error) {
	query := `SELECT file, severity, category, message, line, suggestion FROM diagnostics`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY file, line, message`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: diagnostics: %w", err)
	}
	defer rows.Close()

	out := []models.Diagnostic{}
	for rows.Next() {
		var d models.Diagnostic
		if err := rows.Scan(&d.File, &d.Severity, &d.Category, &d.Message, &d.Line, &d.Suggestion); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Search performs a case-insensitive substring search over flattened
// module content and returns hits with a short snippet.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT slug, title, content FROM modules
		WHERE content LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY slug LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		var content string
		if err := rows.Scan(&r.Slug, &r.Title, &content); err != nil {
			return nil, err
		}
		r.Snippet = snippet(content, query)
		out = append(out, r)
	}
	return out, rows.Err()
}

// snippet returns up to 64 characters of context around the first
// case-insensitive occurrence of query.
func snippet(content, query string) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx < 0 {
		return ""
	}
	start := idx - 32
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + 32
	if end > len(content) {
		end = len(content)
	}
	return strings.TrimSpace(content[start:end])
}

// searchableText flattens a module's textual content for the search
// column.
func searchableText(m models.FlattenedModule) string {
	var b strings.Builder
	b.WriteString(m.Title)
	for _, sec := range m.Sections {
		b.WriteByte('\n')
		b.WriteString(sec.Title)
		for _, seg := range sec.Segments {
			if seg.Content != "" {
				b.WriteByte('\n')
				b.WriteString(seg.Content)
			}
			if seg.Instructions != "" {
				b.WriteByte('\n')
				b.WriteString(seg.Instructions)
			}
		}
	}
	return b.String()
}
