// Package storage defines the vault file-system abstraction. The compiler
// never writes: authors own the vault, we only read it.
package storage

import "time"

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every compilable file (markdown and
	// timestamp sidecars) under dir, relative to the vault root.
	List(dir string) ([]FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the
	// vault root).
	Read(path string) ([]byte, error)
}
