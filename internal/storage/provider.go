// Package storage defines the file-system abstraction for the vault and the
// export tree.
package storage

import "github.com/starford/mdexport/internal/models"

// Provider is the interface for file operations under one root. All paths
// are relative to that root and use forward slashes.
type Provider interface {
	// List returns metadata for every file under dir, notes and assets alike.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path. A missing file yields
	// apperr.ErrNotFound.
	Read(path string) ([]byte, error)
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
	// Write atomically writes content to path, replacing any existing file.
	Write(path string, content []byte) error
	// Create atomically writes content to path only if nothing is there yet;
	// otherwise it returns apperr.ErrAlreadyExists.
	Create(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
