package index

import (
	"context"

	"github.com/starford/mdexport/internal/resolve"
)

// FileIndex defines the interface for vault index operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type FileIndex interface {
	resolve.Lookup
	UpsertFile(f FileRow, links []string) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	ListFiles(ctx context.Context, prefix string, notesOnly bool) ([]FileRow, error)
	Dependents(path string) ([]string, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies FileIndex at compile time.
var _ FileIndex = (*DB)(nil)
