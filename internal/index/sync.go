package index

import (
	"log/slog"
	"time"

	"github.com/starford/mdexport/internal/checksum"
	"github.com/starford/mdexport/internal/models"
	"github.com/starford/mdexport/internal/parser"
	"github.com/starford/mdexport/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are upserted (notes are parsed for title and links)
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	indexed := 0
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		if err := indexMeta(db, store, m); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteFile(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	logger.Info("sync: done", slog.Int("files", len(metas)), slog.Int("indexed", indexed))
	return nil
}

// indexMeta indexes a listed file. Only notes are read back for parsing.
func indexMeta(db *DB, store storage.Provider, m models.FileMetadata) error {
	if !m.IsNote() {
		return db.UpsertFile(FileRow{Path: m.Path, Checksum: m.Checksum, UpdatedAt: m.UpdatedAt}, nil)
	}
	data, err := store.Read(m.Path)
	if err != nil {
		return err
	}
	return indexFile(db, m.Path, data, m.UpdatedAt)
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, path string, data []byte, updated time.Time) error {
	row := FileRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		UpdatedAt: updated,
	}
	if !models.IsNotePath(path) {
		return db.UpsertFile(row, nil)
	}
	res := parser.Parse(data)
	row.Title = res.Title
	return db.UpsertFile(row, res.Links)
}
