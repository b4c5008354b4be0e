// Package testutil provides shared test helpers for setting up vaults,
// databases and a wired export service.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/mdexport/internal/exporter"
	"github.com/starford/mdexport/internal/index"
	"github.com/starford/mdexport/internal/models"
	"github.com/starford/mdexport/internal/noteservice"
	"github.com/starford/mdexport/internal/resolve"
	"github.com/starford/mdexport/internal/rewrite"
	"github.com/starford/mdexport/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory holding files.
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return vaultDir, store
}

// Logger returns a logger that only reports errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Env is a fully wired, indexed vault with an output tree.
type Env struct {
	VaultDir string
	Vault    *storage.FS
	Out      *storage.FS
	DB       *index.DB
	Service  *noteservice.Service
}

// NewEnv writes files into a fresh vault, syncs the index and wires a
// service exporting with settings into a fresh output tree.
func NewEnv(t *testing.T, files map[string]string, settings models.Settings) *Env {
	t.Helper()
	vaultDir, vault := TestVault(t, files)
	out, err := storage.CreateFS(filepath.Join(t.TempDir(), "output"))
	if err != nil {
		t.Fatal(err)
	}
	settings.Output = out.Root()

	db := TestDB(t)
	logger := Logger()
	if err := index.Sync(db, vault, logger); err != nil {
		t.Fatal(err)
	}
	resolver := resolve.New(db, logger)
	exp := exporter.New(vault, out, rewrite.New(resolver, vault), logger)
	return &Env{
		VaultDir: vaultDir,
		Vault:    vault,
		Out:      out,
		DB:       db,
		Service:  noteservice.NewService(vault, db, exp, resolver, settings, logger),
	}
}
