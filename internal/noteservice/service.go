// Package noteservice is the façade the HTTP and MCP surfaces share: it
// previews and exports notes, resolves links and lists the vault.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/starford/mdexport/internal/apperr"
	"github.com/starford/mdexport/internal/exporter"
	"github.com/starford/mdexport/internal/index"
	"github.com/starford/mdexport/internal/models"
	"github.com/starford/mdexport/internal/pathsynth"
	"github.com/starford/mdexport/internal/resolve"
	"github.com/starford/mdexport/internal/storage"
)

// Preview is a rewritten note that was not written anywhere.
type Preview struct {
	Path    string         `json:"path"`
	Output  string         `json:"output"`
	Content string         `json:"content"`
	Assets  []models.Asset `json:"assets"`
	Embeds  []string       `json:"embeds"`
}

// Resolution is the outcome of resolving one link from a note.
type Resolution struct {
	Link     string `json:"link"`
	From     string `json:"from"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Resolved bool   `json:"resolved"`
	// Ref is the reference an exported from-note would use for an asset.
	Ref string `json:"ref,omitempty"`
}

// FileItem is a lightweight item in a list response.
type FileItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportRequest selects what to export. Override, when set, replaces the
// configured override_existing for this run only.
type ExportRequest struct {
	Root     string
	Override *bool
}

// Service coordinates storage, index and exporter operations.
type Service struct {
	store    storage.Provider
	db       index.FileIndex
	exp      *exporter.Exporter
	resolver *resolve.Resolver
	settings models.Settings
	logger   *slog.Logger
}

// NewService creates a new note service. settings is copied; every run
// works on its own copy.
func NewService(store storage.Provider, db index.FileIndex, exp *exporter.Exporter, resolver *resolve.Resolver, settings models.Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, db: db, exp: exp, resolver: resolver, settings: settings, logger: logger}
}

// Settings returns a copy of the configured export settings.
func (s *Service) Settings() models.Settings { return s.settings }

// Preview rewrites the note at path as if it were exported on its own.
func (s *Service) Preview(ctx context.Context, notePath string) (*Preview, error) {
	if !models.IsNotePath(notePath) {
		return nil, fmt.Errorf("preview %s: %w", notePath, apperr.ErrNotFound)
	}
	plan := models.Plan{Path: notePath, OutputSubPath: "."}
	res, err := s.exp.Preview(ctx, plan, s.settings)
	if err != nil {
		return nil, err
	}
	doc := models.Document{Path: notePath, Name: path.Base(notePath)}
	return &Preview{
		Path:    notePath,
		Output:  pathsynth.DocumentPath(doc, plan.OutputSubPath, s.settings),
		Content: res.Content,
		Assets:  nonNilSlice(res.Assets),
		Embeds:  nonNilSlice(res.Embeds),
	}, nil
}

// Export exports req.Root (a note, a folder, or "" for the whole vault).
func (s *Service) Export(ctx context.Context, req ExportRequest, notify exporter.Notify) (*exporter.Report, error) {
	settings := s.settings
	if req.Override != nil {
		settings.OverrideExisting = *req.Override
	}
	plans, err := exporter.Plan(s.store, req.Root)
	if err != nil {
		return nil, err
	}
	return s.exp.Export(ctx, plans, settings, notify)
}

// Resolve resolves link as written in the note from.
func (s *Service) Resolve(ctx context.Context, link, from string) (*Resolution, error) {
	if link == "" {
		return nil, errors.New("link is required")
	}
	if note, ok := s.resolver.Note(ctx, link, from); ok {
		return &Resolution{Link: link, From: from, Name: note.Name, Path: note.Path, Resolved: true}, nil
	}
	target := s.resolver.Resolve(ctx, link, from)
	out := &Resolution{
		Link:     link,
		From:     from,
		Name:     target.Name,
		Path:     target.Path,
		Resolved: target.Resolved,
	}
	if models.IsAttachmentPath(target.Name) {
		doc := models.Document{Path: from, Name: path.Base(from)}
		out.Ref = pathsynth.Synthesize(target.Name, doc, exporter.At(from).OutputSubPath, s.settings).Ref
	}
	return out, nil
}

// List returns indexed files under prefix.
func (s *Service) List(ctx context.Context, prefix string, notesOnly bool) ([]FileItem, error) {
	rows, err := s.db.ListFiles(ctx, prefix, notesOnly)
	if err != nil {
		return nil, err
	}
	items := make([]FileItem, len(rows))
	for i, r := range rows {
		items[i] = FileItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, nil
}

// Changed re-exports what a vault change affects: the changed note itself
// and every note linking to the changed file. A deleted note's output is
// removed. Outputs are always overwritten.
func (s *Service) Changed(ctx context.Context, kind, changed string, notify exporter.Notify) (*exporter.Report, error) {
	settings := s.settings
	settings.OverrideExisting = true

	var paths []string
	if models.IsNotePath(changed) {
		if kind == index.EventDeleted {
			if err := s.exp.Remove(exporter.At(changed), settings); err != nil {
				s.logger.Warn("watch: remove output failed",
					slog.String("path", changed),
					slog.String("error", err.Error()))
			}
		} else {
			paths = append(paths, changed)
		}
	}
	deps, err := s.db.Dependents(changed)
	if err != nil {
		return nil, err
	}
	for _, d := range deps {
		if d != changed {
			paths = append(paths, d)
		}
	}
	if len(paths) == 0 {
		return nil, nil
	}
	s.logger.Info("watch: re-exporting",
		slog.String("changed", changed),
		slog.String("kind", kind),
		slog.Int("documents", len(paths)))
	return s.exp.Export(ctx, exporter.Notes(paths...), settings, notify)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
