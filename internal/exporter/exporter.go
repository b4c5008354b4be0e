// Package exporter drives document exports: it reads each planned note,
// rewrites it, copies the assets it references and writes the result into
// the output tree.
package exporter

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mdexport/internal/apperr"
	"github.com/starford/mdexport/internal/models"
	"github.com/starford/mdexport/internal/pathsynth"
	"github.com/starford/mdexport/internal/rewrite"
	"github.com/starford/mdexport/internal/storage"
)

// Event kinds reported through Notify.
const (
	KindExported = "exported"
	KindSkipped  = "skipped"
	KindFailed   = "failed"
)

// Event reports the outcome of one document in a run.
type Event struct {
	RunID  string `json:"run_id"`
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Notify receives per-document events. It is called from export workers
// and must be safe for concurrent use.
type Notify func(Event)

// DocumentResult describes one exported document.
type DocumentResult struct {
	Path   string         `json:"path"`
	Output string         `json:"output"`
	Assets []models.Asset `json:"assets,omitempty"`
	// Copied counts assets written by this export.
	Copied int `json:"copied"`
	// Skipped is set when the output already existed and was kept.
	Skipped bool `json:"skipped,omitempty"`
}

// Report summarizes a batch export.
type Report struct {
	ID        string                  `json:"id"`
	StartedAt time.Time               `json:"started_at"`
	Duration  time.Duration           `json:"duration"`
	Exported  []DocumentResult        `json:"exported"`
	Failed    []*apperr.DocumentError `json:"-"`
}

// Err joins the failed documents' errors, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Exporter exports documents from a vault into an output tree.
type Exporter struct {
	vault  storage.Provider
	out    storage.Provider
	engine *rewrite.Engine
	logger *slog.Logger
}

// New creates an Exporter. A nil logger uses slog.Default().
func New(vault, out storage.Provider, engine *rewrite.Engine, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{vault: vault, out: out, engine: engine, logger: logger}
}

// Export exports every planned document with at most s.Concurrency running
// at once. Document failures are collected in the report; the returned
// error is non-nil only when ctx ends the run early.
func (e *Exporter) Export(ctx context.Context, plans iter.Seq[models.Plan], s models.Settings, notify Notify) (*Report, error) {
	report := &Report{ID: uuid.NewString(), StartedAt: time.Now()}
	logger := e.logger.With(slog.String("run_id", report.ID))
	logger.Info("export: started", slog.String("output", s.Output))

	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	emit := func(ev Event) {
		ev.RunID = report.ID
		if notify != nil {
			notify(ev)
		}
	}

	for plan := range plans {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := e.ExportDocument(gctx, plan, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var docErr *apperr.DocumentError
				if !errors.As(err, &docErr) {
					docErr = &apperr.DocumentError{Path: plan.Path, Op: "export", Err: err}
				}
				report.Failed = append(report.Failed, docErr)
				logger.Warn("export: document failed",
					slog.String("path", plan.Path),
					slog.String("error", err.Error()))
				emit(Event{Kind: KindFailed, Path: plan.Path, Error: err.Error()})
				return nil
			}
			report.Exported = append(report.Exported, *res)
			kind := KindExported
			if res.Skipped {
				kind = KindSkipped
			}
			emit(Event{Kind: kind, Path: res.Path, Output: res.Output})
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.StartedAt)
	logger.Info("export: finished",
		slog.Int("exported", len(report.Exported)),
		slog.Int("failed", len(report.Failed)),
		slog.Duration("duration", report.Duration))
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// ExportDocument exports one planned document. Asset copy failures are
// logged and do not fail the document.
func (e *Exporter) ExportDocument(ctx context.Context, plan models.Plan, s models.Settings) (*DocumentResult, error) {
	res, raw, err := e.render(ctx, plan, s)
	if err != nil {
		return nil, err
	}
	doc := models.Document{Path: plan.Path, Name: path.Base(plan.Path)}
	out := &DocumentResult{
		Path:   plan.Path,
		Output: pathsynth.DocumentPath(doc, plan.OutputSubPath, s),
		Assets: res.Assets,
	}

	// Dest -> Source of the asset copied there.
	seen := make(map[string]string, len(res.Assets))
	for _, a := range res.Assets {
		if kept, ok := seen[a.Dest]; ok {
			if kept != a.Source {
				e.logger.Warn("export: asset name collision",
					slog.String("path", plan.Path),
					slog.String("dest", a.Dest),
					slog.String("kept", kept),
					slog.String("dropped", a.Source))
			}
			continue
		}
		seen[a.Dest] = a.Source
		copied, err := e.copyAsset(a, s.OverrideExisting)
		if err != nil {
			e.logger.Warn("export: asset copy failed",
				slog.String("path", plan.Path),
				slog.String("asset", a.Source),
				slog.String("error", err.Error()))
			continue
		}
		if copied {
			out.Copied++
		}
	}

	content := []byte(res.Content)
	if s.OverrideExisting {
		err = e.out.Write(out.Output, content)
	} else {
		err = e.out.Create(out.Output, content)
	}
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		out.Skipped = true
		e.logger.Debug("export: output exists", slog.String("path", plan.Path), slog.String("output", out.Output))
	case err != nil:
		return nil, &apperr.DocumentError{Path: plan.Path, Op: "write", Err: err}
	}
	e.logger.Debug("export: document done",
		slog.String("path", plan.Path),
		slog.String("output", out.Output),
		slog.Int("bytes", len(raw)))
	return out, nil
}

// Remove deletes the exported output of a planned document. A missing
// output is not an error.
func (e *Exporter) Remove(plan models.Plan, s models.Settings) error {
	doc := models.Document{Path: plan.Path, Name: path.Base(plan.Path)}
	err := e.out.Delete(pathsynth.DocumentPath(doc, plan.OutputSubPath, s))
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return &apperr.DocumentError{Path: plan.Path, Op: "remove", Err: err}
	}
	return nil
}

// Preview rewrites a document without writing anything.
func (e *Exporter) Preview(ctx context.Context, plan models.Plan, s models.Settings) (*rewrite.Result, error) {
	res, _, err := e.render(ctx, plan, s)
	return res, err
}

func (e *Exporter) render(ctx context.Context, plan models.Plan, s models.Settings) (*rewrite.Result, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, &apperr.DocumentError{Path: plan.Path, Op: "export", Err: err}
	}
	raw, err := e.vault.Read(plan.Path)
	if err != nil {
		return nil, nil, &apperr.DocumentError{Path: plan.Path, Op: "read", Err: err}
	}
	doc := models.Document{Path: plan.Path, Name: path.Base(plan.Path), Content: string(raw)}
	sub := plan.OutputSubPath
	if sub == "" {
		sub = "."
	}
	res, err := e.engine.Rewrite(ctx, doc, doc.Content, sub, s)
	if err != nil {
		return nil, nil, &apperr.DocumentError{Path: plan.Path, Op: "rewrite", Err: err}
	}
	return res, raw, nil
}

// copyAsset copies one asset into the output tree. It reports false when
// the destination already existed and override is off.
func (e *Exporter) copyAsset(a models.Asset, override bool) (bool, error) {
	if !override {
		ok, err := e.out.Exists(a.Dest)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	data, err := e.vault.Read(a.Source)
	if err != nil {
		return false, err
	}
	if override {
		return true, e.out.Write(a.Dest, data)
	}
	if err := e.out.Create(a.Dest, data); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
