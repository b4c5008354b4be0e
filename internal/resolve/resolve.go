// Package resolve maps link text found in a note to a concrete vault file.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/starford/mdexport/internal/apperr"
	"github.com/starford/mdexport/internal/models"
)

// Lookup is the ambiguous-name lookup. LinkTarget returns the vault path of
// the best match for name as linked from fromPath, apperr.ErrNotFound when
// nothing matches, or apperr.ErrPathAmbiguous when candidates tie.
type Lookup interface {
	LinkTarget(ctx context.Context, name, fromPath string) (string, error)
}

// Resolver resolves link text against a Lookup.
type Resolver struct {
	lookup Lookup
	logger *slog.Logger
}

// New creates a Resolver. A nil logger uses slog.Default().
func New(lookup Lookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// Decode turns raw link text into the name used for lookup and naming:
// percent-decoding, alias removal after "|", then leading "../" removal.
func Decode(link string) string {
	name := link
	if decoded, err := url.PathUnescape(link); err == nil {
		name = decoded
	}
	if i := strings.IndexByte(name, '|'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	for strings.HasPrefix(name, "../") {
		name = name[3:]
	}
	return name
}

// Resolve resolves an asset link. It never fails: when the lookup finds no
// unique match, the decoded name is taken relative to the source document's
// folder and Resolved is false.
func (r *Resolver) Resolve(ctx context.Context, link, sourcePath string) models.Target {
	name := Decode(link)
	target := models.Target{Name: name}

	found, err := r.find(ctx, name, sourcePath)
	if err == nil {
		target.Path = found
		target.Resolved = true
		return target
	}
	target.Path = path.Join(path.Dir(sourcePath), name)
	return target
}

// Note resolves a note embed target ("Note", "Note.md", "Note#Heading").
// It reports false when no real document matches; there is no fallback.
func (r *Resolver) Note(ctx context.Context, link, sourcePath string) (models.Target, bool) {
	name, _ := models.Subpath(Decode(link))
	target := models.Target{Name: name}
	if name == "" {
		return target, false
	}
	found, err := r.find(ctx, name, sourcePath)
	if err != nil || !models.IsNotePath(found) {
		return target, false
	}
	target.Path = found
	target.Resolved = true
	return target, true
}

func (r *Resolver) find(ctx context.Context, name, sourcePath string) (string, error) {
	if r.lookup == nil || name == "" {
		return "", apperr.ErrNotFound
	}
	found, err := r.lookup.LinkTarget(ctx, name, sourcePath)
	switch {
	case err == nil:
		return found, nil
	case errors.Is(err, apperr.ErrNotFound):
	case errors.Is(err, apperr.ErrPathAmbiguous):
		r.logger.Debug("resolve: ambiguous link",
			slog.String("link", name),
			slog.String("from", sourcePath))
	default:
		r.logger.Warn("resolve: lookup failed",
			slog.String("link", name),
			slog.String("from", sourcePath),
			slog.String("error", err.Error()))
	}
	return "", err
}
