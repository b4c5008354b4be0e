package exporter

import (
	"fmt"
	"iter"
	"path"
	"strings"

	"github.com/starford/mdexport/internal/apperr"
	"github.com/starford/mdexport/internal/models"
	"github.com/starford/mdexport/internal/storage"
)

// Plan returns the export work for root, a vault-relative note or folder
// ("" for the whole vault). A note yields itself under "."; a folder yields
// every note beneath it under its folder relative to root.
func Plan(store storage.Provider, root string) (iter.Seq[models.Plan], error) {
	root = strings.Trim(path.Clean("/"+root), "/")

	if root != "" {
		ok, err := store.Exists(root)
		if err != nil {
			return nil, err
		}
		if ok {
			if !models.IsNotePath(root) {
				return nil, fmt.Errorf("exporter: %s is not a note: %w", root, apperr.ErrNotFound)
			}
			return func(yield func(models.Plan) bool) {
				yield(models.Plan{Path: root, OutputSubPath: "."})
			}, nil
		}
	}

	files, err := store.List(root)
	if err != nil {
		return nil, err
	}
	return func(yield func(models.Plan) bool) {
		for _, f := range files {
			if !f.IsNote() {
				continue
			}
			if !yield(models.Plan{Path: f.Path, OutputSubPath: subPath(root, f.Path)}) {
				return
			}
		}
	}, nil
}

// At returns the plan for a single note exported as part of the whole
// vault: its output lands under its own folder.
func At(p string) models.Plan {
	return models.Plan{Path: p, OutputSubPath: subPath("", p)}
}

// Notes returns the At plan of each listed note.
func Notes(paths ...string) iter.Seq[models.Plan] {
	return func(yield func(models.Plan) bool) {
		for _, p := range paths {
			if !yield(At(p)) {
				return
			}
		}
	}
}

// subPath returns the folder of p relative to root, or ".".
func subPath(root, p string) string {
	dir := path.Dir(p)
	if root != "" {
		dir = strings.TrimPrefix(strings.TrimPrefix(dir, root), "/")
	}
	if dir == "" {
		return "."
	}
	return dir
}
