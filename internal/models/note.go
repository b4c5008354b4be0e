// Package models defines the domain types shared by the export engine.
package models

import "time"

// Document is a note read from the vault. Content is never mutated; the
// rewriter derives a new string from it.
type Document struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Content string `json:"-"`
}

// Stem returns the document name without its extension.
func (d Document) Stem() string {
	return TrimNoteExt(d.Name)
}

// FileMetadata is a lightweight representation of a vault file returned by
// list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsNote reports whether the file is a Markdown note.
func (m FileMetadata) IsNote() bool {
	return IsNotePath(m.Path)
}

// Plan is one unit of export work: a document path and the sub path its
// output lands under, relative to the export root.
type Plan struct {
	Path          string `json:"path"`
	OutputSubPath string `json:"output_sub_path"`
}
