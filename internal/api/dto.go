package api

import (
	"time"

	"github.com/starford/mdexport/internal/exporter"
	"github.com/starford/mdexport/internal/noteservice"
)

// ExportRequest is the request body for starting an export.
type ExportRequest struct {
	// Root is a vault-relative note or folder; empty exports the whole vault.
	Root     string `json:"root" example:"notes/projects"`
	Override *bool  `json:"override,omitempty" example:"false"`
}

// Failure describes one document that could not be exported.
type Failure struct {
	Path  string `json:"path" example:"notes/broken.md" validate:"required"`
	Op    string `json:"op" example:"read" validate:"required"`
	Error string `json:"error" example:"not found" validate:"required"`
}

// ExportResponse summarizes a finished export run.
type ExportResponse struct {
	ID         string                    `json:"id" example:"3f2c7a8e-5b9d-4c1e-9f3a-2d6b8e7c1a04" validate:"required"`
	StartedAt  time.Time                 `json:"started_at" validate:"required"`
	DurationMS int64                     `json:"duration_ms" example:"42" validate:"required"`
	Exported   []exporter.DocumentResult `json:"exported" validate:"required"`
	Failed     []Failure                 `json:"failed" validate:"required"`
}

func newExportResponse(r *exporter.Report) ExportResponse {
	resp := ExportResponse{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Exported:   r.Exported,
		Failed:     make([]Failure, len(r.Failed)),
	}
	if resp.Exported == nil {
		resp.Exported = []exporter.DocumentResult{}
	}
	for i, f := range r.Failed {
		resp.Failed[i] = Failure{Path: f.Path, Op: f.Op, Error: f.Err.Error()}
	}
	return resp
}

// Preview is the preview response type (aliased from the domain layer).
type Preview = noteservice.Preview

// Resolution is the link resolution response type (aliased from the domain layer).
type Resolution = noteservice.Resolution

// FileItem is a lightweight item in a list response (aliased from the domain layer).
type FileItem = noteservice.FileItem

// FileListResponse wraps file listings.
type FileListResponse struct {
	Files []FileItem `json:"files" validate:"required"`
	Total int        `json:"total" example:"42" validate:"required"`
}
