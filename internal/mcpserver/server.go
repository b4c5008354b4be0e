// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mdexport tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mdexport/internal/noteservice"
)

// Server wraps the MCP server with mdexport tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all mdexport tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"mdexport",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("preview_note",
		mcp.WithDescription("Rewrite a vault note the way an export would, without writing anything. "+
			"Returns the exported Markdown, the assets it references and the notes it embeds."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note (e.g. folder/note.md)")),
	), s.previewNote)

	s.mcp.AddTool(mcp.NewTool("export_notes",
		mcp.WithDescription("Export a note, a folder or the whole vault to the configured output directory. "+
			"Returns a report listing exported and failed documents."),
		mcp.WithString("root", mcp.Description("Vault-relative note or folder (empty for the whole vault)")),
		mcp.WithBoolean("override", mcp.Description("Overwrite existing output files for this run")),
	), s.exportNotes)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a link target as it is written inside a note. "+
			"Read the link syntax via get_link_syntax or the mdexport://link-syntax resource."),
		mcp.WithString("link", mcp.Required(), mcp.Description("Link text, e.g. img.png, Note#Heading or ../pics/a%20b.png")),
		mcp.WithString("from", mcp.Description("Vault-relative path of the note containing the link")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List indexed vault files, optionally under a folder."),
		mcp.WithString("prefix", mcp.Description("Optional folder prefix (empty for all)")),
		mcp.WithBoolean("notes_only", mcp.Description("Only list Markdown notes")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_link_syntax",
		mcp.WithDescription("Returns the link and embed syntax the exporter recognizes and how each form is rewritten."),
	), s.getLinkSyntax)

	s.mcp.AddResource(
		mcp.NewResource("mdexport://link-syntax", "Link Syntax",
			mcp.WithResourceDescription("Link and embed forms recognized during export."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) previewNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Preview(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("preview %s: %v", path, err)), nil
	}
	return jsonResult(p), nil
}

func (s *Server) exportNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	export := noteservice.ExportRequest{Root: req.GetString("root", "")}
	if args := req.GetArguments(); args != nil {
		if _, ok := args["override"]; ok {
			override := req.GetBool("override", false)
			export.Override = &override
		}
	}

	report, err := s.svc.Export(ctx, export, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type failure struct {
		Path  string `json:"path"`
		Op    string `json:"op"`
		Error string `json:"error"`
	}
	out := struct {
		ID       string    `json:"id"`
		Exported int       `json:"exported"`
		Skipped  []string  `json:"skipped,omitempty"`
		Failed   []failure `json:"failed,omitempty"`
	}{ID: report.ID, Exported: len(report.Exported)}
	for _, d := range report.Exported {
		if d.Skipped {
			out.Skipped = append(out.Skipped, d.Path)
		}
	}
	for _, f := range report.Failed {
		out.Failed = append(out.Failed, failure{Path: f.Path, Op: f.Op, Error: f.Err.Error()})
	}
	if len(out.Failed) > 0 {
		slog.Warn("mcp export finished with failures",
			slog.String("run_id", report.ID),
			slog.Int("failed", len(out.Failed)))
	}
	return jsonResult(out), nil
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := req.RequireString("link")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Resolve(ctx, link, req.GetString("from", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.List(ctx, req.GetString("prefix", ""), req.GetBool("notes_only", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getLinkSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LinkSyntax), nil
}

func (s *Server) readLinkSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mdexport://link-syntax",
			MIMEType: "text/markdown",
			Text:     LinkSyntax,
		},
	}, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}
