package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mdexport/internal/models"
	"github.com/starford/mdexport/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Env) {
	t.Helper()

	env := testutil.NewEnv(t, map[string]string{
		"notes/a.md":    "![[pic.png]] and [[b]]",
		"notes/b.md":    "# B\nbody",
		"notes/pic.png": "png",
		"c.md":          "c",
	}, models.Settings{
		Attachment:                 "assets",
		RelAttachPath:              true,
		GFM:                        true,
		ConvertWikiLinksToMarkdown: true,
		Concurrency:                1,
	})
	return New(env.Service), env
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "preview_note":
		result, err = srv.previewNote(ctx, req)
	case "export_notes":
		result, err = srv.exportNotes(ctx, req)
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_link_syntax":
		result, err = srv.getLinkSyntax(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestPreviewNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "preview_note", map[string]interface{}{"path": "notes/a.md"})
	if r.IsError {
		t.Fatalf("preview error: %s", resultText(r))
	}
	var p struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Content != "![](assets/pic.png) and [b](b.md)" {
		t.Errorf("content = %q", p.Content)
	}
}

func TestPreviewNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "preview_note", map[string]interface{}{"path": "nope.md"}); !r.IsError {
		t.Error("expected error for missing note")
	}
	if r := callTool(t, srv, "preview_note", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing path")
	}
}

func TestExportNotes(t *testing.T) {
	srv, env := testServer(t)

	r := callTool(t, srv, "export_notes", map[string]interface{}{"root": "notes"})
	if r.IsError {
		t.Fatalf("export error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"exported": 2`) {
		t.Errorf("export result = %s", resultText(r))
	}
	if ok, _ := env.Out.Exists("assets/pic.png"); !ok {
		t.Error("asset not copied")
	}

	r = callTool(t, srv, "export_notes", map[string]interface{}{"root": "notes"})
	if !strings.Contains(resultText(r), `"skipped"`) {
		t.Errorf("second export should skip existing outputs: %s", resultText(r))
	}

	r = callTool(t, srv, "export_notes", map[string]interface{}{"root": "notes", "override": true})
	if strings.Contains(resultText(r), `"skipped"`) {
		t.Errorf("override export skipped outputs: %s", resultText(r))
	}
}

func TestResolveLink(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "resolve_link", map[string]interface{}{"link": "pic.png", "from": "c.md"})
	text := resultText(r)
	if !strings.Contains(text, `"path": "notes/pic.png"`) || !strings.Contains(text, `"resolved": true`) {
		t.Errorf("resolve = %s", text)
	}

	if r := callTool(t, srv, "resolve_link", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing link")
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_notes", map[string]interface{}{"prefix": "notes", "notes_only": true})
	if text := resultText(r); text != "notes/a.md\nnotes/b.md" {
		t.Errorf("list = %q", text)
	}
}

func TestGetLinkSyntax(t *testing.T) {
	srv, _ := testServer(t)
	if text := resultText(callTool(t, srv, "get_link_syntax", nil)); text != LinkSyntax {
		t.Error("link syntax mismatch")
	}
}
