package noteservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/mdexport/internal/apperr"
	"github.com/starford/mdexport/internal/exporter"
	"github.com/starford/mdexport/internal/index"
	"github.com/starford/mdexport/internal/models"
	"github.com/starford/mdexport/internal/noteservice"
	"github.com/starford/mdexport/internal/testutil"
)

func settings() models.Settings {
	return models.Settings{Attachment: "assets", RelAttachPath: true, GFM: true, Concurrency: 2}
}

func TestPreview(t *testing.T) {
	env := testutil.NewEnv(t, map[string]string{
		"notes/a.md": "![[pic.png]] ![[b]]",
		"notes/b.md": "inlined",
		"pic.png":    "png",
	}, settings())

	p, err := env.Service.Preview(context.Background(), "notes/a.md")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if p.Content != "![](assets/pic.png) inlined" {
		t.Errorf("content = %q", p.Content)
	}
	if len(p.Assets) != 1 || p.Assets[0].Source != "pic.png" {
		t.Errorf("assets = %+v", p.Assets)
	}
	if len(p.Embeds) != 1 || p.Embeds[0] != "notes/b.md" {
		t.Errorf("embeds = %v", p.Embeds)
	}
	if ok, _ := env.Out.Exists("a.md"); ok {
		t.Error("preview wrote output")
	}

	if _, err := env.Service.Preview(context.Background(), "notes/missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if _, err := env.Service.Preview(context.Background(), "pic.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("non-note err = %v", err)
	}
}

func TestExport_OverridePerRequest(t *testing.T) {
	env := testutil.NewEnv(t, map[string]string{"a.md": "fresh"}, settings())
	_ = env.Out.Write("a.md", []byte("stale"))

	report, err := env.Service.Export(context.Background(), noteservice.ExportRequest{}, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(report.Exported) != 1 || !report.Exported[0].Skipped {
		t.Errorf("report = %+v", report.Exported)
	}

	override := true
	if _, err := env.Service.Export(context.Background(), noteservice.ExportRequest{Override: &override}, nil); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, _ := env.Out.Read("a.md")
	if string(data) != "fresh" {
		t.Errorf("output = %q", data)
	}
	if env.Service.Settings().OverrideExisting {
		t.Error("per-request override leaked into service settings")
	}
}

func TestResolve(t *testing.T) {
	env := testutil.NewEnv(t, map[string]string{
		"d/a.md":         "x",
		"notes/Other.md": "o",
		"img/shot 1.png": "png",
	}, settings())
	ctx := context.Background()

	r, err := env.Service.Resolve(ctx, "Other#Part", "d/a.md")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !r.Resolved || r.Path != "notes/Other.md" || r.Ref != "" {
		t.Errorf("note resolution = %+v", r)
	}

	r, err = env.Service.Resolve(ctx, "shot%201.png", "d/a.md")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !r.Resolved || r.Path != "img/shot 1.png" || r.Ref != "../assets/shot%201.png" {
		t.Errorf("asset resolution = %+v", r)
	}

	r, _ = env.Service.Resolve(ctx, "nowhere.png", "d/a.md")
	if r.Resolved || r.Path != "d/nowhere.png" {
		t.Errorf("fallback resolution = %+v", r)
	}

	if _, err := env.Service.Resolve(ctx, "", "d/a.md"); err == nil {
		t.Error("empty link should fail")
	}
}

func TestList(t *testing.T) {
	env := testutil.NewEnv(t, map[string]string{"a.md": "# A", "d/b.md": "b", "d/p.png": "p"}, settings())

	items, err := env.Service.List(context.Background(), "d", false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %+v", items)
	}
	notes, _ := env.Service.List(context.Background(), "", true)
	if len(notes) != 2 || notes[0].Title != "A" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestChanged_ReexportsDependents(t *testing.T) {
	env := testutil.NewEnv(t, map[string]string{
		"a.md":     "top ![[b]]",
		"sub/b.md": "old",
		"c.md":     "unrelated",
	}, settings())
	ctx := context.Background()

	if _, err := env.Service.Export(ctx, noteservice.ExportRequest{}, nil); err != nil {
		t.Fatal(err)
	}
	_ = env.Vault.Write("sub/b.md", []byte("new"))

	var events []exporter.Event
	report, err := env.Service.Changed(ctx, index.EventUpdated, "sub/b.md", func(ev exporter.Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Changed: %v", err)
	}
	if len(report.Exported) != 2 {
		t.Errorf("re-exported = %+v", report.Exported)
	}
	if len(events) != 2 {
		t.Errorf("events = %+v", events)
	}
	data, _ := env.Out.Read("a.md")
	if string(data) != "top new" {
		t.Errorf("dependent output = %q", data)
	}
	data, _ = env.Out.Read("sub/b.md")
	if string(data) != "new" {
		t.Errorf("changed output = %q", data)
	}

	if _, err := env.Service.Changed(ctx, index.EventDeleted, "c.md", nil); err != nil {
		t.Fatalf("Changed(deleted): %v", err)
	}
	if ok, _ := env.Out.Exists("c.md"); ok {
		t.Error("deleted note output not removed")
	}
}
