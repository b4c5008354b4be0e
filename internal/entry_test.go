package internal

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testConfig(t *testing.T, files map[string]string) *Config {
	t.Helper()
	dir := t.TempDir()
	vault := filepath.Join(dir, "vault")
	for p, content := range files {
		abs := filepath.Join(vault, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vault
	cfg.SQLite.Path = filepath.Join(dir, "index.db")
	cfg.Export.Output = filepath.Join(dir, "out")
	cfg.Export.Attachment = "assets"
	cfg.Export.FileNameEncode = false
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestExport_WritesOutputAndReport(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"notes/a.md":    "![[pic.png]]",
		"notes/pic.png": "png",
	})
	var stdout bytes.Buffer

	err := Export(context.Background(), "notes", WithConfig(cfg), WithStdout(&stdout), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Export.Output, "a.md"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "![](assets/pic.png)" {
		t.Errorf("output = %q", data)
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.Output, "assets", "pic.png")); err != nil {
		t.Errorf("asset not copied: %v", err)
	}
	if !strings.Contains(stdout.String(), "1 exported, 0 failed") {
		t.Errorf("report = %q", stdout.String())
	}
}

func TestExport_MissingRoot(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": "a"})
	err := Export(context.Background(), "nope", WithConfig(cfg), WithStdout(io.Discard), WithLogOutput(io.Discard))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestPreview_PrintsContent(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": "x ![[b]]", "b.md": "inlined"})
	var stdout bytes.Buffer

	if err := Preview(context.Background(), "a.md", WithConfig(cfg), WithStdout(&stdout), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if stdout.String() != "x inlined" {
		t.Errorf("preview = %q", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.Output, "a.md")); err == nil {
		t.Error("preview wrote output")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Export(context.Background(), ""); err == nil {
		t.Fatal("expected error without config")
	}
}
