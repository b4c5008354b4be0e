package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/starford/mdexport/internal/apperr"
)

// mapLookup resolves names from a fixed table.
type mapLookup map[string]string

func (m mapLookup) LinkTarget(_ context.Context, name, _ string) (string, error) {
	switch p, ok := m[name]; {
	case !ok:
		return "", apperr.ErrNotFound
	case p == "":
		return "", fmt.Errorf("lookup %s: %w", name, apperr.ErrPathAmbiguous)
	default:
		return p, nil
	}
}

type failingLookup struct{}

func (failingLookup) LinkTarget(context.Context, string, string) (string, error) {
	return "", errors.New("db closed")
}

func TestDecode(t *testing.T) {
	cases := map[string]string{
		"img.png":            "img.png",
		"my%20image.png":     "my image.png",
		"figure.png|300":     "figure.png",
		"../../assets/a.png": "assets/a.png",
		"..%2F..%2Fa.png":    "a.png",
		"bad%zzname.png":     "bad%zzname.png",
		" spaced.png |alias": "spaced.png",
		"dir/../keep.png":    "dir/../keep.png",
	}
	for in, want := range cases {
		if got := Decode(in); got != want {
			t.Errorf("Decode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve_Found(t *testing.T) {
	r := New(mapLookup{"img.png": "attachments/img.png"}, nil)
	got := r.Resolve(context.Background(), "img.png", "notes/a.md")
	if !got.Resolved || got.Path != "attachments/img.png" || got.Name != "img.png" {
		t.Errorf("target = %+v", got)
	}
}

func TestResolve_FallbackRelative(t *testing.T) {
	r := New(mapLookup{}, nil)
	got := r.Resolve(context.Background(), "../pics/x%20y.png", "notes/sub/a.md")
	if got.Resolved {
		t.Error("expected unresolved target")
	}
	if got.Path != "notes/sub/pics/x y.png" {
		t.Errorf("fallback path = %q", got.Path)
	}
}

func TestResolve_AmbiguousFallsBack(t *testing.T) {
	r := New(mapLookup{"img.png": ""}, nil)
	got := r.Resolve(context.Background(), "img.png", "a.md")
	if got.Resolved || got.Path != "img.png" {
		t.Errorf("target = %+v, want fallback img.png", got)
	}
}

func TestResolve_LookupErrorNeverRaises(t *testing.T) {
	r := New(failingLookup{}, nil)
	got := r.Resolve(context.Background(), "img.png", "dir/a.md")
	if got.Resolved || got.Path != "dir/img.png" {
		t.Errorf("target = %+v", got)
	}
}

func TestNote(t *testing.T) {
	r := New(mapLookup{"Other": "notes/Other.md", "pic.png": "pic.png"}, nil)

	got, ok := r.Note(context.Background(), "Other#Heading|alias", "a.md")
	if !ok || got.Path != "notes/Other.md" {
		t.Errorf("Note = %+v, %v", got, ok)
	}
	if _, ok := r.Note(context.Background(), "Missing", "a.md"); ok {
		t.Error("missing note should not resolve")
	}
	if _, ok := r.Note(context.Background(), "pic.png", "a.md"); ok {
		t.Error("non-note target should not resolve as a note")
	}
	if _, ok := r.Note(context.Background(), "#Heading", "a.md"); ok {
		t.Error("self reference should not resolve")
	}
}
