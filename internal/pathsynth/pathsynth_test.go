package pathsynth

import (
	"strings"
	"testing"

	"github.com/starford/mdexport/internal/checksum"
	"github.com/starford/mdexport/internal/models"
)

func doc(p string) models.Document {
	return models.Document{Path: p, Name: p[strings.LastIndex(p, "/")+1:]}
}

func TestClickPath(t *testing.T) {
	cases := map[string]string{
		".":      "",
		"":       "",
		"a":      "../",
		"a/b":    "../../",
		"a/b/":   "../../",
		`a\b\c`:  "../../../",
		"./a/./": "../",
	}
	for in, want := range cases {
		if got := ClickPath(in); got != want {
			t.Errorf("ClickPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSynthesize_LiteralRelAttach(t *testing.T) {
	s := models.Settings{Attachment: "assets", RelAttachPath: true}
	p := Synthesize("img.png", doc("notes/a.md"), ".", s)
	if p.Ref != "assets/img.png" {
		t.Errorf("Ref = %q, want %q", p.Ref, "assets/img.png")
	}
	if p.Dest != "assets/img.png" {
		t.Errorf("Dest = %q", p.Dest)
	}
}

func TestSynthesize_NestedDocument(t *testing.T) {
	s := models.Settings{Attachment: "assets", RelAttachPath: true}
	p := Synthesize("pics/my image.png", doc("x/y/a.md"), "x/y", s)
	if p.Ref != "../../assets/my%20image.png" {
		t.Errorf("Ref = %q", p.Ref)
	}
	if p.Dest != "assets/my image.png" {
		t.Errorf("Dest = %q", p.Dest)
	}
}

func TestSynthesize_HashNaming(t *testing.T) {
	s := models.Settings{Attachment: "attachment", RelAttachPath: true, FileNameEncode: true}
	a := Synthesize("img.png", doc("a.md"), ".", s)
	b := Synthesize("img.png", doc("other/b.md"), ".", s)
	want := "attachment/" + checksum.Name("img.png") + ".png"
	if a.Ref != want || b.Ref != want {
		t.Errorf("hash refs = %q, %q, want %q", a.Ref, b.Ref, want)
	}
	if len(checksum.Name("img.png")) != 32 {
		t.Errorf("digest length = %d", len(checksum.Name("img.png")))
	}
}

func TestSynthesize_Idempotent(t *testing.T) {
	s := models.Settings{Attachment: "att", CustomAttachPath: "img", IncludeFileName: true, FileNameEncode: true}
	d := doc("dir/Note.md")
	first := Synthesize("a b.jpg", d, "dir", s)
	for i := 0; i < 3; i++ {
		if got := Synthesize("a b.jpg", d, "dir", s); got != first {
			t.Fatalf("call %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestSynthesize_IncludeFileNameRelAttach(t *testing.T) {
	s := models.Settings{Attachment: "assets", RelAttachPath: true, IncludeFileName: true}
	p := Synthesize("img.png", doc("Note.md"), "sub", s)
	if p.Ref != "../assets/img.png" {
		t.Errorf("Ref = %q", p.Ref)
	}
	if p.Dest != "Note/assets/img.png" {
		t.Errorf("Dest = %q", p.Dest)
	}
	if got := DocumentPath(doc("Note.md"), "sub", s); got != "Note/sub/Note.md" {
		t.Errorf("DocumentPath = %q", got)
	}
}

func TestSynthesize_SharedAttachment(t *testing.T) {
	s := models.Settings{Attachment: "assets", IncludeFileName: true, CustomAttachPath: "images"}
	p := Synthesize("img.png", doc("My Note.md"), "a", s)
	if p.Ref != "../assets/My%20Note/images/img.png" {
		t.Errorf("Ref = %q", p.Ref)
	}
	if p.Dest != "assets/My Note/images/img.png" {
		t.Errorf("Dest = %q", p.Dest)
	}
}

func TestSynthesize_SharedAttachmentCustomFileName(t *testing.T) {
	s := models.Settings{Attachment: "assets", CustomFileName: "index"}
	p := Synthesize("img.png", doc("Note.md"), ".", s)
	if p.Ref != "../assets/img.png" {
		t.Errorf("Ref = %q", p.Ref)
	}
	if got := DocumentPath(doc("Note.md"), ".", s); got != "Note/index.md" {
		t.Errorf("DocumentPath = %q", got)
	}
}

func TestSynthesize_WindowsSeparators(t *testing.T) {
	s := models.Settings{Attachment: `out\assets`, RelAttachPath: true}
	p := Synthesize("img.png", doc("a.md"), `x\y`, s)
	if p.Ref != "../../out/assets/img.png" {
		t.Errorf("Ref = %q", p.Ref)
	}
	if strings.Contains(p.Ref, `\`) || strings.Contains(p.Dest, `\`) {
		t.Errorf("backslash leaked: %+v", p)
	}
}
