// Package rewrite turns a note's raw text into its exported form: image
// links point at synthesized asset paths, wikilinks are optionally stripped
// or converted to Markdown links, and note embeds are inlined one level
// deep.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/starford/mdexport/internal/apperr"
	"github.com/starford/mdexport/internal/models"
	"github.com/starford/mdexport/internal/parser"
	"github.com/starford/mdexport/internal/pathsynth"
	"github.com/starford/mdexport/internal/resolve"
)

// Reader reads the text of other vault documents for embed inlining.
type Reader interface {
	Read(path string) ([]byte, error)
}

// Result is the rewritten document and the assets the caller must copy.
type Result struct {
	Content string
	Assets  []models.Asset
	// Embeds lists the vault paths inlined into Content.
	Embeds []string
}

// Engine rewrites documents. It holds no per-document state and is safe for
// concurrent use as long as its collaborators are.
type Engine struct {
	resolver *resolve.Resolver
	reader   Reader
}

// New creates an Engine.
func New(resolver *resolve.Resolver, reader Reader) *Engine {
	return &Engine{resolver: resolver, reader: reader}
}

// edit replaces text[start:end] with text.
type edit struct {
	start, end int
	text       string
}

// Rewrite produces the exported text of doc. raw is the document's content,
// outputSubPath the folder it is exported under, relative to the export
// root. The result depends only on its inputs, the settings value, and the
// embedded documents' text.
//
// Image links are rewritten first, then wikilinks, then note embeds are
// inlined from the rewritten text.
func (e *Engine) Rewrite(ctx context.Context, doc models.Document, raw, outputSubPath string, s models.Settings) (*Result, error) {
	res := &Result{}

	occs := parser.Scan(raw)
	var edits []edit
	for _, occ := range occs {
		switch {
		case occ.Category.IsImage():
			if occ.Remote {
				continue
			}
			ed, asset := e.rewriteImage(ctx, doc, occ, outputSubPath, s)
			edits = append(edits, ed)
			res.Assets = append(res.Assets, asset)
		case occ.Category == models.OutgoingWikiLink:
			if occ.Remote {
				continue
			}
			if ed, ok := rewriteWikiLink(occ, s); ok {
				edits = append(edits, ed)
			}
		}
	}
	content := apply(raw, edits)

	embeds, err := e.embedMap(ctx, doc, content, s)
	if err != nil {
		return nil, err
	}
	edits = edits[:0]
	for _, occ := range parser.ScanCategory(content, models.NoteEmbed) {
		if em, ok := embeds[occ.Payload]; ok {
			edits = append(edits, edit{start: occ.Start, end: occ.End, text: em.text})
		}
	}
	res.Content = apply(content, edits)

	seen := make(map[string]struct{}, len(embeds))
	for _, em := range embeds {
		if _, ok := seen[em.path]; !ok {
			seen[em.path] = struct{}{}
			res.Embeds = append(res.Embeds, em.path)
		}
	}
	sort.Strings(res.Embeds)
	return res, nil
}

func (e *Engine) rewriteImage(ctx context.Context, doc models.Document, occ models.Occurrence, outputSubPath string, s models.Settings) (edit, models.Asset) {
	target := e.resolver.Resolve(ctx, occ.Target, doc.Path)
	place := pathsynth.Synthesize(target.Name, doc, outputSubPath, s)

	asset := models.Asset{
		Link:     occ.Target,
		Source:   target.Path,
		Resolved: target.Resolved,
		Dest:     place.Dest,
		Ref:      place.Ref,
	}
	if s.GFM {
		return edit{start: occ.Start, end: occ.End, text: s.FormatImage(place.Ref)}, asset
	}
	return edit{start: occ.LinkStart, end: occ.LinkEnd, text: place.Ref}, asset
}

// rewriteWikiLink converts or strips one wikilink. Conversion wins when
// both options are set; each occurrence is rewritten exactly once.
func rewriteWikiLink(occ models.Occurrence, s models.Settings) (edit, bool) {
	switch {
	case s.ConvertWikiLinksToMarkdown:
		return edit{start: occ.Start, end: occ.End, text: markdownLink(occ)}, true
	case s.RemoveOutgoingLinkBrackets:
		text := occ.Target
		if occ.Alias != "" {
			text = occ.Alias
		}
		return edit{start: occ.Start, end: occ.End, text: text}, true
	}
	return edit{}, false
}

// markdownLink renders [[target#sub|alias]] as [alias](target.md#sub).
func markdownLink(occ models.Occurrence) string {
	note, sub := models.Subpath(occ.Target)
	label := occ.Alias
	if label == "" {
		label = occ.Target
	}
	var dest string
	if note != "" {
		if !models.IsAttachmentPath(note) {
			note = models.TrimNoteExt(note) + ".md"
		}
		dest = pathsynth.EscapePath(note)
	}
	if sub != "" {
		dest += "#" + url.PathEscape(sub[1:])
	}
	return "[" + label + "](" + dest + ")"
}

type embedded struct {
	path string
	text string
}

// embedMap reads every resolvable note embed once, keyed by the embed's
// payload. Unresolved embeds, and embeds whose file is gone, are omitted.
func (e *Engine) embedMap(ctx context.Context, doc models.Document, content string, s models.Settings) (map[string]embedded, error) {
	out := make(map[string]embedded)
	for _, occ := range parser.ScanCategory(content, models.NoteEmbed) {
		if occ.Remote {
			continue
		}
		if _, ok := out[occ.Payload]; ok {
			continue
		}
		target, ok := e.resolver.Note(ctx, occ.Target, doc.Path)
		if !ok {
			continue
		}
		data, err := e.reader.Read(target.Path)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("rewrite: read embed %s: %w", target.Path, err)
		}
		text := string(data)
		if s.RemoveYamlHeader {
			text = parser.StripFrontmatter(text)
		}
		if _, sub := models.Subpath(occ.Target); sub != "" {
			if text, ok = parser.Section(text, sub); !ok {
				continue
			}
		}
		out[occ.Payload] = embedded{path: target.Path, text: text}
	}
	return out, nil
}

// apply splices non-overlapping edits into text by span.
func apply(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, ed := range edits {
		b.WriteString(text[pos:ed.start])
		b.WriteString(ed.text)
		pos = ed.end
	}
	b.WriteString(text[pos:])
	return b.String()
}
