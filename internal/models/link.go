package models

import (
	"path"
	"strings"
)

// LinkCategory tags a scanned occurrence.
type LinkCategory int

const (
	// ImageEmbed is ![[file.png]] (any embed with a non-note extension).
	ImageEmbed LinkCategory = iota + 1
	// MarkdownImage is ![alt](file.png).
	MarkdownImage
	// NoteEmbed is ![[Note]] or ![[Note.md]].
	NoteEmbed
	// OutgoingWikiLink is [[Note]] or [[Note|alias]].
	OutgoingWikiLink
)

func (c LinkCategory) String() string {
	switch c {
	case ImageEmbed:
		return "image_embed"
	case MarkdownImage:
		return "markdown_image"
	case NoteEmbed:
		return "note_embed"
	case OutgoingWikiLink:
		return "wikilink"
	}
	return "unknown"
}

// IsImage reports whether the category refers to an asset to copy.
func (c LinkCategory) IsImage() bool {
	return c == ImageEmbed || c == MarkdownImage
}

// Occurrence is one link matched in a document's text.
//
// Start/End delimit the raw span; LinkStart/LinkEnd delimit the link text
// inside it (the payload before any alias for embeds and wiki links, the
// URL for markdown images). All offsets are byte offsets into the scanned
// text.
type Occurrence struct {
	Category  LinkCategory
	Start     int
	End       int
	LinkStart int
	LinkEnd   int

	// Raw is text[Start:End].
	Raw string
	// Payload is the whole bracket content, alias included.
	Payload string
	// Target is the link text before the alias separator.
	Target string
	// Alias is the text after "|", or the alt text of a markdown image.
	Alias string
	// Remote is set when Target carries a URL scheme.
	Remote bool
}

// Subpath splits a link target into its note part and "#heading" or
// "#^block" fragment.
func Subpath(target string) (string, string) {
	if i := strings.Index(target, "#"); i >= 0 {
		return target[:i], target[i:]
	}
	return target, ""
}

// IsNotePath reports whether p names a Markdown note.
func IsNotePath(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md")
}

// attachmentExts are the embeddable non-note file types, lower-cased.
var attachmentExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".svg": {},
	".webp": {}, ".avif": {}, ".ico": {}, ".tif": {}, ".tiff": {}, ".heic": {},
	".pdf": {},
	".mp3": {}, ".wav": {}, ".m4a": {}, ".ogg": {}, ".flac": {}, ".3gp": {},
	".mp4": {}, ".webm": {}, ".ogv": {}, ".mov": {}, ".mkv": {},
}

// IsAttachmentPath reports whether p names an embeddable attachment by its
// extension. Dotted note names such as "2024.01.15" are not attachments.
func IsAttachmentPath(p string) bool {
	_, ok := attachmentExts[strings.ToLower(path.Ext(p))]
	return ok
}

// TrimNoteExt removes a trailing .md extension (case-insensitive).
func TrimNoteExt(name string) string {
	if IsNotePath(name) {
		return name[:len(name)-3]
	}
	return name
}
