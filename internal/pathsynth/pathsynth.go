// Package pathsynth computes where exported documents and their assets land
// in the output tree and how documents refer to those assets.
//
// All functions are pure: identical inputs always yield identical output,
// and every emitted reference uses forward slashes regardless of host OS.
package pathsynth

import (
	"net/url"
	"path"
	"strings"

	"github.com/starford/mdexport/internal/checksum"
	"github.com/starford/mdexport/internal/models"
)

// Placement is the synthesized location of one asset.
type Placement struct {
	// Ref is the percent-encoded, forward-slash reference written into the
	// exported document.
	Ref string
	// Dest is the copy destination relative to the output root.
	Dest string
}

// ClickPath returns the back-reference from a document exported under
// outputSubPath to the output root: "../" once per path segment. "."
// yields "".
func ClickPath(outputSubPath string) string {
	p := clean(outputSubPath)
	if p == "" {
		return ""
	}
	return strings.Repeat("../", strings.Count(p, "/")+1)
}

// FileName returns the output basename of an asset whose decoded link name
// is name: the name digest plus extension when FileNameEncode is set,
// otherwise the original basename.
func FileName(name string, s models.Settings) string {
	ext := path.Ext(name)
	if s.FileNameEncode {
		return checksum.Name(name) + ext
	}
	return path.Base(toSlash(name))
}

// Synthesize places the asset with decoded link name name, referenced from
// doc exported under outputSubPath.
//
// With RelAttachPath the attachment directory sits beside the document's
// export root (output/[docFolder]/attachment/[custom]); otherwise a single
// shared directory is used (output/attachment/[docStem]/[custom]).
func Synthesize(name string, doc models.Document, outputSubPath string, s models.Settings) Placement {
	file := FileName(name, s)
	attach := clean(s.Attachment)
	custom := clean(s.CustomAttachPath)
	docFolder := s.DocumentFolder(doc)

	var refDir, destDir, depth string
	if s.RelAttachPath {
		refDir = path.Join(attach, custom)
		destDir = path.Join(docFolder, refDir)
		depth = outputSubPath
	} else {
		perDoc := ""
		if s.IncludeFileName {
			perDoc = doc.Stem()
		}
		refDir = path.Join(attach, perDoc, custom)
		destDir = refDir
		depth = path.Join(docFolder, clean(outputSubPath))
	}

	return Placement{
		Ref:  ClickPath(depth) + EscapePath(path.Join(refDir, file)),
		Dest: path.Join(destDir, file),
	}
}

// DocumentPath returns the output path of doc relative to the output root.
func DocumentPath(doc models.Document, outputSubPath string, s models.Settings) string {
	return path.Join(s.DocumentFolder(doc), clean(outputSubPath), s.OutputName(doc))
}

// EscapePath percent-encodes each segment so the reference is safe inside
// a Markdown link.
func EscapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

// clean normalizes a configured or relative path to forward slashes and
// drops "." so it can be joined.
func clean(p string) string {
	p = path.Clean(toSlash(p))
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// toSlash converts backslash separators regardless of host OS.
func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
