package models

import "strings"

// DefaultImageFormat is the GFM image template; {path} is replaced by the
// synthesized asset reference.
const DefaultImageFormat = "![]({path})"

// Settings is the frozen export configuration threaded through one export
// run. It is passed by value so a run never observes later changes.
type Settings struct {
	// Output is the root directory of the exported tree.
	Output string `yaml:"output"`
	// Attachment is the attachment directory name.
	Attachment string `yaml:"attachment"`
	// CustomAttachPath is an optional subfolder under the attachment directory.
	CustomAttachPath string `yaml:"custom_attach_path"`
	// RelAttachPath places attachments beside each document's export root
	// instead of one shared attachment directory.
	RelAttachPath bool `yaml:"rel_attach_path"`
	// IncludeFileName adds a per-document subfolder named after the document.
	IncludeFileName bool `yaml:"include_file_name"`
	// FileNameEncode names assets by digest instead of their basename.
	FileNameEncode bool `yaml:"file_name_encode"`
	// GFM replaces image links with ImageFormat instead of swapping the path only.
	GFM         bool   `yaml:"gfm"`
	ImageFormat string `yaml:"image_format"`

	RemoveYamlHeader           bool `yaml:"remove_yaml_header"`
	RemoveOutgoingLinkBrackets bool `yaml:"remove_outgoing_link_brackets"`
	ConvertWikiLinksToMarkdown bool `yaml:"convert_wiki_links_to_markdown"`

	// CustomFileName renames exported documents (without extension).
	CustomFileName   string `yaml:"custom_file_name"`
	OverrideExisting bool   `yaml:"override_existing"`

	// Concurrency bounds how many documents a batch exports at once.
	Concurrency int `yaml:"concurrency"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Output:         "./output",
		Attachment:     "attachment",
		RelAttachPath:  true,
		FileNameEncode: true,
		GFM:            true,
		ImageFormat:    DefaultImageFormat,
		Concurrency:    4,
	}
}

// FormatImage renders the GFM image template for ref.
func (s Settings) FormatImage(ref string) string {
	format := s.ImageFormat
	if format == "" {
		format = DefaultImageFormat
	}
	return strings.ReplaceAll(format, "{path}", ref)
}

// DocumentFolder returns the per-document folder the exported document is
// placed in, or "" when documents land directly under the output root.
func (s Settings) DocumentFolder(doc Document) string {
	if s.CustomFileName != "" || (s.IncludeFileName && s.RelAttachPath) {
		return doc.Stem()
	}
	return ""
}

// OutputName returns the file name of the exported document.
func (s Settings) OutputName(doc Document) string {
	if s.CustomFileName != "" {
		return s.CustomFileName + ".md"
	}
	return doc.Name
}
