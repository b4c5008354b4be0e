package models

// Target is the outcome of resolving a link.
type Target struct {
	// Name is the decoded link text: percent-decoding applied, alias and
	// leading "../" removed.
	Name string `json:"name"`
	// Path is the vault path of the target file. When Resolved is false it
	// is the best-effort path relative to the source document's folder.
	Path     string `json:"path"`
	Resolved bool   `json:"resolved"`
}

// Asset is an Output Asset Reference: where an image is copied to and how
// the rewritten document refers to it.
type Asset struct {
	// Link is the link text as written in the source document.
	Link string `json:"link"`
	// Source is the vault path of the file to copy.
	Source   string `json:"source"`
	Resolved bool   `json:"resolved"`
	// Dest is the copy destination relative to the output root.
	Dest string `json:"dest"`
	// Ref is the forward-slash reference emitted into the document.
	Ref string `json:"ref"`
}
