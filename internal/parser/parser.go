// Package parser scans Markdown notes for links and embeds and handles
// their YAML frontmatter.
package parser

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/mdexport/internal/models"
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Links       []string
	Title       string
}

// Parse extracts frontmatter, body, outgoing wikilink targets, and title.
func Parse(data []byte) *Result {
	fm, body := SplitFrontmatter(string(data))
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
		Title:       deriveTitle(fm, body),
	}
}

// SplitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the body. Without a closing delimiter, or when the block
// is not valid YAML, the entire content is body.
func SplitFrontmatter(content string) (map[string]interface{}, string) {
	end := frontmatterEnd(content)
	if end < 0 {
		return nil, content
	}
	block := content[strings.IndexByte(content, '\n')+1 : end]
	if i := strings.LastIndex(strings.TrimRight(block, "\r\n"), "\n"); i >= 0 {
		block = block[:i]
	} else {
		block = ""
	}

	var fm map[string]interface{}
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, content
	}
	return fm, content[end:]
}

// StripFrontmatter removes a leading --- delimited metadata block. The block
// is removed whether or not it parses as YAML.
func StripFrontmatter(content string) string {
	end := frontmatterEnd(content)
	if end < 0 {
		return content
	}
	return content[end:]
}

// frontmatterEnd returns the offset just past the closing delimiter line,
// or -1 if content does not open with a complete frontmatter block.
func frontmatterEnd(content string) int {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return -1
	}
	pos := strings.IndexByte(content, '\n') + 1
	for pos < len(content) {
		next := strings.IndexByte(content[pos:], '\n')
		line := content[pos:]
		if next >= 0 {
			line = content[pos : pos+next]
		}
		if strings.TrimRight(line, "\r") == "---" {
			if next < 0 {
				return len(content)
			}
			return pos + next + 1
		}
		if next < 0 {
			break
		}
		pos += next + 1
	}
	return -1
}

// extractLinks returns the deduplicated local targets of every link and
// embed, aliases and subpaths dropped.
func extractLinks(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, occ := range Scan(body) {
		if occ.Remote {
			continue
		}
		target, _ := models.Subpath(occ.Target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
