package parser

import (
	"regexp"
	"strings"

	"github.com/starford/mdexport/internal/models"
)

var schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// Scan tokenizes text and returns every link occurrence in document order.
// Links never span lines. Fenced code blocks and inline code spans are
// skipped, so the occurrences never overlap.
func Scan(text string) []models.Occurrence {
	var out []models.Occurrence
	fence := ""
	for start := 0; start < len(text); {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += start
		}
		if marker := fenceMarker(text[start:end]); marker != "" {
			switch fence {
			case "":
				fence = marker
			case marker:
				fence = ""
			}
		} else if fence == "" {
			out = scanLine(text, start, end, out)
		}
		start = end + 1
	}
	return out
}

// ScanCategory returns the occurrences of the given categories only.
func ScanCategory(text string, cats ...models.LinkCategory) []models.Occurrence {
	var out []models.Occurrence
	for _, occ := range Scan(text) {
		for _, c := range cats {
			if occ.Category == c {
				out = append(out, occ)
				break
			}
		}
	}
	return out
}

func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return ""
	}
	switch {
	case strings.HasPrefix(trimmed, "```"):
		return "```"
	case strings.HasPrefix(trimmed, "~~~"):
		return "~~~"
	}
	return ""
}

func scanLine(text string, start, end int, out []models.Occurrence) []models.Occurrence {
	i := start
	for i < end {
		rest := text[i:end]
		switch {
		case rest[0] == '`':
			i = skipCode(text, i, end)
			continue
		case strings.HasPrefix(rest, "![["):
			if occ, ok := scanBracket(text, i, 3, end); ok {
				out = append(out, occ)
				i = occ.End
				continue
			}
		case strings.HasPrefix(rest, "[["):
			if i > start && text[i-1] == '!' {
				break
			}
			if occ, ok := scanBracket(text, i, 2, end); ok {
				out = append(out, occ)
				i = occ.End
				continue
			}
		case strings.HasPrefix(rest, "!["):
			if occ, ok := scanImage(text, i, end); ok {
				out = append(out, occ)
				i = occ.End
				continue
			}
		}
		i++
	}
	return out
}

// skipCode returns the offset after the inline code span starting at i.
// An unmatched backtick run is literal text.
func skipCode(text string, i, end int) int {
	n := 0
	for i+n < end && text[i+n] == '`' {
		n++
	}
	closing := strings.Index(text[i+n:end], strings.Repeat("`", n))
	if closing < 0 {
		return i + n
	}
	return i + n + closing + n
}

// scanBracket matches [[payload]] (open == 2) or ![[payload]] (open == 3)
// starting at i.
func scanBracket(text string, i, open, end int) (models.Occurrence, bool) {
	inner := i + open
	closing := strings.Index(text[inner:end], "]]")
	if closing <= 0 {
		return models.Occurrence{}, false
	}
	payload := text[inner : inner+closing]
	targetEnd := inner + len(payload)
	alias := ""
	if p := strings.IndexByte(payload, '|'); p >= 0 {
		targetEnd = inner + p
		// Inside tables the separator is written as \|.
		if p > 0 && payload[p-1] == '\\' {
			targetEnd--
		}
		alias = strings.TrimSpace(payload[p+1:])
	}
	ts, te := trimSpan(text, inner, targetEnd)
	if ts == te {
		return models.Occurrence{}, false
	}
	target := text[ts:te]

	cat := models.OutgoingWikiLink
	if open == 3 {
		cat = models.NoteEmbed
		if isAssetName(target) {
			cat = models.ImageEmbed
		}
	}

	spanEnd := inner + closing + 2
	return models.Occurrence{
		Category:  cat,
		Start:     i,
		End:       spanEnd,
		LinkStart: ts,
		LinkEnd:   te,
		Raw:       text[i:spanEnd],
		Payload:   payload,
		Target:    target,
		Alias:     alias,
		Remote:    IsRemote(target),
	}, true
}

// scanImage matches ![alt](url), ![alt](<url>) and ![alt](url "title").
func scanImage(text string, i, end int) (models.Occurrence, bool) {
	altStart := i + 2
	altEnd := strings.IndexByte(text[altStart:end], ']')
	if altEnd < 0 {
		return models.Occurrence{}, false
	}
	altEnd += altStart
	if altEnd+1 >= end || text[altEnd+1] != '(' {
		return models.Occurrence{}, false
	}
	open := altEnd + 2
	closing := closeParen(text, open, end)
	if closing < 0 {
		return models.Occurrence{}, false
	}

	ls, le := trimSpan(text, open, closing)
	if ls < le && text[ls] == '<' {
		gt := strings.IndexByte(text[ls:le], '>')
		if gt < 0 {
			return models.Occurrence{}, false
		}
		ls, le = ls+1, ls+gt
	} else if sp := strings.IndexAny(text[ls:le], " \t"); sp >= 0 {
		le = ls + sp
	}
	if ls == le {
		return models.Occurrence{}, false
	}
	target := text[ls:le]
	return models.Occurrence{
		Category:  models.MarkdownImage,
		Start:     i,
		End:       closing + 1,
		LinkStart: ls,
		LinkEnd:   le,
		Raw:       text[i : closing+1],
		Payload:   text[open:closing],
		Target:    target,
		Alias:     text[altStart:altEnd],
		Remote:    IsRemote(target),
	}, true
}

// closeParen returns the offset of the ")" closing a link destination that
// starts at open. Parentheses nest, a backslash escapes the next byte and
// an <angle> destination may hold any parenthesis. It returns -1 when the
// destination is not closed before end.
func closeParen(text string, open, end int) int {
	j := open
	for j < end && (text[j] == ' ' || text[j] == '\t') {
		j++
	}
	if j < end && text[j] == '<' {
		gt := strings.IndexByte(text[j:end], '>')
		if gt < 0 {
			return -1
		}
		j += gt + 1
	}
	depth := 0
	for ; j < end; j++ {
		switch text[j] {
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

func trimSpan(text string, s, e int) (int, int) {
	for s < e && (text[s] == ' ' || text[s] == '\t') {
		s++
	}
	for e > s && (text[e-1] == ' ' || text[e-1] == '\t') {
		e--
	}
	return s, e
}

// IsRemote reports whether link carries a URL scheme (http://, data:, ...).
func IsRemote(link string) bool {
	if schemeRe.MatchString(link) {
		return true
	}
	lower := strings.ToLower(link)
	return strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "mailto:")
}

// isAssetName reports whether an embed target names an attachment rather
// than a note.
func isAssetName(target string) bool {
	name, _ := models.Subpath(target)
	return models.IsAttachmentPath(name)
}
