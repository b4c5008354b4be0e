package parser

import (
	"strings"
)

// Section returns the part of content addressed by an embed subpath:
// "#Heading" selects the heading and everything up to the next heading of
// the same or higher level, "#^id" selects the line carrying the block id
// (marker removed). Nested heading paths ("#A#B") address the last heading.
func Section(content, subpath string) (string, bool) {
	ref := strings.TrimPrefix(subpath, "#")
	if ref == "" {
		return content, true
	}
	lines := strings.Split(content, "\n")
	if id, ok := strings.CutPrefix(ref, "^"); ok {
		return blockLine(lines, id)
	}
	if i := strings.LastIndex(ref, "#"); i >= 0 {
		ref = ref[i+1:]
	}
	return headingSection(lines, strings.TrimSpace(ref))
}

func blockLine(lines []string, id string) (string, bool) {
	marker := " ^" + id
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		if strings.HasSuffix(trimmed, marker) {
			return strings.TrimSuffix(trimmed, marker), true
		}
	}
	return "", false
}

func headingSection(lines []string, heading string) (string, bool) {
	start, level := -1, 0
	fence := ""
	for i, line := range lines {
		if marker := fenceMarker(line); marker != "" {
			switch fence {
			case "":
				fence = marker
			case marker:
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}
		lvl, text := headingLevel(line)
		if lvl == 0 {
			continue
		}
		if start < 0 {
			if strings.EqualFold(text, heading) {
				start, level = i, lvl
			}
			continue
		}
		if lvl <= level {
			return strings.Join(lines[start:i], "\n"), true
		}
	}
	if start < 0 {
		return "", false
	}
	return strings.Join(lines[start:], "\n"), true
}

// headingLevel returns the ATX heading level of line and its text, or 0.
func headingLevel(line string) (int, string) {
	trimmed := strings.TrimSpace(line)
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0, ""
	}
	if n < len(trimmed) && trimmed[n] != ' ' && trimmed[n] != '\t' {
		return 0, ""
	}
	return n, strings.TrimSpace(trimmed[n:])
}
