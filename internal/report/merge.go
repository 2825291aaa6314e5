package report

import "strings"

// Merge returns doc with s written into it. A section that already exists
// (a line starting with s.Marker) is replaced up to the next top-level
// header or the end of the document; otherwise s is appended after exactly
// one blank line. Any further sections with the same marker are removed so
// the note ends up with a single copy. Everything else is left byte for
// byte, apart from the blank lines around a removed copy.
func Merge(doc string, s Section) string {
	text := strings.TrimRight(s.Text, "\n") + "\n"

	start, ok := findSection(doc, s.Marker)
	if !ok {
		return appendSection(doc, text)
	}

	rest := dropSections(doc[nextHeader(doc, start):], s.Marker)
	if rest == "" {
		return doc[:start] + text
	}
	return doc[:start] + text + "\n" + rest
}

// dropSections removes every section of doc that starts with marker. The
// text on both sides of a removed section is joined by one blank line.
func dropSections(doc, marker string) string {
	for {
		start, ok := findSection(doc, marker)
		if !ok {
			return doc
		}
		before := strings.TrimRight(doc[:start], "\n")
		after := doc[nextHeader(doc, start):]
		switch {
		case before == "":
			doc = after
		case after == "":
			doc = before + "\n"
		default:
			doc = before + "\n\n" + after
		}
	}
}

// Contains reports whether doc already carries a section with marker.
func Contains(doc, marker string) bool {
	_, ok := findSection(doc, marker)
	return ok
}

func appendSection(doc, text string) string {
	prior := strings.TrimRight(doc, "\n")
	if prior == "" {
		return text
	}
	return prior + "\n\n" + text
}

// findSection returns the offset of the first line that begins with marker.
func findSection(doc, marker string) (int, bool) {
	if marker == "" {
		return 0, false
	}
	for off := 0; off < len(doc); {
		if strings.HasPrefix(doc[off:], marker) {
			return off, true
		}
		nl := strings.IndexByte(doc[off:], '\n')
		if nl < 0 {
			break
		}
		off += nl + 1
	}
	return 0, false
}

// nextHeader returns the offset of the first top-level header line after
// the line at start, or len(doc) when there is none.
func nextHeader(doc string, start int) int {
	off := start
	for {
		nl := strings.IndexByte(doc[off:], '\n')
		if nl < 0 {
			return len(doc)
		}
		off += nl + 1
		if isTopLevelHeader(doc[off:]) {
			return off
		}
	}
}

// isTopLevelHeader matches "# " and "## " lines. Deeper headings such as
// the section's own "### Top Categories" stay inside the span.
func isTopLevelHeader(line string) bool {
	return strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ")
}
