package markdown

import (
	"regexp"
	"sort"
)

// Inline match classes in scan priority order: links, bold+italic, bold,
// italic, inline code. When two matches start at the same offset the class
// scanned first wins, see resolveOverlaps.
var (
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reBoldItalic = regexp.MustCompile(`\*\*\*([^*]+)\*\*\*`)
	reBold       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reCode       = regexp.MustCompile("`([^`]+)`")
)

// inlineMatch is a single candidate match in raw text coordinates, with
// delimiters still included in [start, end).
type inlineMatch struct {
	start   int
	end     int
	content string
	kind    SpanKind
	url     string
}

// ParseInline extracts inline formatting from a single text run. It returns
// the text with all kept delimiters removed and the formatting spans
// positioned in the clean text coordinate space.
//
// All candidate matches from every class are pooled and sorted by start
// offset only. Overlaps are resolved greedily by position: walking the sorted
// list, a match survives iff it starts at or after the end of the last kept
// match. An earlier longer match therefore shadows a later shorter one, and
// on equal starts the class scanned first wins. Text outside kept matches is
// preserved verbatim.
func ParseInline(text string) (string, []Span) {
	if text == "" {
		return text, nil
	}

	matches := collectMatches(text)
	kept := resolveOverlaps(matches)

	// Span positions count characters, not bytes, to line up with the
	// document's offset space.
	var clean []rune
	var spans []Span
	pos := 0

	for _, m := range kept {
		if m.start > pos {
			clean = append(clean, []rune(text[pos:m.start])...)
		}
		cleanStart := len(clean)
		clean = append(clean, []rune(m.content)...)
		spans = append(spans, Span{
			Start: cleanStart,
			End:   len(clean),
			Kind:  m.kind,
			URL:   m.url,
		})
		pos = m.end
	}
	if pos < len(text) {
		clean = append(clean, []rune(text[pos:])...)
	}

	return string(clean), spans
}

func collectMatches(text string) []inlineMatch {
	var matches []inlineMatch

	for _, m := range reLink.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, inlineMatch{
			start:   m[0],
			end:     m[1],
			content: text[m[2]:m[3]],
			kind:    SpanLink,
			url:     text[m[4]:m[5]],
		})
	}
	for _, m := range reBoldItalic.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, inlineMatch{start: m[0], end: m[1], content: text[m[2]:m[3]], kind: SpanBoldItalic})
	}
	for _, m := range reBold.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, inlineMatch{start: m[0], end: m[1], content: text[m[2]:m[3]], kind: SpanBold})
	}
	matches = append(matches, scanItalic(text)...)
	for _, m := range reCode.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, inlineMatch{start: m[0], end: m[1], content: text[m[2]:m[3]], kind: SpanCode})
	}
	return matches
}

// scanItalic finds single asterisk runs that do not touch another asterisk on
// either side, so bold and bold+italic delimiters never leak partial italic
// matches. The stdlib regexp engine has no lookarounds and a plain candidate
// scan would consume text a rejected candidate must leave for later ones,
// hence the manual walk: a failed position advances by one byte while a kept
// match advances past its closing delimiter.
func scanItalic(text string) []inlineMatch {
	var matches []inlineMatch
	for i := 0; i < len(text); {
		if text[i] != '*' || (i > 0 && text[i-1] == '*') {
			i++
			continue
		}
		j := i + 1
		for j < len(text) && text[j] != '*' {
			j++
		}
		if j == i+1 || j >= len(text) || (j+1 < len(text) && text[j+1] == '*') {
			i++
			continue
		}
		matches = append(matches, inlineMatch{start: i, end: j + 1, content: text[i+1 : j], kind: SpanItalic})
		i = j + 1
	}
	return matches
}

// resolveOverlaps sorts candidates by start offset, keeping collection order
// for equal starts, and drops every match that begins before the end of the
// last kept one.
func resolveOverlaps(matches []inlineMatch) []inlineMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	kept := matches[:0]
	lastEnd := -1
	for _, m := range matches {
		if m.start >= lastEnd {
			kept = append(kept, m)
			lastEnd = m.end
		}
	}
	return kept
}
