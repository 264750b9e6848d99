// Package convert drives the conversion between markdown and the document
// service in both directions: compiling markdown segments into ordered edit
// operation batches with oracle verified offsets, materializing tables
// through the two phase protocol, and turning exported documents back into
// markdown.
package convert

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"docmd/gdocs"
	"docmd/markdown"
)

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBullet   = regexp.MustCompile(`^(\t*)[-*]\s+(.+)$`)
	reNumbered = regexp.MustCompile(`^(\t*)(\d+)\.\s+(.+)$`)
)

// compileContent turns one content segment into edit operations, walking its
// lines with a local offset that starts at base. The returned offset is an
// estimate: the service normalizes inserted structure, so callers must
// re-read the document before trusting any offset past this segment.
//
// List items match against the raw line since leading tabs carry the nesting
// depth, everything else matches the trimmed line.
func compileContent(text string, base int64) ([]gdocs.Op, int64) {
	var ops []gdocs.Op
	idx := base
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); {
		line := lines[i]
		stripped := strings.TrimSpace(line)

		if stripped == "" {
			ops = append(ops, gdocs.InsertText(idx, "\n"))
			idx++
			i++
			continue
		}

		if strings.HasPrefix(stripped, "```") {
			code, next := collectCodeBlock(lines, i)
			if len(code) > 0 {
				codeText := strings.Join(code, "\n") + "\n"
				end := idx + runeLen(codeText)
				ops = append(ops,
					gdocs.InsertText(idx, codeText),
					gdocs.StyleText(idx, end, gdocs.TextStyle{Monospace: true}))
				idx = end
			}
			i = next
			continue
		}

		if m := reHeading.FindStringSubmatch(stripped); m != nil {
			clean, spans := markdown.ParseInline(m[2])
			end := idx + runeLen(clean) + 1
			ops = append(ops,
				gdocs.InsertText(idx, clean+"\n"),
				gdocs.StyleHeading(idx, end, len(m[1])))
			ops = append(ops, spanOps(spans, idx)...)
			idx = end
			i++
			continue
		}

		if m := reBullet.FindStringSubmatch(line); m != nil {
			ops, idx = appendListItem(ops, idx, len(m[1]), m[2], gdocs.PresetBullet)
			i++
			continue
		}
		if m := reNumbered.FindStringSubmatch(line); m != nil {
			ops, idx = appendListItem(ops, idx, len(m[1]), m[3], gdocs.PresetNumbered)
			i++
			continue
		}

		clean, spans := markdown.ParseInline(stripped)
		ops = append(ops, gdocs.InsertText(idx, clean+"\n"))
		ops = append(ops, spanOps(spans, idx)...)
		idx += runeLen(clean) + 1
		i++
	}

	return ops, idx
}

func appendListItem(ops []gdocs.Op, idx int64, depth int, raw, preset string) ([]gdocs.Op, int64) {
	clean, spans := markdown.ParseInline(raw)
	end := idx + runeLen(clean) + 1

	ops = append(ops,
		gdocs.InsertText(idx, clean+"\n"),
		gdocs.CreateBullets(idx, end, preset))
	if depth > 0 {
		ops = append(ops, gdocs.StyleIndent(idx, end, depth))
	}
	ops = append(ops, spanOps(spans, idx)...)
	return ops, end
}

// collectCodeBlock gathers the verbatim interior of a fenced block opened at
// lines[at]. It returns the interior lines and the index of the line after
// the closing fence, or past the input when the fence never closes.
func collectCodeBlock(lines []string, at int) ([]string, int) {
	var code []string
	i := at + 1
	for i < len(lines) {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			return code, i + 1
		}
		code = append(code, lines[i])
		i++
	}
	return code, i
}

// spanOps converts inline formatting spans into style operations at offsets
// relative to base.
func spanOps(spans []markdown.Span, base int64) []gdocs.Op {
	ops := make([]gdocs.Op, 0, len(spans))
	for _, s := range spans {
		var style gdocs.TextStyle
		switch s.Kind {
		case markdown.SpanBold:
			style.Bold = true
		case markdown.SpanItalic:
			style.Italic = true
		case markdown.SpanBoldItalic:
			style.Bold, style.Italic = true, true
		case markdown.SpanLink:
			style.URL = s.URL
		case markdown.SpanCode:
			style.Monospace = true
		default:
			continue
		}
		ops = append(ops, gdocs.StyleText(base+int64(s.Start), base+int64(s.End), style))
	}
	return ops
}

func runeLen(s string) int64 {
	return int64(utf8.RuneCountInString(s))
}
