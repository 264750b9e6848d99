package markdown

import (
	"regexp"
	"strings"
)

var reSeparatorCell = regexp.MustCompile(`^[\s:-]+$`)

// Split breaks a markdown body into an ordered list of content and table
// segments. A line heads a table iff it contains a pipe character and the
// next line is a valid separator row with the same cell count. Everything
// else accumulates into content segments which are flushed at table
// boundaries and at end of input. Whitespace only content is dropped.
func Split(body string) []Segment {
	var segments []Segment
	lines := strings.Split(body, "\n")

	var content []string
	flush := func() {
		if len(content) == 0 {
			return
		}
		text := strings.Join(content, "\n")
		if strings.TrimSpace(text) != "" {
			segments = append(segments, Segment{Kind: SegmentContent, Text: text})
		}
		content = content[:0]
	}

	for i := 0; i < len(lines); {
		if headsTable(lines, i) {
			flush()
			grid, next := collectTable(lines, i)
			if len(grid) > 0 {
				segments = append(segments, Segment{Kind: SegmentTable, Grid: grid})
			}
			i = next
			continue
		}
		content = append(content, lines[i])
		i++
	}
	flush()

	return segments
}

// headsTable reports whether lines[i] starts a table: it contains a pipe and
// the following line is a separator row whose cell count matches the header.
// A pipe line without such a separator stays ordinary content.
func headsTable(lines []string, i int) bool {
	if !strings.Contains(strings.TrimSpace(lines[i]), "|") {
		return false
	}
	if i+1 >= len(lines) || !isTableSeparator(lines[i+1]) {
		return false
	}
	return len(parseTableRow(lines[i+1])) == len(parseTableRow(lines[i]))
}

// isTableSeparator reports whether line is a table separator row such as
// |---|---| or |:---:|:---|. Every cell must consist of whitespace, colons
// and hyphens only and contain at least one hyphen.
func isTableSeparator(line string) bool {
	stripped := strings.TrimSpace(line)
	if !strings.HasPrefix(stripped, "|") || !strings.HasSuffix(stripped, "|") || len(stripped) < 2 {
		return false
	}
	for _, cell := range strings.Split(stripped[1:len(stripped)-1], "|") {
		if !reSeparatorCell.MatchString(cell) || !strings.Contains(cell, "-") {
			return false
		}
	}
	return true
}

// parseTableRow splits a table row into trimmed cell values, tolerating
// missing leading or trailing pipes.
func parseTableRow(line string) []string {
	stripped := strings.TrimSpace(line)
	stripped = strings.TrimPrefix(stripped, "|")
	stripped = strings.TrimSuffix(stripped, "|")
	cells := strings.Split(stripped, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// collectTable consumes a table starting at the header line at start. Data
// rows are collected while they begin with a pipe and are not separators, and
// are padded or truncated to the header cell count. It returns the grid and
// the index of the first line past the table.
func collectTable(lines []string, start int) (TableGrid, int) {
	i := start

	header := parseTableRow(lines[i])
	cols := len(header)
	grid := TableGrid{header}
	i++

	// Separator row, validated by the caller.
	if i >= len(lines) || !isTableSeparator(lines[i]) {
		return nil, start + 1
	}
	i++

	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "|") || isTableSeparator(line) {
			break
		}
		row := parseTableRow(line)
		for len(row) < cols {
			row = append(row, "")
		}
		grid = append(grid, row[:cols])
		i++
	}

	return grid, i
}
