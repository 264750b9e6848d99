package gdocs

import (
	"google.golang.org/api/docs/v1"
)

// The service may shift a freshly inserted table by a few indexes while
// normalizing surrounding paragraphs, so a table is located by proximity to
// the requested insertion offset rather than by exact match.
const tableSearchWindow = 50

// AppendIndex returns the offset at which new content is appended: one
// before the largest end index in the body, never below the first writable
// index.
func AppendIndex(doc *docs.Document) int64 {
	var end int64
	if doc.Body != nil {
		for _, el := range doc.Body.Content {
			if el.EndIndex > end {
				end = el.EndIndex
			}
		}
	}
	if end <= 2 {
		return 1
	}
	return end - 1
}

// CellIndexes locates the table whose start index lies within the search
// window of near and returns the per cell text insertion offsets, row by
// row. Each offset is the start index of the cell's first paragraph, or of
// its first content element when the cell holds no paragraph. A nil grid
// means no table was found near the requested offset.
func CellIndexes(doc *docs.Document, near int64) [][]int64 {
	if doc.Body == nil {
		return nil
	}
	for _, el := range doc.Body.Content {
		if el.Table == nil {
			continue
		}
		delta := el.StartIndex - near
		if delta < 0 {
			delta = -delta
		}
		if delta > tableSearchWindow {
			continue
		}

		grid := make([][]int64, 0, len(el.Table.TableRows))
		for _, row := range el.Table.TableRows {
			cells := make([]int64, 0, len(row.TableCells))
			for _, cell := range row.TableCells {
				if at, ok := cellInsertionPoint(cell); ok {
					cells = append(cells, at)
				}
			}
			grid = append(grid, cells)
		}
		return grid
	}
	return nil
}

func cellInsertionPoint(cell *docs.TableCell) (int64, bool) {
	for _, el := range cell.Content {
		if el.Paragraph != nil {
			return el.StartIndex, true
		}
	}
	if len(cell.Content) > 0 {
		return cell.Content[0].StartIndex, true
	}
	return 0, false
}
