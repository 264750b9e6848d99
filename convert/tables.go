package convert

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"docmd/gdocs"
	"docmd/markdown"
)

// TableState tracks one table through the two phase materialization
// protocol. Every table ends up Populated or Abandoned.
type TableState string

const (
	TableEmpty     TableState = "empty"
	TableCreated   TableState = "created"
	TablePopulated TableState = "populated"
	TableAbandoned TableState = "abandoned"
)

// materializeTable drives one table through both phases at an oracle
// verified offset: create the empty grid, re-read the document, then fill
// the cells at their actual offsets. A mismatch between the located cell
// grid and the table data abandons population, the empty table stays in the
// document and the outcome is reported rather than raised.
func (e *Engine) materializeTable(ctx context.Context, docID string, grid markdown.TableGrid, at int64) (TableState, error) {
	rows, cols := grid.Rows(), grid.Cols()
	e.log.Debug("Creating table",
		zap.String("id", docID),
		zap.Int64("at", at),
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("estimated_extent", grid.EstimatedSpan()))

	state := TableEmpty
	err := e.client.BatchApply(ctx, docID, []gdocs.Op{gdocs.InsertTable(at, int64(rows), int64(cols))})
	if err != nil {
		return state, err
	}
	state = TableCreated

	doc, err := e.client.ReadStructure(ctx, docID)
	if err != nil {
		return state, err
	}

	ops, ok := populateOps(grid, gdocs.CellIndexes(doc, at))
	if !ok {
		e.log.Warn("Abandoning table population, located cell grid does not match",
			zap.String("id", docID),
			zap.Int64("at", at),
			zap.Int("rows", rows),
			zap.Int("cols", cols))
		return TableAbandoned, nil
	}
	if len(ops) > 0 {
		if err := e.client.BatchApply(ctx, docID, ops); err != nil {
			return state, err
		}
	}
	return TablePopulated, nil
}

// populateOps builds the fill operations for a freshly created table. The
// located cell grid must match the table dimensions exactly, otherwise no
// insertion is scheduled at all and ok is false. Non-empty cells are filled
// in descending offset order so each insertion only shifts offsets that were
// already consumed.
func populateOps(grid markdown.TableGrid, cells [][]int64) ([]gdocs.Op, bool) {
	if len(cells) != grid.Rows() {
		return nil, false
	}
	for _, row := range cells {
		if len(row) != grid.Cols() {
			return nil, false
		}
	}

	type fill struct {
		at      int64
		content string
	}
	var fills []fill
	for r, row := range grid {
		for c, content := range row {
			if content == "" {
				continue
			}
			fills = append(fills, fill{at: cells[r][c], content: content})
		}
	}
	sort.Slice(fills, func(i, j int) bool { return fills[i].at > fills[j].at })

	var ops []gdocs.Op
	for _, f := range fills {
		clean, spans := markdown.ParseInline(f.content)
		ops = append(ops, gdocs.InsertText(f.at, clean))
		ops = append(ops, spanOps(spans, f.at)...)
	}
	return ops, true
}
