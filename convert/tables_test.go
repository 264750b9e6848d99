package convert

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"
	"google.golang.org/api/docs/v1"

	"docmd/gdocs"
	"docmd/markdown"
)

func TestPopulateOpsDescendingOrder(t *testing.T) {
	grid := markdown.TableGrid{{"**a**", "b"}, {"1", "2"}}
	cells := [][]int64{{10, 20}, {30, 40}}

	ops, ok := populateOps(grid, cells)
	if !ok {
		t.Fatal("expected population to proceed")
	}
	want := []gdocs.Op{
		gdocs.InsertText(40, "2"),
		gdocs.InsertText(30, "1"),
		gdocs.InsertText(20, "b"),
		gdocs.InsertText(10, "a"),
		gdocs.StyleText(10, 11, gdocs.TextStyle{Bold: true}),
	}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("ops mismatch:\n got: %+v\nwant: %+v", ops, want)
	}
}

func TestPopulateOpsSkipsEmptyCells(t *testing.T) {
	grid := markdown.TableGrid{{"a", ""}, {"", "d"}}

	ops, ok := populateOps(grid, [][]int64{{10, 20}, {30, 40}})
	if !ok {
		t.Fatal("expected population to proceed")
	}
	want := []gdocs.Op{
		gdocs.InsertText(40, "d"),
		gdocs.InsertText(10, "a"),
	}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("ops mismatch:\n got: %+v\nwant: %+v", ops, want)
	}
}

func TestPopulateOpsAllEmptyGrid(t *testing.T) {
	ops, ok := populateOps(markdown.TableGrid{{"", ""}}, [][]int64{{5, 7}})
	if !ok {
		t.Fatal("expected population to proceed")
	}
	if len(ops) != 0 {
		t.Fatalf("expected no operations for an all empty grid, got %+v", ops)
	}
}

func TestPopulateOpsGridMismatch(t *testing.T) {
	grid := markdown.TableGrid{{"a", "b"}, {"1", "2"}}

	cases := []struct {
		name  string
		cells [][]int64
	}{
		{"no_cells", nil},
		{"missing_row", [][]int64{{10, 20}}},
		{"extra_row", [][]int64{{10, 20}, {30, 40}, {50, 60}}},
		{"short_row", [][]int64{{10, 20}, {30}}},
		{"wide_row", [][]int64{{10, 20, 25}, {30, 40}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ops, ok := populateOps(grid, c.cells)
			if ok {
				t.Fatal("expected population to be refused")
			}
			if ops != nil {
				t.Fatalf("expected no operations, got %+v", ops)
			}
		})
	}
}

func TestMaterializeTable(t *testing.T) {
	fake := gdocs.NewFake("doc1", "Doc")
	e := NewEngine(fake, fake, zaptest.NewLogger(t))

	grid := markdown.TableGrid{{"a", "b"}, {"1", "2"}}
	state, err := e.materializeTable(context.Background(), "doc1", grid, 1)
	if err != nil {
		t.Fatalf("materializeTable: %v", err)
	}
	if state != TablePopulated {
		t.Fatalf("state = %s, expected %s", state, TablePopulated)
	}

	want := [][]gdocs.Op{
		{gdocs.InsertTable(1, 2, 2)},
		{
			gdocs.InsertText(12, "2"),
			gdocs.InsertText(10, "1"),
			gdocs.InsertText(7, "b"),
			gdocs.InsertText(5, "a"),
		},
	}
	if !reflect.DeepEqual(fake.Batches, want) {
		t.Fatalf("batches mismatch:\n got: %+v\nwant: %+v", fake.Batches, want)
	}
	if got := fake.PlainText(); got != "\na\nb\n1\n2\n\n" {
		t.Fatalf("document text %q", got)
	}
}

func TestMaterializeTableAbandonsOnGridMismatch(t *testing.T) {
	fake := gdocs.NewFake("doc1", "Doc")
	fake.ReadHook = func(doc *docs.Document) {
		for _, el := range doc.Body.Content {
			if el.Table != nil {
				el.Table.TableRows = el.Table.TableRows[:1]
			}
		}
	}
	e := NewEngine(fake, fake, zaptest.NewLogger(t))

	grid := markdown.TableGrid{{"a", "b"}, {"1", "2"}}
	state, err := e.materializeTable(context.Background(), "doc1", grid, 1)
	if err != nil {
		t.Fatalf("materializeTable: %v", err)
	}
	if state != TableAbandoned {
		t.Fatalf("state = %s, expected %s", state, TableAbandoned)
	}
	if len(fake.Batches) != 1 {
		t.Fatalf("expected the creation batch only, got %d batches", len(fake.Batches))
	}
}

func TestMaterializeTableCreateFailure(t *testing.T) {
	fake := gdocs.NewFake("doc1", "Doc")
	fake.NextBatchErr = errors.New("backend unavailable")
	e := NewEngine(fake, fake, zaptest.NewLogger(t))

	state, err := e.materializeTable(context.Background(), "doc1", markdown.TableGrid{{"a"}}, 1)
	if err == nil {
		t.Fatal("expected the creation failure to surface")
	}
	if state != TableEmpty {
		t.Fatalf("state = %s, expected %s", state, TableEmpty)
	}
	if len(fake.Batches) != 0 {
		t.Fatalf("expected no applied batches, got %d", len(fake.Batches))
	}
}
