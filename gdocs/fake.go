package gdocs

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
)

// The fake document mirrors the service's linear index space: every index
// addresses either a single character or a structural marker. A fresh
// document holds the reserved section slot at index 0 and one empty
// paragraph, so the first writable index is 1. Inserting a table breaks the
// current paragraph with a newline and lays the table out right after it as
// one table marker plus, per row, a row marker followed by a cell marker and
// an empty paragraph per cell. The table marker carries the extent of the
// whole table so cell boundaries stay recoverable after cells gain text.

type atomKind uint8

const (
	atomSection atomKind = iota
	atomChar
	atomTableStart
	atomRowStart
	atomCellStart
)

type atom struct {
	kind atomKind
	ch   rune
	rows int // table marker only
	cols int
	span int // table marker only, total indexes covered by the table
}

// Fake is an in memory Client and Commenter for tests. It applies edit
// batches to the index space model, records them for assertions and renders
// structure snapshots equivalent to what the real service returns.
type Fake struct {
	ID    string
	Title string

	atoms []atom

	// Batches holds every successfully applied batch in order.
	Batches [][]Op

	// Exports maps MIME type to the payload Export returns.
	Exports map[string][]byte

	// Comments is returned by ListComments as is.
	Comments []*drive.Comment

	Meta DocMeta

	// ReadHook, when set, may doctor every snapshot before it is returned.
	ReadHook func(*docs.Document)

	// NextBatchErr fails the next BatchApply without applying anything.
	NextBatchErr error
}

// NewFake returns an empty document addressable under the given id.
func NewFake(id, title string) *Fake {
	return &Fake{
		ID:      id,
		Title:   title,
		atoms:   []atom{{kind: atomSection}, {kind: atomChar, ch: '\n'}},
		Exports: map[string][]byte{},
		Meta:    DocMeta{ID: id, Name: title},
	}
}

func (f *Fake) ReadStructure(_ context.Context, docID string) (*docs.Document, error) {
	if docID != f.ID {
		return nil, fmt.Errorf("unknown document %q", docID)
	}
	doc := f.render()
	if f.ReadHook != nil {
		f.ReadHook(doc)
	}
	return doc, nil
}

// BatchApply is atomic like the real service: a failing operation leaves the
// document as it was.
func (f *Fake) BatchApply(_ context.Context, docID string, ops []Op) error {
	if docID != f.ID {
		return fmt.Errorf("unknown document %q", docID)
	}
	if err := f.NextBatchErr; err != nil {
		f.NextBatchErr = nil
		return err
	}

	staged := append([]atom(nil), f.atoms...)
	var err error
	for i, op := range ops {
		if staged, err = applyOp(staged, op); err != nil {
			return fmt.Errorf("request %d (%s): %w", i, op.Kind, err)
		}
	}
	f.atoms = staged
	f.Batches = append(f.Batches, append([]Op(nil), ops...))
	return nil
}

func (f *Fake) Export(_ context.Context, docID, mimeType string) ([]byte, error) {
	if docID != f.ID {
		return nil, fmt.Errorf("unknown document %q", docID)
	}
	data, ok := f.Exports[mimeType]
	if !ok {
		return nil, fmt.Errorf("no %s export for document %q", mimeType, docID)
	}
	return data, nil
}

func (f *Fake) Metadata(_ context.Context, docID string) (*DocMeta, error) {
	if docID != f.ID {
		return nil, fmt.Errorf("unknown document %q", docID)
	}
	meta := f.Meta
	return &meta, nil
}

func (f *Fake) UpdateTitle(_ context.Context, docID, title string) error {
	if docID != f.ID {
		return fmt.Errorf("unknown document %q", docID)
	}
	f.Title = title
	f.Meta.Name = title
	return nil
}

func (f *Fake) ListComments(_ context.Context, docID string, includeDeleted bool) ([]*drive.Comment, error) {
	if docID != f.ID {
		return nil, fmt.Errorf("unknown document %q", docID)
	}
	var comments []*drive.Comment
	for _, c := range f.Comments {
		if c.Deleted && !includeDeleted {
			continue
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// PlainText returns the character content of the document in index order,
// table cell text included.
func (f *Fake) PlainText() string {
	var sb strings.Builder
	for _, a := range f.atoms[1:] {
		if a.kind == atomChar {
			sb.WriteRune(a.ch)
		}
	}
	return sb.String()
}

// Ops returns all recorded operations flattened across batches.
func (f *Fake) Ops() []Op {
	var ops []Op
	for _, b := range f.Batches {
		ops = append(ops, b...)
	}
	return ops
}

func applyOp(atoms []atom, op Op) ([]atom, error) {
	switch op.Kind {
	case OpInsertText:
		return spliceText(atoms, op.Index, op.Text)
	case OpInsertTable:
		return spliceTable(atoms, op.Index, int(op.Rows), int(op.Cols))
	case OpDeleteRange:
		return deleteAtoms(atoms, op.Range)
	case OpStyleText, OpStyleParagraph, OpCreateBullets:
		// Styling moves nothing, only the range has to be addressable.
		if err := checkRange(atoms, op.Range); err != nil {
			return nil, err
		}
		return atoms, nil
	}
	return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
}

func spliceText(atoms []atom, at int64, text string) ([]atom, error) {
	if err := checkInsertAt(atoms, at); err != nil {
		return nil, err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, fmt.Errorf("empty text insert at %d", at)
	}
	atoms = growTableAround(atoms, int(at), len(runes))
	ins := make([]atom, 0, len(runes))
	for _, r := range runes {
		ins = append(ins, atom{kind: atomChar, ch: r})
	}
	return splice(atoms, int(at), ins), nil
}

func spliceTable(atoms []atom, at int64, rows, cols int) ([]atom, error) {
	if err := checkInsertAt(atoms, at); err != nil {
		return nil, err
	}
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("invalid table shape %dx%d", rows, cols)
	}

	span := 1 + rows*(1+2*cols)
	ins := make([]atom, 0, span+1)
	ins = append(ins,
		atom{kind: atomChar, ch: '\n'},
		atom{kind: atomTableStart, rows: rows, cols: cols, span: span})
	for r := 0; r < rows; r++ {
		ins = append(ins, atom{kind: atomRowStart})
		for c := 0; c < cols; c++ {
			ins = append(ins, atom{kind: atomCellStart}, atom{kind: atomChar, ch: '\n'})
		}
	}
	return splice(atoms, int(at), ins), nil
}

func deleteAtoms(atoms []atom, r Range) ([]atom, error) {
	if err := checkRange(atoms, r); err != nil {
		return nil, err
	}
	if int(r.End) == len(atoms) {
		return nil, fmt.Errorf("range [%d, %d) removes the final paragraph break", r.Start, r.End)
	}

	s, e := int(r.Start), int(r.End)
	pos := 0
	for pos < len(atoms) {
		if atoms[pos].kind != atomTableStart {
			pos++
			continue
		}
		end := pos + atoms[pos].span
		switch {
		case end <= s || e <= pos:
			// Disjoint.
		case s <= pos && end <= e:
			// Wiped together with the surrounding content.
		case pos < s && e <= end:
			for i := s; i < e; i++ {
				if atoms[i].kind != atomChar {
					return nil, fmt.Errorf("range [%d, %d) cuts table structure", r.Start, r.End)
				}
			}
			atoms[pos].span -= e - s
		default:
			return nil, fmt.Errorf("range [%d, %d) crosses a table boundary", r.Start, r.End)
		}
		pos = end
	}

	out := make([]atom, 0, len(atoms)-(e-s))
	out = append(out, atoms[:s]...)
	out = append(out, atoms[e:]...)
	return out, nil
}

func splice(atoms []atom, at int, ins []atom) []atom {
	out := make([]atom, 0, len(atoms)+len(ins))
	out = append(out, atoms[:at]...)
	out = append(out, ins...)
	out = append(out, atoms[at:]...)
	return out
}

func checkInsertAt(atoms []atom, at int64) error {
	if at < 1 || int(at) >= len(atoms) {
		return fmt.Errorf("insertion index %d outside writable range [1, %d)", at, len(atoms))
	}
	if atoms[at].kind != atomChar {
		return fmt.Errorf("insertion index %d addresses structure, not text", at)
	}
	return nil
}

func checkRange(atoms []atom, r Range) error {
	if r.Start < 1 || r.End <= r.Start || int(r.End) > len(atoms) {
		return fmt.Errorf("invalid range [%d, %d) in a document of %d indexes", r.Start, r.End, len(atoms))
	}
	return nil
}

// growTableAround extends the extent of the table enclosing position at, if
// any, by delta slots.
func growTableAround(atoms []atom, at, delta int) []atom {
	pos := 0
	for pos < len(atoms) {
		if atoms[pos].kind != atomTableStart {
			pos++
			continue
		}
		end := pos + atoms[pos].span
		if at > pos && at < end {
			atoms[pos].span += delta
			return atoms
		}
		pos = end
	}
	return atoms
}

func (f *Fake) render() *docs.Document {
	body := []*docs.StructuralElement{
		{EndIndex: 1, SectionBreak: &docs.SectionBreak{}},
	}
	i := 1
	for i < len(f.atoms) {
		if f.atoms[i].kind == atomTableStart {
			el, next := f.renderTable(i)
			body = append(body, el)
			i = next
			continue
		}
		els, next := f.renderParagraphs(i, len(f.atoms))
		body = append(body, els...)
		i = next
	}
	return &docs.Document{
		DocumentId: f.ID,
		Title:      f.Title,
		Body:       &docs.Body{Content: body},
	}
}

// renderParagraphs turns the character run starting at from into newline
// terminated paragraph elements, stopping at the first marker or at limit.
func (f *Fake) renderParagraphs(from, limit int) ([]*docs.StructuralElement, int) {
	var els []*docs.StructuralElement
	i := from
	for i < limit && f.atoms[i].kind == atomChar {
		start := i
		var sb strings.Builder
		for i < limit && f.atoms[i].kind == atomChar {
			ch := f.atoms[i].ch
			sb.WriteRune(ch)
			i++
			if ch == '\n' {
				break
			}
		}
		els = append(els, paragraphElement(int64(start), int64(i), sb.String()))
	}
	return els, i
}

func paragraphElement(start, end int64, text string) *docs.StructuralElement {
	return &docs.StructuralElement{
		StartIndex: start,
		EndIndex:   end,
		Paragraph: &docs.Paragraph{
			Elements: []*docs.ParagraphElement{
				{StartIndex: start, EndIndex: end, TextRun: &docs.TextRun{Content: text}},
			},
		},
	}
}

func (f *Fake) renderTable(at int) (*docs.StructuralElement, int) {
	t := f.atoms[at]
	end := at + t.span

	table := &docs.Table{Rows: int64(t.rows), Columns: int64(t.cols)}
	i := at + 1
	for r := 0; r < t.rows; r++ {
		row := &docs.TableRow{StartIndex: int64(i)}
		i++ // row marker
		for c := 0; c < t.cols; c++ {
			cell := &docs.TableCell{StartIndex: int64(i)}
			i++ // cell marker
			els, next := f.renderParagraphs(i, end)
			cell.Content = els
			i = next
			cell.EndIndex = int64(i)
			row.TableCells = append(row.TableCells, cell)
		}
		row.EndIndex = int64(i)
		table.TableRows = append(table.TableRows, row)
	}

	return &docs.StructuralElement{
		StartIndex: int64(at),
		EndIndex:   int64(end),
		Table:      table,
	}, end
}
