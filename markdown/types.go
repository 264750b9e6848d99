// Package markdown implements the markup side of the conversion engine:
// inline formatting extraction and block segmentation of a markdown body
// into content and table runs.
package markdown

// SpanKind distinguishes inline formatting kinds.
type SpanKind string

const (
	SpanBold       SpanKind = "bold"
	SpanItalic     SpanKind = "italic"
	SpanBoldItalic SpanKind = "bold_italic"
	SpanLink       SpanKind = "link"
	SpanCode       SpanKind = "code"
)

// Span is a contiguous clean text subrange carrying one formatting attribute.
// Positions are character offsets into the clean text returned by
// ParseInline, End is exclusive and always greater than Start. Spans
// produced by a single parse pass never overlap.
type Span struct {
	Start int
	End   int
	Kind  SpanKind
	URL   string // links only
}

// SegmentKind distinguishes the different kinds of body segments.
type SegmentKind string

const (
	SegmentContent SegmentKind = "content"
	SegmentTable   SegmentKind = "table"
)

// Segment is a maximal run of markup lines uniformly classified as flowing
// content or as a pipe table.
type Segment struct {
	Kind SegmentKind
	Text string    // content segments: raw markup joined with line breaks
	Grid TableGrid // table segments: rectangular cell data, header first
}

// TableGrid holds table cell text row by row. The first row is the header,
// every row carries the same number of cells.
type TableGrid [][]string

func (g TableGrid) Rows() int {
	return len(g)
}

func (g TableGrid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// EstimatedSpan returns the approximate number of document indexes an empty
// grid of this size occupies once the service normalizes it. The estimate is
// advisory, the real extent must be confirmed by re-reading the document.
func (g TableGrid) EstimatedSpan() int {
	return 2 + g.Rows()*(1+2*g.Cols()) + g.Rows()*g.Cols()
}
