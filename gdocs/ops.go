// Package gdocs talks to the document service: it models edit operations,
// translates them to API requests, locates insertion offsets in structure
// snapshots and implements both the real Google backed client and an in
// memory fake for tests.
package gdocs

import (
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
)

// OpKind distinguishes edit operation kinds.
type OpKind string

const (
	OpInsertText     OpKind = "insert_text"
	OpStyleText      OpKind = "style_text"
	OpStyleParagraph OpKind = "style_paragraph"
	OpCreateBullets  OpKind = "create_bullets"
	OpInsertTable    OpKind = "insert_table"
	OpDeleteRange    OpKind = "delete_range"
)

// Bullet presets understood by the service.
const (
	PresetBullet   = "BULLET_DISC_CIRCLE_SQUARE"
	PresetNumbered = "NUMBERED_DECIMAL_ALPHA_ROMAN"
)

// Range is a half open [Start, End) index range in document coordinates.
type Range struct {
	Start int64
	End   int64
}

// TextStyle carries the character formatting an OpStyleText applies. Only
// fields that are set end up in the request field mask, so a zero value is
// never sent.
type TextStyle struct {
	Bold      bool
	Italic    bool
	URL       string // non empty turns the range into a link
	Monospace bool   // code font plus light gray background
}

// Indent is the paragraph indentation applied to nested list items, both
// magnitudes in points.
type Indent struct {
	FirstLine float64
	Start     float64
}

// Op is a single edit operation. Kind selects the variant, the other fields
// carry the payload for that variant and are zero otherwise.
type Op struct {
	Kind OpKind

	Index int64  // insert_text, insert_table
	Text  string // insert_text

	Range Range // styling, bullets and delete variants

	Style      TextStyle // style_text
	NamedStyle string    // style_paragraph
	Indent     *Indent   // style_paragraph
	Preset     string    // create_bullets

	Rows int64 // insert_table
	Cols int64 // insert_table
}

// InsertText inserts text so that it occupies [at, at+len).
func InsertText(at int64, text string) Op {
	return Op{Kind: OpInsertText, Index: at, Text: text}
}

// StyleText applies character formatting to [start, end).
func StyleText(start, end int64, style TextStyle) Op {
	return Op{Kind: OpStyleText, Range: Range{Start: start, End: end}, Style: style}
}

// StyleHeading turns the paragraph covering [start, end) into a heading of
// the given level, 1 through 6.
func StyleHeading(start, end int64, level int) Op {
	return Op{
		Kind:       OpStyleParagraph,
		Range:      Range{Start: start, End: end},
		NamedStyle: fmt.Sprintf("HEADING_%d", level),
	}
}

// IndentForDepth returns the hanging indent used for a list item nested
// depth levels below the top level.
func IndentForDepth(depth int) Indent {
	return Indent{
		FirstLine: 18 + 36*float64(depth),
		Start:     36 * float64(depth+1),
	}
}

// StyleIndent applies list nesting indentation to the paragraph covering
// [start, end).
func StyleIndent(start, end int64, depth int) Op {
	indent := IndentForDepth(depth)
	return Op{Kind: OpStyleParagraph, Range: Range{Start: start, End: end}, Indent: &indent}
}

// CreateBullets attaches the given bullet preset to the paragraphs covering
// [start, end).
func CreateBullets(start, end int64, preset string) Op {
	return Op{Kind: OpCreateBullets, Range: Range{Start: start, End: end}, Preset: preset}
}

// InsertTable inserts an empty rows by cols table at the given index.
func InsertTable(at, rows, cols int64) Op {
	return Op{Kind: OpInsertTable, Index: at, Rows: rows, Cols: cols}
}

// DeleteRange removes document content in [start, end).
func DeleteRange(start, end int64) Op {
	return Op{Kind: OpDeleteRange, Range: Range{Start: start, End: end}}
}

// Code span presentation, fixed by the output format.
const (
	monospaceFont = "Courier New"
	codeShade     = 0.95
)

// request translates the operation into the corresponding API request.
func (op Op) request() (*docs.Request, error) {
	switch op.Kind {
	case OpInsertText:
		return &docs.Request{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: op.Index},
				Text:     op.Text,
			},
		}, nil

	case OpStyleText:
		style := &docs.TextStyle{}
		var fields []string
		if op.Style.Bold {
			style.Bold = true
			fields = append(fields, "bold")
		}
		if op.Style.Italic {
			style.Italic = true
			fields = append(fields, "italic")
		}
		if op.Style.URL != "" {
			style.Link = &docs.Link{Url: op.Style.URL}
			fields = append(fields, "link")
		}
		if op.Style.Monospace {
			style.WeightedFontFamily = &docs.WeightedFontFamily{FontFamily: monospaceFont}
			style.BackgroundColor = &docs.OptionalColor{
				Color: &docs.Color{
					RgbColor: &docs.RgbColor{Red: codeShade, Green: codeShade, Blue: codeShade},
				},
			}
			fields = append(fields, "weightedFontFamily", "backgroundColor")
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("style_text operation carries no style")
		}
		return &docs.Request{
			UpdateTextStyle: &docs.UpdateTextStyleRequest{
				Range:     op.apiRange(),
				TextStyle: style,
				Fields:    strings.Join(fields, ","),
			},
		}, nil

	case OpStyleParagraph:
		style := &docs.ParagraphStyle{}
		var fields []string
		if op.NamedStyle != "" {
			style.NamedStyleType = op.NamedStyle
			fields = append(fields, "namedStyleType")
		}
		if op.Indent != nil {
			style.IndentFirstLine = &docs.Dimension{Magnitude: op.Indent.FirstLine, Unit: "PT"}
			style.IndentStart = &docs.Dimension{Magnitude: op.Indent.Start, Unit: "PT"}
			fields = append(fields, "indentFirstLine", "indentStart")
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("style_paragraph operation carries no style")
		}
		return &docs.Request{
			UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
				Range:          op.apiRange(),
				ParagraphStyle: style,
				Fields:         strings.Join(fields, ","),
			},
		}, nil

	case OpCreateBullets:
		return &docs.Request{
			CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
				Range:        op.apiRange(),
				BulletPreset: op.Preset,
			},
		}, nil

	case OpInsertTable:
		return &docs.Request{
			InsertTable: &docs.InsertTableRequest{
				Location: &docs.Location{Index: op.Index},
				Rows:     op.Rows,
				Columns:  op.Cols,
			},
		}, nil

	case OpDeleteRange:
		return &docs.Request{
			DeleteContentRange: &docs.DeleteContentRangeRequest{
				Range: op.apiRange(),
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
}

func (op Op) apiRange() *docs.Range {
	return &docs.Range{StartIndex: op.Range.Start, EndIndex: op.Range.End}
}
