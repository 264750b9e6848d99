package convert

import (
	"reflect"
	"testing"

	"docmd/gdocs"
)

func TestCompileContent(t *testing.T) {
	cases := []struct {
		name string
		text string
		base int64
		ops  []gdocs.Op
		end  int64
	}{
		{
			name: "empty_input_is_one_blank",
			text: "",
			base: 1,
			ops:  []gdocs.Op{gdocs.InsertText(1, "\n")},
			end:  2,
		},
		{
			name: "blank_lines",
			text: "\n",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "\n"),
				gdocs.InsertText(2, "\n"),
			},
			end: 3,
		},
		{
			name: "heading_with_span",
			text: "## Section **b**",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "Section b\n"),
				gdocs.StyleHeading(1, 11, 2),
				gdocs.StyleText(9, 10, gdocs.TextStyle{Bold: true}),
			},
			end: 11,
		},
		{
			name: "heading_range_includes_line_break",
			text: "# Title",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "Title\n"),
				gdocs.StyleHeading(1, 7, 1),
			},
			end: 7,
		},
		{
			name: "bullet_item",
			text: "- item",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "item\n"),
				gdocs.CreateBullets(1, 6, gdocs.PresetBullet),
			},
			end: 6,
		},
		{
			name: "nested_bullet_gets_indent",
			text: "\t\t- deep *i*",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "deep i\n"),
				gdocs.CreateBullets(1, 8, gdocs.PresetBullet),
				gdocs.StyleIndent(1, 8, 2),
				gdocs.StyleText(6, 7, gdocs.TextStyle{Italic: true}),
			},
			end: 8,
		},
		{
			name: "numbered_item_drops_number",
			text: "3. third",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "third\n"),
				gdocs.CreateBullets(1, 7, gdocs.PresetNumbered),
			},
			end: 7,
		},
		{
			name: "code_block_verbatim",
			text: "```\ncode **not bold**\n\ttabbed\n```",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "code **not bold**\n\ttabbed\n"),
				gdocs.StyleText(1, 27, gdocs.TextStyle{Monospace: true}),
			},
			end: 27,
		},
		{
			name: "empty_code_block_is_skipped",
			text: "```\n```",
			base: 1,
			ops:  nil,
			end:  1,
		},
		{
			name: "unterminated_code_block",
			text: "```\nabc",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "abc\n"),
				gdocs.StyleText(1, 5, gdocs.TextStyle{Monospace: true}),
			},
			end: 5,
		},
		{
			name: "paragraph_with_link",
			text: "See [docs](https://x) now",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "See docs now\n"),
				gdocs.StyleText(5, 9, gdocs.TextStyle{URL: "https://x"}),
			},
			end: 14,
		},
		{
			name: "offsets_count_characters_not_bytes",
			text: "héllo **wörld**",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "héllo wörld\n"),
				gdocs.StyleText(7, 12, gdocs.TextStyle{Bold: true}),
			},
			end: 13,
		},
		{
			name: "base_offset_is_honored",
			text: "# Later",
			base: 42,
			ops: []gdocs.Op{
				gdocs.InsertText(42, "Later\n"),
				gdocs.StyleHeading(42, 48, 1),
			},
			end: 48,
		},
		{
			name: "list_marker_needs_space",
			text: "-nodash",
			base: 1,
			ops: []gdocs.Op{
				gdocs.InsertText(1, "-nodash\n"),
			},
			end: 9,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ops, end := compileContent(c.text, c.base)
			if !reflect.DeepEqual(ops, c.ops) {
				t.Fatalf("ops mismatch:\n got: %+v\nwant: %+v", ops, c.ops)
			}
			if end != c.end {
				t.Fatalf("end offset = %d, expected %d", end, c.end)
			}
		})
	}
}

func TestCompileContentLineOrder(t *testing.T) {
	// Every line's operations must come out grouped and in source order so a
	// single batch replays top to bottom.
	ops, end := compileContent("# H\n\npara **b**", 1)

	want := []gdocs.Op{
		gdocs.InsertText(1, "H\n"),
		gdocs.StyleHeading(1, 3, 1),
		gdocs.InsertText(3, "\n"),
		gdocs.InsertText(4, "para b\n"),
		gdocs.StyleText(9, 10, gdocs.TextStyle{Bold: true}),
	}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("ops mismatch:\n got: %+v\nwant: %+v", ops, want)
	}
	if end != 11 {
		t.Fatalf("end offset = %d, expected 11", end)
	}
}
