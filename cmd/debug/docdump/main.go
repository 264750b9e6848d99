// docdump reads a document structure snapshot (documents.get JSON, the form
// the Docs API returns) and prints the structural tree with index ranges.
// Ranges are in UTF-16 code units, the same units every editing request
// uses, which makes the dump handy when chasing offset arithmetic.
//
// A snapshot can be saved from the API explorer or from any tool that keeps
// raw documents.get responses around.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	docs "google.golang.org/api/docs/v1"

	"docmd/gdocs"
	"docmd/utils/debug"
)

const runSnippetLen = 60

func main() {
	runs := flag.Bool("runs", false, "include text run content in the dump")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: docdump [-runs] <structure.json>\n\n")
		fmt.Fprintf(os.Stderr, "Reads a documents.get JSON snapshot and prints the structural tree with index ranges.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	defer func(startedAt time.Time) {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", time.Since(startedAt))
	}(time.Now())

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	var doc docs.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "document %q", doc.Title)
	if doc.Body == nil {
		tw.Line(1, "no body")
	} else {
		dumpContent(tw, 1, doc.Body.Content, *runs)
	}
	tw.Line(0, "append index: %d", gdocs.AppendIndex(&doc))

	fmt.Print(tw.String())
}

func dumpContent(tw *debug.TreeWriter, depth int, content []*docs.StructuralElement, runs bool) {
	for _, se := range content {
		switch {
		case se.Paragraph != nil:
			dumpParagraph(tw, depth, se, runs)
		case se.Table != nil:
			dumpTable(tw, depth, se, runs)
		case se.SectionBreak != nil:
			tw.Line(depth, "section break [%d, %d)", se.StartIndex, se.EndIndex)
		case se.TableOfContents != nil:
			tw.Line(depth, "table of contents [%d, %d)", se.StartIndex, se.EndIndex)
		default:
			tw.Line(depth, "unknown element [%d, %d)", se.StartIndex, se.EndIndex)
		}
	}
}

func dumpParagraph(tw *debug.TreeWriter, depth int, se *docs.StructuralElement, runs bool) {
	p := se.Paragraph

	style := "NORMAL_TEXT"
	if p.ParagraphStyle != nil && len(p.ParagraphStyle.NamedStyleType) > 0 {
		style = p.ParagraphStyle.NamedStyleType
	}
	if p.Bullet != nil {
		tw.Line(depth, "paragraph %s [%d, %d) list=%s nesting=%d",
			style, se.StartIndex, se.EndIndex, p.Bullet.ListId, p.Bullet.NestingLevel)
	} else {
		tw.Line(depth, "paragraph %s [%d, %d)", style, se.StartIndex, se.EndIndex)
	}

	if !runs {
		return
	}
	for _, el := range p.Elements {
		if el.TextRun == nil {
			tw.Line(depth+1, "non-text element [%d, %d)", el.StartIndex, el.EndIndex)
			continue
		}
		label := fmt.Sprintf("run%s [%d, %d)", runFlags(el.TextRun.TextStyle), el.StartIndex, el.EndIndex)
		tw.Snippet(depth+1, label, el.TextRun.Content, runSnippetLen)
	}
}

func dumpTable(tw *debug.TreeWriter, depth int, se *docs.StructuralElement, runs bool) {
	t := se.Table
	tw.Line(depth, "table %dx%d [%d, %d)", t.Rows, t.Columns, se.StartIndex, se.EndIndex)
	for ri, row := range t.TableRows {
		tw.Line(depth+1, "row %d [%d, %d)", ri, row.StartIndex, row.EndIndex)
		for ci, cell := range row.TableCells {
			tw.Line(depth+2, "cell %d,%d [%d, %d)", ri, ci, cell.StartIndex, cell.EndIndex)
			dumpContent(tw, depth+3, cell.Content, runs)
		}
	}
}

func runFlags(ts *docs.TextStyle) string {
	if ts == nil {
		return ""
	}
	var flags []string
	if ts.Bold {
		flags = append(flags, "bold")
	}
	if ts.Italic {
		flags = append(flags, "italic")
	}
	if ts.Link != nil && len(ts.Link.Url) > 0 {
		flags = append(flags, "link")
	}
	if ts.WeightedFontFamily != nil && len(ts.WeightedFontFamily.FontFamily) > 0 {
		flags = append(flags, ts.WeightedFontFamily.FontFamily)
	}
	if len(flags) == 0 {
		return ""
	}
	return " (" + strings.Join(flags, ",") + ")"
}
