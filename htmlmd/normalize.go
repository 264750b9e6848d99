// Package htmlmd turns exported document HTML back into markdown. The
// export is noisy: style and script nodes, inline base64 image payloads and
// flattened list nesting that survives only as a class attribute hint. The
// normalizer strips the noise, lifts images out into named attachments and
// reconstructs list nesting before handing the tree to the markdown
// converter.
package htmlmd

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

var (
	reListClass = regexp.MustCompile(`^lst-\w+-(\d+)`)
	reDataImage = regexp.MustCompile(`^data:image/(\w+);base64,(.+)`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)

	// The placeholder is shaped like a URI so the converter's link handling
	// passes it through untouched.
	rePlaceholder = regexp.MustCompile(`!\[\]\(` + placeholderScheme + `([^)\s]+)\)`)
)

const placeholderScheme = "doc-image://"

var noiseTags = map[string]bool{
	"style":  true,
	"script": true,
	"meta":   true,
	"link":   true,
}

// Normalizer converts exported document HTML to markdown.
type Normalizer struct {
	conv *converter.Converter
}

func New() *Normalizer {
	return &Normalizer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Normalize converts one exported HTML document to markdown. Embedded
// base64 images are replaced by name references in the output and returned
// separately, payloads still base64 encoded.
func (n *Normalizer) Normalize(doc string) (string, []Image, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", nil, fmt.Errorf("unable to parse export: %w", err)
	}

	stripNoise(root)
	images := extractImages(root)

	md, err := n.convertBody(findBody(root))
	if err != nil {
		return "", nil, err
	}

	md = rePlaceholder.ReplaceAllString(md, "![image]($1)")
	md = reBlankRuns.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md), images, nil
}

// convertBody walks the top level elements in order. Runs of ordinary
// elements convert together so the converter sees their context, while
// lists carrying a nesting hint convert alone and get their tab prefix
// applied to every non-blank output line.
func (n *Normalizer) convertBody(body *html.Node) (string, error) {
	var parts []string
	var run bytes.Buffer

	flush := func() error {
		if run.Len() == 0 {
			return nil
		}
		md, err := n.conv.ConvertString(run.String())
		if err != nil {
			return fmt.Errorf("unable to convert export chunk: %w", err)
		}
		run.Reset()
		if md = strings.TrimSpace(md); md != "" {
			parts = append(parts, md)
		}
		return nil
	}

	for child := body.FirstChild; child != nil; child = child.NextSibling {
		depth := nestingDepth(child)
		if depth == 0 {
			if err := html.Render(&run, child); err != nil {
				return "", fmt.Errorf("unable to render export node: %w", err)
			}
			continue
		}
		if err := flush(); err != nil {
			return "", err
		}

		var list bytes.Buffer
		if err := html.Render(&list, child); err != nil {
			return "", fmt.Errorf("unable to render export node: %w", err)
		}
		md, err := n.conv.ConvertString(list.String())
		if err != nil {
			return "", fmt.Errorf("unable to convert list: %w", err)
		}
		if md = strings.TrimSpace(md); md != "" {
			parts = append(parts, indentLines(md, depth))
		}
	}
	if err := flush(); err != nil {
		return "", err
	}

	return strings.Join(parts, "\n\n"), nil
}

// nestingDepth reads the list nesting level the export flattens into a
// class like lst-kix_abc123-2 on the list element. Anything without such a
// class, list or not, is at depth zero.
func nestingDepth(n *html.Node) int {
	if n.Type != html.ElementNode || (n.Data != "ul" && n.Data != "ol") {
		return 0
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(attr.Val) {
			if m := reListClass.FindStringSubmatch(cls); m != nil {
				level, err := strconv.Atoi(m[1])
				if err == nil {
					return level
				}
			}
		}
	}
	return 0
}

// indentLines prefixes every non-blank line with depth tab characters.
func indentLines(text string, depth int) string {
	indent := strings.Repeat("\t", depth)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// extractImages numbers every image element in document order and lifts
// inline base64 payloads out, pointing the element at a placeholder that is
// resolved after conversion. Images with external sources keep their
// sequence number but are left alone.
func extractImages(root *html.Node) []Image {
	var images []Image
	seq := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			seq++
			for i, attr := range n.Attr {
				if attr.Key != "src" {
					continue
				}
				if m := reDataImage.FindStringSubmatch(attr.Val); m != nil {
					name := fmt.Sprintf("image-%d.%s", seq, m[1])
					images = append(images, Image{Name: name, Data: m[2], Format: m[1]})
					n.Attr[i].Val = placeholderScheme + name
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return images
}

// stripNoise removes presentation and metadata nodes with everything in
// them.
func stripNoise(root *html.Node) {
	var doomed []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && noiseTags[n.Data] {
			doomed = append(doomed, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func findBody(root *html.Node) *html.Node {
	var body *html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if body == nil {
		return root
	}
	return body
}
