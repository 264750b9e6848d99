package htmlmd

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestNormalizeExport(t *testing.T) {
	const export = `<html><head><style>.c0{font-weight:700}</style></head><body>
<h1>Quarterly Plan</h1>
<p>An <b>important</b> update.</p>
<ul class="lst-kix_list_1-0"><li>top level</li></ul>
<ul class="lst-kix_list_1-2"><li>deep one</li><li>deep two</li></ul>
<p><img src="data:image/png;base64,iVBORw0KGgo="></p>
</body></html>`

	md, images, err := New().Normalize(export)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := strings.Join([]string{
		"# Quarterly Plan",
		"",
		"An **important** update.",
		"",
		"- top level",
		"",
		"\t\t- deep one",
		"\t\t- deep two",
		"",
		"![image](image-1.png)",
	}, "\n")
	if md != want {
		t.Fatalf("markdown mismatch:\n got: %q\nwant: %q", md, want)
	}

	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
	img := images[0]
	if img.Name != "image-1.png" || img.Format != "png" || img.Data != "iVBORw0KGgo=" {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestNormalizeImageNumberingCountsEveryImage(t *testing.T) {
	const export = `<body><p><img src="https://example.com/a.png"><img src="data:image/jpeg;base64,QUJD"></p></body>`

	md, images, err := New().Normalize(export)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if len(images) != 1 {
		t.Fatalf("expected 1 extracted image, got %d", len(images))
	}
	if images[0].Name != "image-2.jpeg" {
		t.Fatalf("expected sequence number to count the external image, got %q", images[0].Name)
	}
	if !strings.Contains(md, "![image](image-2.jpeg)") {
		t.Fatalf("placeholder not rewritten: %q", md)
	}
	if !strings.Contains(md, "https://example.com/a.png") {
		t.Fatalf("external image dropped: %q", md)
	}
}

func TestNormalizeStripsNoise(t *testing.T) {
	const export = `<body><script>alert(1)</script><style>p{}</style><p>kept</p><meta name="x"></body>`

	md, _, err := New().Normalize(export)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if md != "kept" {
		t.Fatalf("expected noise stripped down to %q, got %q", "kept", md)
	}
}

func TestNormalizeCollapsesBlankRuns(t *testing.T) {
	const export = `<body><p>one</p><p></p><p></p><p></p><p>two</p></body>`

	md, _, err := New().Normalize(export)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if strings.Contains(md, "\n\n\n") {
		t.Fatalf("blank runs not collapsed: %q", md)
	}
	if !strings.Contains(md, "one") || !strings.Contains(md, "two") {
		t.Fatalf("content lost: %q", md)
	}
}

func TestNestingDepth(t *testing.T) {
	cases := []struct {
		name string
		html string
		tag  string
		want int
	}{
		{"level_two", `<ul class="lst-kix_list_1-2"><li>x</li></ul>`, "ul", 2},
		{"level_zero_class", `<ul class="lst-kix_a-0"><li>x</li></ul>`, "ul", 0},
		{"ordered_list", `<ol class="lst-kix_a-1"><li>x</li></ol>`, "ol", 1},
		{"no_class", `<ul><li>x</li></ul>`, "ul", 0},
		{"other_classes", `<ul class="foo lst-kix_b-3 bar"><li>x</li></ul>`, "ul", 3},
		{"class_mid_token", `<ul class="xlst-kix_b-3"><li>x</li></ul>`, "ul", 0},
		{"not_a_list", `<p class="lst-kix_b-3">x</p>`, "p", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			node := findElement(t, c.html, c.tag)
			if got := nestingDepth(node); got != c.want {
				t.Fatalf("nestingDepth() = %d, expected %d", got, c.want)
			}
		})
	}
}

func TestIndentLinesSkipsBlank(t *testing.T) {
	got := indentLines("- a\n\n- b", 2)
	want := "\t\t- a\n\n\t\t- b"
	if got != want {
		t.Fatalf("indentLines() = %q, expected %q", got, want)
	}
}

func findElement(t *testing.T, fragment, tag string) *html.Node {
	t.Helper()

	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if found == nil {
		t.Fatalf("no <%s> in fragment %q", tag, fragment)
	}
	return found
}
