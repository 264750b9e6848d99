package convert

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"docmd/markdown"
)

// Excerpter produces short plain text excerpts from markdown bodies, used
// when recording pulled documents locally.
type Excerpter struct {
	tok *sentences.DefaultSentenceTokenizer
}

func NewExcerpter() (*Excerpter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("unable to load sentence tokenizer: %w", err)
	}
	return &Excerpter{tok: tok}, nil
}

// Excerpt returns up to max sentences of the body as a single line of plain
// text. Markup is stripped first so sentence detection sees prose, tables
// and code blocks carry no prose and are skipped whole.
func (x *Excerpter) Excerpt(md string, max int) string {
	plain := plainText(md)
	if plain == "" || max <= 0 {
		return ""
	}

	var parts []string
	for _, s := range x.tok.Tokenize(plain) {
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		parts = append(parts, t)
		if len(parts) == max {
			break
		}
	}
	return strings.Join(parts, " ")
}

func plainText(md string) string {
	var b strings.Builder
	inFence := false
	for _, line := range strings.Split(md, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "```") {
			inFence = !inFence
			continue
		}
		if inFence || stripped == "" || strings.HasPrefix(stripped, "|") {
			continue
		}
		if m := reHeading.FindStringSubmatch(stripped); m != nil {
			stripped = m[2]
		} else if m := reBullet.FindStringSubmatch(line); m != nil {
			stripped = m[2]
		} else if m := reNumbered.FindStringSubmatch(line); m != nil {
			stripped = m[3]
		}
		clean, _ := markdown.ParseInline(stripped)
		if clean == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(clean)
	}
	return b.String()
}
