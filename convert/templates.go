package convert

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"docmd/gdocs"
)

// Values is a struct that holds variables we make available for output name
// template expansion.
type Values struct {
	Title string // document title as stored remotely
	Slug  string // filesystem safe form of the title
	ID    string // document id
	Date  string // last modification date, yyyy-mm-dd
	Ext   string // output extension without the dot
}

func buildDate(modified string) string {
	t, err := time.Parse(time.RFC3339, modified)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func buildValues(meta *gdocs.DocMeta, slug, ext string) Values {
	return Values{
		Title: meta.Name,
		Slug:  slug,
		ID:    meta.ID,
		Date:  buildDate(meta.ModifiedTime),
		Ext:   ext,
	}
}

func expandOutputName(field string, meta *gdocs.DocMeta, slug, ext string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New("output_name").Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse output name template: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, buildValues(meta, slug, ext)); err != nil {
		return "", fmt.Errorf("unable to expand output name template: %w", err)
	}
	return buf.String(), nil
}
