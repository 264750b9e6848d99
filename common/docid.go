// Package common implements document reference handling shared by CLI, MCP
// server and conversion code.
package common

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gosimple/slug"
)

// ExtractDocID extracts document id from a Google Docs URL or returns input
// unchanged when it is already a bare id.
//
// Recognized URL forms:
//
//	https://docs.google.com/document/d/{ID}/edit
//	https://docs.google.com/document/d/{ID}/edit?usp=sharing
//	https://docs.google.com/document/d/{ID}
func ExtractDocID(ref string) (string, error) {
	s := strings.TrimSpace(ref)
	if s == "" {
		return "", fmt.Errorf("empty document reference")
	}

	if !strings.HasPrefix(s, "http") {
		// Assume bare document id.
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unable to parse document url %q: %w", ref, err)
	}
	parts := strings.Split(u.Path, "/")
	for i, p := range parts {
		if p == "d" {
			if i+1 < len(parts) && parts[i+1] != "" {
				return parts[i+1], nil
			}
			break
		}
	}
	return "", fmt.Errorf("unable to extract document id from url %q", ref)
}

// Slug derives file name friendly identifier from a document title. Empty
// result (empty title or title without usable characters) becomes "untitled"
// so callers always get a valid name.
func Slug(title string) string {
	if s := slug.Make(title); s != "" {
		return s
	}
	return "untitled"
}
