package convert

import (
	"archive/zip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"

	"docmd/archive"
	"docmd/htmlmd"
)

// Bundle layout: the markdown body, a metadata sidecar and one file per
// extracted image.
const (
	bundleDocName  = "document.md"
	bundleMetaName = "meta.json"
	bundleImageDir = "images"
)

// BundleMeta is the sidecar stored next to the markdown body.
type BundleMeta struct {
	Title        string `json:"title"`
	DocID        string `json:"doc_id"`
	LastModified string `json:"last_modified"`
	Slug         string `json:"slug"`
	URL          string `json:"url"`
}

// Bundle is one pulled document unpacked from or headed into an archive.
type Bundle struct {
	Markdown string
	Meta     BundleMeta
	Images   []htmlmd.Image
}

// WriteBundle stores a pulled document with its images as a single zip
// archive. The archive is assembled in a temporary file first. With fixZip
// set it is then rewritten entry by entry, which drops data descriptors some
// readers dislike.
func WriteBundle(outputPath string, pull *PullResult, fixZip bool) (err error) {
	tmpName := outputPath + ".tmp"

	f, err := os.Create(tmpName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer f.Close()
	defer os.Remove(tmpName)

	zw := zip.NewWriter(f)
	defer zw.Close()

	w, err := zw.Create(bundleDocName)
	if err != nil {
		return fmt.Errorf("unable to create bundle entry: %w", err)
	}
	if _, err := io.WriteString(w, pull.Markdown); err != nil {
		return fmt.Errorf("unable to write markdown: %w", err)
	}

	meta, err := json.MarshalIndent(BundleMeta{
		Title:        pull.Meta.Name,
		DocID:        pull.Meta.ID,
		LastModified: pull.Meta.ModifiedTime,
		Slug:         pull.Slug,
		URL:          pull.Meta.WebViewLink,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal bundle metadata: %w", err)
	}
	if w, err = zw.Create(bundleMetaName); err != nil {
		return fmt.Errorf("unable to create bundle entry: %w", err)
	}
	if _, err := w.Write(meta); err != nil {
		return fmt.Errorf("unable to write metadata: %w", err)
	}

	for _, im := range pull.Images {
		data, err := im.Payload()
		if err != nil {
			return err
		}
		if w, err = zw.Create(path.Join(bundleImageDir, im.Name)); err != nil {
			return fmt.Errorf("unable to create bundle entry: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("unable to write image %s: %w", im.Name, err)
		}
	}

	// make sure buffers are flushed before rewriting
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close bundle archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize bundle file: %w", err)
	}

	if !fixZip {
		if err := os.Rename(tmpName, outputPath); err != nil {
			return fmt.Errorf("unable to move bundle into place: %w", err)
		}
		return nil
	}
	return copyZipWithoutDataDescriptors(tmpName, outputPath)
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

// ReadBundle loads a bundle archive back into memory. Image payloads come
// back base64 encoded, matching the form they had when pulled.
func ReadBundle(bundlePath string) (*Bundle, error) {
	b := &Bundle{}
	seenDoc := false

	err := archive.Walk(bundlePath, "", func(_ string, f *zip.File) error {
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open bundle entry %s: %w", f.FileHeader.Name, err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read bundle entry %s: %w", f.FileHeader.Name, err)
		}

		name := f.FileHeader.Name
		switch {
		case name == bundleDocName:
			b.Markdown = string(data)
			seenDoc = true
		case name == bundleMetaName:
			if err := json.Unmarshal(data, &b.Meta); err != nil {
				return fmt.Errorf("unable to parse bundle metadata: %w", err)
			}
		case strings.HasPrefix(name, bundleImageDir+"/"):
			base := path.Base(name)
			b.Images = append(b.Images, htmlmd.Image{
				Name:   base,
				Data:   base64.StdEncoding.EncodeToString(data),
				Format: strings.TrimPrefix(path.Ext(base), "."),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !seenDoc {
		return nil, errors.New("bundle has no document entry")
	}

	// Archives list entries in whatever order they were written, bring
	// images back to the order the document references them in.
	sort.Slice(b.Images, func(i, j int) bool {
		return natural.Less(b.Images[i].Name, b.Images[j].Name)
	})
	return b, nil
}
