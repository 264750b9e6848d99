package htmlmd

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	// Exports occasionally carry webp payloads mislabeled as png.
	_ "golang.org/x/image/webp"
)

// Image is one embedded image lifted out of an export. Data holds the
// payload exactly as the export carried it, still base64 encoded, and
// Format is the type the export declared.
type Image struct {
	Name   string `json:"name"`
	Data   string `json:"data"`
	Format string `json:"format"`
}

// Payload decodes the base64 payload.
func (im Image) Payload() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(im.Data)
	if err != nil {
		return nil, fmt.Errorf("image %s: unable to decode payload: %w", im.Name, err)
	}
	return data, nil
}

// DetectFormat sniffs the payload and returns its actual format, falling
// back to the declared one when the content is not recognized. Exports are
// known to mislabel their data URIs.
func DetectFormat(data []byte, declared string) string {
	t, err := filetype.Match(data)
	if err != nil || t == filetype.Unknown {
		return declared
	}
	return t.Extension
}

// FitUnder proportionally downscales the image so neither dimension exceeds
// maxDim, re-encoding in the sniffed format. Payloads already inside the
// limit, or a maxDim of zero, come back unchanged.
func FitUnder(data []byte, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return data, nil
	}

	// Formats we cannot encode, webp among them, come back as png.
	format, err := imaging.FormatFromExtension(DetectFormat(data, "png"))
	if err != nil {
		format = imaging.PNG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, maxDim, maxDim, imaging.Lanczos), format); err != nil {
		return nil, fmt.Errorf("unable to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
