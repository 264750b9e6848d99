package gdocs

import (
	"context"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
)

// DocMeta is the document metadata surfaced to callers.
type DocMeta struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ModifiedTime string `json:"modifiedTime"`
	WebViewLink  string `json:"webViewLink"`
	Owner        string `json:"owner,omitempty"` // first owner's email, empty for shared drives
}

// Client is the editing surface of the document service. Mutating calls
// shift indexes of everything behind them, so after every applied batch the
// caller must re-read the structure before computing further offsets.
type Client interface {
	// ReadStructure returns the current structure snapshot of the document.
	ReadStructure(ctx context.Context, docID string) (*docs.Document, error)

	// BatchApply applies the operations in order as a single batch. Either
	// the whole batch is applied or none of it.
	BatchApply(ctx context.Context, docID string, ops []Op) error

	// Export renders the document into the given MIME type.
	Export(ctx context.Context, docID, mimeType string) ([]byte, error)

	// Metadata fetches the document metadata.
	Metadata(ctx context.Context, docID string) (*DocMeta, error)

	// UpdateTitle renames the document.
	UpdateTitle(ctx context.Context, docID, title string) error
}

// Commenter lists the comment threads attached to a document.
type Commenter interface {
	// ListComments returns the comments on the document across all pages.
	// Deleted comments are included only on request, resolved ones always
	// are and callers filter them.
	ListComments(ctx context.Context, docID string, includeDeleted bool) ([]*drive.Comment, error)
}

// Export MIME types the engine asks for.
const (
	MimeHTML = "text/html"
	MimeText = "text/plain"
)
