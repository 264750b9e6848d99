package gdocs

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Scopes cover everything the engine touches: document editing plus file
// metadata, exports and comments.
var Scopes = []string{docs.DocumentsScope, drive.DriveScope}

const (
	metaFields    = "id, name, modifiedTime, webViewLink, owners"
	commentFields = "comments(id,content,htmlContent,author,createdTime,modifiedTime,resolved,deleted,quotedFileContent," +
		"replies(id,content,htmlContent,author,createdTime,modifiedTime,deleted)),nextPageToken"
)

// Service implements Client and Commenter on top of the Docs and Drive
// APIs.
type Service struct {
	docs  *docs.Service
	drive *drive.Service
	log   *zap.Logger
}

// NewService builds a Service from an authenticated HTTP client.
func NewService(ctx context.Context, client *http.Client, log *zap.Logger) (*Service, error) {
	ds, err := docs.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create docs service: %w", err)
	}
	dr, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &Service{docs: ds, drive: dr, log: log}, nil
}

func (s *Service) ReadStructure(ctx context.Context, docID string) (*docs.Document, error) {
	doc, err := s.docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read document %s: %w", docID, err)
	}
	return doc, nil
}

func (s *Service) BatchApply(ctx context.Context, docID string, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	reqs := make([]*docs.Request, 0, len(ops))
	for _, op := range ops {
		req, err := op.request()
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}

	s.log.Debug("Applying edit batch", zap.String("id", docID), zap.Int("requests", len(reqs)))

	_, err := s.docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to apply batch of %d requests to %s: %w", len(reqs), docID, err)
	}
	return nil
}

func (s *Service) Export(ctx context.Context, docID, mimeType string) (_ []byte, rerr error) {
	resp, err := s.drive.Files.Export(docID, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to export document %s as %s: %w", docID, mimeType, err)
	}
	defer func() {
		rerr = multierr.Append(rerr, resp.Body.Close())
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s export of %s: %w", mimeType, docID, err)
	}
	return data, nil
}

func (s *Service) Metadata(ctx context.Context, docID string) (*DocMeta, error) {
	f, err := s.drive.Files.Get(docID).Fields(metaFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read metadata of %s: %w", docID, err)
	}
	meta := &DocMeta{
		ID:           f.Id,
		Name:         f.Name,
		ModifiedTime: f.ModifiedTime,
		WebViewLink:  f.WebViewLink,
	}
	if len(f.Owners) > 0 {
		meta.Owner = f.Owners[0].EmailAddress
	}
	return meta, nil
}

func (s *Service) UpdateTitle(ctx context.Context, docID, title string) error {
	if _, err := s.drive.Files.Update(docID, &drive.File{Name: title}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to rename document %s: %w", docID, err)
	}
	return nil
}

func (s *Service) ListComments(ctx context.Context, docID string, includeDeleted bool) ([]*drive.Comment, error) {
	var comments []*drive.Comment
	err := s.drive.Comments.List(docID).
		PageSize(100).
		IncludeDeleted(includeDeleted).
		Fields(commentFields).
		Pages(ctx, func(page *drive.CommentList) error {
			comments = append(comments, page.Comments...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to list comments of %s: %w", docID, err)
	}
	return comments, nil
}
