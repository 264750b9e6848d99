package convert

import (
	"context"

	"google.golang.org/api/drive/v3"
)

// CommentAuthor identifies who wrote a comment or reply.
type CommentAuthor struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// CommentReply is one reply inside a comment thread.
type CommentReply struct {
	ID           string        `json:"id"`
	Content      string        `json:"content"`
	HTMLContent  string        `json:"html_content"`
	Author       CommentAuthor `json:"author"`
	CreatedTime  string        `json:"created_time"`
	ModifiedTime string        `json:"modified_time"`
	Deleted      bool          `json:"deleted"`
}

// Comment is one comment thread anchored to the document, replies included.
type Comment struct {
	ID           string         `json:"id"`
	Content      string         `json:"content"`
	HTMLContent  string         `json:"html_content"`
	QuotedText   string         `json:"quoted_text"`
	Author       CommentAuthor  `json:"author"`
	CreatedTime  string         `json:"created_time"`
	ModifiedTime string         `json:"modified_time"`
	Resolved     bool           `json:"resolved"`
	Deleted      bool           `json:"deleted"`
	Replies      []CommentReply `json:"replies"`
}

// CommentThreads is the full comment listing of one document.
type CommentThreads struct {
	DocID    string    `json:"doc_id"`
	Count    int       `json:"comment_count"`
	Comments []Comment `json:"comments"`
}

// Comments lists comment threads on the document. Deleted comments stay out
// unless asked for, which the service handles itself. Resolved threads are
// filtered here after the fact since the listing API cannot.
func (e *Engine) Comments(ctx context.Context, docID string, includeResolved, includeDeleted bool) (*CommentThreads, error) {
	raw, err := e.comments.ListComments(ctx, docID, includeDeleted)
	if err != nil {
		return nil, err
	}

	out := &CommentThreads{DocID: docID, Comments: []Comment{}}
	for _, c := range raw {
		if !includeResolved && c.Resolved {
			continue
		}
		out.Comments = append(out.Comments, flattenComment(c))
	}
	out.Count = len(out.Comments)
	return out, nil
}

func flattenComment(c *drive.Comment) Comment {
	out := Comment{
		ID:           c.Id,
		Content:      c.Content,
		HTMLContent:  c.HtmlContent,
		Author:       flattenAuthor(c.Author),
		CreatedTime:  c.CreatedTime,
		ModifiedTime: c.ModifiedTime,
		Resolved:     c.Resolved,
		Deleted:      c.Deleted,
		Replies:      []CommentReply{},
	}
	if c.QuotedFileContent != nil {
		out.QuotedText = c.QuotedFileContent.Value
	}
	for _, r := range c.Replies {
		out.Replies = append(out.Replies, CommentReply{
			ID:           r.Id,
			Content:      r.Content,
			HTMLContent:  r.HtmlContent,
			Author:       flattenAuthor(r.Author),
			CreatedTime:  r.CreatedTime,
			ModifiedTime: r.ModifiedTime,
			Deleted:      r.Deleted,
		})
	}
	return out
}

func flattenAuthor(u *drive.User) CommentAuthor {
	a := CommentAuthor{Name: "Unknown"}
	if u != nil {
		if u.DisplayName != "" {
			a.Name = u.DisplayName
		}
		a.PhotoURL = u.PhotoLink
	}
	return a
}
