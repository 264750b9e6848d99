package convert

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"google.golang.org/api/drive/v3"

	"docmd/gdocs"
)

func TestCommentsEmptyDocument(t *testing.T) {
	e, _ := newTestEngine(t)

	threads, err := e.Comments(context.Background(), "doc1", true, false)
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if threads.DocID != "doc1" || threads.Count != 0 {
		t.Fatalf("threads %+v", threads)
	}

	// Empty listings must serialize as lists, not null.
	data, err := json.Marshal(threads)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"comments":[]`) {
		t.Fatalf("payload %s", data)
	}
}

func TestCommentsFlattening(t *testing.T) {
	fake := gdocs.NewFake("doc1", "Doc")
	fake.Comments = []*drive.Comment{
		{
			Id:          "c1",
			Content:     "Check this",
			HtmlContent: "<p>Check this</p>",
			Author:      &drive.User{DisplayName: "Reviewer", PhotoLink: "https://p/1.png"},
			CreatedTime: "2026-08-20T08:00:00Z",
			QuotedFileContent: &drive.CommentQuotedFileContent{
				MimeType: "text/html",
				Value:    "the passage",
			},
			Replies: []*drive.Reply{
				{Id: "r1", Content: "Fixed", Author: &drive.User{PhotoLink: "https://p/2.png"}, Deleted: true},
			},
		},
	}
	e := NewEngine(fake, fake, zaptest.NewLogger(t))

	threads, err := e.Comments(context.Background(), "doc1", true, false)
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if threads.Count != 1 {
		t.Fatalf("threads %+v", threads)
	}

	c := threads.Comments[0]
	if c.Author.Name != "Reviewer" || c.Author.PhotoURL != "https://p/1.png" {
		t.Errorf("author %+v", c.Author)
	}
	if c.QuotedText != "the passage" {
		t.Errorf("quoted_text %q", c.QuotedText)
	}
	if c.HTMLContent != "<p>Check this</p>" {
		t.Errorf("html_content %q", c.HTMLContent)
	}

	if len(c.Replies) != 1 {
		t.Fatalf("replies %+v", c.Replies)
	}
	r := c.Replies[0]
	if r.Author.Name != "Unknown" || r.Author.PhotoURL != "https://p/2.png" {
		t.Errorf("reply author falls back to Unknown when unnamed, got %+v", r.Author)
	}
	if !r.Deleted {
		t.Error("reply deleted flag was dropped")
	}
}

func TestCommentsFilterMatrix(t *testing.T) {
	seed := []*drive.Comment{
		{Id: "open", Content: "open"},
		{Id: "resolved", Content: "resolved", Resolved: true},
		{Id: "deleted", Content: "deleted", Deleted: true},
	}

	cases := []struct {
		name            string
		includeResolved bool
		includeDeleted  bool
		want            []string
	}{
		{"default", true, false, []string{"open", "resolved"}},
		{"open_only", false, false, []string{"open"}},
		{"everything", true, true, []string{"open", "resolved", "deleted"}},
		{"with_deleted_without_resolved", false, true, []string{"open", "deleted"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fake := gdocs.NewFake("doc1", "Doc")
			fake.Comments = seed
			e := NewEngine(fake, fake, zaptest.NewLogger(t))

			threads, err := e.Comments(context.Background(), "doc1", c.includeResolved, c.includeDeleted)
			if err != nil {
				t.Fatalf("Comments: %v", err)
			}
			var ids []string
			for _, cm := range threads.Comments {
				ids = append(ids, cm.ID)
			}
			if len(ids) != len(c.want) {
				t.Fatalf("ids %v, want %v", ids, c.want)
			}
			for i := range ids {
				if ids[i] != c.want[i] {
					t.Fatalf("ids %v, want %v", ids, c.want)
				}
			}
			if threads.Count != len(c.want) {
				t.Fatalf("count %d, want %d", threads.Count, len(c.want))
			}
		})
	}
}
