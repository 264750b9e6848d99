package convert

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/drive/v3"

	"docmd/gdocs"
)

var testMCPImpl = &mcp.Implementation{Name: "docmd-test", Version: "0.1.0"}

func mcpSession(t *testing.T, fake *gdocs.Fake) *mcp.ClientSession {
	t.Helper()
	e := NewEngine(fake, fake, zaptest.NewLogger(t))
	srv := mcp.NewServer(testMCPImpl, nil)
	e.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

// --- update_google_doc ---

func TestMCP_Update(t *testing.T) {
	fake := gdocs.NewFake("doc1", "Old Title")
	fake.Meta.ModifiedTime = "2026-08-25T10:00:00.000Z"
	fake.Meta.WebViewLink = "https://docs.google.com/document/d/doc1/edit"
	session := mcpSession(t, fake)

	text := mcpCallTool(t, session, "update_google_doc", map[string]any{
		"url":      "https://docs.google.com/document/d/doc1/edit?usp=sharing",
		"markdown": "# Hi\n\nWorld.",
		"title":    "Pushed",
	})

	var resp struct {
		Success      bool   `json:"success"`
		DocID        string `json:"doc_id"`
		URL          string `json:"url"`
		Title        string `json:"title"`
		LastModified string `json:"last_modified"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %s", text)
	}
	if resp.DocID != "doc1" {
		t.Errorf("doc_id = %q", resp.DocID)
	}
	if resp.URL != "https://docs.google.com/document/d/doc1/edit" {
		t.Errorf("url = %q", resp.URL)
	}
	if resp.Title != "Pushed" {
		t.Errorf("title = %q", resp.Title)
	}
	if got := fake.PlainText(); got != "Hi\n\nWorld.\n\n" {
		t.Errorf("document text %q", got)
	}
}

func TestMCP_UpdateFailure(t *testing.T) {
	session := mcpSession(t, gdocs.NewFake("doc1", "Doc"))

	text := mcpCallTool(t, session, "update_google_doc", map[string]any{
		"url":      "missing",
		"markdown": "hi",
	})

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected failure, got %s", text)
	}
	if resp.Error == "" {
		t.Fatal("expected an error message")
	}
}

// --- fetch_google_doc ---

const fetchFixture = `<html><head><style>.x{}</style></head><body>` +
	`<h1>Report</h1><p>pic</p>` +
	`<p><img src="data:image/png;base64,iVBORw0KGgo="></p></body></html>`

func TestMCP_Fetch(t *testing.T) {
	fake := gdocs.NewFake("doc1", "My Report (Q1)!")
	fake.Meta.ModifiedTime = "2026-08-25T10:00:00.000Z"
	fake.Exports[gdocs.MimeHTML] = []byte(fetchFixture)
	session := mcpSession(t, fake)

	text := mcpCallTool(t, session, "fetch_google_doc", map[string]any{"url": "doc1"})

	var resp struct {
		Title    string `json:"title"`
		Markdown string `json:"markdown"`
		Metadata struct {
			DocID        string `json:"doc_id"`
			LastModified string `json:"last_modified"`
			Slug         string `json:"slug"`
		} `json:"metadata"`
		Images []struct {
			Name   string `json:"name"`
			Data   string `json:"data"`
			Format string `json:"format"`
		} `json:"images"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Title != "My Report (Q1)!" {
		t.Errorf("title = %q", resp.Title)
	}
	if resp.Markdown != "# Report\n\npic\n\n![image](image-1.png)" {
		t.Errorf("markdown = %q", resp.Markdown)
	}
	if resp.Metadata.DocID != "doc1" || resp.Metadata.Slug != "my-report-q1" {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	if len(resp.Images) != 1 {
		t.Fatalf("expected one image, got %+v", resp.Images)
	}
	if resp.Images[0].Name != "image-1.png" || resp.Images[0].Format != "png" {
		t.Errorf("image = %+v", resp.Images[0])
	}
}

func TestMCP_FetchWithoutImages(t *testing.T) {
	fake := gdocs.NewFake("doc1", "Doc")
	fake.Exports[gdocs.MimeHTML] = []byte(fetchFixture)
	session := mcpSession(t, fake)

	text := mcpCallTool(t, session, "fetch_google_doc", map[string]any{
		"url":            "doc1",
		"include_images": false,
	})

	var resp struct {
		Images []any `json:"images"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Images == nil || len(resp.Images) != 0 {
		t.Fatalf("expected an empty image list, got %s", text)
	}
}

func TestMCP_FetchBadReference(t *testing.T) {
	session := mcpSession(t, gdocs.NewFake("doc1", "Doc"))

	text := mcpCallTool(t, session, "fetch_google_doc", map[string]any{
		"url": "https://docs.google.com/document/",
	})

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("expected an error payload, got %s", text)
	}
}

// --- get_google_doc_metadata ---

func TestMCP_Metadata(t *testing.T) {
	fake := gdocs.NewFake("doc1", "My Doc")
	fake.Meta.ModifiedTime = "2026-08-25T10:00:00.000Z"
	fake.Meta.Owner = "reports@example.com"
	session := mcpSession(t, fake)

	text := mcpCallTool(t, session, "get_google_doc_metadata", map[string]any{"url": "doc1"})

	var resp struct {
		Title        string  `json:"title"`
		DocID        string  `json:"doc_id"`
		LastModified string  `json:"last_modified"`
		Owner        *string `json:"owner"`
		Slug         string  `json:"slug"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Title != "My Doc" || resp.DocID != "doc1" || resp.Slug != "my-doc" {
		t.Errorf("metadata = %+v", resp)
	}
	if resp.Owner == nil || *resp.Owner != "reports@example.com" {
		t.Errorf("owner = %v", resp.Owner)
	}
}

func TestMCP_MetadataDefaults(t *testing.T) {
	session := mcpSession(t, gdocs.NewFake("doc1", ""))

	text := mcpCallTool(t, session, "get_google_doc_metadata", map[string]any{"url": "doc1"})

	var resp struct {
		Title string  `json:"title"`
		Owner *string `json:"owner"`
		Slug  string  `json:"slug"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Title != "Untitled" {
		t.Errorf("title = %q", resp.Title)
	}
	if resp.Owner != nil {
		t.Errorf("owner = %v, expected null", *resp.Owner)
	}
	if resp.Slug != "untitled" {
		t.Errorf("slug = %q", resp.Slug)
	}
}

// --- list_google_doc_comments ---

func commentFixtures() []*drive.Comment {
	return []*drive.Comment{
		{
			Id:                "c1",
			Content:           "Looks good",
			HtmlContent:       "<p>Looks good</p>",
			Author:            &drive.User{DisplayName: "Reviewer", PhotoLink: "https://p/1.png"},
			CreatedTime:       "2026-08-20T08:00:00Z",
			ModifiedTime:      "2026-08-20T09:00:00Z",
			QuotedFileContent: &drive.CommentQuotedFileContent{Value: "quoted bit"},
			Replies: []*drive.Reply{
				{Id: "r1", Content: "Agreed", Author: &drive.User{DisplayName: "Author"}},
			},
		},
		{Id: "c2", Content: "Done", Resolved: true},
		{Id: "c3", Content: "Gone", Deleted: true},
	}
}

func TestMCP_Comments(t *testing.T) {
	fake := gdocs.NewFake("doc1", "Doc")
	fake.Comments = commentFixtures()
	session := mcpSession(t, fake)

	text := mcpCallTool(t, session, "list_google_doc_comments", map[string]any{"url": "doc1"})

	var resp CommentThreads
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.DocID != "doc1" || resp.Count != 2 || len(resp.Comments) != 2 {
		t.Fatalf("threads = %+v", resp)
	}

	c := resp.Comments[0]
	if c.ID != "c1" || c.Author.Name != "Reviewer" || c.Author.PhotoURL != "https://p/1.png" {
		t.Errorf("comment = %+v", c)
	}
	if c.QuotedText != "quoted bit" {
		t.Errorf("quoted_text = %q", c.QuotedText)
	}
	if len(c.Replies) != 1 || c.Replies[0].Author.Name != "Author" {
		t.Errorf("replies = %+v", c.Replies)
	}
	if resp.Comments[1].Author.Name != "Unknown" {
		t.Errorf("missing author should fall back to Unknown, got %+v", resp.Comments[1].Author)
	}
}

func TestMCP_CommentsFilters(t *testing.T) {
	cases := []struct {
		name  string
		args  map[string]any
		count int
	}{
		{"without_resolved", map[string]any{"url": "doc1", "include_resolved": false}, 1},
		{"with_deleted", map[string]any{"url": "doc1", "include_deleted": true}, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fake := gdocs.NewFake("doc1", "Doc")
			fake.Comments = commentFixtures()
			session := mcpSession(t, fake)

			text := mcpCallTool(t, session, "list_google_doc_comments", c.args)

			var resp CommentThreads
			if err := json.Unmarshal([]byte(text), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Count != c.count || len(resp.Comments) != c.count {
				t.Fatalf("expected %d comments, got %+v", c.count, resp)
			}
		})
	}
}
