package convert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"docmd/common"
	"docmd/htmlmd"
)

// RegisterMCP registers the document tools on an MCP server. Tool failures
// are reported inside the result payload, never as protocol errors, so
// callers always get a JSON body they can inspect.
func (e *Engine) RegisterMCP(srv *mcp.Server) {
	e.registerFetchTool(srv)
	e.registerMetadataTool(srv)
	e.registerCommentsTool(srv)
	e.registerUpdateTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func textResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(format string, args ...any) (*mcp.CallToolResult, error) {
	return textResult(map[string]any{"error": fmt.Sprintf(format, args...)})
}

func decodeArgs(req *mcp.CallToolRequest, v any) error {
	if req.Params.Arguments == nil {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

// --- fetch_google_doc ---

type fetchReq struct {
	URL           string `json:"url"`
	IncludeImages *bool  `json:"include_images"`
}

func (e *Engine) registerFetchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "fetch_google_doc",
		Description: "Fetch a Google Doc and convert it to markdown. " +
			"Returns the document body as markdown together with title, metadata and any embedded images.",
		InputSchema: inputSchema(map[string]any{
			"url":            map[string]any{"type": "string", "description": "Google Doc URL or document ID"},
			"include_images": map[string]any{"type": "boolean", "description": "Whether to include extracted image payloads", "default": true},
		}, []string{"url"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r fetchReq
		if err := decodeArgs(req, &r); err != nil {
			return errorResult("invalid arguments: %v", err)
		}
		includeImages := true
		if r.IncludeImages != nil {
			includeImages = *r.IncludeImages
		}

		docID, err := common.ExtractDocID(r.URL)
		if err != nil {
			return errorResult("%v", err)
		}

		pull, err := e.Pull(ctx, docID)
		if err != nil {
			e.log.Warn("Fetch tool failed", zap.String("id", docID), zap.Error(err))
			return errorResult("Failed to fetch document: %v", err)
		}

		images := []htmlmd.Image{}
		if includeImages && pull.Images != nil {
			images = pull.Images
		}
		return textResult(map[string]any{
			"title":    pull.Meta.Name,
			"markdown": pull.Markdown,
			"metadata": map[string]any{
				"doc_id":        docID,
				"last_modified": pull.Meta.ModifiedTime,
				"slug":          pull.Slug,
			},
			"images": images,
		})
	})
}

// --- get_google_doc_metadata ---

type metadataReq struct {
	URL string `json:"url"`
}

func (e *Engine) registerMetadataTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_google_doc_metadata",
		Description: "Get metadata about a Google Doc without fetching full content.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Google Doc URL or document ID"},
		}, []string{"url"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r metadataReq
		if err := decodeArgs(req, &r); err != nil {
			return errorResult("invalid arguments: %v", err)
		}

		docID, err := common.ExtractDocID(r.URL)
		if err != nil {
			return errorResult("%v", err)
		}

		meta, err := e.Info(ctx, docID)
		if err != nil {
			e.log.Warn("Metadata tool failed", zap.String("id", docID), zap.Error(err))
			return errorResult("Failed to get document metadata: %v", err)
		}

		title := meta.Name
		if title == "" {
			title = "Untitled"
		}
		var owner any
		if meta.Owner != "" {
			owner = meta.Owner
		}
		return textResult(map[string]any{
			"title":         title,
			"doc_id":        docID,
			"last_modified": meta.ModifiedTime,
			"owner":         owner,
			"slug":          common.Slug(meta.Name),
		})
	})
}

// --- list_google_doc_comments ---

type commentsReq struct {
	URL             string `json:"url"`
	IncludeResolved *bool  `json:"include_resolved"`
	IncludeDeleted  *bool  `json:"include_deleted"`
}

func (e *Engine) registerCommentsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "list_google_doc_comments",
		Description: "List all comments on a Google Doc with full details: " +
			"comment text, quoted document text, authors, timestamps, resolved state and replies.",
		InputSchema: inputSchema(map[string]any{
			"url":              map[string]any{"type": "string", "description": "Google Doc URL or document ID"},
			"include_resolved": map[string]any{"type": "boolean", "description": "Whether to include resolved comments", "default": true},
			"include_deleted":  map[string]any{"type": "boolean", "description": "Whether to include deleted comments", "default": false},
		}, []string{"url"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r commentsReq
		if err := decodeArgs(req, &r); err != nil {
			return errorResult("invalid arguments: %v", err)
		}
		includeResolved := true
		if r.IncludeResolved != nil {
			includeResolved = *r.IncludeResolved
		}
		includeDeleted := false
		if r.IncludeDeleted != nil {
			includeDeleted = *r.IncludeDeleted
		}

		docID, err := common.ExtractDocID(r.URL)
		if err != nil {
			return errorResult("%v", err)
		}

		threads, err := e.Comments(ctx, docID, includeResolved, includeDeleted)
		if err != nil {
			e.log.Warn("Comments tool failed", zap.String("id", docID), zap.Error(err))
			return errorResult("Failed to list comments: %v", err)
		}
		return textResult(threads)
	})
}

// --- update_google_doc ---

type updateReq struct {
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
	Title    string `json:"title"`
}

func (e *Engine) registerUpdateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "update_google_doc",
		Description: "Update a Google Doc with markdown content. " +
			"This REPLACES all existing content in the document. " +
			"Supports headings, paragraphs, bullet and numbered lists, bold, italic, links, inline code, code blocks and tables.",
		InputSchema: inputSchema(map[string]any{
			"url":      map[string]any{"type": "string", "description": "Google Doc URL or document ID"},
			"markdown": map[string]any{"type": "string", "description": "Markdown content to write to the document"},
			"title":    map[string]any{"type": "string", "description": "Optional new title for the document"},
		}, []string{"url", "markdown"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fail := func(format string, args ...any) (*mcp.CallToolResult, error) {
			return textResult(map[string]any{"success": false, "error": fmt.Sprintf(format, args...)})
		}

		var r updateReq
		if err := decodeArgs(req, &r); err != nil {
			return fail("invalid arguments: %v", err)
		}

		docID, err := common.ExtractDocID(r.URL)
		if err != nil {
			return fail("%v", err)
		}

		res, err := e.Push(ctx, docID, r.Title, r.Markdown)
		if err != nil {
			e.log.Warn("Update tool failed", zap.String("id", docID), zap.Error(err))
			return fail("Failed to update document: %v", err)
		}
		return textResult(map[string]any{
			"success":       true,
			"doc_id":        docID,
			"url":           res.Meta.WebViewLink,
			"title":         res.Meta.Name,
			"last_modified": res.Meta.ModifiedTime,
		})
	})
}
