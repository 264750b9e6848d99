package convert

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docmd/common"
	"docmd/gdocs"
	"docmd/htmlmd"
	"docmd/markdown"
)

// Engine drives conversions against one remote document service.
type Engine struct {
	client   gdocs.Client
	comments gdocs.Commenter
	norm     *htmlmd.Normalizer
	log      *zap.Logger
}

func NewEngine(client gdocs.Client, comments gdocs.Commenter, log *zap.Logger) *Engine {
	return &Engine{
		client:   client,
		comments: comments,
		norm:     htmlmd.New(),
		log:      log,
	}
}

// PushResult describes one completed replacement of a document body.
type PushResult struct {
	Meta    *gdocs.DocMeta
	Tables  []TableState
	Renamed bool
}

// PullResult is one document exported and normalized back to markdown.
type PullResult struct {
	Markdown string
	Images   []htmlmd.Image
	Meta     *gdocs.DocMeta
	Slug     string
}

// Push replaces the document body with the given markdown. Existing content
// is deleted first, then segments are written in order. Offsets are only
// trusted within a single batch: every batch that shifts them is followed
// by a fresh structure read, so the next segment starts from what the
// service actually did rather than from an estimate.
func (e *Engine) Push(ctx context.Context, docID, title, md string) (*PushResult, error) {
	doc, err := e.client.ReadStructure(ctx, docID)
	if err != nil {
		return nil, err
	}
	currentTitle := doc.Title

	if end := gdocs.AppendIndex(doc); end > 1 {
		e.log.Debug("Clearing document", zap.String("id", docID), zap.Int64("end", end))
		if err := e.client.BatchApply(ctx, docID, []gdocs.Op{gdocs.DeleteRange(1, end)}); err != nil {
			return nil, err
		}
	}

	res := &PushResult{}
	idx := int64(1)
	for _, seg := range markdown.Split(md) {
		switch seg.Kind {
		case markdown.SegmentTable:
			state, err := e.materializeTable(ctx, docID, seg.Grid, idx)
			if err != nil {
				return nil, err
			}
			res.Tables = append(res.Tables, state)
		default:
			ops, _ := compileContent(seg.Text, idx)
			if len(ops) == 0 {
				continue
			}
			if err := e.client.BatchApply(ctx, docID, ops); err != nil {
				return nil, err
			}
		}
		if idx, err = e.refreshAppend(ctx, docID); err != nil {
			return nil, err
		}
	}

	if title != "" && title != currentTitle {
		if err := e.client.UpdateTitle(ctx, docID, title); err != nil {
			return nil, err
		}
		res.Renamed = true
	}

	if res.Meta, err = e.client.Metadata(ctx, docID); err != nil {
		return nil, err
	}
	e.log.Info("Document replaced",
		zap.String("id", docID),
		zap.Int("tables", len(res.Tables)),
		zap.Bool("renamed", res.Renamed))
	return res, nil
}

// Pull exports the document as HTML and normalizes it back to markdown
// together with any embedded images.
func (e *Engine) Pull(ctx context.Context, docID string) (*PullResult, error) {
	meta, err := e.client.Metadata(ctx, docID)
	if err != nil {
		return nil, err
	}

	data, err := e.client.Export(ctx, docID, gdocs.MimeHTML)
	if err != nil {
		return nil, err
	}

	md, images, err := e.norm.Normalize(string(data))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", docID, err)
	}

	e.log.Debug("Document pulled",
		zap.String("id", docID),
		zap.Int("chars", len(md)),
		zap.Int("images", len(images)))

	return &PullResult{
		Markdown: md,
		Images:   images,
		Meta:     meta,
		Slug:     common.Slug(meta.Name),
	}, nil
}

// Info fetches document metadata without touching the body.
func (e *Engine) Info(ctx context.Context, docID string) (*gdocs.DocMeta, error) {
	return e.client.Metadata(ctx, docID)
}

func (e *Engine) refreshAppend(ctx context.Context, docID string) (int64, error) {
	doc, err := e.client.ReadStructure(ctx, docID)
	if err != nil {
		return 0, err
	}
	return gdocs.AppendIndex(doc), nil
}
