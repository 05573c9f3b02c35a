package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) recovery(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	timeline, err := h.ds.Timeline(ctx, uid)
	if err != nil {
		return nil, err
	}
	baselines, err := h.ds.Baselines(ctx, uid)
	if err != nil {
		h.log.Warn("recovery: baselines query failed", "error", err)
	}

	return jsonResource(req.Params.URI, map[string]any{
		"muscles":   timeline,
		"baselines": baselines,
	})
}

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.Exercises(ctx, UserIDFromContext(ctx), "")
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, exercises)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
