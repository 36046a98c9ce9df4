package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

const (
	uriScheme = "finkit://"

	// resourceItemLimit caps items returned by the items resource.
	resourceItemLimit = 100
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "feeds",
		Name:        "feeds",
		Description: "All subscribed RSS/Atom feeds",
		MIMEType:    "application/json",
	}, s.handleFeedsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "feeds/{feedId}/items",
		Name:        "feed-items",
		Description: "Items of a specific feed, newest first",
		MIMEType:    "application/json",
	}, s.handleFeedItemsResource)
}

func (s *Server) handleFeedsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	feeds, err := s.ports.Feed.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	out := make([]FeedOutput, len(feeds))
	for i := range feeds {
		out[i] = toFeedOutput(&feeds[i])
	}
	return jsonResource(req.Params.URI, out)
}

func (s *Server) handleFeedItemsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	feedID := extractFeedID(req.Params.URI)
	if feedID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	items, err := s.ports.Feed.Items(ctx, feedID, resourceItemLimit, false)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return jsonResource(req.Params.URI, toItemOutputs(items))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFeedID extracts the feed ID from finkit://feeds/{feedId}/items.
func extractFeedID(uri string) string {
	const prefix = uriScheme + "feeds/"
	const suffix = "/items"

	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, suffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
