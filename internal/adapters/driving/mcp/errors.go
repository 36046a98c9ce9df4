// Package mcp exposes finkit feeds and filings to AI assistants over the
// Model Context Protocol.
package mcp

import "errors"

// ErrMissingFeedService is returned when the feed service is not provided.
var ErrMissingFeedService = errors.New("mcp: feed service is required")
