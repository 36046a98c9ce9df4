package tui

import "errors"

// ErrMissingFeedService is returned when the feed service is not provided.
var ErrMissingFeedService = errors.New("tui: feed service is required")
