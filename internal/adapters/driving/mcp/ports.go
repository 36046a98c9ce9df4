package mcp

import (
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Feed manages RSS subscriptions and items.
	Feed driving.FeedService

	// Filing fetches SEC filing sections. Optional; the filing tool is only
	// registered when set.
	Filing driving.FilingService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Feed == nil {
		return ErrMissingFeedService
	}
	return nil
}
