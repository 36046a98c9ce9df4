// Package tui provides the interactive terminal feed reader.
// It is a driving adapter over the feed service.
package tui

import (
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI calls.
type Ports struct {
	// Feed manages subscriptions and items.
	Feed driving.FeedService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Feed == nil {
		return ErrMissingFeedService
	}
	return nil
}
