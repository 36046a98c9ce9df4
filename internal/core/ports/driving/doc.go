// Package driving holds the service interfaces the CLI, MCP server and TUI
// call into. Each one is implemented by a type in internal/core/services,
// and adapters depend only on these interfaces so they can be tested with
// fakes.
package driving
