// Package sqlite is the market and filing cache, stored in
// <base>/data/cache.db with the pure-Go modernc.org/sqlite driver.
//
// The schema lives in embedded goose migrations. cache_entries maps a
// "source:id:start:end" key to an opaque blob plus created_at and
// expires_at in Unix nanoseconds (0 = never expires). The database runs in
// WAL mode so the CLI and a long-lived MCP server can share it.
package sqlite
