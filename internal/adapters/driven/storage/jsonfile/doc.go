// Package jsonfile stores feeds, feed items and portfolios as JSON files.
//
// Layout under the feed store directory:
//
//	feeds.json            all subscriptions
//	items/<feed-id>.json  items of one feed
//
// PortfolioStore keeps <name>.json files in a directory of its own.
//
// Every read-modify-write holds an exclusive OS file lock on a sibling
// ".lock" file, so several finkit processes (CLI, MCP server) can share the
// directory. Writes go to a temporary file that is renamed into place; the
// last writer wins.
package jsonfile
