// Package edgar implements driven.EDGARClient against the SEC's public
// JSON endpoints and filing archives.
//
// SEC asks every automated client to identify itself with a descriptive
// User-Agent ("Company Name admin@example.com") and to stay below ten
// requests per second; NewClient enforces both.
package edgar
