// Package services wires domain rules to the driven ports: filing lookup
// and section splitting, cached market data, feed refresh and merging,
// and typed settings.
//
// No service opens a file or socket itself. Tests run against the memory
// stores and hand-written client fakes.
package services
