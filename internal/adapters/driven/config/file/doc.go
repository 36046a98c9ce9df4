// Package file persists finkit settings as a TOML file in the base
// directory ($FINKIT_HOME or ~/.finkit).
//
// Keys are kept flattened in memory ("feeds.workers") and written out as
// nested tables:
//
//	[feeds]
//	workers = 8
package file
