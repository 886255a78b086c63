// Package logsearch provides the command-line interface for the logsearch
// tool. It parses flags, merges an optional presets file, runs the search
// engine and maps failures to exit codes.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/varalys/logsearch/cmd/logsearch"
//	func main() { logsearch.Execute() }
package logsearch
