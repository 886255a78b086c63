// Package core provides a small, stable facade over logsearch's internal
// engine for programs that embed the search. It re-exports a narrow API
// surface so callers can depend on a stable import path without importing
// internal packages.
//
// Example:
//
//	cfg := core.DefaultConfig()
//	cfg.Root, cfg.Search = "/var/log", "ERROR"
//	cfg.Recursive, cfg.ExtractArchives = true, true
//	matches, err := core.Search(ctx, cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalMatches(os.Stdout, matches)
package core
