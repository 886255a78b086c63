package core

import (
	"context"

	"github.com/varalys/logsearch/internal/engine"
	"github.com/varalys/logsearch/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config = engine.Config
	Result = engine.Result
	Match  = types.Match
	Skip   = types.Skip
	Span   = types.Span

	InvalidPathError    = engine.InvalidPathError
	InvalidPatternError = engine.InvalidPatternError
	InvalidConfigError  = engine.InvalidConfigError
)

// DefaultConfig returns a Config with the default archive limits. Root and
// Search must still be set.
func DefaultConfig() Config { return engine.DefaultConfig() }

// Search is the stable entrypoint for other programs. It returns every
// matching line in traversal order.
func Search(ctx context.Context, cfg Config) ([]Match, error) {
	return engine.Search(ctx, cfg)
}

// SearchWithStats streams matches to emit and returns run statistics.
func SearchWithStats(ctx context.Context, cfg Config, emit func(Match)) (Result, error) {
	return engine.SearchWithStats(ctx, cfg, emit)
}

// Validate reports configuration errors without reading any file.
func Validate(cfg Config) error { return engine.Validate(cfg) }
