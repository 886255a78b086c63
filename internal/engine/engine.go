package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/varalys/logsearch/internal/artifacts"
	"github.com/varalys/logsearch/internal/types"
)

// Result contains search statistics. Matches themselves are streamed to the
// emit callback and not retained.
type Result struct {
	FilesScanned   int
	EntriesScanned int
	ArchivesOpened int
	Matches        int
	InvalidLines   int
	Skipped        []types.Skip
	Duration       time.Duration
	ArtifactStats  DeepStats
}

// DeepStats summarizes why archive extraction stopped early.
type DeepStats struct {
	AbortedByBytes   int
	AbortedByEntries int
	AbortedByDepth   int
}

// Search runs a search and returns matches in the order they were found.
func Search(ctx context.Context, cfg Config) ([]types.Match, error) {
	var out []types.Match
	_, err := SearchWithStats(ctx, cfg, func(m types.Match) { out = append(out, m) })
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchWithStats validates cfg, walks the root and calls emit for every
// matching line. Configuration errors are returned before any file is read.
// Per-file problems are collected in Result.Skipped. On cancellation the
// partial Result is returned together with ctx.Err().
func SearchWithStats(ctx context.Context, cfg Config, emit func(types.Match)) (Result, error) {
	var result Result
	start := time.Now()

	p, err := prepare(cfg)
	if err != nil {
		return result, err
	}
	log := cfg.logger()
	log.Debugf("searching %s for %s", cfg.Root, describe(cfg))

	record := func(s types.Skip) { result.Skipped = append(result.Skipped, s) }
	onLine := func(vpath string, n int, line string) {
		m, ok := p.matcher.Match(vpath, n, line)
		if !ok {
			return
		}
		result.Matches++
		if emit != nil {
			emit(m)
		}
	}
	rd := artifacts.NewReader(artifacts.Options{
		Extract: cfg.ExtractArchives,
		Limits: artifacts.Limits{
			MaxArchiveBytes: cfg.MaxArchiveBytes,
			MaxEntries:      cfg.MaxEntries,
			MaxDepth:        cfg.MaxDepth,
		},
		Decoder: p.decoder,
	}, onLine, record, log)

	err = Walk(ctx, cfg, record, func(fullPath, rel string) error {
		log.Debugf("reading %s", rel)
		err := rd.ScanFile(ctx, fullPath, rel)
		if cfg.Progress != nil {
			cfg.Progress()
		}
		return err
	})

	st := rd.Stats()
	result.FilesScanned = st.Files
	result.EntriesScanned = st.Entries
	result.ArchivesOpened = st.Archives
	result.InvalidLines = st.InvalidLines
	result.ArtifactStats = DeepStats{
		AbortedByBytes:   st.AbortedByBytes,
		AbortedByEntries: st.AbortedByEntries,
		AbortedByDepth:   st.AbortedByDepth,
	}
	result.Duration = time.Since(start)
	return result, err
}

// describe renders the search mode for the verbose banner.
func describe(cfg Config) string {
	kind := "regex"
	if cfg.FixedStrings {
		kind = "literal"
	}
	s := fmt.Sprintf("%s %q", kind, cfg.Search)
	if cfg.IgnoreCase {
		s += ", ignoring case"
	}
	if cfg.Recursive {
		s += ", recursive"
	}
	if cfg.FilePatterns != "" {
		s += ", files " + cfg.FilePatterns
	}
	if cfg.ExtractArchives {
		s += fmt.Sprintf(", archives up to depth %d", cfg.MaxDepth)
	}
	return s
}
