package logsearch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varalys/logsearch/internal/config"
	"github.com/varalys/logsearch/internal/engine"
	"github.com/varalys/logsearch/internal/logger"
	"github.com/varalys/logsearch/internal/report"
	"github.com/varalys/logsearch/internal/types"
	"github.com/varalys/logsearch/pkg/core"
)

func runSearch(cmd *cobra.Command, f *searchFlags) error {
	// Presets: CLI > --config file > defaults
	var preset config.FileConfig
	if f.configPath != "" {
		c, err := config.LoadFile(f.configPath)
		if err != nil {
			return fmt.Errorf("load presets: %w", err)
		}
		preset = c
	}
	changed := cmd.Flags().Changed

	cfg := engine.Config{
		Root:            f.path,
		Search:          f.search,
		FixedStrings:    pick(changed("fixed-strings"), f.fixedStrings, preset.FixedStrings),
		IgnoreCase:      pick(changed("ignore-case"), f.ignoreCase, preset.IgnoreCase),
		FilePatterns:    pick(changed("file-patterns"), f.filePatterns, preset.FilePatterns),
		ExcludeGlobs:    pick(changed("exclude"), f.exclude, preset.Exclude),
		Recursive:       pick(changed("recursive"), f.recursive, preset.Recursive),
		NoColor:         pick(changed("no-color"), f.noColor, preset.NoColor),
		Verbose:         pick(changed("verbose"), f.verbose, preset.Verbose),
		ExtractArchives: pick(changed("extract-archives"), f.extract, preset.ExtractArchives),
		MaxDepth:        pick(changed("max-depth"), f.maxDepth, preset.MaxDepth),
		MaxArchiveBytes: pick(changed("max-archive-bytes"), f.maxArchiveBytes, preset.MaxArchiveBytes),
		MaxEntries:      pick(changed("max-entries"), f.maxEntries, preset.MaxEntries),
		MaxFileBytes:    pick(changed("max-file-bytes"), f.maxFileBytes, preset.MaxFileBytes),
		Encoding:        pick(changed("encoding"), f.encoding, preset.Encoding),
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	level := "warn"
	if cfg.Verbose {
		level = "debug"
	}
	log := logger.NewConsoleLogger(stderr, level)
	if cfg.NoColor {
		log.SetColor(false)
	}
	cfg.Logger = log

	// Fatal configuration errors surface before any output.
	if err := engine.Validate(cfg); err != nil {
		return err
	}

	printer := report.NewPrinter(stdout, report.PrintOptions{
		Color: !f.json && report.ColorEnabled(stdout, cfg.NoColor),
		JSON:  f.json,
	})
	var collected []types.Match
	emit := func(m types.Match) error { return printer.Print(m) }
	if f.jsonArray {
		emit = func(m types.Match) error {
			collected = append(collected, m)
			return nil
		}
	}

	var bar *progressBar
	if f.progress {
		bar = newProgressBar(stderr, cfg)
		cfg.Progress = bar.Add
	}

	var writeErr error
	res, err := engine.SearchWithStats(cmd.Context(), cfg, func(m types.Match) {
		if writeErr == nil {
			writeErr = emit(m)
		}
	})
	bar.Finish()
	if err != nil {
		return err
	}
	if f.jsonArray && writeErr == nil {
		writeErr = core.MarshalMatches(stdout, collected)
	}
	if writeErr != nil {
		return fmt.Errorf("write output: %w", writeErr)
	}

	if cfg.Verbose {
		report.PrintSummary(stderr, summaryOf(res))
		if err := report.PrintSkipped(stderr, res.Skipped); err != nil {
			log.Warnf("render skipped table: %v", err)
		}
	}
	return nil
}

func summaryOf(res engine.Result) report.Summary {
	return report.Summary{
		FilesScanned:     res.FilesScanned,
		EntriesScanned:   res.EntriesScanned,
		ArchivesOpened:   res.ArchivesOpened,
		Matches:          res.Matches,
		InvalidLines:     res.InvalidLines,
		Skipped:          res.Skipped,
		AbortedByBytes:   res.ArtifactStats.AbortedByBytes,
		AbortedByEntries: res.ArtifactStats.AbortedByEntries,
		AbortedByDepth:   res.ArtifactStats.AbortedByDepth,
		Duration:         res.Duration,
	}
}
