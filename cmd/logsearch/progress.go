package logsearch

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/varalys/logsearch/internal/engine"
)

// progressBar counts top-level files. A nil *progressBar is a no-op.
type progressBar struct {
	bar *progressbar.ProgressBar
}

// newProgressBar sizes the bar with engine.CountTargets. It returns nil when
// there is nothing to count.
func newProgressBar(w io.Writer, cfg engine.Config) *progressBar {
	total, err := engine.CountTargets(cfg)
	if err != nil || total == 0 {
		return nil
	}
	return &progressBar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Searching"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer: "█", SaucerHead: "█", SaucerPadding: "░",
			BarStart: "[", BarEnd: "]",
		}),
	)}
}

// Add advances the bar by one file.
func (p *progressBar) Add() {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

// Finish completes and clears the bar.
func (p *progressBar) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
