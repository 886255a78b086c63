package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/varalys/logsearch/internal/types"
)

// Summary holds the end-of-run counters.
type Summary struct {
	FilesScanned     int
	EntriesScanned   int
	ArchivesOpened   int
	Matches          int
	InvalidLines     int
	Skipped          []types.Skip
	AbortedByBytes   int
	AbortedByEntries int
	AbortedByDepth   int
	Duration         time.Duration
}

// PrintSummary writes the footer shown in verbose mode.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files processed: %d\n", s.FilesScanned)
	if s.EntriesScanned > 0 || s.ArchivesOpened > 0 {
		fmt.Fprintf(w, "Archive entries: %d (archives opened: %d)\n", s.EntriesScanned, s.ArchivesOpened)
	}
	fmt.Fprintf(w, "Matches found: %d\n", s.Matches)
	fmt.Fprintf(w, "Skipped: %d\n", len(s.Skipped))
	if s.InvalidLines > 0 {
		fmt.Fprintf(w, "Lines with invalid encoding: %d\n", s.InvalidLines)
	}
	if s.AbortedByBytes+s.AbortedByEntries+s.AbortedByDepth > 0 {
		fmt.Fprintf(w, "Archive limits hit: bytes=%d entries=%d depth=%d\n", s.AbortedByBytes, s.AbortedByEntries, s.AbortedByDepth)
	}
	fmt.Fprintf(w, "Search duration: %.2fs\n", s.Duration.Seconds())
}

// PrintSkipped renders skipped paths as a table. Nothing is written when
// skips is empty.
func PrintSkipped(w io.Writer, skips []types.Skip) error {
	if len(skips) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	table := tablewriter.NewTable(w)
	table.Header("Path", "Reason", "Detail")
	for _, s := range skips {
		if err := table.Append([]string{s.Path, string(s.Reason), s.Detail}); err != nil {
			return err
		}
	}
	return table.Render()
}
