package logsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/varalys/logsearch/internal/engine"
)

var version = "0.1.0"

// Exit codes.
const (
	exitOK          = 0
	exitFatal       = 2
	exitInterrupted = 130
)

// searchFlags holds the raw flag values of one invocation.
type searchFlags struct {
	path         string
	search       string
	filePatterns string
	exclude      string
	recursive    bool
	extract      bool
	verbose      bool
	ignoreCase   bool
	fixedStrings bool
	noColor      bool
	encoding     string

	maxDepth        int
	maxArchiveBytes int64
	maxEntries      int
	maxFileBytes    int64

	json       bool
	jsonArray  bool
	progress   bool
	configPath string
}

// newRootCmd builds the logsearch command with its own flag storage.
func newRootCmd() *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "logsearch --path PATH -s SEARCH [flags]",
		Short: "Search log files and nested archives for a pattern",
		Long: "logsearch walks a directory, optionally descending into zip, tar and compressed\n" +
			"archives (also nested ones, up to --max-depth), and prints every line matching\n" +
			"SEARCH as <path>:<line>: <text>.",
		Example: `  logsearch --path /var/log -s ERROR -r
  logsearch --path ./backups -s 'user=(alice|bob)' -f '*.zip,*.gz' -e --max-depth 3
  logsearch --path . -s 'a.b' -F -i --json`,
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.path, "path", "", "root directory to search (required)")
	fl.StringVarP(&f.search, "search", "s", "", "regular expression (or literal with -F) to search for (required)")
	fl.StringVarP(&f.filePatterns, "file-patterns", "f", "", "comma-separated file name globs, e.g. '*.log,*.gz' (default: all files)")
	fl.StringVar(&f.exclude, "exclude", "", "comma-separated globs of files to leave out")
	fl.BoolVarP(&f.recursive, "recursive", "r", false, "recurse into subdirectories")
	fl.BoolVarP(&f.extract, "extract-archives", "e", false, "search inside archives and compressed files")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "print progress diagnostics and a summary to stderr")
	fl.BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "case-insensitive matching")
	fl.BoolVarP(&f.fixedStrings, "fixed-strings", "F", false, "treat SEARCH as a literal string")
	fl.BoolVar(&f.noColor, "no-color", false, "disable colorized match highlighting")
	fl.StringVar(&f.encoding, "encoding", "", "input charset, e.g. windows-1251 or latin1 (default utf-8)")
	fl.IntVar(&f.maxDepth, "max-depth", engine.DefaultMaxDepth, "max nested archive depth")
	fl.Int64Var(&f.maxArchiveBytes, "max-archive-bytes", engine.DefaultMaxArchiveBytes, "max decompressed bytes per top-level archive (0 = no limit)")
	fl.IntVar(&f.maxEntries, "max-entries", engine.DefaultMaxEntries, "max entries per top-level archive (0 = no limit)")
	fl.Int64Var(&f.maxFileBytes, "max-file-bytes", 0, "skip files larger than this (0 = no limit)")
	fl.BoolVar(&f.json, "json", false, "emit one JSON object per match")
	fl.BoolVar(&f.jsonArray, "json-array", false, "emit all matches as one JSON array when the search ends")
	fl.BoolVar(&f.progress, "progress", false, "show a progress bar on stderr")
	fl.StringVar(&f.configPath, "config", "", "YAML presets file; flags given on the command line win")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("search")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml")
	_ = cmd.MarkFlagDirname("path")
	cmd.MarkFlagsMutuallyExclusive("json", "json-array")
	return cmd
}

// Execute runs the logsearch CLI and exits the process. It should be called
// by the main package.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "interrupted")
			return exitInterrupted
		}
		fmt.Fprintln(stderr, "error:", err)
		return exitFatal
	}
	return exitOK
}
