package engine

import (
	"errors"
	"fmt"
	"os"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/varalys/logsearch/internal/artifacts"
	"github.com/varalys/logsearch/internal/matcher"
	"github.com/varalys/logsearch/internal/textio"
)

// Defaults for the archive limits.
const (
	DefaultMaxDepth        = 5
	DefaultMaxArchiveBytes = int64(1 << 30)
	DefaultMaxEntries      = 100000
)

// Logger receives verbose diagnostics.
type Logger = artifacts.Logger

// Config controls one search. It is passed by value and not modified.
type Config struct {
	Root   string
	Search string
	// FixedStrings treats Search as a literal instead of a regular expression.
	FixedStrings bool
	IgnoreCase   bool
	// FilePatterns and ExcludeGlobs are comma-separated glob lists matched
	// case-insensitively against the base name and the root-relative path.
	FilePatterns string
	ExcludeGlobs string
	Recursive    bool
	NoColor      bool
	Verbose      bool

	ExtractArchives bool
	MaxDepth        int
	MaxArchiveBytes int64
	MaxEntries      int
	// MaxFileBytes skips top-level files larger than this; 0 means no limit.
	MaxFileBytes int64
	// Encoding is a WHATWG label for the input charset; empty means UTF-8.
	Encoding string

	// Progress is called once per top-level file handled.
	Progress func()
	Logger   Logger
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:        DefaultMaxDepth,
		MaxArchiveBytes: DefaultMaxArchiveBytes,
		MaxEntries:      DefaultMaxEntries,
	}
}

// InvalidPatternError is returned when the search term does not compile.
type InvalidPatternError = matcher.InvalidPatternError

// InvalidPathError is returned when the root is missing or not a directory.
type InvalidPathError struct {
	Path string
	Err  error
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %v", e.Path, e.Err)
}

func (e *InvalidPathError) Unwrap() error { return e.Err }

// InvalidConfigError is returned for out-of-range or unknown settings.
type InvalidConfigError struct {
	Field string
	Err   error
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }

var errNotDir = errors.New("not a directory")

// prepared holds what Validate derives from a Config.
type prepared struct {
	matcher *matcher.Matcher
	decoder *textio.Decoder
}

// Validate checks cfg without reading any file content. The pattern is
// compiled before the root is touched.
func Validate(cfg Config) error {
	_, err := prepare(cfg)
	return err
}

func prepare(cfg Config) (prepared, error) {
	var p prepared
	m, err := matcher.Compile(cfg.Search, matcher.Options{Literal: cfg.FixedStrings, IgnoreCase: cfg.IgnoreCase})
	if err != nil {
		return p, err
	}
	p.matcher = m
	switch {
	case cfg.MaxDepth < 0:
		return p, &InvalidConfigError{Field: "max-depth", Err: fmt.Errorf("must be >= 0, got %d", cfg.MaxDepth)}
	case cfg.MaxArchiveBytes < 0:
		return p, &InvalidConfigError{Field: "max-archive-bytes", Err: fmt.Errorf("must be >= 0, got %d", cfg.MaxArchiveBytes)}
	case cfg.MaxEntries < 0:
		return p, &InvalidConfigError{Field: "max-entries", Err: fmt.Errorf("must be >= 0, got %d", cfg.MaxEntries)}
	case cfg.MaxFileBytes < 0:
		return p, &InvalidConfigError{Field: "max-file-bytes", Err: fmt.Errorf("must be >= 0, got %d", cfg.MaxFileBytes)}
	}
	for _, g := range []struct{ field, list string }{{"file-patterns", cfg.FilePatterns}, {"exclude", cfg.ExcludeGlobs}} {
		for _, pat := range parseGlobsList(g.list) {
			if !doublestar.ValidatePattern(pat) {
				return p, &InvalidConfigError{Field: g.field, Err: fmt.Errorf("malformed glob %q", pat)}
			}
		}
	}
	dec, err := textio.LookupDecoder(cfg.Encoding)
	if err != nil {
		return p, &InvalidConfigError{Field: "encoding", Err: err}
	}
	p.decoder = dec
	if err := checkRoot(cfg.Root); err != nil {
		return p, err
	}
	return p, nil
}

func checkRoot(root string) error {
	if root == "" {
		return &InvalidPathError{Path: root, Err: errors.New("empty path")}
	}
	info, err := os.Stat(root)
	if err != nil {
		return &InvalidPathError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return &InvalidPathError{Path: root, Err: errNotDir}
	}
	return nil
}

func (cfg Config) logger() Logger {
	if cfg.Logger == nil {
		return nopLogger{}
	}
	return cfg.Logger
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
