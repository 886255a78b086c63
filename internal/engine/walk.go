package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/varalys/logsearch/internal/types"
)

// VisitFunc handles one selected file. rel is the slash-separated path
// relative to the root.
type VisitFunc func(fullPath, rel string) error

// Walk enumerates the files under cfg.Root selected by cfg in lexical order
// and calls visit for each. Only the root's immediate entries are listed
// unless cfg.Recursive is set. Unreadable directories and oversized files are
// reported through skip and do not stop the walk. An error returned by visit
// or a cancelled ctx ends it.
func Walk(ctx context.Context, cfg Config, skip func(types.Skip), visit VisitFunc) error {
	if err := checkRoot(cfg.Root); err != nil {
		return err
	}
	if skip == nil {
		skip = func(types.Skip) {}
	}
	log := cfg.logger()
	includes := parseGlobsList(cfg.FilePatterns)
	excludes := parseGlobsList(cfg.ExcludeGlobs)

	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rel := relPath(cfg.Root, p)
		if err != nil {
			if p == cfg.Root && d == nil {
				return &InvalidPathError{Path: p, Err: err}
			}
			log.Debugf("skip %s: %v", displayRel(rel), err)
			skip(types.Skip{Path: displayRel(rel), Reason: types.SkipUnreadable, Detail: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != cfg.Root && !cfg.Recursive {
				return filepath.SkipDir
			}
			log.Debugf("entering directory %s", p)
			return nil
		}
		info, ok := regularFile(p, d)
		if !ok {
			return nil
		}
		if !allowedByGlobs(rel, includes, excludes) {
			return nil
		}
		if cfg.MaxFileBytes > 0 && info.Size() > cfg.MaxFileBytes {
			log.Debugf("skip %s: %d bytes exceeds max-file-bytes", rel, info.Size())
			skip(types.Skip{Path: rel, Reason: types.SkipTooLarge})
			return nil
		}
		return visit(p, rel)
	})
}

// CountTargets returns how many files Walk would visit for cfg. It mirrors
// the selection without reading file content.
func CountTargets(cfg Config) (int, error) {
	cfg.Logger = nil
	n := 0
	err := Walk(context.Background(), cfg, nil, func(string, string) error {
		n++
		return nil
	})
	return n, err
}

// regularFile resolves d to a regular file, following a symlink to a file
// but never to a directory.
func regularFile(p string, d fs.DirEntry) (fs.FileInfo, bool) {
	var (
		info fs.FileInfo
		err  error
	)
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(p)
	} else {
		info, err = d.Info()
	}
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	return info, true
}

func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		rel = p
	}
	return filepath.ToSlash(rel)
}

func displayRel(rel string) string {
	if rel == "." {
		return "./"
	}
	return rel
}

// allowedByGlobs reports whether relPath passes the include list (any match,
// empty list matches all) and no exclude matches it.
func allowedByGlobs(relPath string, includes, excludes []string) bool {
	rp := strings.ToLower(strings.ReplaceAll(relPath, "\\", "/"))
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

// parseGlobsList splits a comma-separated list, lowercasing each pattern so
// matching is case-insensitive.
func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
		if t := trimGlobPrefix(p); t != p && t != "" {
			out = append(out, t)
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	base := pathToMatch
	if i := strings.LastIndexByte(pathToMatch, '/'); i >= 0 {
		base = pathToMatch[i+1:]
	}
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
