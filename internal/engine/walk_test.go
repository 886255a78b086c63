package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varalys/logsearch/internal/types"
)

func mustWrite(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func walkRel(t *testing.T, cfg Config) ([]string, []types.Skip) {
	t.Helper()
	var got []string
	var skips []types.Skip
	err := Walk(context.Background(), cfg, func(s types.Skip) { skips = append(skips, s) }, func(_, rel string) error {
		got = append(got, rel)
		return nil
	})
	require.NoError(t, err)
	return got, skips
}

func TestWalk_NonRecursiveListsOnlyRoot(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "top.log", "x")
	mustWrite(t, dir, "sub/deep.log", "x")

	got, _ := walkRel(t, Config{Root: dir, FilePatterns: "*.log"})
	assert.Equal(t, []string{"top.log"}, got)

	got, _ = walkRel(t, Config{Root: dir, FilePatterns: "*.log", Recursive: true})
	assert.Equal(t, []string{"sub/deep.log", "top.log"}, got)
}

func TestWalk_GlobsAreCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "APP.LOG", "x")
	mustWrite(t, dir, "b.Zip", "x")
	mustWrite(t, dir, "c.md", "x")

	got, _ := walkRel(t, Config{Root: dir, FilePatterns: "*.log, *.zip"})
	assert.Equal(t, []string{"APP.LOG", "b.Zip"}, got)
}

func TestWalk_EmptyPatternsMatchAll(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "a.txt", "x")
	mustWrite(t, dir, "b", "x")
	got, _ := walkRel(t, Config{Root: dir})
	assert.Equal(t, []string{"a.txt", "b"}, got)
}

func TestWalk_WithIncludeExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "logs/app.log", "x")
	mustWrite(t, dir, "logs/old/app.log", "x")
	mustWrite(t, dir, "other/app.log", "x")

	got, _ := walkRel(t, Config{Root: dir, Recursive: true, FilePatterns: "logs/**/*.log", ExcludeGlobs: "**/old/**"})
	assert.Equal(t, []string{"logs/app.log"}, got)
}

func TestWalk_MaxFileBytes(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "small.log", "x")
	mustWrite(t, dir, "big.log", "0123456789")

	got, skips := walkRel(t, Config{Root: dir, MaxFileBytes: 5})
	assert.Equal(t, []string{"small.log"}, got)
	require.Len(t, skips, 1)
	assert.Equal(t, types.Skip{Path: "big.log", Reason: types.SkipTooLarge}, skips[0])
}

func TestWalk_InvalidRoot(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "file.log", "x")

	for _, root := range []string{filepath.Join(dir, "missing"), filepath.Join(dir, "file.log"), ""} {
		err := Walk(context.Background(), Config{Root: root}, nil, func(string, string) error {
			t.Fatalf("visited a file under invalid root %q", root)
			return nil
		})
		var pe *InvalidPathError
		assert.ErrorAs(t, err, &pe, root)
	}
}

func TestWalk_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "a.log", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Walk(ctx, Config{Root: dir}, nil, func(string, string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountTargets(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "a.log", "x")
	mustWrite(t, dir, "b.txt", "x")
	mustWrite(t, dir, "sub/c.log", "x")

	n, err := CountTargets(Config{Root: dir, FilePatterns: "*.log"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = CountTargets(Config{Root: dir, FilePatterns: "*.log", Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestParseGlobsList(t *testing.T) {
	assert.Nil(t, parseGlobsList(""))
	assert.Equal(t, []string{"*.log", "**/x/*.gz", "x/*.gz"}, parseGlobsList(" *.LOG ,, **/x/*.gz"))
}
