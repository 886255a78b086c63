package logsearch

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varalys/logsearch/pkg/core"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func zipOf(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	var out, errb bytes.Buffer
	code := run(context.Background(), args, &out, &errb)
	return result{code: code, stdout: out.String(), stderr: errb.String()}
}

func TestCLI_PrintsMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.log", []byte("boot\nERROR disk\nok\n"))

	r := runCLI(t, "--path", dir, "-s", "ERROR")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "app.log:2: ERROR disk\n", r.stdout)
	assert.Empty(t, r.stderr)
}

func TestCLI_NoMatchesStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.log", []byte("fine\n"))
	r := runCLI(t, "--path", dir, "-s", "ERROR")
	assert.Equal(t, exitOK, r.code)
	assert.Empty(t, r.stdout)
}

func TestCLI_FatalErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.log", []byte("ERROR\n"))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing path", []string{"--path", filepath.Join(dir, "nope"), "-s", "ERROR"}, "invalid path"},
		{"path is a file", []string{"--path", filepath.Join(dir, "app.log"), "-s", "ERROR"}, "not a directory"},
		{"bad regex", []string{"--path", dir, "-s", "(ERROR"}, "invalid search pattern"},
		{"empty search", []string{"--path", dir, "-s", ""}, "invalid search pattern"},
		{"negative depth", []string{"--path", dir, "-s", "ERROR", "--max-depth", "-1"}, "max-depth"},
		{"unknown encoding", []string{"--path", dir, "-s", "ERROR", "--encoding", "nope-42"}, "encoding"},
		{"required flags", []string{"-s", "ERROR"}, "path"},
		{"missing presets", []string{"--path", dir, "-s", "ERROR", "--config", filepath.Join(dir, "none.yaml")}, "load presets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, tt.args...)
			assert.Equal(t, exitFatal, r.code)
			assert.Empty(t, r.stdout, "no match output on fatal errors")
			assert.True(t, strings.HasPrefix(r.stderr, "error: "), r.stderr)
			assert.Contains(t, r.stderr, tt.want)
		})
	}
}

func TestCLI_DepthLimit(t *testing.T) {
	dir := t.TempDir()
	c := zipOf(t, "match.log", []byte("NEEDLE\n"))
	writeFile(t, dir, "a.zip", zipOf(t, "b.zip", zipOf(t, "c.zip", c)))

	r := runCLI(t, "--path", dir, "-s", "NEEDLE", "-e", "--max-depth", "2")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Empty(t, r.stdout)

	r = runCLI(t, "--path", dir, "-s", "NEEDLE", "-e", "--max-depth", "3")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "a.zip/b.zip/c.zip/match.log:1: NEEDLE\n", r.stdout)
}

func TestCLI_RecursiveAndPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.log", []byte("hit\n"))
	writeFile(t, dir, "top.txt", []byte("hit\n"))
	writeFile(t, dir, "sub/deep.LOG", []byte("hit\n"))

	r := runCLI(t, "--path", dir, "-s", "hit", "-f", "*.log")
	assert.Equal(t, "top.log:1: hit\n", r.stdout)

	r = runCLI(t, "--path", dir, "-s", "hit", "-f", "*.log", "-r")
	assert.Equal(t, "sub/deep.LOG:1: hit\ntop.log:1: hit\n", r.stdout)
}

func TestCLI_IgnoreCaseAndFixedStrings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.log", []byte("ERROR\nError\neRRor\nx.y\nxzy\n"))

	r := runCLI(t, "--path", dir, "-s", "error", "-i")
	assert.Equal(t, 3, strings.Count(r.stdout, "\n"))

	r = runCLI(t, "--path", dir, "-s", "x.y", "-F")
	assert.Equal(t, "a.log:4: x.y\n", r.stdout)
}

func TestCLI_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.log", []byte("one ERROR\n"))
	r := runCLI(t, "--path", dir, "-s", "ERROR", "--json")
	require.Equal(t, exitOK, r.code, r.stderr)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(r.stdout)), &rec))
	assert.Equal(t, "a.log", rec["path"])
	assert.EqualValues(t, 1, rec["line"])
	assert.EqualValues(t, 4, rec["start"])
	assert.EqualValues(t, 9, rec["end"])
	assert.Len(t, rec["fingerprint"], 16)
}

func TestCLI_JSONArray(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.log", []byte("one ERROR\ntwo\nthree ERROR\n"))
	r := runCLI(t, "--path", dir, "-s", "ERROR", "--json-array")
	require.Equal(t, exitOK, r.code, r.stderr)

	ms, err := core.UnmarshalMatches(strings.NewReader(r.stdout))
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "a.log", ms[0].Path)
	assert.Equal(t, 3, ms[1].Line)

	r = runCLI(t, "--path", dir, "-s", "nothing-here", "--json-array")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "[]\n", r.stdout)
}

func TestCLI_JSONAndJSONArrayConflict(t *testing.T) {
	r := runCLI(t, "--path", t.TempDir(), "-s", "x", "--json", "--json-array")
	assert.Equal(t, exitFatal, r.code)
	assert.Empty(t, r.stdout)
}

func TestCLI_MalformedGlobIsFatal(t *testing.T) {
	r := runCLI(t, "--path", t.TempDir(), "-s", "x", "-f", "[abc")
	assert.Equal(t, exitFatal, r.code)
	assert.Contains(t, r.stderr, "file-patterns")
}

func TestCLI_NULPrefixedLog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.log", []byte("\x00\x00\x00\x00\nERROR disk full\n"))
	r := runCLI(t, "--path", dir, "-s", "ERROR")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "app.log:2: ERROR disk full\n", r.stdout)
}

func TestCLI_VerboseWritesDiagnosticsToStderr(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.log", []byte("hit\n"))
	writeFile(t, dir, "blob.zip", zipOf(t, "in.log", []byte("hit\n")))

	r := runCLI(t, "--path", dir, "-s", "hit", "-v")
	require.Equal(t, exitOK, r.code)
	assert.Equal(t, "a.log:1: hit\n", r.stdout)
	assert.Contains(t, r.stderr, "[DEBUG] entering directory")
	assert.Contains(t, r.stderr, "Files processed: 2")
	assert.Contains(t, r.stderr, "Matches found: 1")
	assert.Contains(t, r.stderr, "blob.zip")
	assert.Contains(t, r.stderr, "binary content")
}

func TestCLI_PresetsFileAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub/a.log", []byte("Hit\n"))
	presets := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(presets, []byte("recursive: true\nignore_case: true\n"), 0o644))

	r := runCLI(t, "--path", dir, "-s", "hit", "--config", presets)
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "sub/a.log:1: Hit\n", r.stdout)

	r = runCLI(t, "--path", dir, "-s", "hit", "--config", presets, "--recursive=false")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Empty(t, r.stdout)
}

func TestCLI_Progress(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.log", []byte("hit\n"))
	r := runCLI(t, "--path", dir, "-s", "hit", "--progress")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "a.log:1: hit\n", r.stdout)
}

func TestCLI_Interrupted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.log", []byte("hit\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errb bytes.Buffer
	code := run(ctx, []string{"--path", dir, "-s", "hit"}, &out, &errb)
	assert.Equal(t, exitInterrupted, code)
	assert.Empty(t, out.String())
}

func TestCLI_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.log", []byte("hit 1\n"))
	writeFile(t, dir, "a/c.log", []byte("hit 2\n"))
	writeFile(t, dir, "a/d.zip", zipOf(t, "e.log", []byte("hit 3\n")))
	args := []string{"--path", dir, "-s", "hit", "-r", "-e"}
	first := runCLI(t, args...)
	second := runCLI(t, args...)
	assert.Equal(t, first.stdout, second.stdout)
	assert.Equal(t, "a/c.log:1: hit 2\na/d.zip/e.log:1: hit 3\nb.log:1: hit 1\n", first.stdout)
}

func TestPick(t *testing.T) {
	on := true
	depth := 7
	assert.True(t, pick(false, false, &on))
	assert.False(t, pick(true, false, &on))
	assert.False(t, pick(false, false, (*bool)(nil)))
	assert.Equal(t, 7, pick(false, 5, &depth))
	assert.Equal(t, 2, pick(true, 2, &depth))
}
