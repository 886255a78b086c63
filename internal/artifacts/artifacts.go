package artifacts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/varalys/logsearch/internal/textio"
	"github.com/varalys/logsearch/internal/types"
)

// Limits bounds the work spent on one top-level artifact and its nested
// archives. Zero values disable the byte and entry limits; MaxDepth 0 means
// no archive is ever opened.
type Limits struct {
	MaxArchiveBytes int64
	MaxEntries      int
	MaxDepth        int
}

// Options configures a Reader.
type Options struct {
	// Extract enables descending into archives and compressed streams.
	// When false every file is read as plain text.
	Extract bool
	Limits  Limits
	// Decoder converts non UTF-8 input; nil means UTF-8.
	Decoder *textio.Decoder
}

// LineFunc receives every text line with the virtual path it came from.
type LineFunc func(vpath string, n int, line string)

// SkipFunc receives every recoverable per-item condition.
type SkipFunc func(types.Skip)

// Logger receives verbose diagnostics.
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

// ReadError reports an unreadable or corrupt file or archive entry. It never
// aborts the search; the Reader records it as a skip and moves on.
type ReadError struct {
	Path   string
	Reason types.SkipReason
	Err    error
}

func (e *ReadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Stats summarizes what a Reader processed.
type Stats struct {
	Files            int
	Entries          int
	Archives         int
	InvalidLines     int
	AbortedByBytes   int
	AbortedByEntries int
	AbortedByDepth   int
}

var errBudget = errors.New("archive budget exceeded")

// budget tracks per top-level artifact counters.
type budget struct {
	decompressed int64
	entries      int
	tripped      bool
}

// frame is the archive context of the item being read: the virtual path
// built from the chain of enclosing archives and the number of archive
// boundaries crossed to reach it.
type frame struct {
	path  string
	depth int
}

type seekReaderAt interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Reader dispatches files to the plain-text or archive path and emits lines.
type Reader struct {
	opts  Options
	line  LineFunc
	skip  SkipFunc
	log   Logger
	stats Stats
}

// NewReader returns a Reader. skip and log may be nil.
func NewReader(opts Options, line LineFunc, skip SkipFunc, log Logger) *Reader {
	if skip == nil {
		skip = func(types.Skip) {}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Reader{opts: opts, line: line, skip: skip, log: log}
}

// Stats returns the counters accumulated so far.
func (r *Reader) Stats() Stats { return r.stats }

// ScanFile reads the file at fullPath, reporting lines under vpath. Per-item
// failures are recorded through the skip hook; the only errors returned are
// context cancellation errors.
func (r *Reader) ScanFile(ctx context.Context, fullPath, vpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return r.settle(&ReadError{Path: vpath, Reason: types.SkipUnreadable, Err: err})
	}
	defer f.Close()
	r.stats.Files++
	root := frame{path: vpath}
	if !r.opts.Extract {
		br := bufio.NewReaderSize(f, 64*1024)
		head, _ := br.Peek(headerLen)
		if archiveCandidate(filepath.Base(fullPath), head) {
			return r.settle(r.scanUnknown(ctx, root, br, &budget{}))
		}
		return r.settle(r.scanText(ctx, root, br, &budget{}))
	}
	return r.settle(r.scanSeekable(ctx, root, filepath.Base(fullPath), f, &budget{}))
}

// settle records a ReadError as a skip and swallows it. Any other error is
// returned unchanged.
func (r *Reader) settle(err error) error {
	var re *ReadError
	if errors.As(err, &re) {
		s := types.Skip{Path: re.Path, Reason: re.Reason}
		if re.Err != nil {
			s.Detail = re.Err.Error()
		}
		r.log.Debugf("skip %s: %s", re.Path, re.Reason)
		r.skip(s)
		return nil
	}
	return err
}

// depthAllows reports whether an archive at fr may be opened. It records
// the depth stop when it may not.
func (r *Reader) depthAllows(fr frame) bool {
	if fr.depth+1 <= r.opts.Limits.MaxDepth {
		return true
	}
	r.stats.AbortedByDepth++
	r.log.Debugf("max depth %d reached at %s, not extracting", r.opts.Limits.MaxDepth, fr.path)
	r.skip(types.Skip{Path: fr.path, Reason: types.SkipDepth})
	return false
}

// scanSeekable resolves the Kind of src and follows it. src is a file or an
// in-memory blob of a nested entry.
func (r *Reader) scanSeekable(ctx context.Context, fr frame, name string, src seekReaderAt, b *budget) error {
	kind, format, err := Identify(ctx, name, src)
	if err != nil {
		// Usually a name match whose header check failed.
		return r.notAnArchive(ctx, fr, src, b, err)
	}
	switch kind {
	case KindArchive, KindCompressed:
		if !r.depthAllows(fr) {
			return r.scanOpaque(ctx, fr, src, b)
		}
		r.log.Debugf("opening %s as %s (depth %d)", fr.path, strings.TrimPrefix(format.Extension(), "."), fr.depth+1)
		if kind == KindArchive {
			// zip.gz and friends: the compressed layer is its own level.
			if comp, ex := splitCompressed(format); comp != nil && (ex == nil || !streamable(ex)) {
				return r.decompress(ctx, fr, name, comp, src, b)
			}
			return r.extract(ctx, fr, format.(archives.Extractor), src, b)
		}
		return r.decompress(ctx, fr, name, format.(archives.Decompressor), src, b)
	case KindUnsupported:
		r.log.Debugf("%s: %s cannot be extracted, reading as text", fr.path, format.Extension())
		err := r.scanUnknown(ctx, fr, src, b)
		var re *ReadError
		if errors.As(err, &re) && re.Reason == types.SkipBinary {
			return &ReadError{Path: fr.path, Reason: types.SkipUnsupported, Err: fmt.Errorf("format %s", format.Extension())}
		}
		return err
	}
	return r.scanText(ctx, fr, src, b)
}

// scanOpaque reads an archive that was not extracted as plain text. Binary
// content is expected here and is not reported a second time.
func (r *Reader) scanOpaque(ctx context.Context, fr frame, src io.Reader, b *budget) error {
	err := r.scanUnknown(ctx, fr, src, b)
	var re *ReadError
	if errors.As(err, &re) && re.Reason == types.SkipBinary {
		return nil
	}
	return err
}

func (r *Reader) extract(ctx context.Context, fr frame, ex archives.Extractor, src seekReaderAt, b *budget) error {
	r.stats.Archives++
	inner := fr.depth + 1
	handled := 0
	stopped := false
	err := ex.Extract(ctx, src, func(ctx context.Context, f archives.FileInfo) error {
		handled++
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.IsDir() || !f.Mode().IsRegular() {
			return nil
		}
		if r.exhausted(b) {
			stopped = true
			return fs.SkipAll
		}
		if r.opts.Limits.MaxEntries > 0 && b.entries >= r.opts.Limits.MaxEntries {
			if !b.tripped {
				r.stats.AbortedByEntries++
			}
			stopped = true
			return fs.SkipAll
		}
		b.entries++
		child := frame{path: JoinVirtual(fr.path, f.NameInArchive), depth: inner}
		rc, err := f.Open()
		if err != nil {
			return r.settle(&ReadError{Path: child.path, Reason: types.SkipCorrupt, Err: err})
		}
		defer rc.Close()
		return r.settle(r.scanEntry(ctx, child, path.Base(f.NameInArchive), rc, b))
	})
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case stopped:
		return r.budgetExceeded(fr.path, b)
	case err != nil && handled == 0:
		return r.notAnArchive(ctx, fr, src, b, err)
	case err != nil:
		return &ReadError{Path: fr.path, Reason: types.SkipCorrupt, Err: err}
	}
	return nil
}

// notAnArchive handles a source that was identified as an archive, mostly
// by name, but could not be opened. Text content is still searched; binary
// content is reported as a corrupt archive.
func (r *Reader) notAnArchive(ctx context.Context, fr frame, src io.ReadSeeker, b *budget, cause error) error {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return &ReadError{Path: fr.path, Reason: types.SkipCorrupt, Err: cause}
	}
	err := r.scanUnknown(ctx, fr, src, b)
	var re *ReadError
	if errors.As(err, &re) && re.Reason == types.SkipBinary {
		return &ReadError{Path: fr.path, Reason: types.SkipCorrupt, Err: cause}
	}
	if err == nil {
		r.log.Debugf("%s: not an archive (%v), searched as text", fr.path, cause)
	}
	return err
}

func (r *Reader) decompress(ctx context.Context, fr frame, name string, dc archives.Decompressor, src io.ReadSeeker, b *budget) error {
	rc, err := dc.OpenReader(src)
	if err != nil {
		return r.notAnArchive(ctx, fr, src, b, err)
	}
	defer rc.Close()
	r.stats.Archives++
	inner := TrimCompressionExt(name)
	child := frame{path: JoinVirtual(fr.path, inner), depth: fr.depth + 1}
	return r.scanEntry(ctx, child, inner, rc, b)
}

// scanEntry handles a non-seekable stream: an archive member or the output
// of a decompressor. Members that look like archives are buffered so they
// can be identified and opened; everything else is streamed as text.
func (r *Reader) scanEntry(ctx context.Context, fr frame, name string, rc io.Reader, b *budget) error {
	r.stats.Entries++
	br := bufio.NewReaderSize(r.limit(rc, b), 64*1024)
	head, err := br.Peek(headerLen)
	if err != nil && !errors.Is(err, io.EOF) {
		// The stream ended early; search what arrived before the failure.
		partial := io.MultiReader(bytes.NewReader(head), failingReader{err})
		return corruptOnFailure(r.scanText(ctx, fr, partial, b))
	}
	if !r.opts.Extract || !archiveCandidate(name, head) {
		return corruptOnFailure(r.scanText(ctx, fr, br, b))
	}
	if !r.depthAllows(fr) {
		return r.scanOpaque(ctx, fr, br, b)
	}
	blob, err := io.ReadAll(br)
	if err != nil {
		if errors.Is(err, errBudget) {
			return r.budgetExceeded(fr.path, b)
		}
		return &ReadError{Path: fr.path, Reason: types.SkipCorrupt, Err: err}
	}
	return r.scanSeekable(ctx, fr, name, bytes.NewReader(blob), b)
}

// scanText searches src line by line whatever bytes it holds.
func (r *Reader) scanText(ctx context.Context, fr frame, src io.Reader, b *budget) error {
	return r.lines(ctx, fr, src, b, textio.ScanLines)
}

// scanUnknown is scanText for bytes that may be an archive or other binary
// data; those yield a SkipBinary error instead of lines.
func (r *Reader) scanUnknown(ctx context.Context, fr frame, src io.Reader, b *budget) error {
	return r.lines(ctx, fr, src, b, textio.ScanLinesIfText)
}

type scanFunc func(context.Context, io.Reader, *textio.Decoder, func(int, string)) (textio.Stats, error)

func (r *Reader) lines(ctx context.Context, fr frame, src io.Reader, b *budget, scan scanFunc) error {
	st, err := scan(ctx, src, r.opts.Decoder, func(n int, line string) {
		r.line(fr.path, n, line)
	})
	if st.InvalidLines > 0 {
		r.stats.InvalidLines += st.InvalidLines
		r.log.Debugf("%s: %d line(s) with invalid %s substituted", fr.path, st.InvalidLines, r.opts.Decoder.Name())
	}
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, textio.ErrBinary):
		return &ReadError{Path: fr.path, Reason: types.SkipBinary}
	case errors.Is(err, errBudget):
		return r.budgetExceeded(fr.path, b)
	}
	return &ReadError{Path: fr.path, Reason: types.SkipUnreadable, Err: err}
}

func (r *Reader) exhausted(b *budget) bool {
	return r.opts.Limits.MaxArchiveBytes > 0 && b.decompressed >= r.opts.Limits.MaxArchiveBytes
}

// budgetExceeded reports the first budget stop of an artifact; later stops
// of the enclosing archives are silent.
func (r *Reader) budgetExceeded(vpath string, b *budget) error {
	if b.tripped {
		return nil
	}
	b.tripped = true
	if r.exhausted(b) {
		r.stats.AbortedByBytes++
	}
	return &ReadError{Path: vpath, Reason: types.SkipBudget, Err: errBudget}
}

func (r *Reader) limit(rd io.Reader, b *budget) io.Reader {
	if r.opts.Limits.MaxArchiveBytes <= 0 {
		return &countingReader{r: rd, b: b}
	}
	return &countingReader{r: rd, b: b, max: r.opts.Limits.MaxArchiveBytes}
}

// countingReader charges decompressed bytes to the artifact budget and fails
// with errBudget once max is reached.
type countingReader struct {
	r   io.Reader
	b   *budget
	max int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.max > 0 {
		remain := c.max - c.b.decompressed
		if remain <= 0 {
			// Only more data trips the budget, not a stream ending on it.
			var one [1]byte
			n, err := c.r.Read(one[:])
			if n > 0 {
				return 0, errBudget
			}
			return 0, err
		}
		if int64(len(p)) > remain {
			p = p[:remain]
		}
	}
	n, err := c.r.Read(p)
	c.b.decompressed += int64(n)
	return n, err
}

// failingReader returns err on every read.
type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

// corruptOnFailure reports a stream that fails mid-read as a corrupt entry;
// the lines read before the failure have already been emitted.
func corruptOnFailure(err error) error {
	var re *ReadError
	if errors.As(err, &re) && re.Reason == types.SkipUnreadable {
		re.Reason = types.SkipCorrupt
	}
	return err
}

// TrimCompressionExt strips a single-stream compression suffix from name,
// mapping the tar shorthands back to ".tar".
func TrimCompressionExt(name string) string {
	lower := strings.ToLower(name)
	for _, s := range []string{".tgz", ".tbz2", ".tbz", ".txz", ".tzst"} {
		if strings.HasSuffix(lower, s) {
			return name[:len(name)-len(s)] + ".tar"
		}
	}
	for _, s := range compressionExts {
		if strings.HasSuffix(lower, s) && len(name) > len(s) {
			return name[:len(name)-len(s)]
		}
	}
	return name
}
