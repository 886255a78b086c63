// Package textio reads text content line by line, tolerating invalid
// encodings. Bytes of unknown nature can be refused when they look binary.
package textio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// SniffLen is how many leading bytes are inspected for NUL bytes.
const SniffLen = 800

const readBufferSize = 64 * 1024

// ErrBinary is returned when the content looks like binary data.
var ErrBinary = errors.New("binary content")

// Stats counts what ScanLines saw.
type Stats struct {
	Lines int
	// InvalidLines counts lines that had undecodable bytes replaced with U+FFFD.
	InvalidLines int
}

// Decoder converts input bytes to UTF-8. A nil *Decoder passes UTF-8 through.
type Decoder struct {
	name string
	enc  encoding.Encoding
}

// LookupDecoder resolves a WHATWG encoding label such as "windows-1251" or
// "latin1". Empty and UTF-8 labels return nil.
func LookupDecoder(label string) (*Decoder, error) {
	n := strings.ToLower(strings.TrimSpace(label))
	if n == "" || n == "utf-8" || n == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(n)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return &Decoder{name: n, enc: enc}, nil
}

// Name returns the normalized encoding label.
func (d *Decoder) Name() string {
	if d == nil {
		return "utf-8"
	}
	return d.name
}

func (d *Decoder) wrap(r io.Reader) io.Reader {
	if d == nil {
		return r
	}
	return d.enc.NewDecoder().Reader(r)
}

// LooksBinary reports whether the first SniffLen bytes contain a NUL.
func LooksBinary(b []byte) bool {
	n := SniffLen
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

// ScanLines calls fn for every line of r with its 1-based number. Line
// terminators ("\n" and "\r\n") are stripped. Invalid UTF-8 sequences are
// substituted, never fatal, and NUL bytes are kept as they are. The context
// is polled periodically so a cancelled search stops inside long files.
func ScanLines(ctx context.Context, r io.Reader, dec *Decoder, fn func(n int, line string)) (Stats, error) {
	return scan(ctx, r, dec, false, fn)
}

// ScanLinesIfText is ScanLines for bytes of unknown nature, such as an
// archive that was not opened. It returns ErrBinary without calling fn when
// the first SniffLen bytes contain a NUL.
func ScanLinesIfText(ctx context.Context, r io.Reader, dec *Decoder, fn func(n int, line string)) (Stats, error) {
	return scan(ctx, r, dec, true, fn)
}

func scan(ctx context.Context, r io.Reader, dec *Decoder, sniff bool, fn func(n int, line string)) (Stats, error) {
	var st Stats
	br := bufio.NewReaderSize(dec.wrap(r), readBufferSize)
	if sniff {
		head, err := br.Peek(SniffLen)
		if err != nil && len(head) == 0 && !errors.Is(err, io.EOF) {
			return st, err
		}
		if LooksBinary(head) {
			return st, ErrBinary
		}
	}
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			st.Lines++
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if !utf8.ValidString(line) {
				st.InvalidLines++
				line = strings.ToValidUTF8(line, "�")
			}
			fn(st.Lines, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return st, nil
			}
			return st, err
		}
		if st.Lines%4096 == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return st, cerr
			}
		}
	}
}
