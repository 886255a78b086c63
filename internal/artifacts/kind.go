package artifacts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/mholt/archives"
)

// Kind is how a file or archive member is read.
type Kind int

const (
	// KindText is read line by line.
	KindText Kind = iota
	// KindArchive is a multi-entry container (zip, tar and compressed tar, 7z, rar).
	KindArchive
	// KindCompressed is a single compressed stream (gzip, bzip2, xz, zstd, ...).
	KindCompressed
	// KindUnsupported was recognized but cannot be extracted.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindArchive:
		return "archive"
	case KindCompressed:
		return "compressed"
	default:
		return "unsupported"
	}
}

// Identify resolves the Kind of src by signature, falling back to the file
// name. src is rewound before returning.
func Identify(ctx context.Context, name string, src io.ReadSeeker) (Kind, archives.Format, error) {
	format, _, err := archives.Identify(ctx, name, src)
	if _, serr := src.Seek(0, io.SeekStart); serr != nil {
		return KindUnsupported, nil, serr
	}
	if errors.Is(err, archives.NoMatch) {
		return KindText, nil, nil
	}
	if err != nil {
		return KindUnsupported, nil, err
	}
	if _, ok := format.(archives.Extractor); ok {
		return KindArchive, format, nil
	}
	if _, ok := format.(archives.Decompressor); ok {
		return KindCompressed, format, nil
	}
	return KindUnsupported, format, nil
}

// headerLen covers the tar magic at offset 257.
const headerLen = 512

var archiveExts = []string{
	".zip", ".tar", ".tgz", ".tbz2", ".tbz", ".txz", ".tzst", ".7z", ".rar",
}

// compressionExts are single-stream suffixes, longest first where they overlap.
var compressionExts = []string{
	".gz", ".bz2", ".xz", ".zst", ".lz4", ".sz", ".br", ".lz",
}

var signatures = [][]byte{
	[]byte("PK\x03\x04"),
	[]byte("PK\x05\x06"),
	{0x1f, 0x8b},
	[]byte("BZh"),
	{0xfd, '7', 'z', 'X', 'Z', 0x00},
	{0x28, 0xb5, 0x2f, 0xfd},
	{0x04, 0x22, 0x4d, 0x18},
	{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c},
	[]byte("Rar!\x1a\x07"),
}

// archiveCandidate is a cheap pre-check on an archive member before it is
// buffered for identification.
func archiveCandidate(name string, head []byte) bool {
	lower := strings.ToLower(name)
	for _, s := range archiveExts {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	for _, s := range compressionExts {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(head, sig) {
			return true
		}
	}
	return len(head) >= 262 && string(head[257:262]) == "ustar"
}

// splitCompressed unpacks a compressed container such as zip.gz or tar.xz.
// ex is nil when only the compression layer was recognized.
func splitCompressed(f archives.Format) (archives.Decompressor, archives.Extractor) {
	var comp archives.Compression
	var ex archives.Extraction
	switch ca := any(f).(type) {
	case archives.CompressedArchive:
		comp, ex = ca.Compression, ca.Extraction
	case *archives.CompressedArchive:
		comp, ex = ca.Compression, ca.Extraction
	}
	if comp == nil {
		return nil, nil
	}
	return comp, ex
}

// streamable reports whether ex reads its input sequentially.
func streamable(ex archives.Extractor) bool {
	switch any(ex).(type) {
	case archives.Tar, *archives.Tar:
		return true
	}
	return false
}
