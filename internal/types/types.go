package types

// Span is a half-open byte range [Start, End) within a line.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.End <= s.Start }

// Match describes a line that matched the search term at a path and line.
// Path is a virtual path when the line came from inside an archive, e.g.
// "backup.zip/app.log.gz/app.log".
type Match struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
	Span Span   `json:"span"`
}

// SkipReason classifies why a path or archive entry was not searched.
type SkipReason string

const (
	SkipUnreadable  SkipReason = "unreadable"
	SkipCorrupt     SkipReason = "corrupt archive"
	SkipUnsupported SkipReason = "unsupported format"
	SkipBinary      SkipReason = "binary content"
	SkipTooLarge    SkipReason = "too large"
	SkipDepth       SkipReason = "max depth reached"
	SkipBudget      SkipReason = "archive budget exceeded"
)

// Skip records a recoverable per-item condition. Detail carries the
// underlying error text, when there is one.
type Skip struct {
	Path   string     `json:"path"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}
