package report

import (
	"fmt"
	"strconv"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/varalys/logsearch/internal/types"
)

// Record is the JSON Lines shape of a match.
type Record struct {
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Text        string `json:"text"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Fingerprint string `json:"fingerprint"`
}

func newRecord(m types.Match) Record {
	return Record{
		Path:        m.Path,
		Line:        m.Line,
		Text:        m.Text,
		Start:       m.Span.Start,
		End:         m.Span.End,
		Fingerprint: Fingerprint(m),
	}
}

// Fingerprint is a stable 16 hex digit hash of a match's path, line number
// and text, usable to deduplicate results across runs.
func Fingerprint(m types.Match) string {
	d := xxhash.New()
	_, _ = d.WriteString(m.Path)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(strconv.Itoa(m.Line))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(m.Text)
	return fmt.Sprintf("%016x", d.Sum64())
}
