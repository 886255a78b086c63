package core

import (
	"encoding/json"
	"io"
)

// MarshalMatches pretty-prints matches as a JSON array. A nil slice is
// written as [].
func MarshalMatches(w io.Writer, matches []Match) error {
	if matches == nil {
		matches = []Match{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(matches)
}

// UnmarshalMatches decodes a JSON array written by MarshalMatches.
func UnmarshalMatches(r io.Reader) ([]Match, error) {
	var ms []Match
	if err := json.NewDecoder(r).Decode(&ms); err != nil {
		return nil, err
	}
	return ms, nil
}
