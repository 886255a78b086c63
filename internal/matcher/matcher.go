// Package matcher compiles the search term once per invocation and tests
// individual lines against it.
package matcher

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/varalys/logsearch/internal/types"
)

// Options controls how the search term is interpreted.
type Options struct {
	// Literal treats the term as an exact substring instead of a regexp.
	Literal bool
	// IgnoreCase folds case for both literal and regexp terms.
	IgnoreCase bool
}

// InvalidPatternError reports a search term that cannot be compiled.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid search pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

var errEmptyPattern = errors.New("search term is empty")

// Matcher finds the first occurrence of the compiled term in a line.
type Matcher struct {
	term string
	re   *regexp.Regexp
}

// Compile builds a Matcher for term. Literal terms are quoted so that the
// same case-folding rules apply to both kinds.
func Compile(term string, opts Options) (*Matcher, error) {
	if term == "" {
		return nil, &InvalidPatternError{Pattern: term, Err: errEmptyPattern}
	}
	if !utf8.ValidString(term) {
		return nil, &InvalidPatternError{Pattern: term, Err: errors.New("search term is not valid UTF-8")}
	}
	expr := term
	if opts.Literal {
		expr = regexp.QuoteMeta(term)
	}
	if opts.IgnoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: term, Err: err}
	}
	return &Matcher{term: term, re: re}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level fixtures.
func MustCompile(term string, opts Options) *Matcher {
	m, err := Compile(term, opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Term returns the search term as given by the caller.
func (m *Matcher) Term() string { return m.term }

// Find returns the span of the first match in line.
func (m *Matcher) Find(line string) (types.Span, bool) {
	loc := m.re.FindStringIndex(line)
	if loc == nil {
		return types.Span{}, false
	}
	return types.Span{Start: loc[0], End: loc[1]}, true
}

// Match runs Find and, on success, builds the result for path and the
// 1-based line number.
func (m *Matcher) Match(path string, lineNo int, line string) (types.Match, bool) {
	sp, ok := m.Find(line)
	if !ok {
		return types.Match{}, false
	}
	return types.Match{Path: path, Line: lineNo, Text: line, Span: sp}, true
}
