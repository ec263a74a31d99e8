// Package filename parses output filename patterns such as
// "bundle.[contenthash].js" into literal and placeholder segments.
package filename

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Placeholder names recognised inside brackets.
const (
	TokenName        = "name"
	TokenID          = "id"
	TokenExt         = "ext"
	TokenHash        = "hash"
	TokenContentHash = "contenthash"
	TokenChunkHash   = "chunkhash"
)

const (
	// DefaultHashLength is used when a hash token carries no explicit length.
	DefaultHashLength = 20
	// MaxHashLength is the length of a full hex SHA-256 digest.
	MaxHashLength = sha256.Size * 2
)

var knownTokens = map[string]bool{
	TokenName:        true,
	TokenID:          true,
	TokenExt:         true,
	TokenHash:        true,
	TokenContentHash: true,
	TokenChunkHash:   true,
}

// ErrInvalidPattern is returned for malformed filename patterns.
var ErrInvalidPattern = errors.New("invalid filename pattern")

// Segment is either a literal run of text or a placeholder.
type Segment struct {
	Literal string
	Token   string
	// Length truncates hash tokens; 0 means DefaultHashLength.
	Length int
}

// IsToken reports whether the segment is a placeholder.
func (s Segment) IsToken() bool {
	return s.Token != ""
}

// IsHash reports whether the segment is a content-derived hash placeholder.
func (s Segment) IsHash() bool {
	return isHashToken(s.Token)
}

func isHashToken(tok string) bool {
	return tok == TokenHash || tok == TokenContentHash || tok == TokenChunkHash
}

// Pattern is a parsed filename pattern.
type Pattern struct {
	raw      string
	segments []Segment
}

// Parse splits s into segments. Unknown tokens, unterminated brackets and
// lengths on non-hash tokens are errors.
func Parse(s string) (Pattern, error) {
	if s == "" {
		return Pattern{}, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	var segs []Segment
	rest := s
	for rest != "" {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			segs = append(segs, Segment{Literal: rest})
			break
		}
		if open > 0 {
			segs = append(segs, Segment{Literal: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], ']')
		if end < 0 {
			return Pattern{}, fmt.Errorf("%w: unterminated placeholder in %q", ErrInvalidPattern, s)
		}
		seg, err := parseToken(rest[open+1 : open+end])
		if err != nil {
			return Pattern{}, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, s, err)
		}
		segs = append(segs, seg)
		rest = rest[open+end+1:]
	}

	return Pattern{raw: s, segments: segs}, nil
}

func parseToken(body string) (Segment, error) {
	name, length, hasLength := strings.Cut(body, ":")
	if !knownTokens[name] {
		return Segment{}, fmt.Errorf("unknown placeholder [%s]", body)
	}
	seg := Segment{Token: name}
	if !hasLength {
		return seg, nil
	}
	if !isHashToken(name) {
		return Segment{}, fmt.Errorf("placeholder [%s] does not take a length", name)
	}
	n, err := strconv.Atoi(length)
	if err != nil || n <= 0 || n > MaxHashLength {
		return Segment{}, fmt.Errorf("invalid hash length %q", length)
	}
	seg.Length = n
	return seg, nil
}

// String returns the pattern as declared.
func (p Pattern) String() string {
	return p.raw
}

// HashTokens counts hash placeholders.
func (p Pattern) HashTokens() int {
	n := 0
	for _, s := range p.segments {
		if s.IsHash() {
			n++
		}
	}
	return n
}

// Suffix returns the literal text after the last placeholder, or the whole
// pattern when it has none.
func (p Pattern) Suffix() string {
	if len(p.segments) == 0 {
		return ""
	}
	last := p.segments[len(p.segments)-1]
	if last.IsToken() {
		return ""
	}
	return last.Literal
}

// Vars supplies values for Render. Hash is the full hex digest; it is
// truncated per token.
type Vars struct {
	Name string
	ID   string
	Ext  string
	Hash string
}

// Render substitutes placeholders. A token whose value is empty is an error.
func (p Pattern) Render(v Vars) (string, error) {
	var b strings.Builder
	for _, s := range p.segments {
		if !s.IsToken() {
			b.WriteString(s.Literal)
			continue
		}
		val := ""
		switch {
		case s.IsHash():
			val = truncate(v.Hash, s.Length)
		case s.Token == TokenName:
			val = v.Name
		case s.Token == TokenID:
			val = v.ID
		case s.Token == TokenExt:
			val = v.Ext
		}
		if val == "" {
			return "", fmt.Errorf("no value for placeholder [%s]", s.Token)
		}
		b.WriteString(val)
	}
	return b.String(), nil
}

func truncate(hash string, n int) string {
	if n == 0 {
		n = DefaultHashLength
	}
	if len(hash) < n {
		return hash
	}
	return hash[:n]
}

// ContentHash returns the hex SHA-256 digest of data, truncated to n
// characters (DefaultHashLength when n is 0).
func ContentHash(data []byte, n int) string {
	sum := sha256.Sum256(data)
	return truncate(hex.EncodeToString(sum[:]), n)
}
