package match

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPattern is returned by Compile for patterns that are not valid
// matchers.
var ErrInvalidPattern = errors.New("invalid matcher")

// Matcher reports whether a file path matches a declared pattern.
type Matcher interface {
	Match(file string) bool
	String() string
}

// Compile parses a declared pattern.
func Compile(pattern string) (Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if strings.HasPrefix(pattern, "/") {
		return compileRegex(pattern)
	}
	return compileGlob(pattern)
}

type regexMatcher struct {
	raw string
	re  *regexp.Regexp
}

func compileRegex(pattern string) (Matcher, error) {
	end := strings.LastIndexByte(pattern, '/')
	if end == 0 {
		return nil, fmt.Errorf("%w: regex %q has no closing slash", ErrInvalidPattern, pattern)
	}
	body, flags := pattern[1:end], pattern[end+1:]
	if body == "" {
		return nil, fmt.Errorf("%w: regex %q is empty", ErrInvalidPattern, pattern)
	}

	var prefix strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix.WriteRune(f)
		case 'u':
			// Go regexps are always Unicode-aware.
		default:
			return nil, fmt.Errorf("%w: regex %q has unsupported flag %q", ErrInvalidPattern, pattern, f)
		}
	}
	expr := body
	if prefix.Len() > 0 {
		expr = "(?" + prefix.String() + ")" + body
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: regex %q: %v", ErrInvalidPattern, pattern, err)
	}
	return &regexMatcher{raw: pattern, re: re}, nil
}

func (m *regexMatcher) Match(file string) bool {
	return m.re.MatchString(normalize(file))
}

func (m *regexMatcher) String() string {
	return m.raw
}

type globMatcher struct {
	raw      string
	basename bool
}

func compileGlob(pattern string) (Matcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: glob %q is malformed", ErrInvalidPattern, pattern)
	}
	return &globMatcher{raw: pattern, basename: !strings.Contains(pattern, "/")}, nil
}

func (m *globMatcher) Match(file string) bool {
	name := normalize(file)
	if m.basename {
		name = path.Base(name)
	}
	ok, err := doublestar.Match(m.raw, name)
	return err == nil && ok
}

func (m *globMatcher) String() string {
	return m.raw
}

// normalize converts a path to forward slashes without a leading "./".
func normalize(file string) string {
	return strings.TrimPrefix(filepath.ToSlash(file), "./")
}
