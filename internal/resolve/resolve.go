// Package resolve expands module requests into file candidates using the
// configured extension list.
package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// ErrNotFound is returned by Resolve when no candidate exists.
var ErrNotFound = errors.New("module not found")

// Candidates lists the files tried for request, in order. A request that
// already ends in one of the extensions is its own only candidate. A
// request with any other suffix, such as "App.css", is tried as written
// before each extension is appended in declared order.
func Candidates(request string, extensions []string) []string {
	suffix := path.Ext(request)
	if slices.Contains(extensions, suffix) {
		return []string{request}
	}
	out := make([]string, 0, len(extensions)+1)
	if suffix != "" {
		out = append(out, request)
	}
	for _, ext := range extensions {
		out = append(out, request+ext)
	}
	return out
}

// Resolve returns the first candidate that exists as a regular file in fsys.
// Requests are slash-separated and relative to fsys; a leading "./" is
// ignored.
func Resolve(fsys fs.FS, request string, extensions []string) (string, error) {
	clean := strings.TrimPrefix(request, "./")
	for _, c := range Candidates(clean, extensions) {
		info, err := fs.Stat(fsys, c)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
				continue
			}
			return "", fmt.Errorf("stat %s: %w", c, err)
		}
		if info.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s (tried %s)", ErrNotFound, request,
		strings.Join(Candidates(clean, extensions), ", "))
}
