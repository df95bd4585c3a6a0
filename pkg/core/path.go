package core

import (
	"fmt"
	"path"
	"strings"
)

// CleanPath validates a logical path and returns its canonical form.
// Absolute paths, backslashes and parent-directory segments are rejected so
// that no path can escape the store root.
func CleanPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrValidation)
	}
	if strings.Contains(p, `\`) {
		return "", fmt.Errorf("%w: path %q contains a backslash", ErrValidation, p)
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: path %q must be relative", ErrValidation, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: path %q escapes the store root", ErrValidation, p)
		}
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", fmt.Errorf("%w: empty path", ErrValidation)
	}
	return clean, nil
}
