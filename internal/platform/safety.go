package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// devSandboxDir is the temp subdirectory that dev runs are re-rooted into.
const devSandboxDir = "canon-dev"

// IsDevRun reports whether the binary is a `go run` or `go test` build.
// Both place their executables under the temp dir, and test binaries end in .test.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	base := strings.TrimSuffix(filepath.Base(exe), ".exe")
	return strings.HasSuffix(base, ".test") || within(os.TempDir(), exe)
}

// ResolveWorldPath returns the directory a file-backed world really lives in.
// With forceTemp, a path outside the temp dir is replaced by
// <tmp>/canon-dev/<base name>; paths already inside it are kept.
func ResolveWorldPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	clean := filepath.Clean(userPath)
	if filepath.IsAbs(clean) && within(os.TempDir(), clean) {
		return clean
	}

	name := filepath.Base(clean)
	switch name {
	case ".", "..", string(os.PathSeparator):
		name = "default"
	}
	return filepath.Join(os.TempDir(), devSandboxDir, name)
}

// within reports whether path is root or lies below it, ignoring case so that
// Windows drive letters compare equal.
func within(root, path string) bool {
	rel, err := filepath.Rel(strings.ToLower(filepath.Clean(root)), strings.ToLower(filepath.Clean(path)))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}
