package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the optional per-world configuration file.
const ConfigFileName = "canon.yaml"

// RootEnv overrides root discovery when set.
const RootEnv = "CANON_ROOT"

// ErrNoRoot is returned by FindRoot when no ancestor looks like a world.
var ErrNoRoot = errors.New("world root not found")

// rootMarkers identify a world directory. A marker only counts when it has the
// expected kind, so a stray file named .canon does not claim a root.
var rootMarkers = []struct {
	name string
	dir  bool
}{
	{ConfigFileName, false},
	{".canon", true},
	{"meta.yaml", false},
}

// FindRoot returns the absolute path of the nearest directory, starting at
// startDir and walking upwards, that holds a world marker. CANON_ROOT, when
// set, wins over discovery.
func FindRoot(startDir string) (string, error) {
	if env := os.Getenv(RootEnv); env != "" {
		return filepath.Abs(env)
	}

	start, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for dir := start; ; {
		if isWorldRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w from %s", ErrNoRoot, start)
		}
		dir = parent
	}
}

func isWorldRoot(dir string) bool {
	for _, m := range rootMarkers {
		info, err := os.Stat(filepath.Join(dir, m.name))
		if err == nil && info.IsDir() == m.dir {
			return true
		}
	}
	return false
}
