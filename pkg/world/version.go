package world

import (
	"path"
	"strings"

	"golang.org/x/mod/semver"
)

// CompareVersions orders version strings numerically. Two valid semantic
// versions are compared by semver rules, so 1.2.0 < 1.10.0 and
// 1.0.0-rc1 < 1.0.0. Anything else falls back to a natural comparison in
// which runs of digits compare by value.
func CompareVersions(a, b string) int {
	va, vb := "v"+a, "v"+b
	if semver.IsValid(va) && semver.IsValid(vb) {
		if c := semver.Compare(va, vb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	}
	return naturalCompare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func naturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if a[i] != b[j] {
			if a[i] < b[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	return strings.Compare(a, b)
}

// ValidateVersion rejects version strings that cannot name a snapshot.
func ValidateVersion(v string) error {
	if v == "" {
		return validationf("version is required (e.g., \"0.1.0\")")
	}
	if strings.ContainsAny(v, "/\\") || strings.Contains(v, "..") || strings.TrimSpace(v) != v {
		return validationf("invalid version %q", v)
	}
	return nil
}

// snapshotDir is the logical directory of a version, e.g. versions/v0.1.0.
func snapshotDir(version string) string {
	return path.Join(VersionsDir, "v"+version)
}

// snapshotPath is the record path of a version.
func snapshotPath(version string) string {
	return path.Join(snapshotDir(version), "snapshot.json")
}
