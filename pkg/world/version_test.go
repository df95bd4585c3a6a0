package world_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/canon/pkg/world"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.0", "1.10.0", -1},
		{"0.10.0", "0.9.0", 1},
		{"1.0.0", "1.0.0", 0},
		{"1.0.0-rc1", "1.0.0", -1},
		// Numerically equal runs fall back to byte order so sorting is total.
		{"2024.01", "2024.1", -1},
		{"release-2", "release-10", -1},
		{"1.2", "1.2.1", -1},
		{"alpha", "beta", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got := world.CompareVersions(tt.a, tt.b)
			if tt.want == 0 {
				assert.Zero(t, got)
				return
			}
			assert.Equal(t, tt.want, sign(got))
			assert.Equal(t, -tt.want, sign(world.CompareVersions(tt.b, tt.a)))
		})
	}
}

func TestCompareVersions_SortsDescending(t *testing.T) {
	versions := []string{"0.9.0", "1.10.0", "0.1.0", "1.2.0", "0.10.0"}
	sort.Slice(versions, func(i, j int) bool { return world.CompareVersions(versions[i], versions[j]) > 0 })
	assert.Equal(t, []string{"1.10.0", "1.2.0", "0.10.0", "0.9.0", "0.1.0"}, versions)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
