package world_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/adapters/fs"
	"github.com/aretw0/canon/pkg/adapters/memory"
	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/world"
)

// seedDomains registers n domains, each with a small document.
func seedDomains(b *testing.B, svc *world.Service, n int) {
	b.Helper()
	ctx := context.Background()
	_, err := svc.Seed(ctx, "benchmark")
	require.NoError(b, err)
	for i := range n {
		_, err := svc.CreateDomain(ctx, world.DomainInput{ID: fmt.Sprintf("domain-%04d", i), Name: fmt.Sprintf("Domain %d", i)})
		require.NoError(b, err)
	}
}

func benchmarkLoad(b *testing.B, store core.Storage, workers int) {
	svc := world.New(store, world.WithCaptureConcurrency(workers))
	seedDomains(b, svc, 200)
	ctx := context.Background()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := svc.Load(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// Run with: go test -bench=Load -benchmem -run=^$ ./pkg/world/...
func BenchmarkLoad_Memory_200Domains(b *testing.B) {
	benchmarkLoad(b, memory.New(), 8)
}

func BenchmarkLoad_FS_200Domains_Serial(b *testing.B) {
	benchmarkLoad(b, fs.NewRepository(fs.Config{Path: b.TempDir(), Gitless: true}), 1)
}

func BenchmarkLoad_FS_200Domains_Parallel(b *testing.B) {
	benchmarkLoad(b, fs.NewRepository(fs.Config{Path: b.TempDir(), Gitless: true}), 16)
}
