package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/adapters/memory"
	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/core/storagetest"
)

func TestStorage_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) core.Storage {
		return memory.New()
	})
}

func TestStorage_CopiesValues(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	buf := []byte("id: foo\n")
	require.NoError(t, s.Write(ctx, "domains/foo.yaml", buf))
	buf[0] = 'X'

	got, err := s.Read(ctx, "domains/foo.yaml")
	require.NoError(t, err)
	assert.Equal(t, "id: foo\n", string(got))

	got[0] = 'Y'
	again, err := s.Read(ctx, "domains/foo.yaml")
	require.NoError(t, err)
	assert.Equal(t, "id: foo\n", string(again))
	assert.Equal(t, 1, s.Len())
}
