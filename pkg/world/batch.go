package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/format"
)

var errBatchClosed = errors.New("batch already closed")

// batch stages encoded documents and writes them in one pass. Staging does
// all validation and encoding up front so that a bad entry is rejected
// before the store is touched. Commit is not atomic: a storage failure
// midway leaves the earlier writes in place.
type batch struct {
	store  core.Storage
	staged map[string][]byte
	closed bool
}

func newBatch(store core.Storage) *batch {
	return &batch{store: store, staged: make(map[string][]byte)}
}

// Stage encodes doc for p. Paths under the snapshot directory are refused.
func (b *batch) Stage(p string, doc core.Document) error {
	if b.closed {
		return errBatchClosed
	}
	clean, err := core.CleanPath(p)
	if err != nil {
		return err
	}
	if clean == VersionsDir || strings.HasPrefix(clean, VersionsDir+"/") {
		return validationf("refusing to write %s", clean)
	}
	data, err := format.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", clean, core.ErrIO, err)
	}
	b.staged[clean] = data
	return nil
}

// Paths returns the staged paths in write order.
func (b *batch) Paths() []string {
	paths := make([]string, 0, len(b.staged))
	for p := range b.staged {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Commit writes every staged document and returns how many were written.
func (b *batch) Commit(ctx context.Context) (int, error) {
	if b.closed {
		return 0, errBatchClosed
	}
	b.closed = true

	written := 0
	for _, p := range b.Paths() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := b.store.Write(ctx, p, b.staged[p]); err != nil {
			return written, storageErr("write", p, err)
		}
		written++
	}
	return written, nil
}

// Rollback discards the staged documents.
func (b *batch) Rollback() {
	b.staged = nil
	b.closed = true
}
