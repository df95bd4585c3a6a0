package world

import (
	"context"
	"errors"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/git"
)

const defaultSnapshotChange = "Version snapshot created"

// Meta returns the metadata document.
func (s *Service) Meta(ctx context.Context) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(ctx, MetaPath)
}

// UpdateMetaDescription sets the world description. It is the only field
// callers may change directly; an empty description leaves it untouched.
// last_modified is refreshed either way.
func (s *Service) UpdateMetaDescription(ctx context.Context, description string) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.read(ctx, MetaPath)
	if err != nil {
		return nil, err
	}
	if description != "" {
		meta["description"] = description
	}
	meta["last_modified"] = s.today()

	ctx = withReason(ctx, git.CommitTypeDocs, "meta", "update description", "")
	if err := s.write(ctx, MetaPath, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// touch refreshes meta.last_modified after a successful edit. A missing
// metadata document is left alone. Failures are logged, never returned: the
// edit that triggered the touch has already been persisted.
func (s *Service) touch(ctx context.Context) {
	meta, err := s.read(ctx, MetaPath)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.Debug("metadata absent, skipping last_modified", "path", MetaPath)
		return
	}
	if err != nil {
		s.logger.Warn("failed to load metadata", "path", MetaPath, "error", err)
		return
	}
	meta["last_modified"] = s.today()
	if err := s.write(ctx, MetaPath, meta); err != nil {
		s.logger.Warn("failed to update last_modified", "path", MetaPath, "error", err)
	}
}

// appendChangelog adds {version, date, changes: [change]} to meta.changelog,
// starting a new list when the field is absent or not a list.
func (s *Service) appendChangelog(meta core.Document, version any, change string) {
	entries, _ := meta["changelog"].([]any)
	meta["changelog"] = append(entries, map[string]any{
		"version": version,
		"date":    s.today(),
		"changes": []any{change},
	})
}
