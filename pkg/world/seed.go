package world

import (
	"context"
	"fmt"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/git"
)

// InitialVersion is the meta version of a freshly seeded world.
const InitialVersion = "0.0.0"

// Seed writes the structural documents of an empty world: metadata, the
// domain registry, the question ledger and the singleton documents. Existing
// documents are never overwritten. It returns the paths it created.
func (s *Service) Seed(ctx context.Context, description string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := []struct {
		path string
		doc  core.Document
	}{
		{MetaPath, core.Document{
			"version":       InitialVersion,
			"last_modified": s.today(),
			"description":   description,
			"changelog":     []any{},
		}},
		{RegistryPath, core.Document{"domains": []any{}}},
		{QuestionsPath, core.Document{"questions": []any{}}},
		{SettingPath, core.Document{}},
		{ThesisPath, core.Document{}},
		{DevicesPath, core.Document{}},
		{SystemArchitecturePath, core.Document{}},
	}

	var created []string
	for _, d := range defaults {
		ok, err := s.store.Exists(ctx, d.path)
		if err != nil {
			return created, storageErr("stat", d.path, err)
		}
		if ok {
			continue
		}
		wctx := withReason(ctx, git.CommitTypeChore, scopeFor(d.path), fmt.Sprintf("seed %s", d.path), "")
		if err := s.write(wctx, d.path, d.doc); err != nil {
			return created, err
		}
		created = append(created, d.path)
	}
	if len(created) > 0 {
		s.logger.Info("world seeded", "documents", len(created))
	}
	return created, nil
}
