package world

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/format"
	"github.com/aretw0/canon/pkg/git"
)

// trackedPaths are captured in every snapshot, ahead of the domain documents.
var trackedPaths = []string{
	MetaPath,
	SettingPath,
	ThesisPath,
	DevicesPath,
	SystemArchitecturePath,
	QuestionsPath,
}

// Snapshot is the sealed record of a version. Files maps logical paths to
// the documents captured; a document absent at capture time is nil.
type Snapshot struct {
	Version string                   `json:"version"`
	Created string                   `json:"created"`
	Notes   string                   `json:"notes"`
	Files   map[string]core.Document `json:"files"`
}

// SnapshotInfo is one entry of the version listing. Unreadable records carry
// Error instead of Created and Notes.
type SnapshotInfo struct {
	Version string `json:"version"`
	Created string `json:"created,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SnapshotResult describes a newly sealed snapshot.
type SnapshotResult struct {
	Snapshot *Snapshot
	// Path is the logical directory holding the record, e.g. versions/v0.1.0.
	Path string
}

const invalidSnapshot = "Invalid snapshot"

// CreateSnapshot seals the current state of every tracked document under
// version, then records the version in the metadata.
//
// The store-wide write lock is held throughout, so the capture cannot mix
// states of an edit made through this Service. If the record cannot be
// written the metadata is left untouched.
func (s *Service) CreateSnapshot(ctx context.Context, version, notes string) (*SnapshotResult, error) {
	if err := ValidateVersion(version); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordPath := snapshotPath(version)
	exists, err := s.archive.Exists(ctx, recordPath)
	if err != nil {
		return nil, storageErr("stat", recordPath, err)
	}
	if exists {
		return nil, fmt.Errorf("version %s: %w", version, core.ErrConflict)
	}

	files, err := s.capture(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version: version,
		Created: s.timestamp(),
		Notes:   notes,
		Files:   files,
	}
	data, err := format.NewJSONSerializer().Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w: %w", version, core.ErrIO, err)
	}

	change := notes
	if change == "" {
		change = defaultSnapshotChange
	}
	ctx = withReason(ctx, git.CommitTypeChore, VersionsDir, "snapshot v"+version, notes)

	if err := s.archive.Write(ctx, recordPath, data); err != nil {
		return nil, storageErr("write", recordPath, err)
	}
	s.created.Add(1)

	meta, err := s.readOptional(ctx, MetaPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s sealed but metadata unreadable: %w", version, err)
	}
	if meta == nil {
		meta = core.Document{}
	}
	meta["version"] = version
	s.appendChangelog(meta, version, change)
	if err := s.write(ctx, MetaPath, meta); err != nil {
		return nil, fmt.Errorf("snapshot %s sealed but metadata not updated: %w", version, err)
	}

	if t, ok := s.store.(core.Tagger); ok {
		if err := t.Tag(ctx, "v"+version, change); err != nil {
			s.logger.Warn("failed to tag snapshot", "version", version, "error", err)
		}
	}

	s.logger.Info("snapshot created", "version", version, "files", len(files))
	return &SnapshotResult{Snapshot: snap, Path: snapshotDir(version)}, nil
}

// capture reads the tracked documents, the registry and every domain document
// it references. Missing documents are captured as nil; malformed ones fail
// the capture.
func (s *Service) capture(ctx context.Context) (map[string]core.Document, error) {
	files := make(map[string]core.Document, len(trackedPaths)+1)
	for _, p := range trackedPaths {
		doc, err := s.readOptional(ctx, p)
		if err != nil {
			return nil, err
		}
		files[p] = doc
	}

	regDoc, err := s.readOptional(ctx, RegistryPath)
	if err != nil {
		return nil, err
	}
	files[RegistryPath] = regDoc
	if regDoc == nil {
		return files, nil
	}

	reg, err := s.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(reg.Domains))
	for i, ref := range reg.Domains {
		if paths[i], err = domainPath(ref); err != nil {
			return nil, err
		}
	}

	docs := make([]core.Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range paths {
		g.Go(func() error {
			doc, err := s.readOptional(gctx, p)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, p := range paths {
		files[p] = docs[i]
	}
	return files, nil
}

// ListSnapshots returns every version, newest first. Records that cannot be
// read are listed with Error set rather than dropped.
func (s *Service) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := s.archive.List(ctx, VersionsDir+"/")
	if err != nil {
		return nil, storageErr("list", VersionsDir, err)
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		rest := strings.TrimPrefix(p, VersionsDir+"/")
		dir, _, nested := strings.Cut(rest, "/")
		if !nested || !strings.HasPrefix(dir, "v") || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	infos := make([]SnapshotInfo, 0, len(dirs))
	for _, dir := range dirs {
		snap, err := s.loadSnapshot(ctx, path.Join(VersionsDir, dir, "snapshot.json"))
		if err != nil {
			s.logger.Debug("unreadable snapshot record", "dir", dir, "error", err)
			infos = append(infos, SnapshotInfo{Version: strings.TrimPrefix(dir, "v"), Error: invalidSnapshot})
			continue
		}
		infos = append(infos, SnapshotInfo{Version: snap.Version, Created: snap.Created, Notes: snap.Notes})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return CompareVersions(infos[i].Version, infos[j].Version) > 0
	})
	return infos, nil
}

// GetSnapshot returns the full record of a version.
func (s *Service) GetSnapshot(ctx context.Context, version string) (*Snapshot, error) {
	if err := ValidateVersion(version); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadSnapshot(ctx, snapshotPath(version))
}

func (s *Service) loadSnapshot(ctx context.Context, p string) (*Snapshot, error) {
	data, err := s.archive.Read(ctx, p)
	if err != nil {
		return nil, storageErr("read", p, err)
	}
	var snap Snapshot
	if err := format.NewJSONSerializer().Decode(data, &snap); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", p, core.ErrIO, err)
	}
	if snap.Version == "" {
		return nil, fmt.Errorf("parse %s: record has no version: %w", p, core.ErrIO)
	}
	for k, doc := range snap.Files {
		if doc != nil {
			snap.Files[k] = core.Document(format.Normalize(map[string]any(doc)).(map[string]any))
		}
	}
	return &snap, nil
}

// RestoreSnapshot overwrites the live documents with those captured in
// version, then appends a changelog entry. The entry carries the version
// field of the metadata as it stands after the restore; meta.version itself
// is not changed. Documents captured as absent are left alone.
//
// Every document is encoded before the first write, so a bad record leaves
// the store untouched. A storage failure midway is not rolled back.
func (s *Service) RestoreSnapshot(ctx context.Context, version string) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot(ctx, snapshotPath(version))
	if err != nil {
		return err
	}

	b := newBatch(s.store)
	for p, doc := range snap.Files {
		if doc == nil {
			s.logger.Debug("skipping document absent from snapshot", "path", p)
			continue
		}
		if err := b.Stage(p, doc); err != nil {
			b.Rollback()
			return fmt.Errorf("restore %s: %w", version, err)
		}
	}

	ctx = withReason(ctx, git.CommitTypeChore, VersionsDir, "restore v"+version, "")
	written, err := b.Commit(ctx)
	if err != nil {
		s.logger.Error("restore interrupted", "version", version, "written", written, "error", err)
		return fmt.Errorf("restore %s: %w", version, err)
	}

	meta, err := s.readOptional(ctx, MetaPath)
	if err != nil {
		return fmt.Errorf("restore %s: %w", version, err)
	}
	if meta == nil {
		meta = core.Document{}
	}
	meta["last_modified"] = s.today()
	s.appendChangelog(meta, meta["version"], "Restored from version "+version)
	if err := s.write(ctx, MetaPath, meta); err != nil {
		return fmt.Errorf("restore %s: %w", version, err)
	}
	s.restored.Add(1)

	s.logger.Info("snapshot restored", "version", version, "files", written)
	return nil
}
