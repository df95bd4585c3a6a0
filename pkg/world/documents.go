package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/format"
	"github.com/aretw0/canon/pkg/git"
)

// namedDocuments maps the public names of singleton documents to their paths.
var namedDocuments = map[string]string{
	"setting":             SettingPath,
	"thesis":              ThesisPath,
	"devices":             DevicesPath,
	"system-architecture": SystemArchitecturePath,
	"architecture":        SystemArchitecturePath,
}

// NamedPath resolves a singleton document name ("setting", "thesis",
// "devices", "system-architecture" or its alias "architecture").
func NamedPath(name string) (string, bool) {
	p, ok := namedDocuments[name]
	return p, ok
}

// Names returns the canonical singleton document names, sorted.
func Names() []string {
	names := make([]string, 0, len(namedDocuments))
	for name := range namedDocuments {
		if name == "architecture" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// storageErr classifies an adapter error at the world boundary. Errors that
// already carry a kind pass through, anything else becomes ErrIO.
func storageErr(op, p string, err error) error {
	for _, kind := range []error{core.ErrNotFound, core.ErrValidation, core.ErrIO, core.ErrReadOnly, core.ErrConflict} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%s %s: %w: %w", op, p, core.ErrIO, err)
}

// read loads and parses the document at p. Absent documents yield an error
// wrapping ErrNotFound, malformed ones an error wrapping ErrIO.
func (s *Service) read(ctx context.Context, p string) (core.Document, error) {
	data, err := s.store.Read(ctx, p)
	if err != nil {
		return nil, storageErr("read", p, err)
	}
	doc, err := format.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", p, core.ErrIO, err)
	}
	return doc, nil
}

// readOptional is read with absence reported as a nil document.
func (s *Service) readOptional(ctx context.Context, p string) (core.Document, error) {
	doc, err := s.read(ctx, p)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

// write serialises doc and overwrites p.
func (s *Service) write(ctx context.Context, p string, doc core.Document) error {
	data, err := format.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", p, core.ErrIO, err)
	}
	if err := s.store.Write(ctx, p, data); err != nil {
		return storageErr("write", p, err)
	}
	return nil
}

// writeValue serialises an arbitrary YAML-encodable value (registry, ledger).
func (s *Service) writeValue(ctx context.Context, p string, v any) error {
	data, err := format.NewYAMLSerializer().Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", p, core.ErrIO, err)
	}
	if err := s.store.Write(ctx, p, data); err != nil {
		return storageErr("write", p, err)
	}
	return nil
}

// readValue decodes the YAML document at p into out.
func (s *Service) readValue(ctx context.Context, p string, out any) error {
	data, err := s.store.Read(ctx, p)
	if err != nil {
		return storageErr("read", p, err)
	}
	if err := format.NewYAMLSerializer().Decode(data, out); err != nil {
		return fmt.Errorf("parse %s: %w: %w", p, core.ErrIO, err)
	}
	return nil
}

// ReadDocument returns the live document at a logical path.
func (s *Service) ReadDocument(ctx context.Context, p string) (core.Document, error) {
	clean, err := core.CleanPath(p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(ctx, clean)
}

// PutDocument overwrites the live document at a logical path and touches
// the metadata. Snapshot records cannot be written through it.
func (s *Service) PutDocument(ctx context.Context, p string, doc core.Document) (core.Document, error) {
	clean, err := core.CleanPath(p)
	if err != nil {
		return nil, err
	}
	if clean == VersionsDir || strings.HasPrefix(clean, VersionsDir+"/") {
		return nil, validationf("%s is reserved for snapshots", VersionsDir)
	}
	if doc == nil {
		doc = core.Document{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx = withReason(ctx, git.CommitTypeDocs, scopeFor(clean), "update "+clean, "")
	if err := s.write(ctx, clean, doc); err != nil {
		return nil, err
	}
	s.touch(ctx)
	return doc, nil
}

// GetNamed returns a singleton document by name.
func (s *Service) GetNamed(ctx context.Context, name string) (core.Document, error) {
	p, ok := NamedPath(name)
	if !ok {
		return nil, fmt.Errorf("document %q: %w", name, core.ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(ctx, p)
}

// PutNamed replaces a singleton document by name, creating it if absent.
func (s *Service) PutNamed(ctx context.Context, name string, doc core.Document) (core.Document, error) {
	p, ok := NamedPath(name)
	if !ok {
		return nil, fmt.Errorf("document %q: %w", name, core.ErrNotFound)
	}
	return s.PutDocument(ctx, p, doc)
}

func scopeFor(p string) string {
	if i := strings.IndexByte(p, '/'); i > 0 {
		return p[:i]
	}
	return strings.TrimSuffix(p, ".yaml")
}
