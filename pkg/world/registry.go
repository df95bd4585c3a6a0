package world

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/git"
)

// DomainRef is one entry of the domain registry.
type DomainRef struct {
	ID    string         `yaml:"id" json:"id"`
	Name  string         `yaml:"name" json:"name"`
	File  string         `yaml:"file" json:"file"`
	Order int            `yaml:"order" json:"order"`
	Extra map[string]any `yaml:",inline" json:"-"`
}

// DomainSummary is a registry entry enriched with fields of its document.
type DomainSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	File        string `json:"file"`
	Order       int    `json:"order"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Version     string `json:"version"`
}

// DomainInput carries the fields accepted when creating a domain.
type DomainInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type registry struct {
	Domains []DomainRef    `yaml:"domains"`
	Extra   map[string]any `yaml:",inline"`
}

func (r *registry) find(id string) int {
	for i, ref := range r.Domains {
		if ref.ID == id {
			return i
		}
	}
	return -1
}

func (r *registry) ids() []string {
	ids := make([]string, 0, len(r.Domains))
	for _, ref := range r.Domains {
		ids = append(ids, ref.ID)
	}
	return ids
}

func (r *registry) nextOrder() int {
	if len(r.Domains) == 0 {
		return 1
	}
	highest := r.Domains[0].Order
	for _, ref := range r.Domains[1:] {
		highest = max(highest, ref.Order)
	}
	return highest + 1
}

// domainPath resolves the document path of a registry entry.
func domainPath(ref DomainRef) (string, error) {
	if ref.File == "" {
		return "", validationf("domain %q has no file", ref.ID)
	}
	return core.CleanPath(path.Join(DomainsDir, ref.File))
}

func validateDomainID(id string) error {
	if id == "" {
		return validationf("id and name are required")
	}
	if strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") || strings.HasPrefix(id, "_") {
		return validationf("invalid domain id %q", id)
	}
	return nil
}

func (s *Service) loadRegistry(ctx context.Context) (*registry, error) {
	var reg registry
	if err := s.readValue(ctx, RegistryPath, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *Service) saveRegistry(ctx context.Context, reg *registry) error {
	if reg.Domains == nil {
		reg.Domains = []DomainRef{}
	}
	return s.writeValue(ctx, RegistryPath, reg)
}

// lookupDomain returns the registry and the index of id. A missing registry
// is reported as the domain not being found.
func (s *Service) lookupDomain(ctx context.Context, id string) (*registry, int, error) {
	reg, err := s.loadRegistry(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return nil, -1, notFound("domain", id, nil)
	}
	if err != nil {
		return nil, -1, err
	}
	i := reg.find(id)
	if i < 0 {
		return nil, -1, notFound("domain", id, reg.ids())
	}
	return reg, i, nil
}

// ListDomains returns the registry in stored order, each entry enriched with
// the description, status and version of its document. Unlike the question
// ledger, a missing registry is a storage failure.
func (s *Service) ListDomains(ctx context.Context) ([]DomainSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, err := s.loadRegistry(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("load domain registry: %w: %w", core.ErrIO, err)
	}
	if err != nil {
		return nil, err
	}

	docs := s.readDomains(ctx, reg.Domains)
	out := make([]DomainSummary, len(reg.Domains))
	for i, ref := range reg.Domains {
		doc := docs[i]
		out[i] = DomainSummary{
			ID:          ref.ID,
			Name:        ref.Name,
			File:        ref.File,
			Order:       ref.Order,
			Description: textOr(doc, "description", ""),
			Status:      textOr(doc, "status", "unknown"),
			Version:     textOr(doc, "version", "0.0.0"),
		}
	}
	return out, nil
}

// readDomains loads every referenced document concurrently. Entries that are
// missing or unreadable come back nil.
func (s *Service) readDomains(ctx context.Context, refs []DomainRef) []core.Document {
	docs := make([]core.Document, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, ref := range refs {
		g.Go(func() error {
			p, err := domainPath(ref)
			if err != nil {
				s.logger.Warn("skipping domain with invalid file", "id", ref.ID, "error", err)
				return nil
			}
			doc, err := s.read(gctx, p)
			if err != nil {
				if !errors.Is(err, core.ErrNotFound) {
					s.logger.Warn("failed to load domain", "id", ref.ID, "path", p, "error", err)
				}
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()
	return docs
}

// GetDomain returns the document of a registered domain.
func (s *Service) GetDomain(ctx context.Context, id string) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, i, err := s.lookupDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := domainPath(reg.Domains[i])
	if err != nil {
		return nil, err
	}
	doc, err := s.read(ctx, p)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("registry references missing %s: %w", p, core.ErrIO)
	}
	return doc, err
}

// CreateDomain writes a new domain document and registers it with
// order = max(order) + 1. If the registry cannot be saved the new document
// is removed again.
func (s *Service) CreateDomain(ctx context.Context, in DomainInput) (core.Document, error) {
	if in.ID == "" || in.Name == "" {
		return nil, validationf("id and name are required")
	}
	if err := validateDomainID(in.ID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, err := s.loadRegistry(ctx)
	if errors.Is(err, core.ErrNotFound) {
		reg, err = &registry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if reg.find(in.ID) >= 0 {
		return nil, fmt.Errorf("domain %q: %w", in.ID, core.ErrConflict)
	}

	ref := DomainRef{ID: in.ID, Name: in.Name, File: in.ID + ".yaml", Order: reg.nextOrder()}
	p, err := domainPath(ref)
	if err != nil {
		return nil, err
	}
	doc := core.Document{
		"id":          in.ID,
		"name":        in.Name,
		"description": in.Description,
		"status":      "open",
		"version":     "0.1.0",
		"sections":    []any{},
	}

	ctx = withReason(ctx, git.CommitTypeFeat, DomainsDir, "create domain "+in.ID, "")
	if err := s.write(ctx, p, doc); err != nil {
		return nil, err
	}

	reg.Domains = append(reg.Domains, ref)
	if err := s.saveRegistry(ctx, reg); err != nil {
		if derr := s.store.Delete(ctx, p); derr != nil {
			s.logger.Warn("failed to remove orphaned domain document", "path", p, "error", derr)
		}
		return nil, err
	}

	s.touch(ctx)
	s.logger.Info("domain created", "id", in.ID, "order", ref.Order)
	return doc, nil
}

// UpdateDomain replaces a domain document. The stored id always equals the
// id the domain is registered under.
func (s *Service) UpdateDomain(ctx context.Context, id string, doc core.Document) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, i, err := s.lookupDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := domainPath(reg.Domains[i])
	if err != nil {
		return nil, err
	}

	if doc == nil {
		doc = core.Document{}
	}
	doc["id"] = id

	ctx = withReason(ctx, git.CommitTypeDocs, DomainsDir, "update domain "+id, "")
	if err := s.write(ctx, p, doc); err != nil {
		return nil, err
	}
	s.touch(ctx)
	return doc, nil
}

// DeleteDomain unregisters a domain, then removes its document. The registry
// is authoritative: once it is saved the call succeeds even if the document
// cannot be removed.
func (s *Service) DeleteDomain(ctx context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, i, err := s.lookupDomain(ctx, id)
	if err != nil {
		return err
	}
	ref := reg.Domains[i]
	reg.Domains = append(reg.Domains[:i], reg.Domains[i+1:]...)

	ctx = withReason(ctx, git.CommitTypeChore, DomainsDir, "delete domain "+id, "")
	if err := s.saveRegistry(ctx, reg); err != nil {
		return err
	}

	if p, err := domainPath(ref); err != nil {
		s.logger.Warn("not removing domain document", "id", id, "error", err)
	} else if err := s.store.Delete(ctx, p); err != nil {
		s.logger.Warn("failed to remove domain document", "path", p, "error", err)
	}

	s.touch(ctx)
	s.logger.Info("domain deleted", "id", id)
	return nil
}

// textOr returns doc[key] as text, or def when it is absent or empty.
func textOr(doc core.Document, key, def string) string {
	switch v := doc[key].(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
