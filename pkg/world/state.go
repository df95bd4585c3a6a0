package world

import (
	"context"
	"errors"

	"github.com/aretw0/canon/pkg/core"
)

// State is the full world as served to readers. Documents that do not
// exist are nil.
type State struct {
	Meta               core.Document            `json:"meta"`
	Setting            core.Document            `json:"setting"`
	Thesis             core.Document            `json:"thesis"`
	Devices            core.Document            `json:"devices"`
	SystemArchitecture core.Document            `json:"systemArchitecture"`
	Domains            map[string]core.Document `json:"domains"`
	OpenQuestions      []core.Document          `json:"openQuestions"`
}

// Load reads every live document. Domains whose documents are missing are
// omitted from Domains.
func (s *Service) Load(ctx context.Context) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &State{Domains: map[string]core.Document{}, OpenQuestions: []core.Document{}}
	for _, f := range []struct {
		path string
		dst  *core.Document
	}{
		{MetaPath, &st.Meta},
		{SettingPath, &st.Setting},
		{ThesisPath, &st.Thesis},
		{DevicesPath, &st.Devices},
		{SystemArchitecturePath, &st.SystemArchitecture},
	} {
		doc, err := s.readOptional(ctx, f.path)
		if err != nil {
			return nil, err
		}
		*f.dst = doc
	}

	reg, err := s.loadRegistry(ctx)
	switch {
	case errors.Is(err, core.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		for i, doc := range s.readDomains(ctx, reg.Domains) {
			if doc != nil {
				st.Domains[reg.Domains[i].ID] = doc
			}
		}
	}

	l, _, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	if l.Questions != nil {
		st.OpenQuestions = l.Questions
	}
	return st, nil
}
