package world

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/format"
	"github.com/aretw0/canon/pkg/git"
)

// QuestionPrefix starts every generated question id.
const QuestionPrefix = "OQ-"

// QuestionInput carries the fields accepted when creating a question.
type QuestionInput struct {
	Name     string `json:"name"`
	Question string `json:"question"`
	Domain   string `json:"domain"`
	Notes    string `json:"notes"`
}

// ledger is the on-disk shape of open-questions.yaml. Sequence remembers the
// highest number ever issued so deleted ids are never handed out again.
type ledger struct {
	Questions []core.Document `yaml:"questions"`
	Sequence  int             `yaml:"sequence,omitempty"`
	Extra     map[string]any  `yaml:",inline"`
}

func questionID(q core.Document) string {
	switch v := q["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (l *ledger) find(id string) int {
	for i, q := range l.Questions {
		if questionID(q) == id {
			return i
		}
	}
	return -1
}

func (l *ledger) ids() []string {
	ids := make([]string, 0, len(l.Questions))
	for _, q := range l.Questions {
		ids = append(ids, questionID(q))
	}
	return ids
}

// nextNumber is one past the highest numeric suffix seen. Ids whose suffix
// does not start with digits count as 0.
func (l *ledger) nextNumber() int {
	highest := max(l.Sequence, 0)
	for _, q := range l.Questions {
		highest = max(highest, leadingInt(strings.Replace(questionID(q), QuestionPrefix, "", 1)))
	}
	return highest + 1
}

// leadingInt parses an optionally signed run of leading digits, ignoring
// leading spaces and anything after the digits. It returns 0 if there are none.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// loadLedger reports ok=false when the ledger document does not exist.
func (s *Service) loadLedger(ctx context.Context) (*ledger, bool, error) {
	var l ledger
	err := s.readValue(ctx, QuestionsPath, &l)
	if errors.Is(err, core.ErrNotFound) {
		return &ledger{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	for i, q := range l.Questions {
		if q == nil {
			l.Questions[i] = core.Document{}
			continue
		}
		l.Questions[i] = core.Document(format.Normalize(map[string]any(q)).(map[string]any))
	}
	return &l, true, nil
}

func (s *Service) saveLedger(ctx context.Context, l *ledger) error {
	if l.Questions == nil {
		l.Questions = []core.Document{}
	}
	return s.writeValue(ctx, QuestionsPath, l)
}

// ListQuestions returns every question. A missing ledger is an empty list.
func (s *Service) ListQuestions(ctx context.Context) ([]core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, _, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	if l.Questions == nil {
		return []core.Document{}, nil
	}
	return l.Questions, nil
}

// GetQuestion returns one question by id.
func (s *Service) GetQuestion(ctx context.Context, id string) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, _, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	i := l.find(id)
	if i < 0 {
		return nil, notFound("question", id, l.ids())
	}
	return l.Questions[i], nil
}

// CreateQuestion appends a question with the next OQ-<n> id.
func (s *Service) CreateQuestion(ctx context.Context, in QuestionInput) (core.Document, error) {
	if in.Name == "" || in.Question == "" {
		return nil, validationf("name and question are required")
	}
	domain := in.Domain
	if domain == "" {
		domain = "architecture"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	l, _, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}

	n := l.nextNumber()
	id := QuestionPrefix + strconv.Itoa(n)
	q := core.Document{
		"id":       id,
		"name":     in.Name,
		"status":   "open",
		"domain":   domain,
		"question": in.Question,
		"notes":    in.Notes,
		"created":  s.today(),
	}
	l.Questions = append(l.Questions, q)
	l.Sequence = n

	ctx = withReason(ctx, git.CommitTypeFeat, "questions", "add "+id, "")
	if err := s.saveLedger(ctx, l); err != nil {
		return nil, err
	}
	s.touch(ctx)
	return q, nil
}

// UpdateQuestion replaces a question record wholesale, keeping its id.
func (s *Service) UpdateQuestion(ctx context.Context, id string, body core.Document) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, _, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	i := l.find(id)
	if i < 0 {
		return nil, notFound("question", id, l.ids())
	}

	updated := body.Clone()
	if updated == nil {
		updated = core.Document{}
	}
	updated["id"] = id
	l.Questions[i] = updated

	ctx = withReason(ctx, git.CommitTypeDocs, "questions", "update "+id, "")
	if err := s.saveLedger(ctx, l); err != nil {
		return nil, err
	}
	s.touch(ctx)
	return updated, nil
}

// DeleteQuestion removes a question. A missing ledger is reported as not found.
func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok, err := s.loadLedger(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("questions file %s: %w", QuestionsPath, core.ErrNotFound)
	}
	i := l.find(id)
	if i < 0 {
		return notFound("question", id, l.ids())
	}
	if n := leadingInt(strings.Replace(id, QuestionPrefix, "", 1)); n > l.Sequence {
		l.Sequence = n
	}
	l.Questions = append(l.Questions[:i], l.Questions[i+1:]...)

	ctx = withReason(ctx, git.CommitTypeChore, "questions", "delete "+id, "")
	if err := s.saveLedger(ctx, l); err != nil {
		return err
	}
	s.touch(ctx)
	return nil
}
