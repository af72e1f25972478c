// Package catalog holds the static practice content served by the API.
//
// The tables are embedded JSON files loaded once at startup. After Load
// returns, a Catalog is never mutated, so it is safe for concurrent readers.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/ssbprep/internal/model"
)

//go:embed data/*.json
var dataFS embed.FS

// ErrInvalidCatalog is returned when an embedded table fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the process-wide, read-only set of practice tables.
type Catalog struct {
	oir            []model.QuizQuestion
	ppdt           []model.PPDTImage
	tat            []model.TATScenario
	wat            []string
	srt            []model.SRTSituation
	interview      []string
	defenseGK      []model.QuizQuestion
	currentAffairs []model.QuizQuestion
	gto            []model.GTOTask

	oirByID  map[string]model.QuizQuestion
	ppdtByID map[string]model.PPDTImage
	tatByID  map[string]model.TATScenario
	srtByID  map[string]model.SRTSituation
}

// Load reads and validates every embedded table.
func Load() (*Catalog, error) {
	c := &Catalog{}

	steps := []struct {
		file string
		dst  any
	}{
		{"oir.json", &c.oir},
		{"ppdt.json", &c.ppdt},
		{"tat.json", &c.tat},
		{"wat.json", &c.wat},
		{"srt.json", &c.srt},
		{"interview.json", &c.interview},
		{"defense_gk.json", &c.defenseGK},
		{"current_affairs.json", &c.currentAffairs},
		{"gto.json", &c.gto},
	}
	for _, s := range steps {
		data, err := dataFS.ReadFile("data/" + s.file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.file, err)
		}
		if err := json.Unmarshal(data, s.dst); err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.file, err)
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	c.index()

	slog.Debug("catalog loaded",
		"oir", len(c.oir),
		"ppdt", len(c.ppdt),
		"tat", len(c.tat),
		"wat", len(c.wat),
		"srt", len(c.srt),
		"interview", len(c.interview),
		"defense_gk", len(c.defenseGK),
		"current_affairs", len(c.currentAffairs),
		"gto", len(c.gto),
	)
	return c, nil
}

func (c *Catalog) validate() error {
	checks := []struct {
		name string
		ids  []string
	}{
		{"oir", quizIDs(c.oir)},
		{"ppdt", idsOf(c.ppdt, func(i model.PPDTImage) string { return i.ID })},
		{"tat", idsOf(c.tat, func(s model.TATScenario) string { return s.ID })},
		{"wat", c.wat},
		{"srt", idsOf(c.srt, func(s model.SRTSituation) string { return s.ID })},
		{"interview", c.interview},
		{"defense-gk", quizIDs(c.defenseGK)},
		{"current-affairs", quizIDs(c.currentAffairs)},
		{"gto", idsOf(c.gto, func(t model.GTOTask) string { return t.ID })},
	}
	for _, ch := range checks {
		if err := checkIDs(ch.name, ch.ids); err != nil {
			return err
		}
	}

	for name, qs := range map[string][]model.QuizQuestion{
		"oir":             c.oir,
		"defense-gk":      c.defenseGK,
		"current-affairs": c.currentAffairs,
	} {
		for _, q := range qs {
			if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
				return fmt.Errorf("%w: %s question %q: correct_answer %d out of range (%d options)",
					ErrInvalidCatalog, name, q.ID, q.CorrectAnswer, len(q.Options))
			}
		}
	}
	return nil
}

// checkIDs enforces a non-empty table with unique, non-blank identifiers.
func checkIDs(table string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: %s table is empty", ErrInvalidCatalog, table)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: %s table has an item without identifier", ErrInvalidCatalog, table)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s table has duplicate identifier %q", ErrInvalidCatalog, table, id)
		}
		seen[id] = true
	}
	return nil
}

func (c *Catalog) index() {
	c.oirByID = indexBy(c.oir, func(q model.QuizQuestion) string { return q.ID })
	c.ppdtByID = indexBy(c.ppdt, func(i model.PPDTImage) string { return i.ID })
	c.tatByID = indexBy(c.tat, func(s model.TATScenario) string { return s.ID })
	c.srtByID = indexBy(c.srt, func(s model.SRTSituation) string { return s.ID })
}

func quizIDs(qs []model.QuizQuestion) []string {
	return idsOf(qs, func(q model.QuizQuestion) string { return q.ID })
}

func idsOf[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func indexBy[T any](items []T, id func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[id(it)] = it
	}
	return m
}

// OIRQuestions returns the OIR reasoning questions in catalog order.
func (c *Catalog) OIRQuestions() []model.QuizQuestion { return cloneQuiz(c.oir) }

// PPDTImages returns the PPDT pictures in catalog order.
func (c *Catalog) PPDTImages() []model.PPDTImage { return clone(c.ppdt) }

// TATScenarios returns the TAT prompts in catalog order.
func (c *Catalog) TATScenarios() []model.TATScenario { return clone(c.tat) }

// WATWords returns the WAT stimulus words in catalog order.
func (c *Catalog) WATWords() []string { return clone(c.wat) }

// SRTSituations returns the SRT prompts in catalog order.
func (c *Catalog) SRTSituations() []model.SRTSituation { return clone(c.srt) }

// InterviewQuestions returns the personal interview questions in catalog order.
func (c *Catalog) InterviewQuestions() []string { return clone(c.interview) }

// DefenseGKQuiz returns the defence general-knowledge quiz.
func (c *Catalog) DefenseGKQuiz() []model.QuizQuestion { return cloneQuiz(c.defenseGK) }

// CurrentAffairsQuiz returns the current-affairs quiz.
func (c *Catalog) CurrentAffairsQuiz() []model.QuizQuestion { return cloneQuiz(c.currentAffairs) }

// GTOTasks returns the group testing tasks in catalog order.
func (c *Catalog) GTOTasks() []model.GTOTask { return clone(c.gto) }

// OIRQuestion looks up an OIR question by identifier.
func (c *Catalog) OIRQuestion(id string) (model.QuizQuestion, bool) {
	q, ok := c.oirByID[id]
	if ok {
		q.Options = clone(q.Options)
	}
	return q, ok
}

// PPDTImage looks up a PPDT picture by identifier.
func (c *Catalog) PPDTImage(id string) (model.PPDTImage, bool) {
	i, ok := c.ppdtByID[id]
	return i, ok
}

// TATScenario looks up a TAT prompt by identifier.
func (c *Catalog) TATScenario(id string) (model.TATScenario, bool) {
	s, ok := c.tatByID[id]
	return s, ok
}

// SRTSituation looks up an SRT prompt by identifier.
func (c *Catalog) SRTSituation(id string) (model.SRTSituation, bool) {
	s, ok := c.srtByID[id]
	return s, ok
}

// List returns the table for a test type as a JSON-ready slice.
func (c *Catalog) List(t model.TestType) (any, error) {
	switch t {
	case model.TestOIR:
		return c.OIRQuestions(), nil
	case model.TestPPDT:
		return c.PPDTImages(), nil
	case model.TestTAT:
		return c.TATScenarios(), nil
	case model.TestWAT:
		return c.WATWords(), nil
	case model.TestSRT:
		return c.SRTSituations(), nil
	case model.TestInterview:
		return c.InterviewQuestions(), nil
	case model.TestDefenseGK:
		return c.DefenseGKQuiz(), nil
	case model.TestCurrentAffairs:
		return c.CurrentAffairsQuiz(), nil
	case model.TestGTO:
		return c.GTOTasks(), nil
	}
	return nil, fmt.Errorf("unknown test type %q", t)
}

func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneQuiz(qs []model.QuizQuestion) []model.QuizQuestion {
	out := clone(qs)
	for i := range out {
		out[i].Options = clone(out[i].Options)
	}
	return out
}
