// Package prompts builds the system instruction and content sent to the LLM
// for each practice test type and for the mentor chat.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	// NoAnswer replaces empty candidate input.
	NoAnswer = "[No answer provided]"
	// NotSpecified replaces empty optional context fields.
	NotSpecified = "[Not specified]"

	maxAnswerRunes = 10000
)

var (
	candidateResponseRegex  = regexp.MustCompile(`(?i)</?\s*candidate-response\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

// Style selects the tone of the system instruction.
type Style string

const (
	// StyleStrict is direct and critical, suited to candidates close to their board.
	StyleStrict Style = "strict"
	// StyleStandard is the default balanced tone.
	StyleStandard Style = "standard"
	// StyleEncouraging leads with strengths and keeps criticism gentle.
	StyleEncouraging Style = "encouraging"
)

var tones = map[Style]string{
	StyleStrict:      "Be direct and demanding. Point out every weakness plainly and do not soften criticism.",
	StyleStandard:    "Be balanced: acknowledge strengths, name weaknesses and give practical tips.",
	StyleEncouraging: "Be warm and motivating. Lead with strengths and frame weaknesses as next steps.",
}

// IsValidStyle reports whether s names a known feedback style.
func IsValidStyle(s string) bool {
	_, ok := tones[Style(s)]
	return ok
}

// Kind identifies a prompt template.
type Kind string

const (
	KindOIR       Kind = "oir"
	KindPPDT      Kind = "ppdt"
	KindTAT       Kind = "tat"
	KindWAT       Kind = "wat"
	KindSRT       Kind = "srt"
	KindInterview Kind = "interview"
	KindMentor    Kind = "mentor"
)

var kinds = []Kind{KindOIR, KindPPDT, KindTAT, KindWAT, KindSRT, KindInterview, KindMentor}

var personas = map[Kind]string{
	KindOIR:       "You are a supportive SSB preparation mentor.",
	KindPPDT:      "You are an experienced SSB psychologist assessing Picture Perception and Discussion Test stories.",
	KindTAT:       "You are an experienced SSB psychologist assessing Thematic Apperception Test stories.",
	KindWAT:       "You are an experienced SSB psychologist assessing Word Association Test responses.",
	KindSRT:       "You are an experienced SSB psychologist assessing Situation Reaction Test responses.",
	KindInterview: "You are an SSB interviewing officer giving feedback on a personal interview answer.",
	KindMentor:    "You are a supportive SSB mentor with years of experience.",
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Kind]*template.Template
)

// Load parses the embedded templates. It is safe to call more than once.
func Load() error {
	loadOnce.Do(func() {
		templates, loadErr = parseTemplates(templateFS)
	})
	return loadErr
}

func parseTemplates(fsys fs.FS) (map[Kind]*template.Template, error) {
	parsed := make(map[Kind]*template.Template, len(kinds))
	for _, k := range kinds {
		name := "templates/" + string(k) + ".tmpl"
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read prompt file %s: %w", name, err)
		}
		tmpl, err := template.New(string(k)).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
		}
		parsed[k] = tmpl
	}
	return parsed, nil
}

// OIRData is the input of the OIR feedback prompt.
type OIRData struct {
	QuestionID    string
	Question      string
	Answer        string
	CorrectAnswer string
	Correct       bool
}

// PPDTData is the input of the PPDT story prompt.
type PPDTData struct {
	ImageID          string
	ImageDescription string
	Story            string
	Background       string
	NumCharacters    string
	Gender           string
	Mood             string
	Age              string
}

// TATData is the input of the TAT story prompt.
type TATData struct {
	ScenarioID string
	Scenario   string
	Response   string
}

// WordPair is one WAT word and the candidate's association.
type WordPair struct {
	Word     string
	Response string
}

// WATData is the input of the WAT prompt.
type WATData struct {
	Pairs []WordPair
}

// SituationPair is one SRT situation and the candidate's reaction.
type SituationPair struct {
	SituationID string
	Situation   string
	Response    string
}

// SRTData is the input of the SRT prompt.
type SRTData struct {
	Pairs []SituationPair
}

// InterviewData is the input of the interview prompt.
type InterviewData struct {
	Question string
	Answer   string
}

// MentorData is the input of the mentor chat prompt.
type MentorData struct {
	Message string
}

// BuildOIR builds the feedback prompt for an answered OIR question.
func BuildOIR(style Style, d OIRData) (system, content string, err error) {
	d.QuestionID = orUnspecified(d.QuestionID)
	d.Answer = Sanitize(d.Answer)
	d.CorrectAnswer = orUnspecified(d.CorrectAnswer)
	return build(KindOIR, style, d)
}

// BuildPPDT builds the two-part evaluation prompt for a PPDT story.
func BuildPPDT(style Style, d PPDTData) (system, content string, err error) {
	d.ImageID = orUnspecified(d.ImageID)
	d.Story = Sanitize(d.Story)
	d.Background = orUnspecified(d.Background)
	d.NumCharacters = orUnspecified(d.NumCharacters)
	d.Gender = orUnspecified(d.Gender)
	d.Mood = orUnspecified(d.Mood)
	d.Age = orUnspecified(d.Age)
	return build(KindPPDT, style, d)
}

// BuildTAT builds the feedback prompt for a TAT story.
func BuildTAT(style Style, d TATData) (system, content string, err error) {
	d.ScenarioID = orUnspecified(d.ScenarioID)
	d.Response = Sanitize(d.Response)
	return build(KindTAT, style, d)
}

// BuildWAT builds the feedback prompt for a set of word associations.
func BuildWAT(style Style, d WATData) (system, content string, err error) {
	pairs := make([]WordPair, len(d.Pairs))
	for i, p := range d.Pairs {
		pairs[i] = WordPair{Word: orUnspecified(p.Word), Response: Sanitize(p.Response)}
	}
	d.Pairs = pairs
	return build(KindWAT, style, d)
}

// BuildSRT builds the feedback prompt for a set of situation reactions.
func BuildSRT(style Style, d SRTData) (system, content string, err error) {
	pairs := make([]SituationPair, len(d.Pairs))
	for i, p := range d.Pairs {
		pairs[i] = SituationPair{
			SituationID: orUnspecified(p.SituationID),
			Situation:   p.Situation,
			Response:    Sanitize(p.Response),
		}
	}
	d.Pairs = pairs
	return build(KindSRT, style, d)
}

// BuildInterview builds the feedback prompt for an interview answer.
func BuildInterview(style Style, d InterviewData) (system, content string, err error) {
	d.Question = orUnspecified(d.Question)
	d.Answer = Sanitize(d.Answer)
	return build(KindInterview, style, d)
}

// BuildMentor builds the mentor chat prompt.
func BuildMentor(style Style, d MentorData) (system, content string, err error) {
	d.Message = Sanitize(d.Message)
	return build(KindMentor, style, d)
}

func build(kind Kind, style Style, data any) (string, string, error) {
	if templates == nil {
		if loadErr != nil {
			return "", "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", "", errors.New("templates not initialized: call Load first")
	}
	tone, ok := tones[style]
	if !ok {
		return "", "", errors.New("invalid feedback style: " + string(style))
	}

	var buf bytes.Buffer
	if err := templates[kind].Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return personas[kind] + " " + tone, strings.TrimSpace(buf.String()), nil
}

// Sanitize strips tags that could be used to break out of the prompt
// structure, trims the text and truncates it to a bounded length. Empty
// input becomes NoAnswer.
func Sanitize(text string) string {
	text = candidateResponseRegex.ReplaceAllString(text, "")
	text = systemInstructionsRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if text == "" {
		return NoAnswer
	}

	if utf8.RuneCountInString(text) > maxAnswerRunes {
		runes := []rune(text)
		text = string(runes[:maxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}
	return text
}

func orUnspecified(s string) string {
	s = strings.TrimSpace(systemInstructionsRegex.ReplaceAllString(s, ""))
	if s == "" {
		return NotSpecified
	}
	return s
}
