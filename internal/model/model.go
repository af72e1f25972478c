package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TestType names a practice test format served by the catalog.
type TestType string

const (
	TestOIR            TestType = "oir"
	TestPPDT           TestType = "ppdt"
	TestTAT            TestType = "tat"
	TestWAT            TestType = "wat"
	TestSRT            TestType = "srt"
	TestInterview      TestType = "interview"
	TestDefenseGK      TestType = "defense-gk"
	TestCurrentAffairs TestType = "current-affairs"
	TestGTO            TestType = "gto"
)

// AllTestTypes lists every catalog table in display order.
var AllTestTypes = []TestType{
	TestOIR, TestPPDT, TestTAT, TestWAT, TestSRT,
	TestInterview, TestDefenseGK, TestCurrentAffairs, TestGTO,
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuizQuestion is a multiple-choice item (OIR, defense GK, current affairs).
// CorrectAnswer is a zero-based index into Options.
type QuizQuestion struct {
	ID            string     `json:"id"`
	Category      string     `json:"category,omitempty"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correct_answer"`
	Explanation   string     `json:"explanation"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
}

// PPDTImage is a picture shown for the Picture Perception & Discussion Test.
type PPDTImage struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// TATScenario is a Thematic Apperception Test prompt.
type TATScenario struct {
	ID       string `json:"id"`
	Scenario string `json:"scenario"`
}

// SRTSituation is a Situation Reaction Test prompt.
type SRTSituation struct {
	ID        string `json:"id"`
	Situation string `json:"situation"`
}

// GTOTask describes a Group Testing Officer task.
type GTOTask struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Strategy       string `json:"strategy"`
	CommonMistakes string `json:"common_mistakes"`
}

// FlexString decodes a JSON string, number or boolean into its text form.
// Clients send PPDT context answers from form selects, sometimes as numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if raw == "true" || raw == "false" {
		*f = FlexString(raw)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("expected string or number, got %s", raw)
	}
	*f = FlexString(raw)
	return nil
}

// OIRSubmission is the body of POST /api/oir/submit.
type OIRSubmission struct {
	Answer        *int   `json:"answer" validate:"required"`
	QuestionID    string `json:"question_id" validate:"required"`
	CorrectAnswer *int   `json:"correct_answer"`
}

// PPDTSubmission is the body of POST /api/ppdt/submit.
type PPDTSubmission struct {
	Story         string     `json:"story" validate:"required"`
	ImageID       string     `json:"image_id"`
	Background    FlexString `json:"background"`
	NumCharacters FlexString `json:"numCharacters"`
	Gender        FlexString `json:"gender"`
	Mood          FlexString `json:"mood"`
	Age           FlexString `json:"age"`
}

// TATSubmission is the body of POST /api/tat/submit.
type TATSubmission struct {
	Response   string `json:"response" validate:"required"`
	ScenarioID string `json:"scenario_id"`
}

// WordResponse pairs a WAT stimulus word with the candidate's association.
type WordResponse struct {
	Word     string `json:"word" validate:"required"`
	Response string `json:"response"`
}

// WATSubmission is the body of POST /api/wat/submit.
type WATSubmission struct {
	Responses []WordResponse `json:"responses" validate:"required,min=1,dive"`
}

// SituationResponse pairs an SRT situation with the candidate's reaction.
type SituationResponse struct {
	SituationID string `json:"situation_id" validate:"required"`
	Response    string `json:"response"`
}

// SRTSubmission is the body of POST /api/srt/submit.
type SRTSubmission struct {
	Responses []SituationResponse `json:"responses" validate:"required,min=1,dive"`
}

// InterviewSubmission is the body of POST /api/interview/submit.
type InterviewSubmission struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// ChatRequest is the body of POST /api/chat/mentor.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	UserID  string `json:"user_id"`
}

// OIRResult is the outcome of an OIR answer check.
type OIRResult struct {
	Correct  bool   `json:"correct"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// StorySections carries the two logical parts of a PPDT evaluation.
type StorySections struct {
	Evaluation           string `json:"evaluation"`
	PositiveStoryExample string `json:"positive_story_example"`
}

// PPDTResult is the outcome of a PPDT story evaluation. Evaluation holds the
// marker-delimited text clients split on; Sections holds the same content pre-split.
type PPDTResult struct {
	Evaluation     string        `json:"evaluation"`
	SubmittedStory string        `json:"submitted_story"`
	Sections       StorySections `json:"sections"`
}

// FeedbackResult is the outcome of TAT, WAT, SRT and interview evaluations.
type FeedbackResult struct {
	Feedback string `json:"feedback"`
}

// ChatResponse is the mentor's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// HealthStatus is returned by GET /api/health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ChatTurn is one persisted mentor exchange. Turns are append-only.
type ChatTurn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistory is returned by GET /api/chat/history/{user_id}.
type ChatHistory struct {
	UserID string     `json:"user_id"`
	Turns  []ChatTurn `json:"turns"`
}

// ProgressSnapshot is a per-user progress summary.
type ProgressSnapshot struct {
	UserID              string         `json:"user_id"`
	PracticeStreak      int            `json:"practice_streak"`
	TotalSessions       int            `json:"total_sessions"`
	AverageScores       map[string]int `json:"average_scores"`
	Strengths           []string       `json:"strengths"`
	AreasForImprovement []string       `json:"areas_for_improvement"`
	NextRecommendations []string       `json:"next_recommendations"`
}

// ServerConfig holds runtime HTTP parameters set via CLI flags.
type ServerConfig struct {
	StrictInput bool     // reject bodies with missing required fields
	CORSOrigins []string // allowed CORS origins; "*" allows any
	Lang        string   // default language for API messages
}
