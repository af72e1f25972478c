// Package practice evaluates practice-test submissions: each one is turned
// into a prompt, sent through the LLM gateway and returned as feedback.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pavelanni/ssbprep/internal/catalog"
	"github.com/pavelanni/ssbprep/internal/llm"
	"github.com/pavelanni/ssbprep/internal/llm/prompts"
	"github.com/pavelanni/ssbprep/internal/model"
)

// ErrUnknownQuestion is returned in strict mode when an OIR answer can be
// scored neither from the request nor from the catalog.
var ErrUnknownQuestion = errors.New("unknown question")

// Gateway is the part of llm.Gateway the service needs.
type Gateway interface {
	Evaluate(ctx context.Context, system, content, conversationID string) string
	EvaluateStory(ctx context.Context, system, content string) llm.StoryFeedback
}

// Options configures a Service.
type Options struct {
	Style prompts.Style
	// Lenient scores unknown OIR questions as incorrect instead of failing.
	Lenient bool
}

// Service evaluates submissions for every practice test type.
type Service struct {
	catalog *catalog.Catalog
	gateway Gateway
	style   prompts.Style
	lenient bool
}

// New creates a Service. An empty or unknown style falls back to standard.
func New(c *catalog.Catalog, g Gateway, opts Options) *Service {
	style := opts.Style
	if !prompts.IsValidStyle(string(style)) {
		style = prompts.StyleStandard
	}
	return &Service{catalog: c, gateway: g, style: style, lenient: opts.Lenient}
}

// SubmitOIR scores an answer locally and asks for feedback on it.
func (s *Service) SubmitOIR(ctx context.Context, sub model.OIRSubmission) (model.OIRResult, error) {
	q, known := s.catalog.OIRQuestion(sub.QuestionID)

	correctAnswer := sub.CorrectAnswer
	if correctAnswer == nil && known {
		correctAnswer = &q.CorrectAnswer
	}
	if correctAnswer == nil && !s.lenient {
		return model.OIRResult{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, sub.QuestionID)
	}

	correct := sub.Answer != nil && correctAnswer != nil && *sub.Answer == *correctAnswer
	score := 0
	if correct {
		score = 1
	}

	data := prompts.OIRData{
		QuestionID:    sub.QuestionID,
		Answer:        intText(sub.Answer),
		CorrectAnswer: intText(correctAnswer),
		Correct:       correct,
	}
	if known {
		data.Question = q.Question
	}
	system, content, err := prompts.BuildOIR(s.style, data)
	if err != nil {
		return model.OIRResult{}, fmt.Errorf("build OIR prompt: %w", err)
	}

	slog.Debug("OIR answer scored", "question_id", sub.QuestionID, "correct", correct)
	return model.OIRResult{
		Correct:  correct,
		Score:    score,
		Feedback: s.gateway.Evaluate(ctx, system, content, ""),
	}, nil
}

// SubmitPPDT evaluates a PPDT story and returns the evaluation in both the
// marker-delimited and the structured form.
func (s *Service) SubmitPPDT(ctx context.Context, sub model.PPDTSubmission) (model.PPDTResult, error) {
	data := prompts.PPDTData{
		ImageID:       sub.ImageID,
		Story:         sub.Story,
		Background:    string(sub.Background),
		NumCharacters: string(sub.NumCharacters),
		Gender:        string(sub.Gender),
		Mood:          string(sub.Mood),
		Age:           string(sub.Age),
	}
	if img, ok := s.catalog.PPDTImage(sub.ImageID); ok {
		data.ImageDescription = img.Description
	}
	system, content, err := prompts.BuildPPDT(s.style, data)
	if err != nil {
		return model.PPDTResult{}, fmt.Errorf("build PPDT prompt: %w", err)
	}

	fb := s.gateway.EvaluateStory(ctx, system, content)
	return model.PPDTResult{
		Evaluation:     fb.Text(),
		SubmittedStory: sub.Story,
		Sections: model.StorySections{
			Evaluation:           fb.Evaluation,
			PositiveStoryExample: fb.PositiveExample,
		},
	}, nil
}

// SubmitTAT evaluates a TAT story.
func (s *Service) SubmitTAT(ctx context.Context, sub model.TATSubmission) (model.FeedbackResult, error) {
	data := prompts.TATData{ScenarioID: sub.ScenarioID, Response: sub.Response}
	if sc, ok := s.catalog.TATScenario(sub.ScenarioID); ok {
		data.Scenario = sc.Scenario
	}
	system, content, err := prompts.BuildTAT(s.style, data)
	if err != nil {
		return model.FeedbackResult{}, fmt.Errorf("build TAT prompt: %w", err)
	}
	return model.FeedbackResult{Feedback: s.gateway.Evaluate(ctx, system, content, "")}, nil
}

// SubmitWAT evaluates a set of word associations.
func (s *Service) SubmitWAT(ctx context.Context, sub model.WATSubmission) (model.FeedbackResult, error) {
	pairs := make([]prompts.WordPair, 0, len(sub.Responses))
	for _, r := range sub.Responses {
		pairs = append(pairs, prompts.WordPair{Word: r.Word, Response: r.Response})
	}
	system, content, err := prompts.BuildWAT(s.style, prompts.WATData{Pairs: pairs})
	if err != nil {
		return model.FeedbackResult{}, fmt.Errorf("build WAT prompt: %w", err)
	}
	return model.FeedbackResult{Feedback: s.gateway.Evaluate(ctx, system, content, "")}, nil
}

// SubmitSRT evaluates a set of situation reactions.
func (s *Service) SubmitSRT(ctx context.Context, sub model.SRTSubmission) (model.FeedbackResult, error) {
	pairs := make([]prompts.SituationPair, 0, len(sub.Responses))
	for _, r := range sub.Responses {
		p := prompts.SituationPair{SituationID: r.SituationID, Response: r.Response}
		if sit, ok := s.catalog.SRTSituation(r.SituationID); ok {
			p.Situation = sit.Situation
		}
		pairs = append(pairs, p)
	}
	system, content, err := prompts.BuildSRT(s.style, prompts.SRTData{Pairs: pairs})
	if err != nil {
		return model.FeedbackResult{}, fmt.Errorf("build SRT prompt: %w", err)
	}
	return model.FeedbackResult{Feedback: s.gateway.Evaluate(ctx, system, content, "")}, nil
}

// SubmitInterview evaluates one interview answer.
func (s *Service) SubmitInterview(ctx context.Context, sub model.InterviewSubmission) (model.FeedbackResult, error) {
	system, content, err := prompts.BuildInterview(s.style, prompts.InterviewData{
		Question: sub.Question,
		Answer:   sub.Answer,
	})
	if err != nil {
		return model.FeedbackResult{}, fmt.Errorf("build interview prompt: %w", err)
	}
	return model.FeedbackResult{Feedback: s.gateway.Evaluate(ctx, system, content, "")}, nil
}

// intText renders an optional option index; nil becomes empty so the prompt
// builder substitutes its placeholder.
func intText(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
