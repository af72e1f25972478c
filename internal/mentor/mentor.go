// Package mentor implements the AI mentor chat and the progress summary.
package mentor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/ssbprep/internal/llm/prompts"
	"github.com/pavelanni/ssbprep/internal/model"
)

// AnonymousUser stands in for requests without a user ID.
const AnonymousUser = "anonymous"

const persistTimeout = 5 * time.Second

// ErrPersist wraps failures to record a chat turn. The response text is still
// valid when it is returned.
var ErrPersist = errors.New("persist chat turn")

// Gateway turns a prompt into mentor feedback text.
type Gateway interface {
	Evaluate(ctx context.Context, system, content, conversationID string) string
}

// Recorder persists chat turns. Turns are appended in chronological order and
// listed oldest first. Implementations must be safe for concurrent use.
type Recorder interface {
	AppendChatTurn(ctx context.Context, t model.ChatTurn) error
	ListChatTurns(ctx context.Context, userID string, limit int) ([]model.ChatTurn, error)
}

// Service answers mentor chat messages and keeps their transcript.
type Service struct {
	gateway Gateway
	turns   Recorder
	style   prompts.Style
	now     func() time.Time
}

// New creates a Service.
func New(g Gateway, r Recorder, style prompts.Style) *Service {
	if !prompts.IsValidStyle(string(style)) {
		style = prompts.StyleStandard
	}
	return &Service{gateway: g, turns: r, style: style, now: time.Now}
}

// NormalizeUserID maps a blank user ID to AnonymousUser.
func NormalizeUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return AnonymousUser
	}
	return userID
}

// Chat asks the mentor and records the exchange before returning. When the
// record cannot be written the response is returned together with an error
// wrapping ErrPersist.
func (s *Service) Chat(ctx context.Context, userID, message string) (string, error) {
	userID = NormalizeUserID(userID)

	system, content, err := prompts.BuildMentor(s.style, prompts.MentorData{Message: message})
	if err != nil {
		return "", fmt.Errorf("build mentor prompt: %w", err)
	}
	response := s.gateway.Evaluate(ctx, system, content, userID)

	turn := model.ChatTurn{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Response:  response,
		CreatedAt: s.now().UTC(),
	}
	// Recorded even when the client has already gone away.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.turns.AppendChatTurn(persistCtx, turn); err != nil {
		slog.Error("failed to record chat turn", "user_id", userID, "turn_id", turn.ID, "error", err)
		return response, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	slog.Debug("chat turn recorded", "user_id", userID, "turn_id", turn.ID)
	return response, nil
}

// History returns a user's recorded turns oldest first. A positive limit
// keeps only the most recent ones.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]model.ChatTurn, error) {
	turns, err := s.turns.ListChatTurns(ctx, NormalizeUserID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list chat turns: %w", err)
	}
	return turns, nil
}

// Progress returns the progress summary for userID.
//
// The figures are a fixed sample and do not reflect stored activity; real
// aggregation over submissions is not implemented.
func (s *Service) Progress(userID string) model.ProgressSnapshot {
	return model.ProgressSnapshot{
		UserID:         userID,
		PracticeStreak: 7,
		TotalSessions:  25,
		AverageScores: map[string]int{
			"OIR":  75,
			"PPDT": 80,
			"TAT":  70,
			"WAT":  85,
			"SRT":  78,
		},
		Strengths:           []string{"Leadership", "Problem Solving", "Communication"},
		AreasForImprovement: []string{"Time Management", "Stress Handling"},
		NextRecommendations: []string{
			"Practice more OIR questions",
			"Work on TAT responses",
			"Improve interview confidence",
		},
	}
}
