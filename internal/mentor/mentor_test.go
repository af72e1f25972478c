package mentor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/ssbprep/internal/llm/prompts"
	"github.com/pavelanni/ssbprep/internal/model"
	"github.com/pavelanni/ssbprep/internal/store"
)

type fakeGateway struct {
	reply          string
	content        string
	conversationID string
}

func (f *fakeGateway) Evaluate(_ context.Context, _, content, conversationID string) string {
	f.content, f.conversationID = content, conversationID
	return f.reply
}

type memRecorder struct {
	mu    sync.Mutex
	turns []model.ChatTurn
	err   error
}

func (m *memRecorder) AppendChatTurn(_ context.Context, t model.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.turns = append(m.turns, t)
	return nil
}

func (m *memRecorder) ListChatTurns(_ context.Context, userID string, limit int) ([]model.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ChatTurn
	for _, t := range m.turns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func newTestService(t *testing.T, g Gateway, r Recorder) *Service {
	t.Helper()
	if err := prompts.Load(); err != nil {
		t.Fatalf("prompts.Load: %v", err)
	}
	return New(g, r, prompts.StyleStandard)
}

func TestChatRecordsTurn(t *testing.T) {
	g := &fakeGateway{reply: "- Stay fit\n- Read newspapers"}
	rec := &memRecorder{}
	s := newTestService(t, g, rec)
	fixed := time.Date(2026, 5, 4, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	s.now = func() time.Time { return fixed }

	resp, err := s.Chat(context.Background(), "cadet-7", "How do I prepare?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp != g.reply {
		t.Errorf("response = %q", resp)
	}
	if g.conversationID != "cadet-7" {
		t.Errorf("conversation id = %q", g.conversationID)
	}
	if !strings.Contains(g.content, "How do I prepare?") {
		t.Errorf("prompt lacks the message:\n%s", g.content)
	}

	if len(rec.turns) != 1 {
		t.Fatalf("expected 1 recorded turn, got %d", len(rec.turns))
	}
	turn := rec.turns[0]
	if turn.ID == "" {
		t.Error("turn needs an id")
	}
	if turn.UserID != "cadet-7" || turn.Message != "How do I prepare?" || turn.Response != g.reply {
		t.Errorf("turn = %+v", turn)
	}
	if !turn.CreatedAt.Equal(fixed) || turn.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v in UTC", turn.CreatedAt, fixed)
	}
}

func TestChatAnonymousUser(t *testing.T) {
	tests := []string{"", "   "}
	for _, userID := range tests {
		rec := &memRecorder{}
		s := newTestService(t, &fakeGateway{reply: "ok"}, rec)
		if _, err := s.Chat(context.Background(), userID, "hi"); err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if rec.turns[0].UserID != AnonymousUser {
			t.Errorf("user id %q stored as %q", userID, rec.turns[0].UserID)
		}
	}
}

func TestChatPersistFailure(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	s := newTestService(t, &fakeGateway{reply: "advice"}, rec)

	resp, err := s.Chat(context.Background(), "u", "hi")
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if resp != "advice" {
		t.Errorf("response should survive a persistence failure, got %q", resp)
	}
}

func TestChatUniqueIDs(t *testing.T) {
	rec := &memRecorder{}
	s := newTestService(t, &fakeGateway{reply: "ok"}, rec)
	for range 3 {
		if _, err := s.Chat(context.Background(), "u", "again"); err != nil {
			t.Fatalf("Chat: %v", err)
		}
	}
	seen := map[string]bool{}
	for _, turn := range rec.turns {
		if seen[turn.ID] {
			t.Errorf("duplicate turn id %s", turn.ID)
		}
		seen[turn.ID] = true
	}
}

func TestHistoryWithStore(t *testing.T) {
	st, err := store.New("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	s := newTestService(t, &fakeGateway{reply: "answer"}, st)
	ctx := context.Background()
	for _, msg := range []string{"first", "second", "third"} {
		if _, err := s.Chat(ctx, "cadet", msg); err != nil {
			t.Fatalf("Chat(%q): %v", msg, err)
		}
	}

	all, err := s.History(ctx, "cadet", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 3 || all[0].Message != "first" || all[2].Message != "third" {
		t.Errorf("history = %+v", all)
	}

	last, err := s.History(ctx, "cadet", 1)
	if err != nil {
		t.Fatalf("History limit: %v", err)
	}
	if len(last) != 1 || last[0].Message != "third" {
		t.Errorf("limited history = %+v", last)
	}
}

// hangupGateway replies and then cancels the request, like a client that
// disconnects while the reply is on its way back.
type hangupGateway struct {
	reply  string
	cancel context.CancelFunc
}

func (g *hangupGateway) Evaluate(_ context.Context, _, _, _ string) string {
	g.cancel()
	return g.reply
}

func TestChatRecordsAfterClientHangup(t *testing.T) {
	st, err := store.New("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestService(t, &hangupGateway{reply: "advice", cancel: cancel}, st)

	resp, err := s.Chat(ctx, "cadet-9", "Any tips?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp != "advice" {
		t.Errorf("response = %q", resp)
	}

	turns, err := st.ListChatTurns(context.Background(), "cadet-9", 0)
	if err != nil {
		t.Fatalf("ListChatTurns: %v", err)
	}
	if len(turns) != 1 || turns[0].Response != "advice" {
		t.Errorf("stored turns = %+v, want one turn with the reply", turns)
	}
}

func TestProgress(t *testing.T) {
	s := newTestService(t, &fakeGateway{}, &memRecorder{})

	for _, userID := range []string{"alpha", "bravo"} {
		p := s.Progress(userID)
		if p.UserID != userID {
			t.Errorf("UserID = %q, want %q", p.UserID, userID)
		}
		if p.PracticeStreak != 7 || p.TotalSessions != 25 {
			t.Errorf("streak/sessions = %d/%d", p.PracticeStreak, p.TotalSessions)
		}
		if len(p.AverageScores) != 5 || p.AverageScores["WAT"] != 85 {
			t.Errorf("AverageScores = %v", p.AverageScores)
		}
		if len(p.Strengths) != 3 || len(p.AreasForImprovement) != 2 || len(p.NextRecommendations) != 3 {
			t.Errorf("unexpected lists in %+v", p)
		}
	}
}
