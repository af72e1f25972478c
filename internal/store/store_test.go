package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/ssbprep/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func appendTestTurn(t *testing.T, s *Store, userID, message string, at time.Time) model.ChatTurn {
	t.Helper()
	turn := model.ChatTurn{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Response:  "reply to " + message,
		CreatedAt: at,
	}
	if err := s.AppendChatTurn(context.Background(), turn); err != nil {
		t.Fatalf("AppendChatTurn: %v", err)
	}
	return turn
}

func TestChatTurnRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.ChatTurnCount(ctx)
	if err != nil {
		t.Fatalf("ChatTurnCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 turns, got %d", count)
	}

	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	want := appendTestTurn(t, s, "cadet-1", "How to prepare for GTO?", at)

	turns, err := s.ListChatTurns(ctx, "cadet-1", 0)
	if err != nil {
		t.Fatalf("ListChatTurns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	got := turns[0]
	if got.ID != want.ID || got.Message != want.Message || got.Response != want.Response {
		t.Errorf("turn mismatch: got %+v, want %+v", got, want)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, at)
	}
	if got.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt should be UTC, got %v", got.CreatedAt.Location())
	}

	count, err = s.ChatTurnCount(ctx)
	if err != nil {
		t.Fatalf("ChatTurnCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 turn, got %d", count)
	}
}

func TestAppendChatTurnDefaultsTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	if err := s.AppendChatTurn(ctx, model.ChatTurn{ID: uuid.NewString(), UserID: "u", Message: "m", Response: "r"}); err != nil {
		t.Fatalf("AppendChatTurn: %v", err)
	}
	turns, err := s.ListChatTurns(ctx, "u", 0)
	if err != nil {
		t.Fatalf("ListChatTurns: %v", err)
	}
	if len(turns) != 1 || turns[0].CreatedAt.Before(before) {
		t.Errorf("expected a current timestamp, got %+v", turns)
	}
}

func TestAppendChatTurnRejectsIncomplete(t *testing.T) {
	s := newTestStore(t)
	tests := []struct {
		name string
		turn model.ChatTurn
	}{
		{"no id", model.ChatTurn{UserID: "u"}},
		{"no user", model.ChatTurn{ID: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.AppendChatTurn(context.Background(), tt.turn); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAppendChatTurnDuplicateID(t *testing.T) {
	s := newTestStore(t)
	turn := appendTestTurn(t, s, "u", "first", time.Now())
	if err := s.AppendChatTurn(context.Background(), turn); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestListChatTurnsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		appendTestTurn(t, s, "cadet", fmt.Sprintf("msg %d", i), base.Add(time.Duration(i)*time.Minute))
	}
	appendTestTurn(t, s, "other", "unrelated", base)

	all, err := s.ListChatTurns(ctx, "cadet", 0)
	if err != nil {
		t.Fatalf("ListChatTurns: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(all))
	}
	for i, turn := range all {
		if want := fmt.Sprintf("msg %d", i); turn.Message != want {
			t.Errorf("turn %d = %q, want %q", i, turn.Message, want)
		}
	}

	recent, err := s.ListChatTurns(ctx, "cadet", 2)
	if err != nil {
		t.Fatalf("ListChatTurns limit: %v", err)
	}
	if len(recent) != 2 || recent[0].Message != "msg 3" || recent[1].Message != "msg 4" {
		t.Errorf("expected the two most recent turns oldest first, got %+v", recent)
	}

	none, err := s.ListChatTurns(ctx, "nobody", 0)
	if err != nil {
		t.Fatalf("ListChatTurns unknown user: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestExportChats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	appendTestTurn(t, s, "bravo", "b1", now)
	appendTestTurn(t, s, "alpha", "a1", now)
	appendTestTurn(t, s, "alpha", "a2", now.Add(time.Second))

	export, err := s.ExportChats(ctx, "")
	if err != nil {
		t.Fatalf("ExportChats: %v", err)
	}
	if export.TotalTurns != 3 {
		t.Errorf("TotalTurns = %d, want 3", export.TotalTurns)
	}
	if len(export.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(export.Users))
	}
	alpha := export.Users[0]
	if alpha.UserID != "alpha" || alpha.Turns != 2 {
		t.Errorf("first user = %s with %d turns", alpha.UserID, alpha.Turns)
	}
	if len(alpha.Conversation) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(alpha.Conversation))
	}
	if alpha.Conversation[0].Role != "user" || alpha.Conversation[1].Role != "mentor" {
		t.Errorf("unexpected roles %q, %q", alpha.Conversation[0].Role, alpha.Conversation[1].Role)
	}
	if alpha.Conversation[1].Content != "reply to a1" {
		t.Errorf("mentor content = %q", alpha.Conversation[1].Content)
	}

	single, err := s.ExportChats(ctx, "bravo")
	if err != nil {
		t.Fatalf("ExportChats single: %v", err)
	}
	if len(single.Users) != 1 || single.TotalTurns != 1 {
		t.Errorf("single export = %+v", single)
	}

	empty, err := s.ExportChats(ctx, "nobody")
	if err != nil {
		t.Fatalf("ExportChats unknown: %v", err)
	}
	if len(empty.Users) != 0 || empty.TotalTurns != 0 {
		t.Errorf("expected empty export, got %+v", empty)
	}
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := New("oracle", "whatever")
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver     string
		wantName   string
		wantDriver string
	}{
		{"", "sqlite", "sqlite"},
		{"sqlite", "sqlite", "sqlite"},
		{"postgres", "postgres", "pgx"},
		{"PostgreSQL", "postgres", "pgx"},
		{"mysql", "mysql", "mysql"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			if err != nil {
				t.Fatalf("DialectFor(%q): %v", tt.driver, err)
			}
			if d.Name() != tt.wantName || d.DriverName() != tt.wantDriver {
				t.Errorf("got %s/%s, want %s/%s", d.Name(), d.DriverName(), tt.wantName, tt.wantDriver)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	query := `INSERT INTO chat_turns (id, user_id, message) VALUES (?, ?, ?)`
	tests := []struct {
		driver string
		want   string
	}{
		{"sqlite", query},
		{"mysql", query},
		{"postgres", `INSERT INTO chat_turns (id, user_id, message) VALUES ($1, $2, $3)`},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			if err != nil {
				t.Fatalf("DialectFor: %v", err)
			}
			if got := d.RewriteQuery(query); got != tt.want {
				t.Errorf("RewriteQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		driver string
		dsn    string
		want   string
	}{
		{"sqlite", "", DefaultSQLitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{"sqlite", "file.db?mode=ro", "file.db?mode=ro"},
		{"mysql", "u:p@tcp(db:3306)/ssb", "u:p@tcp(db:3306)/ssb?parseTime=true"},
		{"mysql", "u:p@tcp(db:3306)/ssb?charset=utf8mb4", "u:p@tcp(db:3306)/ssb?charset=utf8mb4&parseTime=true"},
		{"mysql", "u:p@/ssb?parseTime=false", "u:p@/ssb?parseTime=false"},
		{"postgres", "postgres://u:p@db/ssb", "postgres://u:p@db/ssb"},
	}
	for _, tt := range tests {
		t.Run(tt.driver+" "+tt.dsn, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			if err != nil {
				t.Fatalf("DialectFor: %v", err)
			}
			if got := d.DSN(tt.dsn); got != tt.want {
				t.Errorf("DSN(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}
