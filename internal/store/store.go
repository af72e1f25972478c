// Package store persists mentor chat turns in a SQL database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pavelanni/ssbprep/internal/model"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New opens the database for driver (sqlite, postgres or mysql) and applies
// the schema.
func New(driver, dsn string) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Debug("database ready", "driver", dialect.Name())
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Driver reports the configured backend name.
func (s *Store) Driver() string {
	return s.dialect.Name()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) rebind(query string) string {
	return s.dialect.RewriteQuery(query)
}

// AppendChatTurn stores one chat exchange. Turns are never updated.
func (s *Store) AppendChatTurn(ctx context.Context, t model.ChatTurn) error {
	if t.ID == "" || t.UserID == "" {
		return errors.New("chat turn needs an id and a user id")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO chat_turns (id, user_id, message, response, created_at) VALUES (?, ?, ?, ?, ?)`),
		t.ID, t.UserID, t.Message, t.Response, t.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return nil
}

// ListChatTurns returns a user's turns oldest first. A positive limit keeps
// only the most recent turns.
func (s *Store) ListChatTurns(ctx context.Context, userID string, limit int) ([]model.ChatTurn, error) {
	query := `SELECT id, user_id, message, response, created_at FROM chat_turns WHERE user_id = ?`
	args := []any{userID}
	if limit > 0 {
		query += ` ORDER BY seq DESC LIMIT ?`
		args = append(args, limit)
	} else {
		query += ` ORDER BY seq`
	}

	turns, err := s.queryTurns(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		slices.Reverse(turns)
	}
	return turns, nil
}

// ChatTurnCount returns the number of stored turns across all users.
func (s *Store) ChatTurnCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_turns`).Scan(&n)
	return n, err
}

// ListChatUsers returns the distinct user IDs with stored turns, sorted.
func (s *Store) ListChatUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM chat_turns ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) queryTurns(ctx context.Context, query string, args ...any) ([]model.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	turns := []model.ChatTurn{}
	for rows.Next() {
		var t model.ChatTurn
		if err := rows.Scan(&t.ID, &t.UserID, &t.Message, &t.Response, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
