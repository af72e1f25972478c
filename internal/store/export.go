package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/ssbprep/internal/model"
)

// ExportChats builds export-ready transcripts. An empty userID exports every
// user with stored turns.
func (s *Store) ExportChats(ctx context.Context, userID string) (model.ChatExport, error) {
	users := []string{userID}
	if userID == "" {
		var err error
		users, err = s.ListChatUsers(ctx)
		if err != nil {
			return model.ChatExport{}, fmt.Errorf("list chat users: %w", err)
		}
	}

	export := model.ChatExport{
		ExportedAt: time.Now().UTC(),
		Users:      []model.UserTranscript{},
	}
	for _, u := range users {
		turns, err := s.ListChatTurns(ctx, u, 0)
		if err != nil {
			return model.ChatExport{}, fmt.Errorf("list turns for %s: %w", u, err)
		}
		if len(turns) == 0 {
			continue
		}
		export.Users = append(export.Users, model.TranscriptFromTurns(u, turns))
		export.TotalTurns += len(turns)
	}
	return export, nil
}
