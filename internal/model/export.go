package model

import "time"

// ChatExport is the top-level JSON structure for chat transcript export.
type ChatExport struct {
	ExportedAt time.Time        `json:"exported_at"`
	TotalTurns int              `json:"total_turns"`
	Users      []UserTranscript `json:"users"`
}

// UserTranscript holds one user's mentor conversation for export.
type UserTranscript struct {
	UserID       string            `json:"user_id"`
	Turns        int               `json:"turns"`
	Conversation []ConversationMsg `json:"conversation"`
}

// ConversationMsg is a single message in an exported conversation.
type ConversationMsg struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// TranscriptFromTurns expands chat turns into alternating user and mentor messages.
func TranscriptFromTurns(userID string, turns []ChatTurn) UserTranscript {
	conv := make([]ConversationMsg, 0, len(turns)*2)
	for _, t := range turns {
		conv = append(conv,
			ConversationMsg{Role: "user", Content: t.Message, At: t.CreatedAt},
			ConversationMsg{Role: "mentor", Content: t.Response, At: t.CreatedAt},
		)
	}
	return UserTranscript{UserID: userID, Turns: len(turns), Conversation: conv}
}
