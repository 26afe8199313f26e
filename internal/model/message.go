package model

import (
	"fmt"
	"time"
)

// Role represents the author of a client-side chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Message is a transient client-side chat entry. It is never persisted as
// such: history records expand into two of them and live relay traffic
// produces the rest.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ExpandHistory turns stored records into display messages, two per record.
func ExpandHistory(records []Conversation) []Message {
	out := make([]Message, 0, len(records)*2)
	for _, rec := range records {
		out = append(out,
			Message{
				ID:        fmt.Sprintf("h-%d-user", rec.ID),
				Role:      RoleUser,
				Text:      rec.UserMessage,
				Timestamp: rec.CreatedAt,
			},
			Message{
				ID:        fmt.Sprintf("h-%d-ai", rec.ID),
				Role:      RoleAI,
				Text:      rec.AIResponse,
				Timestamp: rec.CreatedAt,
			},
		)
	}
	return out
}
