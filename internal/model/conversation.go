// Package model defines data structures for the voice chat service.
package model

import (
	"time"
)

// Conversation is one persisted exchange: what the user said, what the AI
// answered and the system prompt that was active. Records are immutable.
type Conversation struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	UserMessage  string    `json:"userMessage" gorm:"type:text;not null;column:user_message"`
	AIResponse   string    `json:"aiResponse" gorm:"type:text;not null;column:ai_response"`
	SystemPrompt string    `json:"systemPrompt" gorm:"type:text;not null;column:system_prompt"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime;column:created_at"`
}

// TableName pins the table name.
func (Conversation) TableName() string {
	return "conversations"
}

// CreateConversationRequest is the request to store a new exchange.
// Server-assigned fields (id, createdAt) are not part of it and are
// dropped when decoding.
type CreateConversationRequest struct {
	UserMessage  string `json:"userMessage"`
	AIResponse   string `json:"aiResponse"`
	SystemPrompt string `json:"systemPrompt"`
}

// ValidationError is the 400 response body for a rejected request.
type ValidationError struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// ErrorResponse is the body for non-validation errors.
type ErrorResponse struct {
	Message string `json:"message"`
}
