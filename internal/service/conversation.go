// Package service provides business logic for the voice chat server.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sarthi-ai/voicechat/internal/model"
	"github.com/sarthi-ai/voicechat/internal/store"
	"github.com/sarthi-ai/voicechat/pkg/logger"
	"github.com/sarthi-ai/voicechat/pkg/metrics"
)

// Record sources for the conversations_total metric.
const (
	SourceRelay = "relay"
	SourceREST  = "rest"
)

// ConversationService handles conversation history operations.
type ConversationService struct {
	store  store.ConversationStore
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(st store.ConversationStore, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:  st,
		logger: log,
	}
}

// Create stores a validated record.
func (s *ConversationService) Create(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	return s.create(ctx, req, SourceREST)
}

func (s *ConversationService) create(ctx context.Context, req *model.CreateConversationRequest, source string) (*model.Conversation, error) {
	conv, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to store conversation: %w", err)
	}

	metrics.ConversationsTotal.WithLabelValues(source).Inc()
	s.logger.Debug("conversation created",
		zap.Int64("conversation_id", conv.ID),
		zap.String("source", source),
	)

	return conv, nil
}

// List returns every stored record in creation order. The result is never nil.
func (s *ConversationService) List(ctx context.Context) ([]model.Conversation, error) {
	convs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	return convs, nil
}

// Ping checks the backing store.
func (s *ConversationService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
