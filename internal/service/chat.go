package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sarthi-ai/voicechat/internal/llm"
	"github.com/sarthi-ai/voicechat/internal/model"
	"github.com/sarthi-ai/voicechat/pkg/logger"
	"github.com/sarthi-ai/voicechat/pkg/metrics"
)

const (
	// DefaultSystemPrompt is used when a message event carries no prompt.
	DefaultSystemPrompt = "You are a helpful Hindi AI assistant. Answer in Hindi."

	// StyleSuffix is appended to every system instruction sent to the gateway.
	StyleSuffix = " Use casual, conversational Hindi (Hinglish if natural). Avoid formal phrases like 'Main Google dwara train kiya gaya ek bada bhasha model hu'. Be friendly and talk like a real person."

	// EmptyReply replaces an empty generation. It is persisted like any reply.
	EmptyReply = "माफ़ कीजिये, मैं समझ नहीं पाया।"

	// FallbackReply is sent when generation fails. It is never persisted.
	FallbackReply = "तकनीकी खराबी के कारण मैं जवाब नहीं दे पा रहा हूँ।"
)

// ExchangePublisher receives each stored exchange.
type ExchangePublisher interface {
	PublishExchange(ctx context.Context, rec *model.Conversation) (uint64, error)
}

// ChatService turns relay message events into replies.
type ChatService struct {
	llmClient     llm.Client
	conversations *ConversationService
	feed          ExchangePublisher
	model         string
	logger        *logger.Logger
	tracer        trace.Tracer

	wg sync.WaitGroup
}

// NewChatService creates a chat service. A nil llmClient makes every reply
// the fallback text.
func NewChatService(llmClient llm.Client, conversations *ConversationService, modelName string, log *logger.Logger) *ChatService {
	return &ChatService{
		llmClient:     llmClient,
		conversations: conversations,
		model:         modelName,
		logger:        log,
		tracer:        otel.Tracer("github.com/sarthi-ai/voicechat/internal/service"),
	}
}

// SetFeed publishes every stored exchange to feed.
func (s *ChatService) SetFeed(feed ExchangePublisher) {
	s.feed = feed
}

// Reply generates the response for one message event. It never fails: a
// gateway error yields FallbackReply. Successful exchanges are stored in the
// background and Reply returns without waiting for the insert.
func (s *ChatService) Reply(ctx context.Context, in model.MessageEvent) model.ResponseEvent {
	prompt := in.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	ctx, span := s.tracer.Start(ctx, "chat.reply")
	defer span.End()

	text, err := s.generate(ctx, prompt, in.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.logger.Error("failed to generate reply", zap.Error(err))
		metrics.RecordExchange(metrics.OutcomeFallback)
		return model.ResponseEvent{Text: FallbackReply}
	}

	outcome := metrics.OutcomeSuccess
	if text == "" {
		text = EmptyReply
		outcome = metrics.OutcomeEmpty
	}
	span.SetAttributes(attribute.String("chat.outcome", outcome))

	s.persist(ctx, &model.CreateConversationRequest{
		UserMessage:  in.Text,
		AIResponse:   text,
		SystemPrompt: prompt,
	})
	metrics.RecordExchange(outcome)

	return model.ResponseEvent{Text: text}
}

func (s *ChatService) generate(ctx context.Context, prompt, text string) (string, error) {
	if s.llmClient == nil {
		return "", llm.ErrNotConfigured
	}

	start := time.Now()
	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		Model:  s.model,
		System: prompt + StyleSuffix,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: text},
		},
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordAIRequest(s.llmClient.Name(), status, time.Since(start).Seconds())

	if err != nil {
		return "", fmt.Errorf("failed to complete: %w", err)
	}
	if resp == nil {
		return "", errors.New("empty completion response")
	}
	return resp.Content, nil
}

// persist stores the exchange on its own goroutine. The insert outlives the
// connection that produced it.
func (s *ChatService) persist(ctx context.Context, req *model.CreateConversationRequest) {
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		conv, err := s.conversations.create(ctx, req, SourceRelay)
		if err != nil {
			metrics.PersistFailuresTotal.Inc()
			s.logger.Error("failed to persist exchange", zap.Error(err))
			return
		}

		if s.feed == nil {
			return
		}
		if _, err := s.feed.PublishExchange(ctx, conv); err != nil {
			s.logger.Warn("failed to publish exchange",
				zap.Int64("conversation_id", conv.ID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until background inserts finish or ctx ends.
func (s *ChatService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
