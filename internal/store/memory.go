package store

import (
	"context"
	"sync"
	"time"

	"github.com/sarthi-ai/voicechat/internal/model"
)

// MemoryStore keeps records in process memory. It backs local development
// (STORE_DRIVER=memory) and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.Conversation
	nextID  int64
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		now:    time.Now,
	}
}

// Create appends a record with the next id.
func (s *MemoryStore) Create(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := model.Conversation{
		ID:           s.nextID,
		UserMessage:  req.UserMessage,
		AIResponse:   req.AIResponse,
		SystemPrompt: req.SystemPrompt,
		CreatedAt:    s.now(),
	}
	s.nextID++
	s.records = append(s.records, rec)

	return &rec, nil
}

// List returns a copy of all records.
func (s *MemoryStore) List(ctx context.Context) ([]model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
