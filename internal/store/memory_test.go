package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-ai/voicechat/internal/model"
)

func TestMemoryStoreCreateAssignsMonotonicIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.Create(ctx, &model.CreateConversationRequest{UserMessage: "a", AIResponse: "b", SystemPrompt: "p"})
	require.NoError(t, err)
	second, err := s.Create(ctx, &model.CreateConversationRequest{UserMessage: "c", AIResponse: "d", SystemPrompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, "c", second.UserMessage)
	assert.Equal(t, "d", second.AIResponse)
}

func TestMemoryStoreListInInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, text := range []string{"one", "two", "three"} {
		_, err := s.Create(ctx, &model.CreateConversationRequest{UserMessage: text, AIResponse: "ok", SystemPrompt: "p"})
		require.NoError(t, err)
	}

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, want, records[i].UserMessage)
		assert.Equal(t, int64(i+1), records[i].ID)
	}

	// List hands out a copy.
	records[0].UserMessage = "mutated"
	again, _ := s.List(ctx)
	assert.Equal(t, "one", again[0].UserMessage)
}

func TestMemoryStoreConcurrentCreates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, &model.CreateConversationRequest{UserMessage: "u", AIResponse: "a", SystemPrompt: "p"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 50)

	seen := make(map[int64]bool)
	for _, r := range records {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, &model.CreateConversationRequest{UserMessage: "u", AIResponse: "a", SystemPrompt: "p"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenMemoryDriver(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mongo"})
	assert.Error(t, err)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: DriverPostgres})
	assert.Error(t, err)
}
