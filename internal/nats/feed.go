package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/sarthi-ai/voicechat/internal/model"
)

const (
	// StreamName is the name of the exchange stream.
	StreamName = "EXCHANGES"

	// SubjectPrefix is the prefix for all exchange subjects.
	SubjectPrefix = "exchanges"
)

// ExchangeFeed publishes stored conversation records to JetStream so other
// services can follow the exchange log.
type ExchangeFeed struct {
	client *Client
}

// NewExchangeFeed creates a new exchange feed.
func NewExchangeFeed(client *Client) *ExchangeFeed {
	return &ExchangeFeed{client: client}
}

// EnsureStream ensures the exchange stream exists.
func (f *ExchangeFeed) EnsureStream(ctx context.Context) error {
	js := f.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		Description: "Stored user/AI exchanges",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// CreatedSubject is the subject new records are published on.
func CreatedSubject() string {
	return SubjectPrefix + ".created"
}

// PublishExchange publishes a stored record and returns its stream sequence.
func (f *ExchangeFeed) PublishExchange(ctx context.Context, rec *model.Conversation) (uint64, error) {
	data, err := encodeExchange(rec)
	if err != nil {
		return 0, err
	}

	ack, err := f.client.JetStream().Publish(ctx, CreatedSubject(), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish exchange: %w", err)
	}

	return ack.Sequence, nil
}

func encodeExchange(rec *model.Conversation) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exchange: %w", err)
	}
	return data, nil
}
