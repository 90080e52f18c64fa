package coordination

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// Publisher fans out newly written records to subscribers of the SSE feed.
// Publishing is best-effort: a write that succeeds but fails to publish is
// still durable in storage, it just misses the live stream until the next
// poller catches up, so callers should log and continue rather than fail
// the whole write on a publish error.
type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// Publish serializes rec and sends it on the configured channel.
func (p *Publisher) Publish(ctx context.Context, rec model.AIDevelopment) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("coordination: marshaling record for publish: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("coordination: publishing record: %w", err)
	}
	return nil
}

// Subscriber receives the records Publisher sends, for the SSE handler.
type Subscriber struct {
	sub *redis.PubSub
}

// Subscribe opens a subscription on channel. Callers must call Close when done.
func Subscribe(ctx context.Context, client *redis.Client, channel string) *Subscriber {
	return &Subscriber{sub: client.Subscribe(ctx, channel)}
}

// Channel returns the underlying delivery channel of raw messages.
func (s *Subscriber) Channel() <-chan *redis.Message {
	return s.sub.Channel()
}

func (s *Subscriber) Close() error {
	return s.sub.Close()
}
