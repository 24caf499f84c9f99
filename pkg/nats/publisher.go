package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"agora-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher pushes lifecycle events onto the stream. Delivery is
// best-effort from the engine's point of view; callers log a failed
// Publish and keep going.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewPublisher(url string) (*Publisher, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}

	p := &Publisher{nc: nc, js: js}
	if err := p.ensureStream(); err != nil {
		// The broker may not be up yet, or the subscriber side already
		// owns the stream. A real problem surfaces on the first Publish.
		log.Printf("Warn: failed to ensure stream %q: %v", streamName, err)
	}
	return p, nil
}

func (p *Publisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectWildcard},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	return err
}

// Publish writes the event payload to the subject for its event code.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := subjectPrefix + event.EventType()
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
