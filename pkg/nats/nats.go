// Package nats carries session lifecycle events over a JetStream work queue.
// Every event travels on a subject under the "events." prefix, one subject
// per event code, all backed by a single durable stream.
package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// streamName is the JetStream stream holding all lifecycle events.
	streamName = "AGORA_EVENTS"
	// subjectPrefix namespaces the event subjects; the remainder of the
	// subject is the event code itself.
	subjectPrefix = "events."
	// subjectWildcard matches every event subject in the stream.
	subjectWildcard = subjectPrefix + ">"
)

// connect dials the server and opens a JetStream context. Reconnects are
// bounded so a dead broker fails fast at startup instead of hanging boot.
func connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nc, js, nil
}
