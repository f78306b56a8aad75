package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSPublisher forwards audit events to a NATS subject so external
// consumers (dashboards, alerting) can react to lifecycle changes without
// polling the store. Publishing is fire-and-forget; a lost event only
// affects observers, never the persisted audit trail.
type NATSPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewNATSPublisher connects to a NATS server. The subject prefix defaults
// to "stackctl.events" when empty.
func NewNATSPublisher(url, subjectPrefix string) (*NATSPublisher, error) {
	if subjectPrefix == "" {
		subjectPrefix = "stackctl.events"
	}

	conn, err := nats.Connect(url, nats.Name("stackctl"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized", slog.String("url", url), slog.String("subject_prefix", subjectPrefix))
	return &NATSPublisher{conn: conn, subjectPrefix: subjectPrefix}, nil
}

// Publish sends one event to <prefix>.<kind>.<operation>.
func (p *NATSPublisher) Publish(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", p.subjectPrefix, e.Kind, e.Operation)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
