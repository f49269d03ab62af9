package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Publisher is the slice of *nats.Conn the notification publisher needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NotificationPublisher publishes scenario execution events to NATS for
// dashboards and simulators that react to injected events.
//
// Subject convention: <prefix>.executed.<scenario_id>
//
// Publishing is non-fatal: errors are logged and never returned, so a
// broker outage never fails a committed scenario.
type NotificationPublisher struct {
	conn   Publisher
	prefix string
	log    zerolog.Logger
}

// ScenarioEvent is the JSON schema published to NATS.
type ScenarioEvent struct {
	EventType   string         `json:"event_type"`
	ExecutionID string         `json:"execution_id"`
	ScenarioID  string         `json:"scenario_id"`
	Scenario    string         `json:"scenario"`
	TenantID    string         `json:"tenant_id"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// NewNotificationPublisher creates a publisher. A nil conn disables
// publishing.
func NewNotificationPublisher(conn Publisher, prefix string, log zerolog.Logger) *NotificationPublisher {
	if prefix == "" {
		prefix = "scenarios"
	}
	return &NotificationPublisher{conn: conn, prefix: prefix, log: log}
}

// Subject returns the subject an event for scenarioID is published on.
func (p *NotificationPublisher) Subject(scenarioID string) string {
	return fmt.Sprintf("%s.executed.%s", p.prefix, scenarioID)
}

// PublishExecuted publishes a scenario_executed event.
func (p *NotificationPublisher) PublishExecuted(event *ScenarioEvent) {
	if p == nil || p.conn == nil || event == nil {
		return
	}
	event.EventType = "scenario_executed"

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("scenario_id", event.ScenarioID).Msg("notification: failed to marshal event")
		return
	}

	subject := p.Subject(event.ScenarioID)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("execution_id", event.ExecutionID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("execution_id", event.ExecutionID).
		Msg("notification: event published")
}

// ConnectNATS dials the broker with reconnect handling wired to log.
func ConnectNATS(url, name string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}
