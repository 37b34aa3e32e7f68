package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/actuator"
)

// FlagEvent is the message value published for a flagged user.
type FlagEvent struct {
	RunID                   string    `json:"run_id"`
	UserID                  string    `json:"user_id"`
	ConsecutiveInactiveDays int       `json:"consecutive_inactive_days"`
	MaxConsecutiveInactive  int       `json:"max_consecutive_inactive"`
	InactiveSince           string    `json:"inactive_since"`
	LastActiveDate          string    `json:"last_active_date"`
	Action                  string    `json:"action,omitempty"`
	Status                  string    `json:"status,omitempty"`
	Reason                  string    `json:"reason"`
	FlaggedAt               time.Time `json:"flagged_at"`
}

// FlagEvents pairs flags with the actions routed for them.
func FlagEvents(runID string, flags []activity.InactivityFlag, actions []actuator.Action, at time.Time) []FlagEvent {
	byUser := make(map[string]actuator.Action, len(actions))
	for _, a := range actions {
		byUser[a.UserID] = a
	}

	events := make([]FlagEvent, 0, len(flags))
	for _, f := range flags {
		ev := FlagEvent{
			RunID:                   runID,
			UserID:                  f.UserID,
			ConsecutiveInactiveDays: f.ConsecutiveInactiveDays,
			MaxConsecutiveInactive:  f.MaxConsecutiveInactive,
			InactiveSince:           f.InactiveSinceLabel(),
			LastActiveDate:          f.LastActiveLabel(),
			Reason:                  actuator.Reason(f.ConsecutiveInactiveDays),
			FlaggedAt:               at.UTC(),
		}
		if a, ok := byUser[f.UserID]; ok {
			ev.Action = string(a.Type)
			ev.Status = string(a.Status)
		}
		events = append(events, ev)
	}
	return events
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FlagPublisher publishes flag events keyed by user id, so that every event
// for a user lands on the same partition.
type FlagPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a FlagPublisher writing to topic.
func NewKafkaPublisher(brokers []string, topic string) (*FlagPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return newFlagPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
		MaxAttempts:            3,
	}), nil
}

func newFlagPublisher(w messageWriter) *FlagPublisher {
	return &FlagPublisher{writer: w}
}

// Publish writes all events in one batch.
func (p *FlagPublisher) Publish(ctx context.Context, events []FlagEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encoding flag event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.UserID),
			Value: value,
			Time:  ev.FlaggedAt,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing flag events: %w", err)
	}
	return nil
}

// Close closes the Kafka writer connection
func (p *FlagPublisher) Close() error {
	return p.writer.Close()
}
