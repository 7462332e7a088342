package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Arkie13/agrialert/internal/store"
)

// AlertPublisher produces created alerts to a Kafka topic so downstream
// consumers (SMS gateways, dashboards) see them without polling the API.
// It implements service.Notifier.
type AlertPublisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAlertPublisher creates a Kafka producer for the alert events topic.
func NewAlertPublisher(brokers []string, topic string, logger *slog.Logger) *AlertPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AlertPublisher{writer: w, logger: logger}
}

// alertEvent is the published wire shape.
type alertEvent struct {
	AlertID     uint      `json:"alert_id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	UserIDs     []uint    `json:"user_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotifyAlert publishes one alert event. Publish failures are logged, not
// propagated: alert delivery is best effort on this path, the database row
// is the source of truth.
func (p *AlertPublisher) NotifyAlert(ctx context.Context, alert store.Alert, users []store.User) {
	msg, err := serializeAlertMessage(alert, users)
	if err != nil {
		p.logger.Error("serializing alert event failed", "alert_id", alert.ID, "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publishing alert event failed", "alert_id", alert.ID, "error", err)
	}
}

func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}

// serializeAlertMessage marshals an alert into a Kafka message keyed by
// alert type, so a partition keeps one alert type ordered.
func serializeAlertMessage(alert store.Alert, users []store.User) (kafkago.Message, error) {
	event := alertEvent{
		AlertID:     alert.ID,
		Type:        alert.Type,
		Severity:    alert.Severity,
		Description: alert.Description,
		CreatedAt:   alert.CreatedAt,
	}
	for _, u := range users {
		event.UserIDs = append(event.UserIDs, u.ID)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.Type),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(alert.Severity)},
			{Key: "created_at", Value: []byte(alert.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
