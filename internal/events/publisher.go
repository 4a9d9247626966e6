package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"medication-sku-service/internal/model"
)

const (
	SubjectMedicationSKUCreated = "medication_sku.created"
	SubjectMedicationSKUUpdated = "medication_sku.updated"
	SubjectMedicationSKUDeleted = "medication_sku.deleted"
)

type EventPublisher interface {
	PublishMedicationSKUCreated(sku model.MedicationSKU) error
	PublishMedicationSKUUpdated(sku model.MedicationSKU) error
	PublishMedicationSKUDeleted(id, userID uuid.UUID) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL)

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

func (p *NatsPublisher) Close() {
	p.conn.Close()
}

type MedicationSKUEvent struct {
	EventType      string    `json:"event_type"`
	MedicationSKU  uuid.UUID `json:"medication_sku_id"`
	UserID         uuid.UUID `json:"user_id"`
	MedicationName string    `json:"medication_name,omitempty"`
	Presentation   string    `json:"presentation,omitempty"`
	Dose           int       `json:"dose,omitempty"`
	Unit           string    `json:"unit,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewMedicationSKUEvent(eventType string, sku model.MedicationSKU) MedicationSKUEvent {
	tags := make([]string, 0, len(sku.Tags))
	for _, tag := range sku.Tags {
		tags = append(tags, tag.Name)
	}

	return MedicationSKUEvent{
		EventType:      eventType,
		MedicationSKU:  sku.ID,
		UserID:         sku.UserID,
		MedicationName: sku.MedicationName,
		Presentation:   sku.Presentation,
		Dose:           sku.Dose,
		Unit:           sku.Unit,
		Tags:           tags,
		OccurredAt:     time.Now(),
	}
}

func (p *NatsPublisher) PublishMedicationSKUCreated(sku model.MedicationSKU) error {
	return p.publish(SubjectMedicationSKUCreated, NewMedicationSKUEvent(SubjectMedicationSKUCreated, sku))
}

func (p *NatsPublisher) PublishMedicationSKUUpdated(sku model.MedicationSKU) error {
	return p.publish(SubjectMedicationSKUUpdated, NewMedicationSKUEvent(SubjectMedicationSKUUpdated, sku))
}

func (p *NatsPublisher) PublishMedicationSKUDeleted(id, userID uuid.UUID) error {
	event := MedicationSKUEvent{
		EventType:     SubjectMedicationSKUDeleted,
		MedicationSKU: id,
		UserID:        userID,
		OccurredAt:    time.Now(),
	}
	return p.publish(SubjectMedicationSKUDeleted, event)
}

func (p *NatsPublisher) publish(subject string, event MedicationSKUEvent) error {
	eventJSON, err := json.Marshal(event)

	if err != nil {
		slog.Error("Error marshalling event JSON", slog.String("error", err.Error()))
		return err
	}

	err = p.conn.Publish(subject, eventJSON)

	if err != nil {
		slog.Error("Error publishing to NATS", slog.String("subject", subject), slog.String("error", err.Error()))
		return err
	}

	slog.Info("Published event to NATS", slog.String("subject", subject), slog.String("medication_sku_id", event.MedicationSKU.String()))

	return nil
}

// NoopPublisher is used when no NATS_URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishMedicationSKUCreated(model.MedicationSKU) error { return nil }
func (NoopPublisher) PublishMedicationSKUUpdated(model.MedicationSKU) error { return nil }
func (NoopPublisher) PublishMedicationSKUDeleted(uuid.UUID, uuid.UUID) error { return nil }
