package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/position-valuation/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing valuation events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishRun publishes one POSITION_VALUED event per result, keyed by
// ticker, followed by a VALUATION_COMPLETED event keyed by run ID.
func (p *Producer) PublishRun(ctx context.Context, run *models.ValuationRun) error {
	evalDate := run.EvaluationDate.Format(models.DateLayout)
	ts := p.now()

	msgs := make([]kafka.Message, 0, len(run.Results)+1)
	for i := range run.Results {
		res := run.Results[i]
		msg, err := encode(res.Ticker, models.PositionValuedEvent{
			EventType:      models.EventPositionValued,
			RunID:          run.ID,
			EvaluationDate: evalDate,
			Result:         &res,
			Timestamp:      ts,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	done, err := encode(run.ID, models.PositionValuedEvent{
		EventType:      models.EventValuationCompleted,
		RunID:          run.ID,
		EvaluationDate: evalDate,
		Total:          len(run.Results),
		Timestamp:      ts,
	})
	if err != nil {
		return err
	}
	msgs = append(msgs, done)

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write messages to kafka: %w", err)
	}
	return nil
}

func encode(key string, event models.PositionValuedEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{Key: []byte(key), Value: data}, nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
