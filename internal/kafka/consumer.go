package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/position-valuation/internal/models"
)

// Valuator runs a batch valuation
type Valuator interface {
	Run(ctx context.Context, positions []models.Position, evalDate time.Time) *models.ValuationRun
}

// ResultSink receives every completed run
type ResultSink interface {
	HandleRun(ctx context.Context, run *models.ValuationRun) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer turns VALUATION_REQUESTED events into valuation runs
type Consumer struct {
	reader   messageReader
	valuator Valuator
	sink     ResultSink
	now      func() time.Time
}

// NewConsumer creates a new Kafka consumer for valuation requests
func NewConsumer(brokers []string, topic, groupID string, valuator Valuator, sink ResultSink) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:   reader,
		valuator: valuator,
		sink:     sink,
		now:      time.Now,
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().Str("topic", c.reader.Config().Topic).Msg("starting kafka consumer")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Info().Msg("kafka consumer shutting down")
					return c.reader.Close()
				}
				log.Error().Err(err).Msg("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Error().Err(err).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("error processing message")
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	log.Debug().Int("partition", msg.Partition).Int64("offset", msg.Offset).Str("key", string(msg.Key)).Msg("received message")

	var event models.ValuationRequestedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal valuation request: %w", err)
	}

	if event.EventType != models.EventValuationRequested {
		log.Debug().Str("event_type", event.EventType).Msg("ignoring event type")
		return nil
	}

	evalDate, err := event.Request.Date(c.now())
	if err != nil {
		return fmt.Errorf("request %s: %w", event.RequestID, err)
	}

	positions, dropped := event.Request.ToPositions()
	if dropped > 0 {
		log.Warn().Str("request_id", event.RequestID).Int("dropped", dropped).Msg("dropped positions with unparsable dates")
	}

	run := c.valuator.Run(ctx, positions, evalDate)
	run.Skipped += dropped

	if c.sink != nil {
		if err := c.sink.HandleRun(ctx, run); err != nil {
			return fmt.Errorf("failed to handle run %s: %w", run.ID, err)
		}
	}

	log.Info().
		Str("request_id", event.RequestID).
		Str("run_id", run.ID).
		Int("valued", len(run.Results)).
		Int("skipped", run.Skipped).
		Msg("valuation request processed")
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
