package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/segmentio/kafka-go"

	sharedEvents "github.com/davicafu/paginalab/shared/events"
	sharedBus "github.com/davicafu/paginalab/shared/platform/bus"
)

// KafkaPublisher vuelca los eventos de auditoría del listado a Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(writer *kafka.Writer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

// Publish serializa el evento y lo escribe en el topic del writer. Los
// eventos tipados viajan dentro del sobre de integración; la clave de
// partición sale del Keyer para mantener el orden por recurso.
func (p *KafkaPublisher) Publish(ctx context.Context, event interface{}) error {
	payload := event
	if typed, ok := event.(sharedEvents.Typed); ok {
		envelope, err := sharedEvents.Wrap(typed)
		if err != nil {
			return err
		}
		payload = envelope
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var key []byte
	if keyer, ok := event.(sharedBus.Keyer); ok {
		key = []byte(keyer.PartitionKey())
	}

	msg := kafka.Message{
		Key:   key,
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publishing to Kafka", zap.Error(err))
		return err
	}

	p.log.Debug("Event published successfully", zap.Any("event", event))
	return nil
}

// Close libera el writer subyacente.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Verificación estática
var _ sharedBus.EventPublisher = (*KafkaPublisher)(nil)
