package events

import (
	"context"
	"encoding/json"
	"sync"

	sharedEvents "github.com/davicafu/paginalab/shared/events"
	sharedBus "github.com/davicafu/paginalab/shared/platform/bus"
)

// InMemoryEventBus es el bus de auditoría de respaldo cuando no hay Kafka:
// un solo topic, entrega como JSON crudo y sin persistencia.
type InMemoryEventBus struct {
	subscribers []chan interface{}
	mu          sync.RWMutex
	closed      bool
	once        sync.Once
	topic       string
}

// Verifica en tiempo de compilación que cumple las interfaces
var _ sharedBus.EventPublisher = (*InMemoryEventBus)(nil)
var _ sharedBus.EventSubscriber = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus crea un bus de eventos para un topic específico.
func NewInMemoryEventBus(topic string) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make([]chan interface{}, 0),
		topic:       topic,
	}
}

// Publish reparte el evento, serializado a JSON, entre los suscriptores.
// Un suscriptor con el buffer lleno pierde el evento; la auditoría nunca
// bloquea al publicador.
func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	// Los payloads tipados viajan con su sobre de integración, igual que
	// por Kafka: los suscriptores ven el mismo formato en ambos buses.
	payload := event
	if typed, ok := event.(sharedEvents.Typed); ok {
		wrapped, err := sharedEvents.Wrap(typed)
		if err != nil {
			return err
		}
		payload = wrapped
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	for _, subChan := range b.subscribers {
		select {
		case subChan <- json.RawMessage(payloadBytes):
		default:
		}
	}
	return nil
}

// Subscribe suscribe un nuevo oyente a este bus. Los valores del canal son
// json.RawMessage.
func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	subChan := make(chan interface{}, bufferSize)
	b.subscribers = append(b.subscribers, subChan)
	return subChan
}

// Close cierra los canales de los suscriptores; publicar después es un no-op.
func (b *InMemoryEventBus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true
		for _, subChan := range b.subscribers {
			close(subChan)
		}
		b.subscribers = nil
	})
}
