package bus

import "context"

// Keyer lo implementan los eventos que aportan su propia clave de partición.
type Keyer interface {
	PartitionKey() string
}

// La semántica de topic/nombre y formato del payload la decides en los adapters.
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}

// EventSubscriber lo ofrecen los buses que además reparten en proceso.
type EventSubscriber interface {
	Subscribe(bufferSize int) <-chan interface{}
}
