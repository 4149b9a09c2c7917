package mocks

import (
	"context"
	"sync"

	sharedBus "github.com/davicafu/paginalab/shared/platform/bus"
)

// CapturingBus guarda todo lo publicado para inspeccionarlo en los tests.
type CapturingBus struct {
	mu     sync.Mutex
	events []interface{}

	// Err hace fallar las publicaciones mientras esté puesto.
	Err error
}

// Verificación estática
var _ sharedBus.EventPublisher = (*CapturingBus)(nil)

func NewCapturingBus() *CapturingBus {
	return &CapturingBus{}
}

func (b *CapturingBus) Publish(ctx context.Context, event interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.events = append(b.events, event)
	return nil
}

// Events devuelve una copia de lo publicado hasta ahora.
func (b *CapturingBus) Events() []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]interface{}(nil), b.events...)
}
