package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/paginalab/shared/events"
)

// ActivitySnapshot es la foto de actividad que expone el consumidor.
type ActivitySnapshot struct {
	Queries     map[string]int64 `json:"queries"`     // consultas por recurso
	Navigations map[string]int64 `json:"navigations"` // saltos de página por dirección
	LastEventAt time.Time        `json:"last_event_at"`
}

// AuditConsumer procesa los eventos de auditoría del listado y mantiene
// contadores de actividad en memoria. El mismo cerebro sirve para Kafka
// (vía ConsumerAdapter) y para el bus en memoria (vía BackgroundConsumerChan).
type AuditConsumer struct {
	log *zap.Logger

	mu          sync.RWMutex
	queries     map[string]int64
	navigations map[string]int64
	lastEventAt time.Time
}

// NewAuditConsumer es el constructor.
func NewAuditConsumer(log *zap.Logger) *AuditConsumer {
	return &AuditConsumer{
		log:         log,
		queries:     make(map[string]int64),
		navigations: make(map[string]int64),
	}
}

func (c *AuditConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case sharedEvents.TypeQueryExecuted:
		var evt sharedEvents.QueryExecuted
		if err := json.Unmarshal(base.Data, &evt); err != nil {
			c.log.Warn("Failed to unmarshal QueryExecuted", zap.Error(err))
			return
		}
		c.mu.Lock()
		c.queries[evt.Resource]++
		c.lastEventAt = evt.At
		c.mu.Unlock()
		c.log.Debug("Consulta de listado auditada",
			zap.String("resource", evt.Resource),
			zap.String("variant", evt.Variant),
			zap.Int("count", evt.Count),
			zap.Int64("total", evt.Total),
		)

	case sharedEvents.TypePageNavigated:
		var evt sharedEvents.PageNavigated
		if err := json.Unmarshal(base.Data, &evt); err != nil {
			c.log.Warn("Failed to unmarshal PageNavigated", zap.Error(err))
			return
		}
		direction := evt.Direction
		if direction == "" {
			direction = "unknown"
		}
		c.mu.Lock()
		c.navigations[direction]++
		c.lastEventAt = evt.At
		c.mu.Unlock()
		c.log.Debug("Navegación de página auditada",
			zap.String("resource", evt.Resource),
			zap.Int("from", evt.FromPage),
			zap.Int("to", evt.ToPage),
			zap.String("direction", direction),
		)

	default:
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
	}
}

// Snapshot devuelve una copia de los contadores actuales.
func (c *AuditConsumer) Snapshot() ActivitySnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := ActivitySnapshot{
		Queries:     make(map[string]int64, len(c.queries)),
		Navigations: make(map[string]int64, len(c.navigations)),
		LastEventAt: c.lastEventAt,
	}
	for k, v := range c.queries {
		snap.Queries[k] = v
	}
	for k, v := range c.navigations {
		snap.Navigations[k] = v
	}
	return snap
}

// BackgroundConsumerChan drena un canal del bus en memoria hacia el consumidor.
func BackgroundConsumerChan(ctx context.Context, ch <-chan interface{}, consumer *AuditConsumer) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				consumer.log.Info("AuditConsumer stopped")
				return
			case msg, ok := <-ch:
				if !ok {
					consumer.log.Info("AuditConsumer channel closed")
					return
				}
				switch payload := msg.(type) {
				case json.RawMessage:
					consumer.HandleMessage(ctx, "", payload)
				case []byte:
					consumer.HandleMessage(ctx, "", payload)
				}
			}
		}
	}()
}
