package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	infraEvents "github.com/davicafu/paginalab/internal/infra/events"
	sharedEvents "github.com/davicafu/paginalab/shared/events"
)

// wrapPayload construye el mensaje tal y como llega por el bus.
func wrapPayload(t *testing.T, evt sharedEvents.Typed) []byte {
	t.Helper()
	integration, err := sharedEvents.Wrap(evt)
	require.NoError(t, err)
	payload, err := json.Marshal(integration)
	require.NoError(t, err)
	return payload
}

func TestAuditConsumer_CuentaConsultasYNavegaciones(t *testing.T) {
	// Arrange
	ctx := context.Background()
	consumer := NewAuditConsumer(zap.NewNop())

	query := sharedEvents.QueryExecuted{
		ID:       uuid.New(),
		Resource: "articles",
		Variant:  "offset",
		Page:     1,
		PageSize: 10,
		Count:    10,
		Total:    47,
		At:       time.Now().UTC(),
	}
	nav := sharedEvents.PageNavigated{
		ID:        uuid.New(),
		Resource:  "articles",
		Variant:   "offset",
		FromPage:  1,
		ToPage:    2,
		Direction: "after",
		At:        time.Now().UTC(),
	}

	// Act
	consumer.HandleMessage(ctx, "articles", wrapPayload(t, query))
	consumer.HandleMessage(ctx, "articles", wrapPayload(t, query))
	consumer.HandleMessage(ctx, "articles", wrapPayload(t, nav))

	// Assert
	snap := consumer.Snapshot()
	assert.Equal(t, int64(2), snap.Queries["articles"])
	assert.Equal(t, int64(1), snap.Navigations["after"])
	assert.False(t, snap.LastEventAt.IsZero())
}

func TestAuditConsumer_PayloadMalformadoSeIgnora(t *testing.T) {
	// Arrange
	consumer := NewAuditConsumer(zap.NewNop())

	// Act
	consumer.HandleMessage(context.Background(), "articles", []byte(`{"type": "listing.query.executed", "data":`))

	// Assert: nada se contó.
	snap := consumer.Snapshot()
	assert.Empty(t, snap.Queries)
	assert.Empty(t, snap.Navigations)
}

func TestAuditConsumer_TipoDesconocidoSeIgnora(t *testing.T) {
	// Arrange
	consumer := NewAuditConsumer(zap.NewNop())
	payload, _ := json.Marshal(map[string]string{"type": "user.created"})

	// Act
	consumer.HandleMessage(context.Background(), "", payload)

	// Assert
	snap := consumer.Snapshot()
	assert.Empty(t, snap.Queries)
	assert.Empty(t, snap.Navigations)
}

func TestBackgroundConsumerChan_DrenaElBusEnMemoria(t *testing.T) {
	// Arrange: el mismo camino que usa main cuando no hay Kafka.
	bus := infraEvents.NewInMemoryEventBus("listing-events")
	defer bus.Close()

	ch := bus.Subscribe(10)
	consumer := NewAuditConsumer(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	BackgroundConsumerChan(ctx, ch, consumer)

	// Act
	evt := sharedEvents.QueryExecuted{
		ID:       uuid.New(),
		Resource: "articles",
		Variant:  "cursor",
		PageSize: 10,
		Count:    3,
		Total:    3,
		At:       time.Now().UTC(),
	}
	require.NoError(t, bus.Publish(ctx, evt))

	// Assert
	assert.Eventually(t, func() bool {
		return consumer.Snapshot().Queries["articles"] == 1
	}, time.Second, 10*time.Millisecond)
}
