package events

import (
	"encoding/json"
	"time"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
}

// Typed lo implementan los payloads que conocen su nombre de evento.
type Typed interface {
	EventType() string
}

// Wrap envuelve un payload en su evento de integración.
func Wrap(payload Typed) (IntegrationEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{
		Type:      payload.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}
