package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/paginalab/shared/domain"
)

// Estos son contratos de integración, NO entidades del dominio.
// Se definen planos para intercambio entre contextos.

const (
	TypeQueryExecuted = "listing.query.executed"
	TypePageNavigated = "listing.page.navigated"
)

// QueryExecuted se emite tras cada consulta de listado resuelta.
type QueryExecuted struct {
	ID        uuid.UUID       `json:"id"`
	Resource  string          `json:"resource"`
	Variant   string          `json:"variant"`
	Page      int             `json:"page,omitempty"`
	PageSize  int             `json:"pageSize"`
	Filters   []domain.Filter `json:"filters,omitempty"`
	Sorters   []domain.Sorter `json:"sorters,omitempty"`
	Direction string          `json:"direction,omitempty"`
	Total     int64           `json:"total"`
	Count     int             `json:"count"`
	At        time.Time       `json:"at"`
}

func (e QueryExecuted) EventType() string { return TypeQueryExecuted }

// PartitionKey agrupa los eventos de un mismo recurso en la misma partición.
func (e QueryExecuted) PartitionKey() string { return e.Resource }

// PageNavigated se emite cuando el usuario cambia de página.
type PageNavigated struct {
	ID        uuid.UUID `json:"id"`
	Resource  string    `json:"resource"`
	Variant   string    `json:"variant"`
	FromPage  int       `json:"fromPage,omitempty"`
	ToPage    int       `json:"toPage,omitempty"`
	Direction string    `json:"direction,omitempty"`
	At        time.Time `json:"at"`
}

func (e PageNavigated) EventType() string { return TypePageNavigated }

func (e PageNavigated) PartitionKey() string { return e.Resource }
