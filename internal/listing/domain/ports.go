package domain

import (
	"context"
	"errors"
	"net/url"
)

// ---------- Errores de dominio ----------

var (
	ErrFetcherRequired  = errors.New("fetcher is required")
	ErrLocationRequired = errors.New("location store is required")
)

// ---------- Resultados ----------

// PageCursor son los tokens opacos que el backend devuelve junto a una página.
type PageCursor struct {
	Next interface{} `json:"next,omitempty"`
	Prev interface{} `json:"prev,omitempty"`
}

// Result es la respuesta neutral de cualquier Fetcher. Total puede faltar
// (queda a cero) en APIs que no lo calculan; Cursor solo viaja en variante
// cursor.
type Result[T any] struct {
	Data   []T
	Total  int64
	Cursor *PageCursor
}

// ---------- Interfaces (Ports) ----------

// Fetcher resuelve consultas de listado contra el origen de datos.
// La deduplicación y cancelación de peticiones es cosa del adaptador.
type Fetcher[T any] interface {
	FetchList(ctx context.Context, q Query) (Result[T], error)
}

// NavigateMode distingue navegación que apila historial de la que lo sustituye.
type NavigateMode string

const (
	NavigatePush    NavigateMode = "push"
	NavigateReplace NavigateMode = "replace"
)

// LocationStore abstrae la localización serializada (query string, memoria...).
type LocationStore interface {
	// Current devuelve los parámetros actuales, incluidas las claves ajenas.
	Current(ctx context.Context) (url.Values, error)

	// Navigate sustituye los parámetros actuales por los dados.
	Navigate(ctx context.Context, mode NavigateMode, params url.Values) error
}
