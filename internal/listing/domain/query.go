package domain

import (
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

// CursorHint viaja en la metadata de la petición en variante cursor.
type CursorHint struct {
	Token     interface{}
	Direction sharedQuery.Direction
}

// Query es la petición neutral que recibe un Fetcher. Filters y Sorters van
// a nil cuando su faceta está en modo off; en variante cursor CurrentPage no
// viaja y la posición va en Cursor.
type Query struct {
	Resource   string
	Pagination sharedQuery.PageRequest
	Filters    []sharedDomain.Filter
	Sorters    []sharedDomain.Sorter
	Cursor     *CursorHint
	Meta       map[string]interface{}
}
