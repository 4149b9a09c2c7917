package query

import (
	"math"
	"net/url"

	"github.com/davicafu/paginalab/shared/domain"
)

// ---------- Modos ----------

// Mode gobierna dónde se aplica una faceta (paginación, filtros, orden).
// El modo "client" acepta los mismos parámetros que "server"; aplicarlos en
// memoria es cosa del consumidor, no de este módulo.
type Mode string

const (
	ModeServer Mode = "server"
	ModeClient Mode = "client"
	ModeOff    Mode = "off"
)

// Enabled indica si la faceta participa en peticiones y localización.
func (m Mode) Enabled() bool {
	return m != ModeOff
}

// ---------- Dirección de cursor ----------

type Direction string

const (
	DirectionAfter  Direction = "after"
	DirectionBefore Direction = "before"
)

// ---------- Paginación ----------

const (
	DefaultCurrentPage = 1
	DefaultPageSize    = 10
)

// Variant distingue los dos paradigmas de paginación.
type Variant string

const (
	VariantOffset Variant = "offset"
	VariantCursor Variant = "cursor"
)

// PageRequest es la porción de paginación de una petición de listado.
// En variante cursor CurrentPage viaja a cero: el servidor no lo necesita.
type PageRequest struct {
	Mode        Mode
	Variant     Variant
	CurrentPage int
	PageSize    int
}

// PageCount calcula el total de páginas para un total de registros.
// Nunca baja de 1: una lista vacía sigue teniendo su primera página.
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	pages := int(math.Ceil(float64(total) / float64(pageSize)))
	if pages < 1 {
		return 1
	}
	return pages
}

// ---------- Params ----------

// Params es todo lo que una localización serializada puede transportar.
// Los punteros distinguen "ausente" de "cero"; Rest conserva tal cual las
// claves ajenas al listado para no pisarlas al navegar.
type Params struct {
	CurrentPage *int
	PageSize    *int
	Sorters     []domain.Sorter
	Filters     []domain.Filter
	After       interface{}
	Before      interface{}
	Rest        url.Values
}

// IsEmpty indica que la localización no transporta nada, ni propio ni ajeno.
func (p Params) IsEmpty() bool {
	return p.CurrentPage == nil && p.PageSize == nil &&
		len(p.Sorters) == 0 && len(p.Filters) == 0 &&
		p.After == nil && p.Before == nil && len(p.Rest) == 0
}

// IntPtr es un helper para montar Params literales en llamadas y tests.
func IntPtr(v int) *int { return &v }
