package application

import (
	sharedBus "github.com/davicafu/paginalab/shared/platform/bus"

	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

// ---------------- Opciones del listado ----------------

// PaginationOptions fija paradigma, modo y arranque de la paginación.
type PaginationOptions struct {
	Mode        sharedQuery.Mode
	Variant     sharedQuery.Variant
	CurrentPage int
	PageSize    int
}

// FilterOptions fija los filtros de arranque y los permanentes, que el
// llamante impone y ninguna operación posterior puede quitar ni pisar.
type FilterOptions struct {
	Mode            sharedQuery.Mode
	Initial         []sharedDomain.Filter
	Permanent       []sharedDomain.Filter
	DefaultBehavior sharedDomain.Behavior
}

// SorterOptions es el equivalente para la ordenación (sin behaviors).
type SorterOptions struct {
	Mode      sharedQuery.Mode
	Initial   []sharedDomain.Sorter
	Permanent []sharedDomain.Sorter
}

// Options configura un Controller.
type Options struct {
	// Resource identifica la colección a listar; sin él las consultas
	// viajan sin identificador y se avisa una única vez por log.
	Resource string

	Pagination PaginationOptions
	Filters    FilterOptions
	Sorters    SorterOptions

	// SyncWithLocation mantiene la localización serializada como espejo
	// del estado: se escribe tras cada cambio y se adopta al construir.
	SyncWithLocation bool

	// Publisher recibe eventos de auditoría de consultas y navegación.
	// Opcional: a nil no se publica nada.
	Publisher sharedBus.EventPublisher
}

// normalize rellena los valores por defecto documentados.
func (o *Options) normalize() {
	if o.Pagination.Mode == "" {
		o.Pagination.Mode = sharedQuery.ModeServer
	}
	if o.Pagination.Variant == "" {
		o.Pagination.Variant = sharedQuery.VariantOffset
	}
	if o.Pagination.CurrentPage < 1 {
		o.Pagination.CurrentPage = sharedQuery.DefaultCurrentPage
	}
	if o.Pagination.PageSize < 1 {
		o.Pagination.PageSize = sharedQuery.DefaultPageSize
	}
	if o.Filters.Mode == "" {
		o.Filters.Mode = sharedQuery.ModeServer
	}
	if o.Filters.DefaultBehavior == "" {
		o.Filters.DefaultBehavior = sharedDomain.BehaviorMerge
	}
	if o.Sorters.Mode == "" {
		o.Sorters.Mode = sharedQuery.ModeServer
	}
}
