package application

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedEvents "github.com/davicafu/paginalab/shared/events"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

// ---------------- Notificaciones ----------------

type ChangeKind string

const (
	ChangeFilters  ChangeKind = "filters"
	ChangeSorters  ChangeKind = "sorters"
	ChangePage     ChangeKind = "page"
	ChangePageSize ChangeKind = "pageSize"
	ChangeRefresh  ChangeKind = "refresh"
	ChangeLocation ChangeKind = "location"
)

// Change resume un cambio aplicado; el detalle se lee en los getters.
type Change struct {
	Kind ChangeKind
}

// ---------------- Controller ----------------

// Controller orquesta el estado de un listado: paginación (offset o cursor),
// filtros y ordenación, su proyección a la localización serializada y la
// consulta al Fetcher. Las operaciones son seguras para uso concurrente;
// una respuesta que llega tarde para un estado ya pisado se descarta.
type Controller[T any] struct {
	fetcher  listingDomain.Fetcher[T]
	location listingDomain.LocationStore
	log      *zap.Logger
	opts     Options
	codec    sharedQuery.Codec

	mu          sync.Mutex
	currentPage int
	pageSize    int
	filters     []sharedDomain.Filter
	sorters     []sharedDomain.Sorter
	tracker     *listingDomain.CursorTracker
	result      listingDomain.Result[T]
	rest        url.Values // claves ajenas de la localización, se devuelven tal cual
	epoch       uint64
	lastWritten string
	listeners   map[int]func(Change)
	nextID      int
	closed      bool

	// estado de arranque resuelto en construcción, destino de los reset
	initialPage    int
	initialSize    int
	initialFilters []sharedDomain.Filter
	initialSorters []sharedDomain.Sorter
}

// New es el constructor. La precedencia de arranque por campo es:
// localización parseada (solo con SyncWithLocation) > opciones > defaults.
func New[T any](fetcher listingDomain.Fetcher[T], location listingDomain.LocationStore, log *zap.Logger, opts Options) (*Controller[T], error) {
	if fetcher == nil {
		return nil, listingDomain.ErrFetcherRequired
	}
	if opts.SyncWithLocation && location == nil {
		return nil, listingDomain.ErrLocationRequired
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.normalize()
	if opts.Resource == "" {
		log.Warn("⚠️ Listado sin resource; las consultas viajarán sin identificador de colección")
	}

	c := &Controller[T]{
		fetcher:   fetcher,
		location:  location,
		log:       log,
		opts:      opts,
		tracker:   listingDomain.NewCursorTracker(),
		listeners: make(map[int]func(Change)),

		initialPage:    opts.Pagination.CurrentPage,
		initialSize:    opts.Pagination.PageSize,
		initialFilters: sharedDomain.MergeFilters(opts.Filters.Permanent, opts.Filters.Initial, nil, sharedDomain.BehaviorReplace),
		initialSorters: sharedDomain.MergeSorters(opts.Sorters.Permanent, opts.Sorters.Initial),
	}
	c.applyInitialLocked()

	if opts.SyncWithLocation {
		values, err := location.Current(context.Background())
		switch {
		case err != nil:
			log.Warn("No se pudo leer la localización inicial", zap.Error(err))
		case len(values) > 0:
			params := c.codec.Parse(values)
			c.adoptParamsLocked(params)
			c.rest = params.Rest
			c.lastWritten = values.Encode()
		}
	}
	return c, nil
}

// applyInitialLocked vuelve al estado de arranque resuelto en construcción.
func (c *Controller[T]) applyInitialLocked() {
	c.currentPage = c.initialPage
	c.pageSize = c.initialSize
	c.filters = append([]sharedDomain.Filter(nil), c.initialFilters...)
	c.sorters = append([]sharedDomain.Sorter(nil), c.initialSorters...)
	c.tracker.Reset()
}

// adoptParamsLocked aplica la precedencia campo a campo: lo que la
// localización trae gana; lo que falta conserva el arranque.
func (c *Controller[T]) adoptParamsLocked(p sharedQuery.Params) {
	if p.CurrentPage != nil {
		c.currentPage = *p.CurrentPage
	} else {
		c.currentPage = c.initialPage
	}
	if p.PageSize != nil {
		c.pageSize = *p.PageSize
	} else {
		c.pageSize = c.initialSize
	}
	if p.Filters != nil {
		c.filters = sharedDomain.MergeFilters(c.opts.Filters.Permanent, p.Filters, nil, sharedDomain.BehaviorReplace)
	} else {
		c.filters = append([]sharedDomain.Filter(nil), c.initialFilters...)
	}
	if p.Sorters != nil {
		c.sorters = sharedDomain.MergeSorters(c.opts.Sorters.Permanent, p.Sorters)
	} else {
		c.sorters = append([]sharedDomain.Sorter(nil), c.initialSorters...)
	}
	if c.opts.Pagination.Variant == sharedQuery.VariantCursor {
		switch {
		case p.After != nil:
			c.tracker.Seek(p.After, sharedQuery.DirectionAfter)
		case p.Before != nil:
			c.tracker.Seek(p.Before, sharedQuery.DirectionBefore)
		default:
			c.tracker.Reset()
		}
	}
}

// ---------------- Operaciones ----------------

// SetFilters aplica nuevos filtros con el behavior dado (o el configurado).
// Los permanentes se reimponen siempre; cambiar criterios vuelve a la
// primera página y descarta la posición de cursor.
func (c *Controller[T]) SetFilters(entries []sharedDomain.Filter, behavior ...sharedDomain.Behavior) {
	b := c.opts.Filters.DefaultBehavior
	if len(behavior) > 0 && behavior[0] != "" {
		b = behavior[0]
	}
	c.mutate(ChangeFilters, func() bool {
		c.filters = sharedDomain.MergeFilters(c.opts.Filters.Permanent, entries, c.filters, b)
		c.resetPositionLocked()
		return true
	})
}

// SetFiltersWith recibe una función que transforma los filtros previos; la
// lista devuelta sustituye a los no permanentes.
func (c *Controller[T]) SetFiltersWith(fn func(prev []sharedDomain.Filter) []sharedDomain.Filter) {
	if fn == nil {
		return
	}
	c.mutate(ChangeFilters, func() bool {
		prev := append([]sharedDomain.Filter(nil), c.filters...)
		c.filters = sharedDomain.MergeFilters(c.opts.Filters.Permanent, fn(prev), nil, sharedDomain.BehaviorReplace)
		c.resetPositionLocked()
		return true
	})
}

// SetSorters sustituye la ordenación no permanente.
func (c *Controller[T]) SetSorters(entries []sharedDomain.Sorter) {
	c.mutate(ChangeSorters, func() bool {
		c.sorters = sharedDomain.MergeSorters(c.opts.Sorters.Permanent, entries)
		c.resetPositionLocked()
		return true
	})
}

// SetCurrentPage salta a una página concreta (variante offset).
func (c *Controller[T]) SetCurrentPage(page int) {
	if page < 1 {
		page = 1
	}
	c.mutate(ChangePage, func() bool {
		if c.opts.Pagination.Variant != sharedQuery.VariantOffset || !c.opts.Pagination.Mode.Enabled() {
			return false
		}
		if c.currentPage == page {
			return false
		}
		c.currentPage = page
		return true
	})
}

// SetPageSize cambia el tamaño de página; la identidad de página deja de
// tener sentido, así que se vuelve al principio.
func (c *Controller[T]) SetPageSize(size int) {
	if size < 1 {
		size = 1
	}
	c.mutate(ChangePageSize, func() bool {
		if c.pageSize == size {
			return false
		}
		c.pageSize = size
		c.resetPositionLocked()
		return true
	})
}

// GoToNextPage avanza una página. En variante cursor exige token next; sin
// él es un no-op (igual que con la paginación en off).
func (c *Controller[T]) GoToNextPage() {
	from := c.CurrentPage()
	moved := c.mutate(ChangePage, func() bool {
		if !c.opts.Pagination.Mode.Enabled() {
			return false
		}
		if c.opts.Pagination.Variant == sharedQuery.VariantCursor {
			return c.tracker.Advance()
		}
		c.currentPage++
		return true
	})
	if moved {
		c.publishNavigated(from, c.CurrentPage(), string(sharedQuery.DirectionAfter))
	}
}

// GoToPreviousPage retrocede una página. En variante cursor aplica la
// política del tracker (prev explícito, historial, vuelta al arranque).
func (c *Controller[T]) GoToPreviousPage() {
	from := c.CurrentPage()
	moved := c.mutate(ChangePage, func() bool {
		if !c.opts.Pagination.Mode.Enabled() {
			return false
		}
		if c.opts.Pagination.Variant == sharedQuery.VariantCursor {
			return c.tracker.Retreat()
		}
		if c.currentPage <= 1 {
			return false
		}
		c.currentPage--
		return true
	})
	if moved {
		c.publishNavigated(from, c.CurrentPage(), string(sharedQuery.DirectionBefore))
	}
}

// resetPositionLocked invalida la posición al cambiar criterios o tamaño.
func (c *Controller[T]) resetPositionLocked() {
	c.currentPage = 1
	c.tracker.Reset()
}

// mutate ejecuta un cambio de estado y, si se aplicó, sube el epoch,
// sincroniza la localización y avisa a los suscriptores.
func (c *Controller[T]) mutate(kind ChangeKind, fn func() bool) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if !fn() {
		c.mu.Unlock()
		return false
	}
	c.epoch++
	values := c.projectLocked()
	encoded := values.Encode()
	syncOut := c.opts.SyncWithLocation
	if syncOut {
		c.lastWritten = encoded
	}
	listeners := c.listenersLocked()
	c.mu.Unlock()

	if syncOut {
		if err := c.location.Navigate(context.Background(), listingDomain.NavigateReplace, values); err != nil {
			c.log.Warn("No se pudo sincronizar la localización", zap.Error(err))
		}
	}
	c.notify(listeners, Change{Kind: kind})
	return true
}

// projectLocked proyecta el estado actual a parámetros de localización.
func (c *Controller[T]) projectLocked() url.Values {
	state := sharedQuery.State{
		Pagination: sharedQuery.PageRequest{
			Mode:        c.opts.Pagination.Mode,
			Variant:     c.opts.Pagination.Variant,
			CurrentPage: c.currentPage,
			PageSize:    c.pageSize,
		},
		Cursor:     c.tracker.Current(),
		Direction:  c.tracker.Direction(),
		FilterMode: c.opts.Filters.Mode,
		Filters:    c.filters,
		SorterMode: c.opts.Sorters.Mode,
		Sorters:    c.sorters,
		Rest:       c.rest,
	}
	return c.codec.Project(state, c.opts.Filters.Permanent, c.opts.Sorters.Permanent)
}

// ---------------- Consulta ----------------

// Refresh lanza la consulta con el estado actual y aplica la respuesta.
// El estado previo se conserva si la consulta falla; una respuesta que
// llega con el estado ya pisado se descarta en silencio.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	epoch := c.epoch
	q := c.buildQueryLocked()
	c.mu.Unlock()

	res, err := c.fetcher.FetchList(ctx, q)
	if err != nil {
		c.log.Warn("La consulta de listado falló; se conserva el resultado previo",
			zap.String("resource", c.opts.Resource), zap.Error(err))
		return err
	}

	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debug("Respuesta obsoleta descartada", zap.String("resource", c.opts.Resource))
		return nil
	}
	c.result = res
	if c.opts.Pagination.Variant == sharedQuery.VariantCursor {
		if res.Cursor != nil {
			c.tracker.ApplyPage(res.Cursor.Next, res.Cursor.Prev)
		} else {
			c.tracker.ApplyPage(nil, nil)
		}
	}
	listeners := c.listenersLocked()
	c.mu.Unlock()

	c.notify(listeners, Change{Kind: ChangeRefresh})
	c.publishExecuted(q, res)
	return nil
}

// buildQueryLocked da forma a la petición según los modos configurados.
func (c *Controller[T]) buildQueryLocked() listingDomain.Query {
	q := listingDomain.Query{
		Resource: c.opts.Resource,
		Pagination: sharedQuery.PageRequest{
			Mode:     c.opts.Pagination.Mode,
			Variant:  c.opts.Pagination.Variant,
			PageSize: c.pageSize,
		},
	}
	if c.opts.Pagination.Variant == sharedQuery.VariantCursor {
		if c.opts.Pagination.Mode.Enabled() {
			q.Cursor = &listingDomain.CursorHint{
				Token:     c.tracker.Current(),
				Direction: c.tracker.Direction(),
			}
		}
	} else {
		q.Pagination.CurrentPage = c.currentPage
	}
	if c.opts.Filters.Mode.Enabled() {
		q.Filters = append([]sharedDomain.Filter(nil), c.filters...)
	}
	if c.opts.Sorters.Mode.Enabled() {
		q.Sorters = append([]sharedDomain.Sorter(nil), c.sorters...)
	}
	return q
}

// ---------------- Localización ----------------

// SyncFromLocation adopta una navegación externa. Una localización vacía
// resetea al arranque; la que escribimos nosotros mismos se ignora (eco).
// Con la sincronización apagada la localización no pinta nada y no se toca.
func (c *Controller[T]) SyncFromLocation(ctx context.Context) error {
	if !c.opts.SyncWithLocation {
		return nil
	}
	if c.location == nil {
		return listingDomain.ErrLocationRequired
	}
	values, err := c.location.Current(ctx)
	if err != nil {
		c.log.Warn("No se pudo leer la localización", zap.Error(err))
		return err
	}
	encoded := values.Encode()

	c.mu.Lock()
	if c.closed || encoded == c.lastWritten {
		c.mu.Unlock()
		return nil
	}
	if len(values) == 0 {
		c.applyInitialLocked()
		c.rest = nil
	} else {
		params := c.codec.Parse(values)
		c.adoptParamsLocked(params)
		c.rest = params.Rest
	}
	c.epoch++
	c.lastWritten = encoded
	listeners := c.listenersLocked()
	c.mu.Unlock()

	c.notify(listeners, Change{Kind: ChangeLocation})
	return nil
}

// BuildLocationLink devuelve la query string canónica del estado actual con
// los campos de p superpuestos, apta para construir un enlace compartible.
func (c *Controller[T]) BuildLocationLink(p sharedQuery.Params) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := sharedQuery.State{
		Pagination: sharedQuery.PageRequest{
			Mode:        c.opts.Pagination.Mode,
			Variant:     c.opts.Pagination.Variant,
			CurrentPage: c.currentPage,
			PageSize:    c.pageSize,
		},
		Cursor:     c.tracker.Current(),
		Direction:  c.tracker.Direction(),
		FilterMode: c.opts.Filters.Mode,
		Filters:    c.filters,
		SorterMode: c.opts.Sorters.Mode,
		Sorters:    c.sorters,
		Rest:       c.rest,
	}
	if p.CurrentPage != nil {
		state.Pagination.CurrentPage = *p.CurrentPage
	}
	if p.PageSize != nil {
		state.Pagination.PageSize = *p.PageSize
	}
	if p.Filters != nil {
		state.Filters = sharedDomain.MergeFilters(c.opts.Filters.Permanent, p.Filters, nil, sharedDomain.BehaviorReplace)
	}
	if p.Sorters != nil {
		state.Sorters = sharedDomain.MergeSorters(c.opts.Sorters.Permanent, p.Sorters)
	}
	switch {
	case p.After != nil:
		state.Cursor = p.After
		state.Direction = sharedQuery.DirectionAfter
	case p.Before != nil:
		state.Cursor = p.Before
		state.Direction = sharedQuery.DirectionBefore
	}
	return c.codec.Project(state, c.opts.Filters.Permanent, c.opts.Sorters.Permanent).Encode()
}

// ---------------- Suscripción ----------------

// Subscribe registra un oyente de cambios; devuelve la función de baja.
func (c *Controller[T]) Subscribe(fn func(Change)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller[T]) listenersLocked() []func(Change) {
	out := make([]func(Change), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func (c *Controller[T]) notify(listeners []func(Change), change Change) {
	for _, fn := range listeners {
		fn(change)
	}
}

// Close descarta las consultas en vuelo y da de baja a los suscriptores.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.epoch++
	c.listeners = make(map[int]func(Change))
}

// ---------------- Estado derivado ----------------

func (c *Controller[T]) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

func (c *Controller[T]) PageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageSize
}

func (c *Controller[T]) Filters() []sharedDomain.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sharedDomain.Filter(nil), c.filters...)
}

func (c *Controller[T]) Sorters() []sharedDomain.Sorter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sharedDomain.Sorter(nil), c.sorters...)
}

// Rows devuelve la página actual de resultados.
func (c *Controller[T]) Rows() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result.Data
}

// Total devuelve el total anunciado por el backend; cero si no lo anunció.
func (c *Controller[T]) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result.Total
}

// PageCount deriva el número de páginas; nunca baja de 1.
func (c *Controller[T]) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sharedQuery.PageCount(c.result.Total, c.pageSize)
}

// HasNextPage indica si se puede avanzar con el conocimiento actual.
func (c *Controller[T]) HasNextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opts.Pagination.Mode.Enabled() {
		return false
	}
	if c.opts.Pagination.Variant == sharedQuery.VariantCursor {
		return c.tracker.HasNext()
	}
	return c.currentPage < sharedQuery.PageCount(c.result.Total, c.pageSize)
}

// HasPreviousPage indica si se puede retroceder.
func (c *Controller[T]) HasPreviousPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opts.Pagination.Mode.Enabled() {
		return false
	}
	if c.opts.Pagination.Variant == sharedQuery.VariantCursor {
		return c.tracker.HasPrev()
	}
	return c.currentPage > 1
}

// Cursor expone los tokens anunciados por la última respuesta.
func (c *Controller[T]) Cursor() listingDomain.PageCursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return listingDomain.PageCursor{Next: c.tracker.Next(), Prev: c.tracker.Prev()}
}

// ---------------- Auditoría ----------------

func (c *Controller[T]) publishExecuted(q listingDomain.Query, res listingDomain.Result[T]) {
	if c.opts.Publisher == nil {
		return
	}
	evt := sharedEvents.QueryExecuted{
		ID:       uuid.New(),
		Resource: q.Resource,
		Variant:  string(q.Pagination.Variant),
		Page:     q.Pagination.CurrentPage,
		PageSize: q.Pagination.PageSize,
		Filters:  q.Filters,
		Sorters:  q.Sorters,
		Total:    res.Total,
		Count:    len(res.Data),
		At:       time.Now().UTC(),
	}
	if q.Cursor != nil {
		evt.Direction = string(q.Cursor.Direction)
	}
	c.publish(evt)
}

func (c *Controller[T]) publishNavigated(from, to int, direction string) {
	if c.opts.Publisher == nil {
		return
	}
	c.publish(sharedEvents.PageNavigated{
		ID:        uuid.New(),
		Resource:  c.opts.Resource,
		Variant:   string(c.opts.Pagination.Variant),
		FromPage:  from,
		ToPage:    to,
		Direction: direction,
		At:        time.Now().UTC(),
	})
}

/// publish es dispara-y-olvida: la auditoría nunca frena el listado.
func (c *Controller[T]) publish(event interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := c.opts.Publisher.Publish(ctx, event); err != nil {
			c.log.Warn("Audit publish failed", zap.Error(err))
		}
	}()
}
