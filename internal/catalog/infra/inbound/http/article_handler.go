package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogDomain "github.com/davicafu/paginalab/internal/catalog/domain"
	"github.com/davicafu/paginalab/internal/listing/application"
	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	"github.com/davicafu/paginalab/internal/listing/infra/outbound/location"
	"github.com/davicafu/paginalab/pkg/utils"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedBus "github.com/davicafu/paginalab/shared/platform/bus"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

// ArticleHandler expone el catálogo como listados HTTP. Cada petición monta
// un controlador propio cuya localización es la query string de la petición,
// así que la URL del navegador y el estado del listado son la misma cosa.
type ArticleHandler struct {
	articles  listingDomain.Fetcher[catalogDomain.Article]
	events    listingDomain.Fetcher[catalogDomain.ArticleEvent]
	publisher sharedBus.EventPublisher
	log       *zap.Logger
	pageSize  int
}

// NewArticleHandler crea un nuevo ArticleHandler. El fetcher de eventos y el
// publisher son opcionales.
func NewArticleHandler(
	articles listingDomain.Fetcher[catalogDomain.Article],
	events listingDomain.Fetcher[catalogDomain.ArticleEvent],
	publisher sharedBus.EventPublisher,
	log *zap.Logger,
	pageSize int,
) *ArticleHandler {
	if pageSize < 1 {
		pageSize = sharedQuery.DefaultPageSize
	}
	return &ArticleHandler{
		articles:  articles,
		events:    events,
		publisher: publisher,
		log:       log,
		pageSize:  pageSize,
	}
}

// --- Handlers ---

// ListArticles endpoint GET /api/v1/articles
// Paginación por offset gobernada por la URL (currentPage, pageSize,
// filters, sorters). Solo se sirven artículos publicados: el filtro es
// permanente y la URL no puede pisarlo.
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	store := location.NewMemoryLocationStore(c.Request.URL.Query())

	ctrl, err := application.New[catalogDomain.Article](h.articles, store, h.log, application.Options{
		Resource: "articles",
		Pagination: application.PaginationOptions{
			PageSize: h.pageSize,
		},
		Filters: application.FilterOptions{
			Permanent: []sharedDomain.Filter{
				{Field: catalogDomain.FieldStatus, Op: sharedDomain.OpEq, Value: string(catalogDomain.ArticlePublished)},
			},
		},
		SyncWithLocation: true,
		Publisher:        h.publisher,
	})
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}
	defer ctrl.Close()

	if err := ctrl.Refresh(c.Request.Context()); err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	rows := ctrl.Rows()
	if rows == nil {
		rows = []catalogDomain.Article{}
	}
	meta := utils.PageMeta{
		CurrentPage: ctrl.CurrentPage(),
		PageSize:    ctrl.PageSize(),
		Total:       ctrl.Total(),
		PageCount:   ctrl.PageCount(),
		HasNext:     ctrl.HasNextPage(),
		HasPrev:     ctrl.HasPreviousPage(),
	}
	utils.SendPage(c, rows, meta, canonicalLink(c, ctrl.BuildLocationLink(sharedQuery.Params{})))
}

// ListFeed endpoint GET /api/v1/articles/feed
// Feed de interacciones con paginación por cursor (after/before en la URL).
func (h *ArticleHandler) ListFeed(c *gin.Context) {
	if h.events == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "feed not available")
		return
	}

	store := location.NewMemoryLocationStore(c.Request.URL.Query())

	ctrl, err := application.New[catalogDomain.ArticleEvent](h.events, store, h.log, application.Options{
		Resource: "article-events",
		Pagination: application.PaginationOptions{
			Variant:  sharedQuery.VariantCursor,
			PageSize: h.pageSize,
		},
		SyncWithLocation: true,
		Publisher:        h.publisher,
	})
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}
	defer ctrl.Close()

	if err := ctrl.Refresh(c.Request.Context()); err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	rows := ctrl.Rows()
	if rows == nil {
		rows = []catalogDomain.ArticleEvent{}
	}
	cursor := ctrl.Cursor()
	meta := utils.PageMeta{
		PageSize: ctrl.PageSize(),
		Total:    ctrl.Total(),
		HasNext:  ctrl.HasNextPage(),
		HasPrev:  ctrl.HasPreviousPage(),
		Next:     sharedQuery.EncodeCursor(cursor.Next),
		Prev:     sharedQuery.EncodeCursor(cursor.Prev),
	}
	utils.SendPage(c, rows, meta, canonicalLink(c, ctrl.BuildLocationLink(sharedQuery.Params{})))
}

// canonicalLink reconstruye la URL canónica del listado sobre el path pedido.
func canonicalLink(c *gin.Context, qs string) string {
	if qs == "" {
		return c.Request.URL.Path
	}
	return c.Request.URL.Path + "?" + qs
}
