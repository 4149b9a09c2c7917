package contracts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogDomain "github.com/davicafu/paginalab/internal/catalog/domain"
	catalogHttp "github.com/davicafu/paginalab/internal/catalog/infra/inbound/http"
	"github.com/davicafu/paginalab/internal/catalog/infra/outbound/filesystem"
	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
	"github.com/davicafu/paginalab/tests/mocks"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// listEnvelope es el contrato de respuesta de los listados.
type listEnvelope struct {
	Data []catalogDomain.Article `json:"data"`
	Meta pageMeta                `json:"meta"`
	Link string                  `json:"link"`
}

type feedEnvelope struct {
	Data []catalogDomain.ArticleEvent `json:"data"`
	Meta pageMeta                     `json:"meta"`
	Link string                       `json:"link"`
}

type pageMeta struct {
	CurrentPage int    `json:"currentPage"`
	PageSize    int    `json:"pageSize"`
	Total       int64  `json:"total"`
	PageCount   int    `json:"pageCount"`
	HasNext     bool   `json:"hasNext"`
	HasPrev     bool   `json:"hasPrev"`
	Next        string `json:"next"`
	Prev        string `json:"prev"`
}

// setupArticlesAPI monta la API real sobre el catálogo JSON de disco, con el
// feed servido por un fetcher guionizado.
func setupArticlesAPI(t *testing.T, n int) (*gin.Engine, *mocks.ScriptedFetcher[catalogDomain.ArticleEvent]) {
	t.Helper()

	storage := filesystem.NewJSONArticleStorage(filepath.Join(t.TempDir(), "articles.json"))
	require.NoError(t, storage.Save(context.Background(), catalogDomain.SeedArticles(n)))

	feed := mocks.NewScriptedFetcher[catalogDomain.ArticleEvent]()

	handler := catalogHttp.NewArticleHandler(storage, feed, nil, zap.NewNop(), 10)
	router := gin.New()
	catalogHttp.RegisterArticleRoutes(router, handler)
	return router, feed
}

func doGet(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestArticlesHTTP_PrimeraPagina(t *testing.T) {
	router, _ := setupArticlesAPI(t, 60) // 20 publicados

	rec := doGet(t, router, "/api/v1/articles")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Len(t, resp.Data, 10)
	assert.Equal(t, int64(20), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.CurrentPage)
	assert.Equal(t, 2, resp.Meta.PageCount)
	assert.True(t, resp.Meta.HasNext)
	assert.False(t, resp.Meta.HasPrev)

	// Solo publicados, del más reciente al más antiguo.
	for _, a := range resp.Data {
		assert.Equal(t, catalogDomain.ArticlePublished, a.Status)
	}
	assert.Equal(t, "Notas de infra 57", resp.Data[0].Title)

	// El enlace canónico reproduce el estado del listado.
	assert.Equal(t, "/api/v1/articles?currentPage=1&pageSize=10", resp.Link)
}

func TestArticlesHTTP_LaURLNoPuedePisarElFiltroPermanente(t *testing.T) {
	router, _ := setupArticlesAPI(t, 60)

	// La URL pide borradores; el filtro permanente de publicados gana.
	qs := url.Values{"filters": {`[{"field":"status","operator":"eq","value":"draft"}]`}}
	rec := doGet(t, router, "/api/v1/articles?"+qs.Encode())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, int64(20), resp.Meta.Total)
	for _, a := range resp.Data {
		assert.Equal(t, catalogDomain.ArticlePublished, a.Status)
	}
}

func TestArticlesHTTP_PaginacionYFiltrosDesdeLaURL(t *testing.T) {
	router, _ := setupArticlesAPI(t, 60)

	// bob ∧ publicado se da en i ≡ 9 (mod 12): cinco artículos de 60.
	qs := url.Values{
		"currentPage": {"2"},
		"pageSize":    {"3"},
		"filters":     {`[{"field":"author","operator":"eq","value":"bob"}]`},
	}
	rec := doGet(t, router, "/api/v1/articles?"+qs.Encode())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, int64(5), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.CurrentPage)
	assert.Equal(t, 3, resp.Meta.PageSize)
	assert.Equal(t, 2, resp.Meta.PageCount)
	assert.Len(t, resp.Data, 2)
	assert.True(t, resp.Meta.HasPrev)
	assert.False(t, resp.Meta.HasNext)
	for _, a := range resp.Data {
		assert.Equal(t, "bob", a.Author)
	}

	// El enlace conserva página, tamaño y filtros de la URL.
	link, err := url.Parse(resp.Link)
	require.NoError(t, err)
	assert.Equal(t, "2", link.Query().Get("currentPage"))
	assert.Equal(t, "3", link.Query().Get("pageSize"))
	assert.Contains(t, link.Query().Get("filters"), `"bob"`)
}

func TestArticlesHTTP_FeedPorCursor(t *testing.T) {
	router, feed := setupArticlesAPI(t, 4)

	events := catalogDomain.SeedArticleEvents(catalogDomain.SeedArticles(4), 1)
	token := map[string]interface{}{
		"t":  time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC).Format(time.RFC3339Nano),
		"id": events[1].ID.String(),
	}
	feed.Enqueue(listingDomain.Result[catalogDomain.ArticleEvent]{
		Data:   events[:2],
		Total:  4,
		Cursor: &listingDomain.PageCursor{Next: token},
	})
	feed.Enqueue(listingDomain.Result[catalogDomain.ArticleEvent]{
		Data:  events[2:],
		Total: 4,
	})

	// --- 1. Primera página del feed ---
	rec := doGet(t, router, "/api/v1/articles/feed")
	require.Equal(t, http.StatusOK, rec.Code)

	var first feedEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Len(t, first.Data, 2)
	assert.True(t, first.Meta.HasNext)
	require.NotEmpty(t, first.Meta.Next)
	assert.Empty(t, first.Meta.Prev)

	// --- 2. Segunda página usando el token next tal cual ---
	rec = doGet(t, router, "/api/v1/articles/feed?after="+url.QueryEscape(first.Meta.Next))
	require.Equal(t, http.StatusOK, rec.Code)

	var second feedEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Len(t, second.Data, 2)
	assert.False(t, second.Meta.HasNext)

	// El backend recibió el token opaco decodificado, en dirección after.
	last := feed.LastQuery()
	require.NotNil(t, last.Cursor)
	assert.Equal(t, sharedQuery.DirectionAfter, last.Cursor.Direction)
	assert.Equal(t, token, last.Cursor.Token)
}

func TestArticlesHTTP_FeedNoDisponible(t *testing.T) {
	storage := filesystem.NewJSONArticleStorage(filepath.Join(t.TempDir(), "articles.json"))
	require.NoError(t, storage.Save(context.Background(), catalogDomain.SeedArticles(4)))

	handler := catalogHttp.NewArticleHandler(storage, nil, nil, zap.NewNop(), 10)
	router := gin.New()
	catalogHttp.RegisterArticleRoutes(router, handler)

	rec := doGet(t, router, "/api/v1/articles/feed")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "feed not available")
}
