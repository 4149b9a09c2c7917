package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

type doc struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func offsetQuery(page, size int) listingDomain.Query {
	return listingDomain.Query{
		Resource: "docs",
		Pagination: sharedQuery.PageRequest{
			Mode:        sharedQuery.ModeServer,
			Variant:     sharedQuery.VariantOffset,
			CurrentPage: page,
			PageSize:    size,
		},
	}
}

func TestRestFetcher_SobreConMetaYCursor(t *testing.T) {
	// Arrange: el servidor comprueba la proyección de la consulta y responde
	// con el sobre {data, meta}.
	nextToken := sharedQuery.EncodeCursor(map[string]interface{}{"id": "7"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		assert.Equal(t, "2", qs.Get("currentPage"))
		assert.Equal(t, "10", qs.Get("pageSize"))

		var filters []sharedDomain.Filter
		require.NoError(t, json.Unmarshal([]byte(qs.Get("filters")), &filters))
		assert.Equal(t, "status", filters[0].Field)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []doc{{ID: 1, Title: "uno"}, {ID: 2, Title: "dos"}},
			"meta": map[string]interface{}{"total": 42, "next": nextToken},
		})
	}))
	defer srv.Close()

	fetcher, err := NewRestFetcher[doc](srv.URL+"/api/v1/docs", srv.Client(), zap.NewNop())
	require.NoError(t, err)

	q := offsetQuery(2, 10)
	q.Filters = []sharedDomain.Filter{{Field: "status", Op: sharedDomain.OpEq, Value: "open"}}

	// Act
	res, err := fetcher.FetchList(context.Background(), q)

	// Assert
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	assert.Equal(t, "uno", res.Data[0].Title)
	assert.Equal(t, int64(42), res.Total)
	require.NotNil(t, res.Cursor)
	assert.Equal(t, map[string]interface{}{"id": "7"}, res.Cursor.Next)
	assert.Nil(t, res.Cursor.Prev)
}

func TestRestFetcher_ArrayPeladoConCabeceraDeTotal(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Total-Count", "7")
		json.NewEncoder(w).Encode([]doc{{ID: 1}, {ID: 2}, {ID: 3}})
	}))
	defer srv.Close()

	fetcher, err := NewRestFetcher[doc](srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, err)

	// Act
	res, err := fetcher.FetchList(context.Background(), offsetQuery(1, 3))

	// Assert
	require.NoError(t, err)
	assert.Len(t, res.Data, 3)
	assert.Equal(t, int64(7), res.Total)
	assert.Nil(t, res.Cursor)
}

func TestRestFetcher_ElCursorViajaComoAfter(t *testing.T) {
	// Arrange
	var gotAfter, gotPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAfter = r.URL.Query().Get("after")
		gotPage = r.URL.Query().Get("currentPage")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []doc{}, "meta": map[string]interface{}{"total": 0}})
	}))
	defer srv.Close()

	fetcher, err := NewRestFetcher[doc](srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, err)

	q := listingDomain.Query{
		Resource: "docs",
		Pagination: sharedQuery.PageRequest{
			Mode:     sharedQuery.ModeServer,
			Variant:  sharedQuery.VariantCursor,
			PageSize: 10,
		},
		Cursor: &listingDomain.CursorHint{
			Token:     map[string]interface{}{"id": "42"},
			Direction: sharedQuery.DirectionAfter,
		},
	}

	// Act
	_, err = fetcher.FetchList(context.Background(), q)

	// Assert: after viaja codificado, currentPage no viaja.
	require.NoError(t, err)
	assert.Empty(t, gotPage)
	require.NotEmpty(t, gotAfter)
	assert.Equal(t, map[string]interface{}{"id": "42"}, sharedQuery.DecodeCursor(gotAfter))
}

func TestRestFetcher_ErrorDelServidorSeReintenta(t *testing.T) {
	// Arrange: la primera respuesta es un 500, la segunda funciona.
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []doc{{ID: 1}},
			"meta": map[string]interface{}{"total": 1},
		})
	}))
	defer srv.Close()

	fetcher, err := NewRestFetcher[doc](srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, err)

	// Act
	res, err := fetcher.FetchList(context.Background(), offsetQuery(1, 10))

	// Assert
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRestFetcher_UnCuatroCientosNoSeReintenta(t *testing.T) {
	// Arrange
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher, err := NewRestFetcher[doc](srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, err)

	// Act
	_, err = fetcher.FetchList(context.Background(), offsetQuery(1, 10))

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
