package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
	"github.com/davicafu/paginalab/tests/mocks"
)

type doc struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func baseQuery(page int) listingDomain.Query {
	return listingDomain.Query{
		Resource: "docs",
		Pagination: sharedQuery.PageRequest{
			Mode:        sharedQuery.ModeServer,
			Variant:     sharedQuery.VariantOffset,
			CurrentPage: page,
			PageSize:    10,
		},
	}
}

func TestCachedFetcher_SegundaConsultaIdenticaVieneDeCache(t *testing.T) {
	// Arrange
	ctx := context.Background()
	inner := mocks.NewScriptedFetcher(listingDomain.Result[doc]{
		Data:  []doc{{ID: 1, Title: "uno"}, {ID: 2, Title: "dos"}},
		Total: 42,
		Cursor: &listingDomain.PageCursor{
			Next: map[string]interface{}{"id": "2"},
		},
	})
	store := mocks.NewDummyCache()
	fetcher := NewCachedFetcher[doc](inner, store, zap.NewNop(), time.Minute)

	// Act: primera consulta va al origen.
	first, err := fetcher.FetchList(ctx, baseQuery(1))
	require.NoError(t, err)
	require.Len(t, first.Data, 2)

	// El guardado es asíncrono; esperamos a que la clave aparezca.
	require.Eventually(t, func() bool { return store.Len() > 0 },
		time.Second, 10*time.Millisecond)

	// Act: la misma consulta ya no toca el origen.
	second, err := fetcher.FetchList(ctx, baseQuery(1))
	require.NoError(t, err)

	// Assert
	assert.Len(t, inner.Queries(), 1)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, int64(42), second.Total)
	require.NotNil(t, second.Cursor)
	assert.Equal(t, map[string]interface{}{"id": "2"}, second.Cursor.Next)
}

func TestCachedFetcher_ConsultasDistintasNoComparten(t *testing.T) {
	// Arrange
	ctx := context.Background()
	inner := mocks.NewScriptedFetcher(
		listingDomain.Result[doc]{Data: []doc{{ID: 1}}, Total: 2},
		listingDomain.Result[doc]{Data: []doc{{ID: 2}}, Total: 2},
	)
	fetcher := NewCachedFetcher[doc](inner, mocks.NewDummyCache(), zap.NewNop(), time.Minute)

	// Act
	_, err := fetcher.FetchList(ctx, baseQuery(1))
	require.NoError(t, err)
	_, err = fetcher.FetchList(ctx, baseQuery(2))
	require.NoError(t, err)

	// Assert: cada página tiene su propia clave.
	assert.Len(t, inner.Queries(), 2)
}

func TestCachedFetcher_ErrorDelOrigenNoSeCachea(t *testing.T) {
	// Arrange
	ctx := context.Background()
	inner := mocks.NewScriptedFetcher[doc]()
	inner.Err = errors.New("origen caído")
	store := mocks.NewDummyCache()
	fetcher := NewCachedFetcher[doc](inner, store, zap.NewNop(), time.Minute)

	// Act
	_, err := fetcher.FetchList(ctx, baseQuery(1))

	// Assert
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestCachedFetcher_ClaveDependeDeLaConsulta(t *testing.T) {
	q1 := baseQuery(1)
	k1, ok := cacheKey(q1)
	require.True(t, ok)
	assert.Contains(t, k1, "listing:docs:")

	q2 := baseQuery(1)
	q2.Filters = []sharedDomain.Filter{{Field: "status", Op: sharedDomain.OpEq, Value: "open"}}
	k2, ok := cacheKey(q2)
	require.True(t, ok)

	q3 := baseQuery(2)
	k3, ok := cacheKey(q3)
	require.True(t, ok)

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
