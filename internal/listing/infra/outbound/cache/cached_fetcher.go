package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedCache "github.com/davicafu/paginalab/shared/platform/cache"
)

// CachedFetcher decora cualquier Fetcher con una caché de páginas. La clave
// es el hash de la consulta canónica, así que dos estados de listado
// idénticos comparten entrada aunque vengan de controladores distintos.
type CachedFetcher[T any] struct {
	inner listingDomain.Fetcher[T]
	cache sharedCache.Cache
	log   *zap.Logger
	ttl   time.Duration
}

// NewCachedFetcher es el constructor.
func NewCachedFetcher[T any](inner listingDomain.Fetcher[T], cache sharedCache.Cache, log *zap.Logger, ttl time.Duration) *CachedFetcher[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedFetcher[T]{inner: inner, cache: cache, log: log, ttl: ttl}
}

func (f *CachedFetcher[T]) FetchList(ctx context.Context, q listingDomain.Query) (listingDomain.Result[T], error) {
	key, ok := cacheKey(q)
	if ok {
		var cached listingDomain.Result[T]
		hit, err := f.cache.Get(ctx, key, &cached)
		if err != nil {
			// Una caché rota se degrada a miss; el listado no se cae por ella.
			f.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			f.log.Debug("Página servida desde caché", zap.String("key", key))
			return cached, nil
		}
	}

	res, err := f.inner.FetchList(ctx, q)
	if err != nil {
		return res, err
	}

	if ok {
		sharedCache.AsyncCacheSet(ctx, f.cache, key, res, f.ttl, f.log)
	}
	return res, nil
}

// cacheKey deriva la clave del JSON canónico de la consulta. encoding/json
// ordena las claves de los mapas, así que el hash es estable.
func cacheKey(q listingDomain.Query) (string, bool) {
	data, err := json.Marshal(q)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("listing:%s:%x", q.Resource, sum[:12]), true
}

// Verificación estática de la interfaz.
var _ listingDomain.Fetcher[int] = (*CachedFetcher[int])(nil)
