package mocks

import (
	"context"
	"sync"

	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
)

// ScriptedFetcher devuelve resultados preparados en orden y registra cada
// consulta recibida, para poder afirmar sobre la forma de las peticiones.
type ScriptedFetcher[T any] struct {
	mu      sync.Mutex
	script  []listingDomain.Result[T]
	queries []listingDomain.Query

	// Err hace fallar todas las consultas mientras esté puesto.
	Err error

	// Block, si no es nil, detiene FetchList hasta que se cierre el canal;
	// sirve para simular respuestas que llegan tarde.
	Block chan struct{}

	// Started, si no es nil, recibe un aviso al entrar cada FetchList.
	Started chan struct{}
}

// Verificación estática (con un tipo cualquiera).
var _ listingDomain.Fetcher[int] = (*ScriptedFetcher[int])(nil)

func NewScriptedFetcher[T any](script ...listingDomain.Result[T]) *ScriptedFetcher[T] {
	return &ScriptedFetcher[T]{script: script}
}

// Enqueue añade una respuesta más al guion.
func (f *ScriptedFetcher[T]) Enqueue(res listingDomain.Result[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, res)
}

func (f *ScriptedFetcher[T]) FetchList(ctx context.Context, q listingDomain.Query) (listingDomain.Result[T], error) {
	if f.Started != nil {
		select {
		case f.Started <- struct{}{}:
		default:
		}
	}
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return listingDomain.Result[T]{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.Err != nil {
		return listingDomain.Result[T]{}, f.Err
	}
	var res listingDomain.Result[T]
	if len(f.script) > 0 {
		res = f.script[0]
		f.script = f.script[1:]
	}
	return res, nil
}

// Queries devuelve una copia de las consultas recibidas hasta ahora.
func (f *ScriptedFetcher[T]) Queries() []listingDomain.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listingDomain.Query(nil), f.queries...)
}

// LastQuery devuelve la última consulta recibida (zero value si ninguna).
func (f *ScriptedFetcher[T]) LastQuery() listingDomain.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return listingDomain.Query{}
	}
	return f.queries[len(f.queries)-1]
}
