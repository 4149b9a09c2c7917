package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFilters_PermanentesSiemprePrimero(t *testing.T) {
	permanent := []Filter{{Field: "status", Op: OpEq, Value: "open"}}
	incoming := []Filter{{Field: "author", Op: OpEq, Value: "alice"}}

	got := MergeFilters(permanent, incoming, nil, BehaviorReplace)

	assert.Equal(t, []Filter{
		{Field: "status", Op: OpEq, Value: "open"},
		{Field: "author", Op: OpEq, Value: "alice"},
	}, got)
}

func TestMergeFilters_PermanenteNoSePisa(t *testing.T) {
	permanent := []Filter{{Field: "status", Op: OpEq, Value: "open"}}
	// mismo campo y operador que el permanente
	incoming := []Filter{{Field: "status", Op: OpEq, Value: "closed"}}

	got := MergeFilters(permanent, incoming, nil, BehaviorMerge)

	assert.Len(t, got, 1)
	assert.Equal(t, "open", got[0].Value)
}

func TestMergeFilters_Behaviors(t *testing.T) {
	previous := []Filter{
		{Field: "author", Op: OpEq, Value: "alice"},
		{Field: "title", Op: OpContains, Value: "go"},
	}
	incoming := []Filter{{Field: "author", Op: OpEq, Value: "bob"}}

	tests := []struct {
		name     string
		behavior Behavior
		expected []Filter
	}{
		{
			name:     "merge conserva los previos no pisados",
			behavior: BehaviorMerge,
			expected: []Filter{
				{Field: "author", Op: OpEq, Value: "bob"},
				{Field: "title", Op: OpContains, Value: "go"},
			},
		},
		{
			name:     "replace descarta todos los previos",
			behavior: BehaviorReplace,
			expected: []Filter{
				{Field: "author", Op: OpEq, Value: "bob"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeFilters(nil, incoming, previous, tt.behavior)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMergeFilters_Idempotente(t *testing.T) {
	permanent := []Filter{{Field: "status", Op: OpEq, Value: "open"}}
	incoming := []Filter{
		{Field: "author", Op: OpEq, Value: "alice"},
		{Field: "score", Op: OpGte, Value: 4.0},
	}

	once := MergeFilters(permanent, incoming, nil, BehaviorMerge)
	twice := MergeFilters(permanent, once, once, BehaviorMerge)

	assert.Equal(t, once, twice)
}

func TestMergeFilters_ValueNilBorraLaEntrada(t *testing.T) {
	previous := []Filter{{Field: "author", Op: OpEq, Value: "alice"}}
	incoming := []Filter{{Field: "author", Op: OpEq, Value: nil}}

	got := MergeFilters(nil, incoming, previous, BehaviorMerge)

	assert.Empty(t, got)
}

func TestMergeFilters_UltimaOcurrenciaGanaDentroDeLaLista(t *testing.T) {
	incoming := []Filter{
		{Field: "author", Op: OpEq, Value: "alice"},
		{Field: "author", Op: OpEq, Value: "bob"},
	}

	got := MergeFilters(nil, incoming, nil, BehaviorReplace)

	assert.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Value)
}

func TestFilter_IdentityConKeyPersonalizada(t *testing.T) {
	// un rango usa dos operadores sobre el mismo campo pero claves distintas
	desde := Filter{Field: "published_at", Op: OpGte, Value: "2024-01-01", Key: "desde"}
	hasta := Filter{Field: "published_at", Op: OpLte, Value: "2024-12-31", Key: "hasta"}

	got := MergeFilters(nil, []Filter{desde, hasta}, nil, BehaviorMerge)

	assert.Len(t, got, 2)
	assert.NotEqual(t, got[0].Identity(), got[1].Identity())
}
