package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davicafu/paginalab/shared/domain"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := Codec{}
	state := State{
		Pagination: PageRequest{Mode: ModeServer, Variant: VariantOffset, CurrentPage: 3, PageSize: 25},
		FilterMode: ModeServer,
		Filters: []domain.Filter{
			{Field: "author", Op: domain.OpEq, Value: "alice"},
		},
		SorterMode: ModeServer,
		Sorters: []domain.Sorter{
			{Field: "published_at", Order: domain.OrderDesc},
		},
		Rest: url.Values{"theme": {"dark"}},
	}

	values := codec.Project(state, nil, nil)
	got := codec.Parse(values)

	assert.Equal(t, 3, *got.CurrentPage)
	assert.Equal(t, 25, *got.PageSize)
	assert.Equal(t, state.Filters, got.Filters)
	assert.Equal(t, state.Sorters, got.Sorters)
	assert.Equal(t, url.Values{"theme": {"dark"}}, got.Rest)
	assert.Nil(t, got.After)
	assert.Nil(t, got.Before)
}

func TestCodec_RoundTripCursor(t *testing.T) {
	codec := Codec{}
	state := State{
		Pagination: PageRequest{Mode: ModeServer, Variant: VariantCursor, PageSize: 20},
		Cursor:     "abc",
		Direction:  DirectionAfter,
	}

	values := codec.Project(state, nil, nil)

	assert.NotEmpty(t, values.Get(KeyAfter))
	assert.Empty(t, values.Get(KeyBefore))
	assert.Empty(t, values.Get(KeyCurrentPage), "la variante cursor no emite currentPage")

	got := codec.Parse(values)
	assert.Equal(t, "abc", got.After)
	assert.Equal(t, 20, *got.PageSize)
}

func TestCodec_CursorEmiteSoloUnaDireccion(t *testing.T) {
	codec := Codec{}
	state := State{
		Pagination: PageRequest{Mode: ModeServer, Variant: VariantCursor, PageSize: 10},
		Cursor:     "xyz",
		Direction:  DirectionBefore,
	}

	values := codec.Project(state, nil, nil)

	assert.NotEmpty(t, values.Get(KeyBefore))
	assert.Empty(t, values.Get(KeyAfter))
}

func TestCodec_PermanentesNoSeSerializan(t *testing.T) {
	codec := Codec{}
	permanent := []domain.Filter{{Field: "status", Op: domain.OpEq, Value: "open"}}
	state := State{
		Pagination: PageRequest{Mode: ModeServer, Variant: VariantOffset, CurrentPage: 1, PageSize: 10},
		FilterMode: ModeServer,
		Filters: []domain.Filter{
			{Field: "status", Op: domain.OpEq, Value: "open"},
			{Field: "author", Op: domain.OpEq, Value: "alice"},
		},
	}

	values := codec.Project(state, permanent, nil)
	got := codec.Parse(values)

	assert.Equal(t, []domain.Filter{{Field: "author", Op: domain.OpEq, Value: "alice"}}, got.Filters)
}

func TestCodec_ModoOffNoEmiteNada(t *testing.T) {
	codec := Codec{}
	state := State{
		Pagination: PageRequest{Mode: ModeOff, Variant: VariantOffset, CurrentPage: 2, PageSize: 10},
		FilterMode: ModeOff,
		Filters:    []domain.Filter{{Field: "author", Op: domain.OpEq, Value: "alice"}},
		SorterMode: ModeOff,
		Sorters:    []domain.Sorter{{Field: "title", Order: domain.OrderAsc}},
	}

	values := codec.Project(state, nil, nil)

	assert.Empty(t, values)
}

func TestCodec_ParseDescartaValoresMalformados(t *testing.T) {
	codec := Codec{}
	values := url.Values{
		KeyCurrentPage: {"tres"},
		KeyPageSize:    {"-5"},
		KeyFilters:     {"{no es json valido"},
		"q":            {"golang"},
	}

	got := codec.Parse(values)

	assert.Nil(t, got.CurrentPage)
	assert.Equal(t, 1, *got.PageSize, "los numéricos fuera de rango se recortan al mínimo")
	assert.Nil(t, got.Filters)
	assert.Equal(t, url.Values{"q": {"golang"}}, got.Rest)
}

func TestEncodeDecodeCursor(t *testing.T) {
	tests := []struct {
		name  string
		token interface{}
	}{
		{name: "token string", token: "abc"},
		{name: "token numérico", token: float64(42)},
		{name: "token estructurado", token: map[string]interface{}{"ts": "2024-01-01", "id": "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeCursor(tt.token)
			assert.NotEmpty(t, encoded)
			assert.Equal(t, tt.token, DecodeCursor(encoded))
		})
	}
}

func TestDecodeCursor_ValorAjenoSeTrataComoTokenOpaco(t *testing.T) {
	// una URL editada a mano: after=abc sin codificar
	assert.Equal(t, "abc", DecodeCursor("abc"))
	assert.Nil(t, DecodeCursor(""))
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		pageSize int
		expected int
	}{
		{name: "47 registros en páginas de 10", total: 47, pageSize: 10, expected: 5},
		{name: "división exacta", total: 50, pageSize: 10, expected: 5},
		{name: "lista vacía conserva su primera página", total: 0, pageSize: 10, expected: 1},
		{name: "pageSize inválido", total: 100, pageSize: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PageCount(tt.total, tt.pageSize))
		})
	}
}
