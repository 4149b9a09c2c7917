package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeSorters_PermanentesPrimeroYNoSePisan(t *testing.T) {
	permanent := []Sorter{{Field: "published_at", Order: OrderDesc}}
	incoming := []Sorter{
		{Field: "published_at", Order: OrderAsc}, // intenta pisar al permanente
		{Field: "title", Order: OrderAsc},
	}

	got := MergeSorters(permanent, incoming)

	assert.Equal(t, []Sorter{
		{Field: "published_at", Order: OrderDesc},
		{Field: "title", Order: OrderAsc},
	}, got)
}

func TestMergeSorters_ListaVaciaLimpiaLosNoPermanentes(t *testing.T) {
	permanent := []Sorter{{Field: "published_at", Order: OrderDesc}}

	got := MergeSorters(permanent, nil)

	assert.Equal(t, permanent, got)
}

func TestMergeSorters_UltimaOcurrenciaGana(t *testing.T) {
	incoming := []Sorter{
		{Field: "title", Order: OrderAsc},
		{Field: "score", Order: OrderDesc},
		{Field: "title", Order: OrderDesc},
	}

	got := MergeSorters(nil, incoming)

	assert.Equal(t, []Sorter{
		{Field: "score", Order: OrderDesc},
		{Field: "title", Order: OrderDesc},
	}, got)
}
