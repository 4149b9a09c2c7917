package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

func TestCursorTracker_PaseoBasico(t *testing.T) {
	tracker := NewCursorTracker()

	// primera consulta: el backend anuncia página siguiente
	tracker.ApplyPage("abc", nil)
	assert.True(t, tracker.HasNext())
	assert.False(t, tracker.HasPrev())

	// avanza y la siguiente consulta no trae prev
	assert.True(t, tracker.Advance())
	assert.Equal(t, "abc", tracker.Current())
	tracker.ApplyPage("def", nil)
	assert.True(t, tracker.HasNext())
	assert.True(t, tracker.HasPrev(), "se puede volver gracias al historial local")

	// retrocede: vuelve al arranque vía historial
	assert.True(t, tracker.Retreat())
	assert.Nil(t, tracker.Current())
	assert.Equal(t, sharedQuery.DirectionAfter, tracker.Direction())
}

func TestCursorTracker_AdvanceSinNextEsNoOp(t *testing.T) {
	tracker := NewCursorTracker()

	assert.False(t, tracker.Advance())

	// dos avances seguidos sin consulta intermedia: el segundo ya consumió el token
	tracker.ApplyPage("abc", nil)
	assert.True(t, tracker.Advance())
	assert.False(t, tracker.Advance())
	assert.Equal(t, "abc", tracker.Current())
}

func TestCursorTracker_RetreatPrefierePrevExplicito(t *testing.T) {
	tracker := NewCursorTracker()
	tracker.ApplyPage("abc", nil)
	tracker.Advance()
	tracker.ApplyPage("def", nil)
	tracker.Advance() // historial: [nil, "abc"]

	// el backend sí conoce la página anterior
	tracker.ApplyPage("ghi", "abc")

	assert.True(t, tracker.Retreat())
	assert.Equal(t, "abc", tracker.Current())
	assert.Equal(t, sharedQuery.DirectionBefore, tracker.Direction())

	// el historial no se tocó: el retroceso de respaldo sigue encontrando
	// la ancla de avance apilada
	tracker.ApplyPage(nil, nil)
	assert.True(t, tracker.Retreat())
	assert.Equal(t, "abc", tracker.Current())
	assert.Equal(t, sharedQuery.DirectionAfter, tracker.Direction())
}

func TestCursorTracker_RetreatSinNadaEsNoOp(t *testing.T) {
	tracker := NewCursorTracker()

	assert.False(t, tracker.HasPrev())
	assert.False(t, tracker.Retreat())
}

func TestCursorTracker_RetreatConTokenPeroSinHistorialVuelveAlArranque(t *testing.T) {
	tracker := NewCursorTracker()
	// una URL compartida nos dejó a mitad de listado
	tracker.Seek("xyz", sharedQuery.DirectionAfter)

	assert.True(t, tracker.HasPrev())
	assert.True(t, tracker.Retreat())
	assert.Nil(t, tracker.Current())
	assert.Equal(t, sharedQuery.DirectionAfter, tracker.Direction())
	assert.False(t, tracker.HasPrev())
}

func TestCursorTracker_TokensEstructurados(t *testing.T) {
	tracker := NewCursorTracker()
	tokenA := map[string]interface{}{"ts": "2024-01-01", "id": float64(7)}
	tokenB := map[string]interface{}{"ts": "2024-02-01", "id": float64(9)}

	tracker.ApplyPage(tokenA, nil)
	tracker.Advance()
	tracker.ApplyPage(tokenB, nil)
	tracker.Advance() // historial: [nil, tokenA]

	// prev explícito estructurado: se adopta por valor
	tracker.ApplyPage(nil, map[string]interface{}{"ts": "2024-01-01", "id": float64(7)})
	assert.True(t, tracker.Retreat())
	assert.Equal(t, tokenA, tracker.Current())

	// los retrocesos de respaldo drenan el historial intacto: tokenA y
	// después el arranque
	assert.True(t, tracker.Retreat())
	assert.Equal(t, tokenA, tracker.Current())
	assert.True(t, tracker.Retreat())
	assert.Nil(t, tracker.Current())
	assert.False(t, tracker.Retreat())
}

func TestCursorTracker_PrevExplicitoNoTocaElHistorial(t *testing.T) {
	// El historial solo crece al avanzar y solo se consume en el retroceso
	// de respaldo; mientras el backend dé prev, el stack queda congelado.
	tracker := NewCursorTracker()
	tracker.ApplyPage("a1", nil)
	tracker.Advance()
	tracker.ApplyPage("a2", "b1")
	tracker.Advance() // historial: [nil, "a1"]
	tracker.ApplyPage(nil, "b2")

	assert.True(t, tracker.Retreat())
	assert.Equal(t, "b2", tracker.Current())
	assert.Equal(t, sharedQuery.DirectionBefore, tracker.Direction())

	tracker.ApplyPage("x", "b1")
	assert.True(t, tracker.Retreat())
	assert.Equal(t, "b1", tracker.Current())

	// agotado el prev, el respaldo drena el historial en orden LIFO
	tracker.ApplyPage("y", nil)
	assert.True(t, tracker.Retreat())
	assert.Equal(t, "a1", tracker.Current())
	assert.Equal(t, sharedQuery.DirectionAfter, tracker.Direction())
	assert.True(t, tracker.Retreat())
	assert.Nil(t, tracker.Current())
	assert.False(t, tracker.Retreat())
}

func TestCursorTracker_Reset(t *testing.T) {
	tracker := NewCursorTracker()
	tracker.ApplyPage("abc", nil)
	tracker.Advance()

	tracker.Reset()

	assert.Nil(t, tracker.Current())
	assert.False(t, tracker.HasNext())
	assert.False(t, tracker.HasPrev())
	assert.Equal(t, sharedQuery.DirectionAfter, tracker.Direction())
}
