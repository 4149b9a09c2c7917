package domain

import (
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

// ---------------- CursorTracker ----------------

// CursorTracker lleva la posición dentro de un listado paginado por tokens
// opacos. Los tokens nunca se interpretan: se guardan y se comparan por valor.
// El historial local permite retroceder frente a APIs que solo devuelven
// "next"; crece sin tope, retroceder mil páginas cuesta unos pocos KB.
type CursorTracker struct {
	current   interface{}
	next      interface{}
	prev      interface{}
	history   []interface{}
	direction sharedQuery.Direction
}

// NewCursorTracker es el constructor; arranca sin token y mirando hacia delante.
func NewCursorTracker() *CursorTracker {
	return &CursorTracker{direction: sharedQuery.DirectionAfter}
}

// Seek coloca el tracker en un token concreto (p.ej. al adoptar una URL)
// descartando historial y expectativas previas.
func (t *CursorTracker) Seek(token interface{}, dir sharedQuery.Direction) {
	t.current = token
	t.next = nil
	t.prev = nil
	t.history = nil
	if dir != sharedQuery.DirectionBefore {
		dir = sharedQuery.DirectionAfter
	}
	t.direction = dir
}

func (t *CursorTracker) Current() interface{} { return t.current }

func (t *CursorTracker) Next() interface{} { return t.next }

func (t *CursorTracker) Prev() interface{} { return t.prev }

func (t *CursorTracker) Direction() sharedQuery.Direction { return t.direction }

// ApplyPage registra los tokens devueltos por la última consulta. Cada
// respuesta pisa los anteriores; un valor ausente los limpia.
func (t *CursorTracker) ApplyPage(next, prev interface{}) {
	t.next = next
	t.prev = prev
}

// Advance consume el token next. Sin next no hay avance.
func (t *CursorTracker) Advance() bool {
	if t.next == nil {
		return false
	}
	t.history = append(t.history, t.current) // el arranque nil también se apila
	t.current = t.next
	t.next = nil
	t.prev = nil
	t.direction = sharedQuery.DirectionAfter
	return true
}

// Retreat retrocede una página: prev explícito si lo hay, si no el historial
// local, y en última instancia vuelve al arranque del listado.
func (t *CursorTracker) Retreat() bool {
	switch {
	case t.prev != nil:
		// Con prev explícito el historial ni se consulta ni se toca: solo
		// lo consume el retroceso de respaldo. Si la API alterna entre dar
		// y omitir prev, el historial puede quedar obsoleto; se asume.
		t.current = t.prev
		t.direction = sharedQuery.DirectionBefore
	case len(t.history) > 0:
		n := len(t.history)
		t.current = t.history[n-1]
		t.history = t.history[:n-1]
		// el token apilado se consumió en su día con "after"
		t.direction = sharedQuery.DirectionAfter
	case t.current != nil:
		t.current = nil
		t.history = nil
		t.direction = sharedQuery.DirectionAfter
	default:
		return false
	}
	t.next = nil
	t.prev = nil
	return true
}

// HasNext indica si la última respuesta anunció página siguiente.
func (t *CursorTracker) HasNext() bool { return t.next != nil }

// HasPrev indica si hay forma de retroceder: prev explícito, historial
// local, o al menos un token actual desde el que volver al arranque.
func (t *CursorTracker) HasPrev() bool {
	return t.prev != nil || len(t.history) > 0 || t.current != nil
}

// Reset devuelve el tracker a su estado inicial.
func (t *CursorTracker) Reset() {
	t.current = nil
	t.next = nil
	t.prev = nil
	t.history = nil
	t.direction = sharedQuery.DirectionAfter
}
