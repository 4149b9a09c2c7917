package query

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/davicafu/paginalab/shared/domain"
)

// ---------- Claves de query string ----------

const (
	KeyCurrentPage = "currentPage"
	KeyPageSize    = "pageSize"
	KeySorters     = "sorters"
	KeyFilters     = "filters"
	KeyAfter       = "after"
	KeyBefore      = "before"
)

func isListingKey(k string) bool {
	switch k {
	case KeyCurrentPage, KeyPageSize, KeySorters, KeyFilters, KeyAfter, KeyBefore:
		return true
	}
	return false
}

// ---------- Cursores opacos ----------

// EncodeCursor serializa un token opaco (string, número, estructura...) de
// forma apta para query string. Nunca se interpreta su contenido.
func EncodeCursor(token interface{}) string {
	if token == nil {
		return ""
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor deshace EncodeCursor. Un valor que no produjimos nosotros se
// devuelve tal cual como token string: sigue siendo opaco.
func DecodeCursor(s string) interface{} {
	if s == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	var token interface{}
	if err := json.Unmarshal(raw, &token); err != nil {
		return s
	}
	return token
}

// ---------- State ----------

// State es la vista del controlador que el codec proyecta a localización.
type State struct {
	Pagination PageRequest
	Cursor     interface{} // token actual, solo variante cursor
	Direction  Direction
	FilterMode Mode
	Filters    []domain.Filter
	SorterMode Mode
	Sorters    []domain.Sorter
	Rest       url.Values // claves ajenas que se conservan tal cual
}

// ---------- Codec ----------

// Codec traduce entre url.Values y el estado del listado, en ambos sentidos.
type Codec struct{}

// Parse extrae los parámetros de listado de una localización serializada.
// Los valores malformados se descartan en silencio; las claves ajenas se
// conservan en Rest. Nunca devuelve error: una URL editada a mano no puede
// romper el listado.
func (c Codec) Parse(values url.Values) Params {
	var p Params
	for key, vals := range values {
		if !isListingKey(key) {
			if p.Rest == nil {
				p.Rest = url.Values{}
			}
			p.Rest[key] = append([]string(nil), vals...)
		}
	}

	if raw := values.Get(KeyCurrentPage); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			if n < 1 {
				n = 1
			}
			p.CurrentPage = IntPtr(n)
		}
	}
	if raw := values.Get(KeyPageSize); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			if n < 1 {
				n = 1
			}
			p.PageSize = IntPtr(n)
		}
	}
	if raw := values.Get(KeySorters); raw != "" {
		var sorters []domain.Sorter
		if err := json.Unmarshal([]byte(raw), &sorters); err == nil && len(sorters) > 0 {
			p.Sorters = sorters
		}
	}
	if raw := values.Get(KeyFilters); raw != "" {
		var filters []domain.Filter
		if err := json.Unmarshal([]byte(raw), &filters); err == nil && len(filters) > 0 {
			p.Filters = filters
		}
	}
	p.After = DecodeCursor(values.Get(KeyAfter))
	p.Before = DecodeCursor(values.Get(KeyBefore))
	return p
}

// Project es la inversa de Parse: estado → parámetros serializables.
//   - facetas en modo off no emiten nada;
//   - los filtros/sorters permanentes nunca se serializan (se emite la
//     diferencia contra ellos);
//   - la variante cursor emite after O before según la última dirección,
//     nunca ambos, y omite currentPage;
//   - las colecciones vacías se omiten;
//   - Rest pasa tal cual.
func (c Codec) Project(s State, permanentFilters []domain.Filter, permanentSorters []domain.Sorter) url.Values {
	values := url.Values{}
	for key, vals := range s.Rest {
		if !isListingKey(key) {
			values[key] = append([]string(nil), vals...)
		}
	}

	if s.Pagination.Mode.Enabled() {
		switch s.Pagination.Variant {
		case VariantCursor:
			if token := EncodeCursor(s.Cursor); token != "" {
				if s.Direction == DirectionBefore {
					values.Set(KeyBefore, token)
				} else {
					values.Set(KeyAfter, token)
				}
			}
			if s.Pagination.PageSize > 0 {
				values.Set(KeyPageSize, strconv.Itoa(s.Pagination.PageSize))
			}
		default:
			if s.Pagination.CurrentPage > 0 {
				values.Set(KeyCurrentPage, strconv.Itoa(s.Pagination.CurrentPage))
			}
			if s.Pagination.PageSize > 0 {
				values.Set(KeyPageSize, strconv.Itoa(s.Pagination.PageSize))
			}
		}
	}

	if s.FilterMode.Enabled() {
		if diff := diffFilters(s.Filters, permanentFilters); len(diff) > 0 {
			if raw, err := json.Marshal(diff); err == nil {
				values.Set(KeyFilters, string(raw))
			}
		}
	}
	if s.SorterMode.Enabled() {
		if diff := diffSorters(s.Sorters, permanentSorters); len(diff) > 0 {
			if raw, err := json.Marshal(diff); err == nil {
				values.Set(KeySorters, string(raw))
			}
		}
	}
	return values
}

// diffFilters descarta las entradas cubiertas por una clave permanente.
func diffFilters(current, permanent []domain.Filter) []domain.Filter {
	if len(permanent) == 0 {
		return current
	}
	keys := make(map[string]struct{}, len(permanent))
	for _, f := range permanent {
		keys[f.Identity()] = struct{}{}
	}
	var out []domain.Filter
	for _, f := range current {
		if _, ok := keys[f.Identity()]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func diffSorters(current, permanent []domain.Sorter) []domain.Sorter {
	if len(permanent) == 0 {
		return current
	}
	keys := make(map[string]struct{}, len(permanent))
	for _, s := range permanent {
		keys[s.Identity()] = struct{}{}
	}
	var out []domain.Sorter
	for _, s := range current {
		if _, ok := keys[s.Identity()]; !ok {
			out = append(out, s)
		}
	}
	return out
}
