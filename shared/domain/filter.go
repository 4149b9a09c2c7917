package domain

// ---------------- Operadores ----------------

// Operator es un token neutral; cada adaptador lo traduce a su dialecto
// (SQL, bson, query string...).
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpContains   Operator = "contains"
	OpNContains  Operator = "ncontains"
	OpStartsWith Operator = "startswith"
	OpEndsWith   Operator = "endswith"
	OpIn         Operator = "in"
	OpNin        Operator = "nin"
	OpNull       Operator = "null"
	OpNNull      Operator = "nnull"
)

// ---------------- Behavior ----------------

// Behavior decide qué pasa con los filtros previos al aplicar nuevos.
type Behavior string

const (
	BehaviorMerge   Behavior = "merge"   // conserva los previos no pisados
	BehaviorReplace Behavior = "replace" // descarta los previos
)

// ---------------- Filter ----------------

// Filter describe una condición neutral de filtrado.
// Key permite agrupar variantes del mismo control (p.ej. un rango con
// gte y lte sobre el mismo campo); si está vacío la identidad es (Field, Op).
type Filter struct {
	Field string      `json:"field"`
	Op    Operator    `json:"operator"`
	Value interface{} `json:"value"`
	Key   string      `json:"key,omitempty"`
}

// Identity devuelve la clave de unicidad del filtro.
func (f Filter) Identity() string {
	if f.Key != "" {
		return "k:" + f.Key
	}
	return f.Field + "|" + string(f.Op)
}

// ---------------- Unión de filtros ----------------

// MergeFilters calcula el conjunto final de filtros: los permanentes siempre
// primero y nunca pisados, después los entrantes y (con BehaviorMerge) los
// previos que nadie haya pisado. Un entrante con Value nil actúa como marca
// de borrado: pisa su clave pero no aparece en el resultado.
func MergeFilters(permanent, incoming, previous []Filter, behavior Behavior) []Filter {
	ordered := append([]Filter{}, dedupFilters(permanent)...)
	ordered = append(ordered, dedupFilters(incoming)...)
	if behavior != BehaviorReplace {
		ordered = append(ordered, dedupFilters(previous)...)
	}

	permKeys := make(map[string]struct{}, len(permanent))
	for _, f := range permanent {
		permKeys[f.Identity()] = struct{}{}
	}

	seen := make(map[string]struct{}, len(ordered))
	result := make([]Filter, 0, len(ordered))
	for _, f := range ordered {
		id := f.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if f.Value == nil {
			// marca de borrado, salvo que sea permanente
			if _, perm := permKeys[id]; !perm {
				continue
			}
		}
		result = append(result, f)
	}
	return result
}

// dedupFilters normaliza una lista: ante claves repetidas gana la última.
func dedupFilters(entries []Filter) []Filter {
	if len(entries) < 2 {
		return entries
	}
	last := make(map[string]int, len(entries))
	for i, f := range entries {
		last[f.Identity()] = i
	}
	result := make([]Filter, 0, len(last))
	for i, f := range entries {
		if last[f.Identity()] == i {
			result = append(result, f)
		}
	}
	return result
}
