package domain

// ---------------- Orden ----------------

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ---------------- Sorter ----------------

// Sorter describe un criterio de ordenación neutral.
type Sorter struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
	Key   string `json:"key,omitempty"`
}

// Identity devuelve la clave de unicidad del sorter (el campo, salvo Key).
func (s Sorter) Identity() string {
	if s.Key != "" {
		return "k:" + s.Key
	}
	return s.Field
}

// ---------------- Unión de sorters ----------------

// MergeSorters combina permanentes y entrantes: los permanentes siempre
// primero y nunca pisados; entre entrantes con la misma clave gana el último.
// No hay behaviors: una lista entrante vacía limpia los no permanentes.
func MergeSorters(permanent, incoming []Sorter) []Sorter {
	ordered := append([]Sorter{}, dedupSorters(permanent)...)
	ordered = append(ordered, dedupSorters(incoming)...)

	seen := make(map[string]struct{}, len(ordered))
	result := make([]Sorter, 0, len(ordered))
	for _, s := range ordered {
		id := s.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, s)
	}
	return result
}

func dedupSorters(entries []Sorter) []Sorter {
	if len(entries) < 2 {
		return entries
	}
	last := make(map[string]int, len(entries))
	for i, s := range entries {
		last[s.Identity()] = i
	}
	result := make([]Sorter, 0, len(last))
	for i, s := range entries {
		if last[s.Identity()] == i {
			result = append(result, s)
		}
	}
	return result
}
