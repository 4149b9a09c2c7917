package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	catalogDomain "github.com/davicafu/paginalab/internal/catalog/domain"
	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

// JSONArticleStorage sirve el catálogo desde un fichero JSON aplicando
// filtros, ordenación y paginación en memoria. Es el adaptador de respaldo
// cuando no hay base de datos, y el doble natural en tests de integración.
type JSONArticleStorage struct {
	filePath string
	mu       sync.Mutex // Mutex para evitar race conditions al leer/escribir el archivo.
}

// NewJSONArticleStorage es el constructor.
func NewJSONArticleStorage(filePath string) *JSONArticleStorage {
	return &JSONArticleStorage{
		filePath: filePath,
	}
}

// Save sobrescribe el fichero con el catálogo dado.
func (s *JSONArticleStorage) Save(ctx context.Context, articles []catalogDomain.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}

// FetchList evalúa la consulta completa en memoria.
func (s *JSONArticleStorage) FetchList(ctx context.Context, q listingDomain.Query) (listingDomain.Result[catalogDomain.Article], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res listingDomain.Result[catalogDomain.Article]

	all, err := s.getAllFromFile()
	if err != nil {
		return res, err
	}

	var filtered []catalogDomain.Article
	for _, a := range all {
		if matchesAll(a, q.Filters) {
			filtered = append(filtered, a)
		}
	}
	sortArticles(filtered, q.Sorters)

	if !q.Pagination.Mode.Enabled() {
		res.Data = filtered
		res.Total = int64(len(filtered))
		return res, nil
	}

	size := q.Pagination.PageSize
	if size < 1 {
		size = sharedQuery.DefaultPageSize
	}

	if q.Pagination.Variant == sharedQuery.VariantCursor {
		return s.sliceCursor(filtered, q, size)
	}

	page := q.Pagination.CurrentPage
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}

	res.Data = filtered[start:end]
	res.Total = int64(len(filtered))
	return res, nil
}

// sliceCursor reproduce el paseo keyset sobre la lista ya ordenada. Conoce
// la lista entera, así que puede anunciar next y prev a la vez.
func (s *JSONArticleStorage) sliceCursor(filtered []catalogDomain.Article, q listingDomain.Query, size int) (listingDomain.Result[catalogDomain.Article], error) {
	var res listingDomain.Result[catalogDomain.Article]

	start := 0
	if q.Cursor != nil && q.Cursor.Token != nil {
		if idx, ok := indexOfToken(filtered, q.Cursor.Token); ok {
			if q.Cursor.Direction == sharedQuery.DirectionBefore {
				start = idx - size
				if start < 0 {
					start = 0
				}
			} else {
				start = idx + 1
			}
		}
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}
	if start > end {
		start = end
	}

	page := filtered[start:end]
	res.Data = page
	res.Total = int64(len(filtered))
	res.Cursor = &listingDomain.PageCursor{}
	if len(page) > 0 {
		if end < len(filtered) {
			res.Cursor.Next = articleToken(page[len(page)-1])
		}
		if start > 0 {
			res.Cursor.Prev = articleToken(page[0])
		}
	}
	return res, nil
}

func articleToken(a catalogDomain.Article) map[string]interface{} {
	return map[string]interface{}{"id": a.ID.String()}
}

func indexOfToken(articles []catalogDomain.Article, token interface{}) (int, bool) {
	m, ok := token.(map[string]interface{})
	if !ok {
		return 0, false
	}
	id, ok := m["id"].(string)
	if !ok {
		return 0, false
	}
	for i, a := range articles {
		if a.ID.String() == id {
			return i, true
		}
	}
	return 0, false
}

// ------------------ Evaluación de filtros ------------------

func matchesAll(a catalogDomain.Article, filters []sharedDomain.Filter) bool {
	for _, f := range filters {
		if !matches(a, f) {
			return false
		}
	}
	return true
}

func matches(a catalogDomain.Article, f sharedDomain.Filter) bool {
	v, ok := fieldValue(a, f.Field)
	if !ok {
		// Campo desconocido: el filtro se ignora, igual que en los
		// adaptadores SQL.
		return true
	}

	switch f.Op {
	case sharedDomain.OpEq:
		cmp, ok := compare(v, f.Value)
		return ok && cmp == 0
	case sharedDomain.OpNe:
		cmp, ok := compare(v, f.Value)
		return ok && cmp != 0
	case sharedDomain.OpLt:
		cmp, ok := compare(v, f.Value)
		return ok && cmp < 0
	case sharedDomain.OpLte:
		cmp, ok := compare(v, f.Value)
		return ok && cmp <= 0
	case sharedDomain.OpGt:
		cmp, ok := compare(v, f.Value)
		return ok && cmp > 0
	case sharedDomain.OpGte:
		cmp, ok := compare(v, f.Value)
		return ok && cmp >= 0
	case sharedDomain.OpContains:
		return containsFold(v, f.Value)
	case sharedDomain.OpNContains:
		return !containsFold(v, f.Value)
	case sharedDomain.OpStartsWith:
		s, sub, ok := textPair(v, f.Value)
		return ok && strings.HasPrefix(s, sub)
	case sharedDomain.OpEndsWith:
		s, sub, ok := textPair(v, f.Value)
		return ok && strings.HasSuffix(s, sub)
	case sharedDomain.OpIn, sharedDomain.OpNin:
		vals, ok := f.Value.([]interface{})
		if !ok {
			return f.Op == sharedDomain.OpNin
		}
		found := false
		for _, item := range vals {
			if cmp, ok := compare(v, item); ok && cmp == 0 {
				found = true
				break
			}
		}
		if f.Op == sharedDomain.OpIn {
			return found
		}
		return !found
	case sharedDomain.OpNull:
		return isZeroValue(v)
	case sharedDomain.OpNNull:
		return !isZeroValue(v)
	}
	return true
}

func fieldValue(a catalogDomain.Article, field string) (interface{}, bool) {
	switch field {
	case catalogDomain.FieldTitle:
		return a.Title, true
	case catalogDomain.FieldAuthor:
		return a.Author, true
	case catalogDomain.FieldStatus:
		return string(a.Status), true
	case catalogDomain.FieldCategory:
		return a.Category, true
	case catalogDomain.FieldScore:
		return a.Score, true
	case catalogDomain.FieldPublishedAt:
		return a.PublishedAt, true
	case catalogDomain.FieldCreatedAt:
		return a.CreatedAt, true
	}
	return nil, false
}

// compare ordena el valor del campo frente al valor del filtro. Los valores
// del filtro llegan de JSON (string, float64); las fechas del filtro viajan
// como RFC3339.
func compare(fieldVal, filterVal interface{}) (int, bool) {
	switch fv := fieldVal.(type) {
	case float64:
		n, ok := asFloat(filterVal)
		if !ok {
			return 0, false
		}
		switch {
		case fv < n:
			return -1, true
		case fv > n:
			return 1, true
		}
		return 0, true
	case time.Time:
		t, ok := asTime(filterVal)
		if !ok {
			return 0, false
		}
		switch {
		case fv.Before(t):
			return -1, true
		case fv.After(t):
			return 1, true
		}
		return 0, true
	case string:
		s, ok := filterVal.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(fv, s), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func containsFold(fieldVal, filterVal interface{}) bool {
	s, sub, ok := textPair(fieldVal, filterVal)
	return ok && strings.Contains(s, sub)
}

// textPair baja ambos lados a minúsculas, como el LIKE de SQLite o el ILIKE
// de Postgres.
func textPair(fieldVal, filterVal interface{}) (string, string, bool) {
	s, ok := fieldVal.(string)
	if !ok {
		return "", "", false
	}
	sub, ok := filterVal.(string)
	if !ok {
		return "", "", false
	}
	return strings.ToLower(s), strings.ToLower(sub), true
}

func isZeroValue(v interface{}) bool {
	switch fv := v.(type) {
	case string:
		return fv == ""
	case float64:
		return fv == 0
	case time.Time:
		return fv.IsZero()
	}
	return v == nil
}

// ------------------ Ordenación ------------------

func sortArticles(articles []catalogDomain.Article, sorters []sharedDomain.Sorter) {
	sortable := catalogDomain.SortableFields()
	var keys []sharedDomain.Sorter
	for _, s := range sorters {
		if sortable[s.Field] {
			keys = append(keys, s)
		}
	}
	if len(keys) == 0 {
		keys = []sharedDomain.Sorter{{Field: catalogDomain.FieldCreatedAt, Order: sharedDomain.OrderDesc}}
	}

	sort.SliceStable(articles, func(i, j int) bool {
		for _, k := range keys {
			vi, _ := fieldValue(articles[i], k.Field)
			vj, _ := fieldValue(articles[j], k.Field)
			cmp, ok := compare(vi, vj)
			if !ok || cmp == 0 {
				continue
			}
			if k.Order == sharedDomain.OrderDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		// id como desempate para un orden total y estable
		return articles[i].ID.String() < articles[j].ID.String()
	})
}

// ------------------ Acceso al fichero ------------------

// getAllFromFile es un helper interno no concurrente.
func (s *JSONArticleStorage) getAllFromFile() ([]catalogDomain.Article, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		// Si el fichero no existe, devolvemos una lista vacía sin error.
		if os.IsNotExist(err) {
			return []catalogDomain.Article{}, nil
		}
		return nil, err
	}

	if len(data) == 0 {
		return []catalogDomain.Article{}, nil
	}

	var articles []catalogDomain.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, err
	}

	return articles, nil
}

// Verificación estática de la interfaz.
var _ listingDomain.Fetcher[catalogDomain.Article] = (*JSONArticleStorage)(nil)
