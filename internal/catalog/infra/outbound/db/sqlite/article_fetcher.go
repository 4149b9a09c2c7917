package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	catalogDomain "github.com/davicafu/paginalab/internal/catalog/domain"
	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
)

// ArticleFetcherSQLite sirve páginas del catálogo desde SQLite. Soporta
// paginación por offset y por cursor keyset sobre (campo de orden, id).
type ArticleFetcherSQLite struct {
	db *sql.DB
}

// NewArticleFetcherSQLite es el constructor.
func NewArticleFetcherSQLite(db *sql.DB) *ArticleFetcherSQLite {
	return &ArticleFetcherSQLite{db: db}
}

// ------------------ Traducción de criterios ------------------

// buildWhere traduce los filtros a condiciones SQL con placeholders `?`.
// Campos fuera de la lista blanca y valores incompatibles se ignoran.
func buildWhere(filters []sharedDomain.Filter) ([]string, []interface{}) {
	sortable := catalogDomain.SortableFields()
	var conditions []string
	var args []interface{}

	for _, f := range filters {
		if !sortable[f.Field] && f.Field != "id" {
			continue
		}
		switch f.Op {
		case sharedDomain.OpEq:
			conditions = append(conditions, f.Field+" = ?")
			args = append(args, f.Value)
		case sharedDomain.OpNe:
			conditions = append(conditions, f.Field+" != ?")
			args = append(args, f.Value)
		case sharedDomain.OpLt:
			conditions = append(conditions, f.Field+" < ?")
			args = append(args, f.Value)
		case sharedDomain.OpLte:
			conditions = append(conditions, f.Field+" <= ?")
			args = append(args, f.Value)
		case sharedDomain.OpGt:
			conditions = append(conditions, f.Field+" > ?")
			args = append(args, f.Value)
		case sharedDomain.OpGte:
			conditions = append(conditions, f.Field+" >= ?")
			args = append(args, f.Value)
		case sharedDomain.OpContains:
			conditions = append(conditions, f.Field+" LIKE ?")
			args = append(args, fmt.Sprintf("%%%v%%", f.Value))
		case sharedDomain.OpNContains:
			conditions = append(conditions, f.Field+" NOT LIKE ?")
			args = append(args, fmt.Sprintf("%%%v%%", f.Value))
		case sharedDomain.OpStartsWith:
			conditions = append(conditions, f.Field+" LIKE ?")
			args = append(args, fmt.Sprintf("%v%%", f.Value))
		case sharedDomain.OpEndsWith:
			conditions = append(conditions, f.Field+" LIKE ?")
			args = append(args, fmt.Sprintf("%%%v", f.Value))
		case sharedDomain.OpIn, sharedDomain.OpNin:
			vals, ok := f.Value.([]interface{})
			if !ok || len(vals) == 0 {
				continue
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")
			not := ""
			if f.Op == sharedDomain.OpNin {
				not = "NOT "
			}
			conditions = append(conditions, fmt.Sprintf("%s %sIN (%s)", f.Field, not, placeholders))
			args = append(args, vals...)
		case sharedDomain.OpNull:
			conditions = append(conditions, f.Field+" IS NULL")
		case sharedDomain.OpNNull:
			conditions = append(conditions, f.Field+" IS NOT NULL")
		}
	}
	return conditions, args
}

// orderAnchor decide la columna y dirección que gobiernan el orden: el primer
// sorter admitido, o created_at DESC si no hay ninguno.
func orderAnchor(sorters []sharedDomain.Sorter) (string, bool) {
	sortable := catalogDomain.SortableFields()
	for _, s := range sorters {
		if sortable[s.Field] {
			return s.Field, s.Order != sharedDomain.OrderDesc
		}
	}
	return catalogDomain.FieldCreatedAt, false
}

func buildOrderBy(sorters []sharedDomain.Sorter) string {
	sortable := catalogDomain.SortableFields()
	var parts []string
	for _, s := range sorters {
		if !sortable[s.Field] {
			continue
		}
		dir := "ASC"
		if s.Order == sharedDomain.OrderDesc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", s.Field, dir))
	}
	if len(parts) == 0 {
		parts = append(parts, "created_at DESC")
	}
	// id como desempate para que el orden sea total y estable
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}

// ------------------ FetchList ------------------

func (r *ArticleFetcherSQLite) FetchList(ctx context.Context, q listingDomain.Query) (listingDomain.Result[catalogDomain.Article], error) {
	conditions, args := buildWhere(q.Filters)

	if q.Pagination.Mode.Enabled() && q.Pagination.Variant == sharedQuery.VariantCursor {
		return r.fetchCursor(ctx, q, conditions, args)
	}
	return r.fetchOffset(ctx, q, conditions, args)
}

// fetchOffset pagina con LIMIT/OFFSET y calcula el total con COUNT(*).
func (r *ArticleFetcherSQLite) fetchOffset(ctx context.Context, q listingDomain.Query, conditions []string, args []interface{}) (listingDomain.Result[catalogDomain.Article], error) {
	var res listingDomain.Result[catalogDomain.Article]

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM articles %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return res, fmt.Errorf("failed to count articles: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, title, author, status, category, score, published_at, created_at
		FROM articles %s ORDER BY %s`, where, buildOrderBy(q.Sorters))

	if q.Pagination.Mode.Enabled() {
		page := q.Pagination.CurrentPage
		if page < 1 {
			page = 1
		}
		size := q.Pagination.PageSize
		if size < 1 {
			size = sharedQuery.DefaultPageSize
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, size, (page-1)*size)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return res, err
	}
	defer rows.Close()

	articles, err := scanArticles(rows)
	if err != nil {
		return res, err
	}

	res.Data = articles
	res.Total = total
	return res, nil
}

// fetchCursor pagina por keyset sobre (columna de orden, id). Pide una fila
// de más para saber si hay otra página en la dirección del paseo.
func (r *ArticleFetcherSQLite) fetchCursor(ctx context.Context, q listingDomain.Query, conditions []string, args []interface{}) (listingDomain.Result[catalogDomain.Article], error) {
	var res listingDomain.Result[catalogDomain.Article]

	col, asc := orderAnchor(q.Sorters)
	size := q.Pagination.PageSize
	if size < 1 {
		size = sharedQuery.DefaultPageSize
	}

	backward := q.Cursor != nil && q.Cursor.Direction == sharedQuery.DirectionBefore
	// El sentido efectivo de la consulta se invierte al retroceder.
	scanAsc := asc != backward

	var anchored bool
	if q.Cursor != nil && q.Cursor.Token != nil {
		v, id, ok := parseArticleToken(q.Cursor.Token)
		if ok {
			cmp := ">"
			if !scanAsc {
				cmp = "<"
			}
			conditions = append(conditions, fmt.Sprintf("(%s %s ? OR (%s = ? AND id %s ?))", col, cmp, col, cmp))
			args = append(args, v, v, id)
			anchored = true
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	dir := "ASC"
	if !scanAsc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT id, title, author, status, category, score, published_at, created_at
		FROM articles %s ORDER BY %s %s, id %s LIMIT ?`, where, col, dir, dir)
	args = append(args, size+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return res, err
	}
	defer rows.Close()

	articles, err := scanArticles(rows)
	if err != nil {
		return res, err
	}

	more := len(articles) > size
	if more {
		articles = articles[:size]
	}
	if backward {
		reverseArticles(articles)
	}

	res.Data = articles
	res.Cursor = &listingDomain.PageCursor{}
	if len(articles) > 0 {
		first, last := articles[0], articles[len(articles)-1]
		if backward {
			// Al retroceder siempre queda la página de la que venimos.
			res.Cursor.Next = articleToken(last, col)
			if more {
				res.Cursor.Prev = articleToken(first, col)
			}
		} else {
			if more {
				res.Cursor.Next = articleToken(last, col)
			}
			if anchored {
				res.Cursor.Prev = articleToken(first, col)
			}
		}
	}
	return res, nil
}

func scanArticles(rows *sql.Rows) ([]catalogDomain.Article, error) {
	var articles []catalogDomain.Article
	for rows.Next() {
		var a catalogDomain.Article
		var idStr, publishedStr, createdStr string
		if err := rows.Scan(&idStr, &a.Title, &a.Author, &a.Status, &a.Category, &a.Score, &publishedStr, &createdStr); err != nil {
			return nil, err
		}
		parsedID, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		a.ID = parsedID
		if a.PublishedAt, err = time.Parse(time.RFC3339Nano, publishedStr); err != nil {
			return nil, fmt.Errorf("invalid timestamp in DB: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
			return nil, fmt.Errorf("invalid timestamp in DB: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func reverseArticles(articles []catalogDomain.Article) {
	for i, j := 0, len(articles)-1; i < j; i, j = i+1, j-1 {
		articles[i], articles[j] = articles[j], articles[i]
	}
}

// ------------------ Tokens de cursor ------------------

// articleToken ancla una fila: valor de la columna de orden + id. Viaja como
// JSON, así que los tiempos se fijan a RFC3339 para que el round trip por la
// URL no cambie su comparación.
func articleToken(a catalogDomain.Article, col string) map[string]interface{} {
	var v interface{}
	switch col {
	case catalogDomain.FieldTitle:
		v = a.Title
	case catalogDomain.FieldAuthor:
		v = a.Author
	case catalogDomain.FieldStatus:
		v = string(a.Status)
	case catalogDomain.FieldCategory:
		v = a.Category
	case catalogDomain.FieldScore:
		v = a.Score
	case catalogDomain.FieldPublishedAt:
		v = a.PublishedAt.UTC().Format(time.RFC3339Nano)
	default:
		v = a.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return map[string]interface{}{"v": v, "id": a.ID.String()}
}

// parseArticleToken acepta tanto el token recién emitido como el decodificado
// de una URL (mapa genérico de JSON). Un token irreconocible se ignora.
func parseArticleToken(token interface{}) (interface{}, string, bool) {
	m, ok := token.(map[string]interface{})
	if !ok {
		return nil, "", false
	}
	id, ok := m["id"].(string)
	if !ok {
		return nil, "", false
	}
	v, ok := m["v"]
	if !ok {
		return nil, "", false
	}
	return v, id, true
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea la tabla articles si no existe. Los tiempos se guardan como
// TEXT RFC3339 en UTC para que el keyset compare de forma estable.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS articles (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            status TEXT NOT NULL,
            category TEXT NOT NULL,
            score REAL NOT NULL,
            published_at TEXT NOT NULL,
            created_at TEXT NOT NULL
        )
    `)
	return err
}

// SeedSQLite inserta artículos de demo; ignora los que ya existan.
func SeedSQLite(ctx context.Context, db *sql.DB, articles []catalogDomain.Article) error {
	for _, a := range articles {
		_, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO articles (id, title, author, status, category, score, published_at, created_at)
			 VALUES (?,?,?,?,?,?,?,?)`,
			a.ID.String(), a.Title, a.Author, string(a.Status), a.Category, a.Score,
			a.PublishedAt.UTC().Format(time.RFC3339Nano), a.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to seed article %s: %w", a.ID, err)
		}
	}
	return nil
}

// Verificación estática de la interfaz.
var _ listingDomain.Fetcher[catalogDomain.Article] = (*ArticleFetcherSQLite)(nil)
