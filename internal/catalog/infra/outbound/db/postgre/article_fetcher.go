package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// --- Importaciones del dominio y compartidas ---
	catalogDomain "github.com/davicafu/paginalab/internal/catalog/domain"
	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
	sharedUtils "github.com/davicafu/paginalab/shared/utils"

	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL
)

// ArticleFetcherPostgres implementa el puerto Fetcher para PostgreSQL.
type ArticleFetcherPostgres struct {
	db *sql.DB
}

// NewArticleFetcherPostgres es el constructor.
func NewArticleFetcherPostgres(db *sql.DB) *ArticleFetcherPostgres {
	return &ArticleFetcherPostgres{db: db}
}

// ------------------ Traducción de criterios ------------------

// whereBuilder numera los placeholders ($1, $2...) a medida que acumula
// condiciones, el detalle que distingue a Postgres del resto de dialectos.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (b *whereBuilder) add(clause string, args ...interface{}) {
	placeholders := make([]interface{}, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", len(b.args)+i+1)
	}
	b.conditions = append(b.conditions, fmt.Sprintf(clause, placeholders...))
	b.args = append(b.args, args...)
}

func (b *whereBuilder) whereSQL() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

func buildWhere(filters []sharedDomain.Filter) *whereBuilder {
	sortable := catalogDomain.SortableFields()
	b := &whereBuilder{}

	for _, f := range filters {
		if !sortable[f.Field] && f.Field != "id" {
			continue
		}
		field := f.Field
		switch f.Op {
		case sharedDomain.OpEq:
			b.add(field+" = %s", f.Value)
		case sharedDomain.OpNe:
			b.add(field+" != %s", f.Value)
		case sharedDomain.OpLt:
			b.add(field+" < %s", f.Value)
		case sharedDomain.OpLte:
			b.add(field+" <= %s", f.Value)
		case sharedDomain.OpGt:
			b.add(field+" > %s", f.Value)
		case sharedDomain.OpGte:
			b.add(field+" >= %s", f.Value)
		case sharedDomain.OpContains:
			b.add(field+" ILIKE %s", fmt.Sprintf("%%%v%%", f.Value))
		case sharedDomain.OpNContains:
			b.add(field+" NOT ILIKE %s", fmt.Sprintf("%%%v%%", f.Value))
		case sharedDomain.OpStartsWith:
			b.add(field+" ILIKE %s", fmt.Sprintf("%v%%", f.Value))
		case sharedDomain.OpEndsWith:
			b.add(field+" ILIKE %s", fmt.Sprintf("%%%v", f.Value))
		case sharedDomain.OpIn, sharedDomain.OpNin:
			vals, ok := f.Value.([]interface{})
			if !ok || len(vals) == 0 {
				continue
			}
			ph := make([]string, len(vals))
			for i := range vals {
				ph[i] = fmt.Sprintf("$%d", len(b.args)+i+1)
			}
			not := sharedUtils.Ternary(f.Op == sharedDomain.OpNin, "NOT ", "")
			b.conditions = append(b.conditions, fmt.Sprintf("%s %sIN (%s)", field, not, strings.Join(ph, ",")))
			b.args = append(b.args, vals...)
		case sharedDomain.OpNull:
			b.conditions = append(b.conditions, field+" IS NULL")
		case sharedDomain.OpNNull:
			b.conditions = append(b.conditions, field+" IS NOT NULL")
		}
	}
	return b
}

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
		parts = append(parts, fmt.Sprintf("%s %s", s.Field, sharedUtils.Ternary(s.Order == sharedDomain.OrderDesc, "DESC", "ASC")))
	}
	if len(parts) == 0 {
		parts = append(parts, "created_at DESC")
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}

// ------------------ FetchList ------------------

func (r *ArticleFetcherPostgres) FetchList(ctx context.Context, q listingDomain.Query) (listingDomain.Result[catalogDomain.Article], error) {
	b := buildWhere(q.Filters)

	if q.Pagination.Mode.Enabled() && q.Pagination.Variant == sharedQuery.VariantCursor {
		return r.fetchCursor(ctx, q, b)
	}
	return r.fetchOffset(ctx, q, b)
}

func (r *ArticleFetcherPostgres) fetchOffset(ctx context.Context, q listingDomain.Query, b *whereBuilder) (listingDomain.Result[catalogDomain.Article], error) {
	var res listingDomain.Result[catalogDomain.Article]

	var total int64
	countQuery := "SELECT COUNT(*) FROM articles" + b.whereSQL()
	if err := r.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return res, fmt.Errorf("failed to count articles: %w", err)
	}

	query := "SELECT id, title, author, status, category, score, published_at, created_at FROM articles" +
		b.whereSQL() + " ORDER BY " + buildOrderBy(q.Sorters)

	args := b.args
	if q.Pagination.Mode.Enabled() {
		page := q.Pagination.CurrentPage
		if page < 1 {
			page = 1
		}
		size := q.Pagination.PageSize
		if size < 1 {
			size = sharedQuery.DefaultPageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
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

func (r *ArticleFetcherPostgres) fetchCursor(ctx context.Context, q listingDomain.Query, b *whereBuilder) (listingDomain.Result[catalogDomain.Article], error) {
	var res listingDomain.Result[catalogDomain.Article]

	col, asc := orderAnchor(q.Sorters)
	size := q.Pagination.PageSize
	if size < 1 {
		size = sharedQuery.DefaultPageSize
	}

	backward := q.Cursor != nil && q.Cursor.Direction == sharedQuery.DirectionBefore
	scanAsc := asc != backward

	var anchored bool
	if q.Cursor != nil && q.Cursor.Token != nil {
		v, id, ok := parseArticleToken(q.Cursor.Token)
		if ok {
			cmp := sharedUtils.Ternary(scanAsc, ">", "<")
			b.add(fmt.Sprintf("(%s %s %%s OR (%s = %%s AND id %s %%s))", col, cmp, col, cmp), v, v, id)
			anchored = true
		}
	}

	dir := sharedUtils.Ternary(scanAsc, "ASC", "DESC")
	query := fmt.Sprintf(
		"SELECT id, title, author, status, category, score, published_at, created_at FROM articles%s ORDER BY %s %s, id %s LIMIT $%d",
		b.whereSQL(), col, dir, dir, len(b.args)+1)
	args := append(b.args, size+1)

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
		err := rows.Scan(&a.ID, &a.Title, &a.Author, &a.Status, &a.Category, &a.Score, &a.PublishedAt, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db scan error: %w", err)
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

// articleToken ancla la fila con el valor de la columna de orden más el id,
// en tipos que sobrevivan al round trip por JSON.
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

// ------------------ Inicialización del Esquema ------------------

// InitPostgresArticleSchema crea la tabla 'articles' si no existe.
func InitPostgresArticleSchema(db *sql.DB) error {
	_, err := db.Exec(`
    CREATE TABLE IF NOT EXISTS articles (
        id UUID PRIMARY KEY,
        title TEXT NOT NULL,
        author TEXT NOT NULL,
        status TEXT NOT NULL,
        category TEXT NOT NULL,
        score DOUBLE PRECISION NOT NULL,
        published_at TIMESTAMP WITH TIME ZONE NOT NULL,
        created_at TIMESTAMP WITH TIME ZONE NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("failed to create articles table: %w", err)
	}
	return nil
}

// SeedPostgres inserta artículos de demo; los ya existentes se dejan estar.
func SeedPostgres(ctx context.Context, db *sql.DB, articles []catalogDomain.Article) error {
	for _, a := range articles {
		_, err := db.ExecContext(ctx,
			`INSERT INTO articles (id, title, author, status, category, score, published_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO NOTHING`,
			a.ID, a.Title, a.Author, string(a.Status), a.Category, a.Score, a.PublishedAt, a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to seed article %s: %w", a.ID, err)
		}
	}
	return nil
}

// Verificación estática de la interfaz.
var _ listingDomain.Fetcher[catalogDomain.Article] = (*ArticleFetcherPostgres)(nil)
