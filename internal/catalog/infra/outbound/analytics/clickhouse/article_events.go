package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	catalogDomain "github.com/davicafu/paginalab/internal/catalog/domain"
	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
)

// ArticleEventFetcher sirve el feed de interacciones desde ClickHouse.
// Es un feed de solo avance: emite token next y nunca prev, así que el
// retroceso corre a cargo del historial del cliente.
type ArticleEventFetcher struct {
	db *sql.DB
}

// NewArticleEventFetcher es el constructor.
func NewArticleEventFetcher(addr string, dbName string) (*ArticleEventFetcher, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &ArticleEventFetcher{db: conn}, nil
}

// feedFields son los campos filtrables del feed.
var feedFields = map[string]bool{
	"kind":       true,
	"article_id": true,
	"referrer":   true,
	"event_time": true,
}

// buildWhere traduce los filtros al dialecto de ClickHouse (placeholders `?`).
func buildWhere(filters []sharedDomain.Filter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	for _, f := range filters {
		if !feedFields[f.Field] {
			continue
		}
		v := f.Value
		if f.Field == "event_time" {
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					v = t
				}
			}
		}
		switch f.Op {
		case sharedDomain.OpEq:
			conditions = append(conditions, f.Field+" = ?")
			args = append(args, v)
		case sharedDomain.OpNe:
			conditions = append(conditions, f.Field+" != ?")
			args = append(args, v)
		case sharedDomain.OpLt:
			conditions = append(conditions, f.Field+" < ?")
			args = append(args, v)
		case sharedDomain.OpLte:
			conditions = append(conditions, f.Field+" <= ?")
			args = append(args, v)
		case sharedDomain.OpGt:
			conditions = append(conditions, f.Field+" > ?")
			args = append(args, v)
		case sharedDomain.OpGte:
			conditions = append(conditions, f.Field+" >= ?")
			args = append(args, v)
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
		}
	}
	return conditions, args
}

// FetchList recorre el feed de más reciente a más antiguo. El orden es fijo
// (event_time, id descendentes); la ordenación del listado no aplica aquí.
func (r *ArticleEventFetcher) FetchList(ctx context.Context, q listingDomain.Query) (listingDomain.Result[catalogDomain.ArticleEvent], error) {
	var res listingDomain.Result[catalogDomain.ArticleEvent]

	conditions, args := buildWhere(q.Filters)

	paginate := q.Pagination.Mode.Enabled()
	size := q.Pagination.PageSize
	if size < 1 {
		size = sharedQuery.DefaultPageSize
	}

	if paginate && q.Cursor != nil && q.Cursor.Token != nil {
		if t, id, ok := parseFeedToken(q.Cursor.Token); ok {
			conditions = append(conditions, "(event_time < ? OR (event_time = ? AND id < ?))")
			args = append(args, t, t, id)
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf(`SELECT id, article_id, kind, referrer, event_time
		FROM article_events %s ORDER BY event_time DESC, id DESC`, where)
	if paginate {
		query += " LIMIT ?"
		args = append(args, size+1)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return res, err
	}
	defer rows.Close()

	var events []catalogDomain.ArticleEvent
	for rows.Next() {
		var e catalogDomain.ArticleEvent
		if err := rows.Scan(&e.ID, &e.ArticleID, &e.Kind, &e.Referrer, &e.At); err != nil {
			return res, fmt.Errorf("db scan error: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return res, err
	}

	if paginate {
		more := len(events) > size
		if more {
			events = events[:size]
		}
		res.Cursor = &listingDomain.PageCursor{}
		if more && len(events) > 0 {
			last := events[len(events)-1]
			res.Cursor.Next = map[string]interface{}{
				"t":  last.At.UTC().Format(time.RFC3339Nano),
				"id": last.ID.String(),
			}
		}
	}

	res.Data = events
	return res, nil
}

// parseFeedToken acepta el token recién emitido o el decodificado de la URL.
func parseFeedToken(token interface{}) (time.Time, uuid.UUID, bool) {
	m, ok := token.(map[string]interface{})
	if !ok {
		return time.Time{}, uuid.Nil, false
	}
	s, ok := m["t"].(string)
	if !ok {
		return time.Time{}, uuid.Nil, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, uuid.Nil, false
	}
	idStr, ok := m["id"].(string)
	if !ok {
		return time.Time{}, uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return time.Time{}, uuid.Nil, false
	}
	return t, id, true
}

// LogBatch vuelca un lote de interacciones. ClickHouse rinde mejor con
// inserciones en lotes que fila a fila.
func (r *ArticleEventFetcher) LogBatch(ctx context.Context, events []catalogDomain.ArticleEvent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO article_events (id, article_id, kind, referrer, event_time)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.ID, e.ArticleID, e.Kind, e.Referrer, e.At); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// InitSchema crea la tabla en ClickHouse si no existe.
func (r *ArticleEventFetcher) InitSchema() error {
	// Particionada por mes y ordenada por los campos del paseo keyset.
	query := `
		CREATE TABLE IF NOT EXISTS article_events (
			id          UUID,
			article_id  UUID,
			kind        String,
			referrer    String,
			event_time  DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (event_time, id);
	`
	_, err := r.db.Exec(query)
	return err
}

// Verificación estática de la interfaz.
var _ listingDomain.Fetcher[catalogDomain.ArticleEvent] = (*ArticleEventFetcher)(nil)
