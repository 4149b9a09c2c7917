package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	// --- Importaciones del dominio y compartidas ---
	catalogDomain "github.com/davicafu/paginalab/internal/catalog/domain"
	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedDomain "github.com/davicafu/paginalab/shared/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ArticleFetcherMongo implementa el puerto Fetcher para MongoDB.
type ArticleFetcherMongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewArticleFetcherMongo es el constructor.
func NewArticleFetcherMongo(ctx context.Context, client *mongo.Client, dbName string) (*ArticleFetcherMongo, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	return &ArticleFetcherMongo{
		client: client,
		coll:   client.Database(dbName).Collection("articles"),
	}, nil
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.
// Los nombres de campo BSON siguen el vocabulario de filtros del dominio.

type mongoArticle struct {
	ID          uuid.UUID                   `bson:"_id"`
	Title       string                      `bson:"title"`
	Author      string                      `bson:"author"`
	Status      catalogDomain.ArticleStatus `bson:"status"`
	Category    string                      `bson:"category"`
	Score       float64                     `bson:"score"`
	PublishedAt time.Time                   `bson:"published_at"`
	CreatedAt   time.Time                   `bson:"created_at"`
}

func toMongoArticle(a catalogDomain.Article) mongoArticle {
	return mongoArticle{
		ID: a.ID, Title: a.Title, Author: a.Author, Status: a.Status,
		Category: a.Category, Score: a.Score, PublishedAt: a.PublishedAt, CreatedAt: a.CreatedAt,
	}
}

func fromMongoArticle(ma mongoArticle) catalogDomain.Article {
	return catalogDomain.Article{
		ID: ma.ID, Title: ma.Title, Author: ma.Author, Status: ma.Status,
		Category: ma.Category, Score: ma.Score, PublishedAt: ma.PublishedAt, CreatedAt: ma.CreatedAt,
	}
}

// --- Traducción de criterios ---

// filtersToMongo mapea los operadores genéricos a operadores de MongoDB.
// Campos fuera de la lista blanca se ignoran.
func filtersToMongo(filters []sharedDomain.Filter) bson.D {
	sortable := catalogDomain.SortableFields()
	out := bson.D{}

	for _, f := range filters {
		if !sortable[f.Field] {
			continue
		}
		switch f.Op {
		case sharedDomain.OpEq:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$eq": f.Value}})
		case sharedDomain.OpNe:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$ne": f.Value}})
		case sharedDomain.OpLt:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$lt": f.Value}})
		case sharedDomain.OpLte:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$lte": f.Value}})
		case sharedDomain.OpGt:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$gt": f.Value}})
		case sharedDomain.OpGte:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$gte": f.Value}})
		case sharedDomain.OpContains:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$regex": quote(f.Value), "$options": "i"}})
		case sharedDomain.OpNContains:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$not": bson.M{"$regex": quote(f.Value), "$options": "i"}}})
		case sharedDomain.OpStartsWith:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$regex": "^" + quote(f.Value), "$options": "i"}})
		case sharedDomain.OpEndsWith:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$regex": quote(f.Value) + "$", "$options": "i"}})
		case sharedDomain.OpIn:
			if vals, ok := f.Value.([]interface{}); ok && len(vals) > 0 {
				out = append(out, bson.E{Key: f.Field, Value: bson.M{"$in": vals}})
			}
		case sharedDomain.OpNin:
			if vals, ok := f.Value.([]interface{}); ok && len(vals) > 0 {
				out = append(out, bson.E{Key: f.Field, Value: bson.M{"$nin": vals}})
			}
		case sharedDomain.OpNull:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$eq": nil}})
		case sharedDomain.OpNNull:
			out = append(out, bson.E{Key: f.Field, Value: bson.M{"$ne": nil}})
		}
	}
	return out
}

func quote(v interface{}) string {
	return regexp.QuoteMeta(fmt.Sprintf("%v", v))
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

func sortersToMongo(sorters []sharedDomain.Sorter) bson.D {
	sortable := catalogDomain.SortableFields()
	out := bson.D{}
	for _, s := range sorters {
		if !sortable[s.Field] {
			continue
		}
		dir := 1
		if s.Order == sharedDomain.OrderDesc {
			dir = -1
		}
		out = append(out, bson.E{Key: s.Field, Value: dir})
	}
	if len(out) == 0 {
		out = append(out, bson.E{Key: catalogDomain.FieldCreatedAt, Value: -1})
	}
	// _id como desempate para un orden total
	out = append(out, bson.E{Key: "_id", Value: 1})
	return out
}

// --- FetchList ---

func (r *ArticleFetcherMongo) FetchList(ctx context.Context, q listingDomain.Query) (listingDomain.Result[catalogDomain.Article], error) {
	filter := filtersToMongo(q.Filters)

	if q.Pagination.Mode.Enabled() && q.Pagination.Variant == sharedQuery.VariantCursor {
		return r.fetchCursor(ctx, q, filter)
	}
	return r.fetchOffset(ctx, q, filter)
}

func (r *ArticleFetcherMongo) fetchOffset(ctx context.Context, q listingDomain.Query, filter bson.D) (listingDomain.Result[catalogDomain.Article], error) {
	var res listingDomain.Result[catalogDomain.Article]

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count articles: %w", err)
	}

	opts := options.Find().SetSort(sortersToMongo(q.Sorters))
	if q.Pagination.Mode.Enabled() {
		page := q.Pagination.CurrentPage
		if page < 1 {
			page = 1
		}
		size := q.Pagination.PageSize
		if size < 1 {
			size = sharedQuery.DefaultPageSize
		}
		opts.SetSkip(int64((page - 1) * size))
		opts.SetLimit(int64(size))
	}

	articles, err := r.find(ctx, filter, opts)
	if err != nil {
		return res, err
	}

	res.Data = articles
	res.Total = total
	return res, nil
}

func (r *ArticleFetcherMongo) fetchCursor(ctx context.Context, q listingDomain.Query, filter bson.D) (listingDomain.Result[catalogDomain.Article], error) {
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
		if v, id, ok := parseArticleToken(q.Cursor.Token, col); ok {
			op := "$gt"
			if !scanAsc {
				op = "$lt"
			}
			filter = append(filter, bson.E{Key: "$or", Value: bson.A{
				bson.M{col: bson.M{op: v}},
				bson.M{col: v, "_id": bson.M{op: id}},
			}})
			anchored = true
		}
	}

	dir := 1
	if !scanAsc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: col, Value: dir}, {Key: "_id", Value: dir}}).
		SetLimit(int64(size + 1))

	articles, err := r.find(ctx, filter, opts)
	if err != nil {
		return res, err
	}

	more := len(articles) > size
	if more {
		articles = articles[:size]
	}
	if backward {
		for i, j := 0, len(articles)-1; i < j; i, j = i+1, j-1 {
			articles[i], articles[j] = articles[j], articles[i]
		}
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

func (r *ArticleFetcherMongo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]catalogDomain.Article, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var articles []catalogDomain.Article
	for cursor.Next(ctx) {
		var ma mongoArticle
		if err := cursor.Decode(&ma); err != nil {
			return nil, err
		}
		articles = append(articles, fromMongoArticle(ma))
	}
	return articles, cursor.Err()
}

// --- Tokens de cursor ---

// articleToken ancla la fila en tipos aptos para JSON; parseArticleToken
// deshace la conversión (las fechas vuelven a time.Time y el id a UUID,
// porque BSON no compara tipos distintos entre sí).
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

func parseArticleToken(token interface{}, col string) (interface{}, uuid.UUID, bool) {
	m, ok := token.(map[string]interface{})
	if !ok {
		return nil, uuid.Nil, false
	}
	idStr, ok := m["id"].(string)
	if !ok {
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, uuid.Nil, false
	}
	v, ok := m["v"]
	if !ok {
		return nil, uuid.Nil, false
	}

	switch col {
	case catalogDomain.FieldPublishedAt, catalogDomain.FieldCreatedAt:
		s, ok := v.(string)
		if !ok {
			return nil, uuid.Nil, false
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, uuid.Nil, false
		}
		return t, id, true
	}
	return v, id, true
}

// --- Seed ---

// SeedMongo deja el catálogo de demo en la colección (upsert por id).
func SeedMongo(ctx context.Context, fetcher *ArticleFetcherMongo, articles []catalogDomain.Article) error {
	for _, a := range articles {
		ma := toMongoArticle(a)
		_, err := fetcher.coll.ReplaceOne(ctx, bson.M{"_id": ma.ID}, ma, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("failed to seed article %s: %w", a.ID, err)
		}
	}
	return nil
}

// Verificación estática de la interfaz.
var _ listingDomain.Fetcher[catalogDomain.Article] = (*ArticleFetcherMongo)(nil)
