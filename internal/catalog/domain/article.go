package domain

import (
	"errors"
	"fmt"
	"time"

	sharedBus "github.com/davicafu/paginalab/shared/platform/bus"
	"github.com/google/uuid"
)

type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
	ArticleArchived  ArticleStatus = "archived"
)

// Nombres de campo admitidos en filtros y ordenación. Los adaptadores solo
// aceptan estos nombres; cualquier otro se ignora (vienen de la URL).
const (
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldStatus      = "status"
	FieldCategory    = "category"
	FieldScore       = "score"
	FieldPublishedAt = "published_at"
	FieldCreatedAt   = "created_at"
)

var ErrArticleNotFound = errors.New("article not found")

// Article representa una pieza del catálogo editorial.
type Article struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Author      string        `json:"author"`
	Status      ArticleStatus `json:"status"`
	Category    string        `json:"category"`
	Score       float64       `json:"score"`
	PublishedAt time.Time     `json:"published_at"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (a *Article) PartitionKey() string {
	return a.ID.String()
}

// SortableFields son las columnas por las que se puede ordenar.
func SortableFields() map[string]bool {
	return map[string]bool{
		FieldTitle:       true,
		FieldAuthor:      true,
		FieldStatus:      true,
		FieldCategory:    true,
		FieldScore:       true,
		FieldPublishedAt: true,
		FieldCreatedAt:   true,
	}
}

// SeedArticles genera un catálogo determinista para demos y tests.
func SeedArticles(n int) []Article {
	authors := []string{"alice", "bob", "carol", "dave"}
	categories := []string{"go", "infra", "data", "web"}
	statuses := []ArticleStatus{ArticlePublished, ArticleDraft, ArticleArchived}

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	out := make([]Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Article{
			ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i), byte(i >> 8)}),
			Title:       fmt.Sprintf("Notas de %s %02d", categories[i%len(categories)], i),
			Author:      authors[i%len(authors)],
			Status:      statuses[i%len(statuses)],
			Category:    categories[i%len(categories)],
			Score:       float64(i%50) / 10,
			PublishedAt: base.AddDate(0, 0, i),
			CreatedAt:   base.AddDate(0, 0, i).Add(-48 * time.Hour),
		})
	}
	return out
}

// Verificación estática para asegurar que Article implementa la interfaz
var _ sharedBus.Keyer = (*Article)(nil)
