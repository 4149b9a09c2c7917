package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de interacción registrados en la analítica del catálogo.
const (
	EventView  = "view"
	EventShare = "share"
	EventLike  = "like"
)

// ArticleEvent es una interacción con un artículo, tal como se vuelca al
// almacén analítico. El feed se recorre solo hacia adelante.
type ArticleEvent struct {
	ID        uuid.UUID `json:"id"`
	ArticleID uuid.UUID `json:"article_id"`
	Kind      string    `json:"kind"`
	Referrer  string    `json:"referrer"`
	At        time.Time `json:"at"`
}

// SeedArticleEvents genera interacciones deterministas para demos y tests.
func SeedArticleEvents(articles []Article, perArticle int) []ArticleEvent {
	kinds := []string{EventView, EventView, EventShare, EventLike}
	referrers := []string{"newsletter", "search", "social", ""}

	var out []ArticleEvent
	for i, a := range articles {
		for j := 0; j < perArticle; j++ {
			n := i*perArticle + j
			out = append(out, ArticleEvent{
				ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte{byte(n), byte(n >> 8), 0x7e}),
				ArticleID: a.ID,
				Kind:      kinds[n%len(kinds)],
				Referrer:  referrers[n%len(referrers)],
				At:        a.PublishedAt.Add(time.Duration(j+1) * time.Hour),
			})
		}
	}
	return out
}
