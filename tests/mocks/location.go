package mocks

import (
	"context"
	"net/url"
	"sync"

	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
)

// FailingLocationStore simula una localización que falla a demanda; para el
// camino feliz está el MemoryLocationStore real.
type FailingLocationStore struct {
	mu     sync.Mutex
	values url.Values

	CurrentErr  error
	NavigateErr error
	Navigations int
}

// Verificación estática
var _ listingDomain.LocationStore = (*FailingLocationStore)(nil)

func NewFailingLocationStore() *FailingLocationStore {
	return &FailingLocationStore{values: url.Values{}}
}

func (s *FailingLocationStore) Current(ctx context.Context) (url.Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CurrentErr != nil {
		return nil, s.CurrentErr
	}
	out := url.Values{}
	for k, v := range s.values {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

func (s *FailingLocationStore) Navigate(ctx context.Context, mode listingDomain.NavigateMode, params url.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Navigations++
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.values = params
	return nil
}
