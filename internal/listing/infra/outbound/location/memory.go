package location

import (
	"context"
	"net/url"
	"sync"

	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
)

// MemoryLocationStore guarda la localización en memoria: hace de barra de
// direcciones en demos, tests y listados embebidos en servidor. SetExternal
// simula una navegación ajena al controlador y dispara el callback OnChange.
type MemoryLocationStore struct {
	mu       sync.RWMutex
	values   url.Values
	history  []url.Values
	onChange func(url.Values)
}

// Verificación estática
var _ listingDomain.LocationStore = (*MemoryLocationStore)(nil)

// NewMemoryLocationStore es el constructor; opcionalmente arranca con una
// localización ya poblada (p.ej. la query string de una petición).
func NewMemoryLocationStore(initial url.Values) *MemoryLocationStore {
	s := &MemoryLocationStore{values: url.Values{}}
	if initial != nil {
		s.values = cloneValues(initial)
	}
	return s
}

func (s *MemoryLocationStore) Current(ctx context.Context) (url.Values, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneValues(s.values), nil
}

func (s *MemoryLocationStore) Navigate(ctx context.Context, mode listingDomain.NavigateMode, params url.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == listingDomain.NavigatePush {
		s.history = append(s.history, cloneValues(s.values))
	}
	s.values = cloneValues(params)
	return nil
}

// SetExternal sustituye la localización como lo haría una navegación externa
// y avisa al callback registrado.
func (s *MemoryLocationStore) SetExternal(params url.Values) {
	s.mu.Lock()
	s.values = cloneValues(params)
	fn := s.onChange
	current := cloneValues(s.values)
	s.mu.Unlock()

	if fn != nil {
		fn(current)
	}
}

// OnChange registra el callback que recibe las navegaciones externas.
func (s *MemoryLocationStore) OnChange(fn func(url.Values)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// History devuelve las localizaciones apiladas por navegaciones push.
func (s *MemoryLocationStore) History() []url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]url.Values, len(s.history))
	for i, v := range s.history {
		out[i] = cloneValues(v)
	}
	return out
}

func cloneValues(in url.Values) url.Values {
	out := url.Values{}
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
