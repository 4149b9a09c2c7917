package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	sharedQuery "github.com/davicafu/paginalab/shared/platform/query"
	sharedUtils "github.com/davicafu/paginalab/shared/utils"
)

const (
	defaultTimeout = 10 * time.Second
	retryAttempts  = 3
	retryBaseDelay = 200 * time.Millisecond
)

// RestFetcher resuelve listados contra una API HTTP remota. Entiende dos
// formas de respuesta: el sobre {data, meta} que emiten nuestros propios
// handlers y el array JSON pelado con cabecera X-Total-Count que usan muchas
// APIs de terceros.
type RestFetcher[T any] struct {
	base   *url.URL
	client *http.Client
	log    *zap.Logger
}

// pageEnvelope es el sobre {data, meta} del lado servidor.
type pageEnvelope[T any] struct {
	Data []T          `json:"data"`
	Meta envelopeMeta `json:"meta"`
}

type envelopeMeta struct {
	Total int64  `json:"total"`
	Next  string `json:"next"`
	Prev  string `json:"prev"`
}

// NewRestFetcher es el constructor. baseURL incluye el path del recurso
// (p. ej. https://api.example.com/api/v1/articles).
func NewRestFetcher[T any](baseURL string, client *http.Client, log *zap.Logger) (*RestFetcher[T], error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RestFetcher[T]{base: base, client: client, log: log}, nil
}

func (f *RestFetcher[T]) FetchList(ctx context.Context, q listingDomain.Query) (listingDomain.Result[T], error) {
	endpoint := *f.base
	endpoint.RawQuery = buildQuery(q).Encode()

	var (
		res      listingDomain.Result[T]
		terminal error
	)
	err := sharedUtils.Retry(ctx, retryAttempts, retryBaseDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			terminal = err
			return nil
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("list %q: %s", q.Resource, resp.Status)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			// Un 4xx es determinista: repetir la petición no cambia la respuesta.
			terminal = fmt.Errorf("list %q: %s", q.Resource, resp.Status)
			return nil
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading list response: %w", err)
		}
		page, err := decodePage[T](body, resp.Header)
		if err != nil {
			terminal = err
			return nil
		}
		res = page
		return nil
	})
	if err != nil {
		f.log.Warn("Remote list failed", zap.String("resource", q.Resource), zap.Error(err))
		return listingDomain.Result[T]{}, err
	}
	if terminal != nil {
		f.log.Warn("Remote list rejected", zap.String("resource", q.Resource), zap.Error(terminal))
		return listingDomain.Result[T]{}, terminal
	}
	return res, nil
}

// buildQuery proyecta la consulta al mismo formato de query string que
// consume el handler HTTP, de modo que fetcher y servidor hablan el mismo
// dialecto.
func buildQuery(q listingDomain.Query) url.Values {
	values := url.Values{}

	if q.Pagination.Mode.Enabled() {
		switch q.Pagination.Variant {
		case sharedQuery.VariantCursor:
			if q.Cursor != nil && q.Cursor.Token != nil {
				token := sharedQuery.EncodeCursor(q.Cursor.Token)
				if q.Cursor.Direction == sharedQuery.DirectionBefore {
					values.Set(sharedQuery.KeyBefore, token)
				} else {
					values.Set(sharedQuery.KeyAfter, token)
				}
			}
		default:
			if q.Pagination.CurrentPage > 0 {
				values.Set(sharedQuery.KeyCurrentPage, strconv.Itoa(q.Pagination.CurrentPage))
			}
		}
		if q.Pagination.PageSize > 0 {
			values.Set(sharedQuery.KeyPageSize, strconv.Itoa(q.Pagination.PageSize))
		}
	}

	if len(q.Filters) > 0 {
		if raw, err := json.Marshal(q.Filters); err == nil {
			values.Set(sharedQuery.KeyFilters, string(raw))
		}
	}
	if len(q.Sorters) > 0 {
		if raw, err := json.Marshal(q.Sorters); err == nil {
			values.Set(sharedQuery.KeySorters, string(raw))
		}
	}

	// Las claves string de Meta viajan como parámetros extra (api keys,
	// flags de tenant...). El resto de valores no tiene representación.
	for k, v := range q.Meta {
		if s, ok := v.(string); ok && s != "" {
			values.Set(k, s)
		}
	}
	return values
}

// decodePage distingue sobre y array pelado mirando el primer byte útil.
func decodePage[T any](body []byte, header http.Header) (listingDomain.Result[T], error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []T
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return listingDomain.Result[T]{}, fmt.Errorf("decoding list response: %w", err)
		}
		res := listingDomain.Result[T]{Data: rows}
		if raw := strings.TrimSpace(header.Get("X-Total-Count")); raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= 0 {
				res.Total = n
			}
		}
		return res, nil
	}

	var env pageEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return listingDomain.Result[T]{}, fmt.Errorf("decoding list envelope: %w", err)
	}
	res := listingDomain.Result[T]{Data: env.Data, Total: env.Meta.Total}
	if env.Meta.Next != "" || env.Meta.Prev != "" {
		res.Cursor = &listingDomain.PageCursor{
			Next: sharedQuery.DecodeCursor(env.Meta.Next),
			Prev: sharedQuery.DecodeCursor(env.Meta.Prev),
		}
	}
	return res, nil
}

// Verificación estática de la interfaz.
var _ listingDomain.Fetcher[int] = (*RestFetcher[int])(nil)
