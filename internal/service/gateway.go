package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/promata/reservas-gateway/internal/cache"
	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/query"
	"github.com/promata/reservas-gateway/internal/upstream"
)

// Resource names shared by cache keys, metrics and invalidation events.
const (
	ResourceExperience  = "experience"
	ResourceHighlight   = "highlight"
	ResourceReservation = "reservation"
	ResourceRequest     = "request"
	ResourceUser        = "user"
	ResourceAddress     = "address"
)

// ErrForbidden reports a backend refusal of the caller's credentials.
var ErrForbidden = errors.New("operation not allowed for this user")

// Invalidator drops cached reads after a mutation.
type Invalidator interface {
	Publish(ctx context.Context, resources ...string)
}

type noopInvalidator struct{}

func (noopInvalidator) Publish(context.Context, ...string) {}

func invalidatorOrNoop(inv Invalidator) Invalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

// translate maps backend 404/403 answers to the service's sentinels and leaves other errors
// untouched.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	switch upstream.StatusOf(err) {
	case http.StatusNotFound:
		if notFound != nil {
			return notFound
		}
	case http.StatusForbidden:
		return ErrForbidden
	}
	return err
}

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from free text typed by users before it reaches the backend.
func sanitizeText(value string) string {
	return strings.TrimSpace(textPolicy.Sanitize(value))
}

func sanitizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := sanitizeText(*value)
	return &cleaned
}

// CacheTTL configures how long normalized reads stay cached.
type CacheTTL struct {
	List   time.Duration
	Detail time.Duration
}

// cachedRead returns the cached value under key or loads, caches and returns a fresh one.
func cachedRead[T any](ctx context.Context, qc *cache.QueryCache, resource, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if qc.Get(ctx, resource, key, &cached) {
		return cached, nil
	}

	gen, stamped := qc.Generation(ctx, resource)
	fresh, err := load(ctx)
	if err != nil {
		return fresh, err
	}
	if stamped {
		qc.Set(ctx, resource, key, fresh, ttl, gen)
	}
	return fresh, nil
}

// requestedPosition fills page and limit from the parsed filters when the backend answered
// with a bare array that carries no pagination metadata.
func requestedPosition[T any](page dto.Page[T], payload any, filters query.Values) dto.Page[T] {
	if _, bare := payload.([]any); !bare {
		return page
	}
	if p, ok := filters["page"].(int); ok {
		page.Page = p
	}
	if l, ok := filters["limit"].(int); ok && l > 0 {
		page.Limit = l
	}
	page.TotalPages = dto.TotalPages(page.Total, page.Limit)
	return page
}

// normalizeCategoryFilter accepts portal aliases such as "hospedagem" or "ROOM" and rewrites
// them to the backend category name. Unknown values are left for schema validation.
func normalizeCategoryFilter(filters query.Values) query.Values {
	raw, ok := filters["category"].(string)
	if !ok {
		return filters
	}
	category, known := dto.ParseCategory(raw)
	if !known {
		return filters
	}
	out := make(query.Values, len(filters))
	for k, v := range filters {
		out[k] = v
	}
	out["category"] = category.BackendValue()
	return out
}
