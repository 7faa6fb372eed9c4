package dto

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PaginationMeta describes the position of a page inside a list.
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is the pagination envelope returned by every list endpoint.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Meta returns the page position without the items.
func (p Page[T]) Meta() PaginationMeta {
	return PaginationMeta{Page: p.Page, Limit: p.Limit, Total: p.Total, TotalPages: p.TotalPages}
}

// TotalPages computes ceil(total/limit), zero when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// NewPage builds an envelope with derived TotalPages.
func NewPage[T any](items []T, page, limit, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: page, Limit: limit, Total: total, TotalPages: TotalPages(total, limit)}
}

// DecodePage shapes a backend list payload into a Page. It accepts the
// {items,page,limit,total} envelope, the {data,total,page,limit,totalPages} variant, a
// nested {items,meta:{...}} block or a bare array. Missing metadata defaults to
// page 1, limit 10, total 0. Items that mapItem rejects are skipped.
func DecodePage[T any](payload any, mapItem func(any) (T, bool)) Page[T] {
	items := []T{}
	appendItems := func(list []any) {
		for _, item := range list {
			if mapped, ok := mapItem(item); ok {
				items = append(items, mapped)
			}
		}
	}

	if list, ok := payload.([]any); ok {
		appendItems(list)
		return NewPage(items, DefaultPage, DefaultLimit, len(items))
	}

	raw := rawObject(payload)
	if raw == nil {
		return NewPage(items, DefaultPage, DefaultLimit, 0)
	}
	appendItems(rawList(pick(raw, "items", "data")))

	meta := rawObject(raw["meta"])
	if meta == nil {
		meta = raw
	}

	page := intOr(pick(meta, "page"), DefaultPage)
	limit := intOr(pick(meta, "limit", "pageSize"), DefaultLimit)
	total := intOr(pick(meta, "total", "totalItems"), 0)

	result := NewPage(items, page, limit, total)
	if totalPages := toInt(pick(meta, "totalPages")); totalPages != nil && *totalPages >= 0 {
		result.TotalPages = *totalPages
	}
	return result
}

// MapPage converts the items of a page keeping its metadata.
func MapPage[T, U any](page Page[T], convert func(T) U) Page[U] {
	items := make([]U, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return Page[U]{Items: items, Page: page.Page, Limit: page.Limit, Total: page.Total, TotalPages: page.TotalPages}
}

// ObjectItem adapts an object mapper to DecodePage.
func ObjectItem[T any](mapObject func(Raw) T) func(any) (T, bool) {
	return func(item any) (T, bool) {
		obj := rawObject(item)
		if obj == nil {
			var zero T
			return zero, false
		}
		return mapObject(obj), true
	}
}

func intOr(value any, fallback int) int {
	if n := toInt(value); n != nil {
		return *n
	}
	return fallback
}
