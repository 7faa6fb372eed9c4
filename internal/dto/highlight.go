package dto

import (
	"sort"
	"strings"
)

// HighlightCategory is the slot a highlight is shown in.
type HighlightCategory string

const (
	HighlightCarousel   HighlightCategory = "CAROUSEL"
	HighlightLaboratory HighlightCategory = "LABORATORY"
	HighlightEvent      HighlightCategory = "EVENT"
	HighlightHosting    HighlightCategory = "HOSTING"
	HighlightTrail      HighlightCategory = "TRAIL"
)

// HighlightCategories lists every highlight slot in display order.
var HighlightCategories = []HighlightCategory{
	HighlightCarousel,
	HighlightLaboratory,
	HighlightEvent,
	HighlightHosting,
	HighlightTrail,
}

// ParseHighlightCategory accepts the canonical names case-insensitively.
func ParseHighlightCategory(raw string) (HighlightCategory, bool) {
	candidate := HighlightCategory(strings.ToUpper(strings.TrimSpace(raw)))
	for _, category := range HighlightCategories {
		if category == candidate {
			return category, true
		}
	}
	return "", false
}

// Highlight is a promotional item shown on the portal home.
type Highlight struct {
	ID          string            `json:"id"`
	Category    HighlightCategory `json:"category"`
	ImageURL    string            `json:"imageUrl"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Order       int               `json:"order"`
	Active      *bool             `json:"active"`
	CreatedAt   *string           `json:"createdAt"`
	UpdatedAt   *string           `json:"updatedAt"`
}

// MapHighlight normalizes a backend highlight.
func MapHighlight(raw Raw, resolve func(string) string) Highlight {
	if raw == nil {
		raw = Raw{}
	}
	if resolve == nil {
		resolve = ResolveImageURL
	}
	category, _ := ParseHighlightCategory(toString(raw["category"]))

	return Highlight{
		ID:          toString(raw["id"]),
		Category:    category,
		ImageURL:    resolve(imagePath(pick(raw, "imageUrl", "image"))),
		Title:       toString(raw["title"]),
		Description: toStringPtr(raw["description"]),
		Order:       intOr(raw["order"], 0),
		Active:      toBool(raw["active"]),
		CreatedAt:   toDate(raw["createdAt"]),
		UpdatedAt:   toDate(raw["updatedAt"]),
	}
}

// GroupedHighlights holds highlights keyed by slot.
type GroupedHighlights map[HighlightCategory][]Highlight

// MapGroupedHighlights normalizes the grouped payload. Every known slot is present in the
// result, each sorted by order.
func MapGroupedHighlights(raw Raw, resolve func(string) string) GroupedHighlights {
	grouped := make(GroupedHighlights, len(HighlightCategories))
	for _, category := range HighlightCategories {
		grouped[category] = []Highlight{}
	}
	for key, value := range raw {
		category, ok := ParseHighlightCategory(key)
		if !ok {
			continue
		}
		for _, item := range rawList(value) {
			if obj := rawObject(item); obj != nil {
				h := MapHighlight(obj, resolve)
				if h.Category == "" {
					h.Category = category
				}
				grouped[category] = append(grouped[category], h)
			}
		}
	}
	for category := range grouped {
		sortHighlights(grouped[category])
	}
	return grouped
}

// GroupHighlights buckets a flat list by category.
func GroupHighlights(items []Highlight) GroupedHighlights {
	grouped := make(GroupedHighlights, len(HighlightCategories))
	for _, category := range HighlightCategories {
		grouped[category] = []Highlight{}
	}
	for _, item := range items {
		if item.Category == "" {
			continue
		}
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	for category := range grouped {
		sortHighlights(grouped[category])
	}
	return grouped
}

func sortHighlights(items []Highlight) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
}

// HighlightPayload is the admin create/update form.
type HighlightPayload struct {
	Category    string  `form:"category" json:"category"`
	Title       string  `form:"title" json:"title" validate:"omitempty,max=120"`
	Description *string `form:"description" json:"description" validate:"omitempty,max=1000"`
	Order       *int    `form:"order" json:"order" validate:"omitempty,gte=0"`
}

// BackendFields renders the multipart fields sent to the backend. Absent optional values
// are not sent.
func (p HighlightPayload) BackendFields() map[string][]string {
	fields := map[string][]string{}
	if p.Category != "" {
		fields["category"] = []string{p.Category}
	}
	if p.Title != "" {
		fields["title"] = []string{p.Title}
	}
	if p.Description != nil {
		fields["description"] = []string{*p.Description}
	}
	if p.Order != nil {
		fields["order"] = []string{formatInt(*p.Order)}
	}
	return fields
}
