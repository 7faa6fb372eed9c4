package dto

import "strings"

// ExperienceCategory is the canonical category of a bookable experience.
type ExperienceCategory string

const (
	CategoryTrail ExperienceCategory = "TRAIL"
	CategoryRoom  ExperienceCategory = "ROOM"
	CategoryLab   ExperienceCategory = "LAB"
	CategoryEvent ExperienceCategory = "EVENT"
)

// DefaultCategory is used when the backend sends an unknown or missing category.
const DefaultCategory = CategoryEvent

// Categories lists every canonical category.
var Categories = []ExperienceCategory{CategoryTrail, CategoryRoom, CategoryLab, CategoryEvent}

var categoryAliases = map[string]ExperienceCategory{
	"trail":        CategoryTrail,
	"trails":       CategoryTrail,
	"trilha":       CategoryTrail,
	"trilhas":      CategoryTrail,
	"event":        CategoryEvent,
	"events":       CategoryEvent,
	"evento":       CategoryEvent,
	"eventos":      CategoryEvent,
	"room":         CategoryRoom,
	"rooms":        CategoryRoom,
	"hosting":      CategoryRoom,
	"hospedagem":   CategoryRoom,
	"hotel":        CategoryRoom,
	"lab":          CategoryLab,
	"labs":         CategoryLab,
	"laboratory":   CategoryLab,
	"laboratories": CategoryLab,
	"laboratorio":  CategoryLab,
	"laboratorios": CategoryLab,
}

var categoryLabels = map[ExperienceCategory]string{
	CategoryTrail: "Trilha",
	CategoryRoom:  "Hospedagem",
	CategoryLab:   "Laboratório",
	CategoryEvent: "Evento",
}

// ParseCategory maps a raw backend category to its canonical value.
func ParseCategory(raw string) (ExperienceCategory, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	category, ok := categoryAliases[key]
	return category, ok
}

// NormalizeCategory is ParseCategory with the default fallback applied.
func NormalizeCategory(raw string) ExperienceCategory {
	if category, ok := ParseCategory(raw); ok {
		return category
	}
	return DefaultCategory
}

// Valid reports whether c is one of the canonical categories.
func (c ExperienceCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the portuguese display label.
func (c ExperienceCategory) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[DefaultCategory]
}

// BackendValue is the category name the backend expects on writes.
func (c ExperienceCategory) BackendValue() string {
	if c == CategoryRoom {
		return "HOSTING"
	}
	return string(c)
}
