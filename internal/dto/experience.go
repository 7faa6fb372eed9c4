package dto

import (
	"strings"
	"unicode"
)

// ExperienceImage references the resolved image of an experience.
type ExperienceImage struct {
	URL string `json:"url"`
}

// Experience is the normalized view of a backend experience.
type Experience struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     *string            `json:"description"`
	Category        ExperienceCategory `json:"category"`
	Capacity        *int               `json:"capacity"`
	StartDate       *string            `json:"startDate"`
	EndDate         *string            `json:"endDate"`
	Price           *float64           `json:"price"`
	WeekDays        []string           `json:"weekDays"`
	DurationMinutes *int               `json:"durationMinutes"`
	TrailDifficulty *string            `json:"trailDifficulty"`
	TrailLength     *float64           `json:"trailLength"`
	Image           *ExperienceImage   `json:"image"`
	ImageID         *string            `json:"imageId"`
	Active          *bool              `json:"active"`
}

// UnknownExperienceID is assigned when the payload carries neither id nor name.
const UnknownExperienceID = "unknown"

// MapExperience normalizes a backend experience payload using ResolveImageURL.
func MapExperience(raw Raw) Experience {
	return MapExperienceWith(raw, ResolveImageURL)
}

// MapExperienceWith normalizes a backend experience payload. Un-prefixed fields take
// precedence over the legacy experience-prefixed ones. It never panics: malformed
// numbers and dates become nil.
func MapExperienceWith(raw Raw, resolve func(string) string) Experience {
	if raw == nil {
		raw = Raw{}
	}
	if resolve == nil {
		resolve = ResolveImageURL
	}

	name := toString(pick(raw, "name", "experienceName"))
	category := NormalizeCategory(toString(pick(raw, "category", "experienceCategory")))

	exp := Experience{
		ID:              toString(pick(raw, "id", "experienceId")),
		Name:            name,
		Description:     toStringPtr(pick(raw, "description", "experienceDescription")),
		Category:        category,
		Capacity:        toInt(pick(raw, "capacity", "experienceCapacity")),
		StartDate:       toDate(pick(raw, "startDate", "experienceStartDate")),
		EndDate:         toDate(pick(raw, "endDate", "experienceEndDate")),
		Price:           toFloat(pick(raw, "price", "experiencePrice")),
		WeekDays:        toStrings(pick(raw, "weekDays", "experienceWeekDays")),
		DurationMinutes: toInt(pick(raw, "durationMinutes", "trailDurationMinutes")),
		TrailDifficulty: toStringPtr(pick(raw, "trailDifficulty")),
		TrailLength:     toFloat(pick(raw, "trailLength")),
		Active:          toBool(pick(raw, "active", "experienceActive")),
	}

	if strings.TrimSpace(exp.ID) == "" {
		exp.ID = synthesizeExperienceID(name, category)
	}

	image := pick(raw, "image", "experienceImage")
	if path := imagePath(image); path != "" {
		exp.Image = &ExperienceImage{URL: resolve(path)}
	}
	if obj := rawObject(image); obj != nil {
		exp.ImageID = toStringPtr(obj["id"])
	}
	if id := toStringPtr(pick(raw, "imageId", "experienceImageId")); id != nil {
		exp.ImageID = id
	}

	return exp
}

// MapExperiences maps a list payload, skipping entries that are not objects.
func MapExperiences(items []any, resolve func(string) string) []Experience {
	out := make([]Experience, 0, len(items))
	for _, item := range items {
		obj := rawObject(item)
		if obj == nil {
			continue
		}
		out = append(out, MapExperienceWith(obj, resolve))
	}
	return out
}

func imagePath(image any) string {
	switch v := image.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if url, ok := v["url"].(string); ok {
			return strings.TrimSpace(url)
		}
	}
	return ""
}

func synthesizeExperienceID(name string, category ExperienceCategory) string {
	slug := slugify(name)
	if slug == "" {
		return UnknownExperienceID
	}
	return slug + "-" + strings.ToLower(string(category))
}

func slugify(value string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NoDateRangeLabel is shown in admin listings when an experience has no date window.
const NoDateRangeLabel = "Sem intervalo de data"

// DateRangeLabel renders the date window as dd/MM-dd/MM.
func (e Experience) DateRangeLabel() string {
	if e.StartDate == nil || e.EndDate == nil {
		return NoDateRangeLabel
	}
	start, okStart := parseDate(*e.StartDate)
	end, okEnd := parseDate(*e.EndDate)
	if !okStart || !okEnd {
		return NoDateRangeLabel
	}
	return start.Format("02/01") + "-" + end.Format("02/01")
}

// AdminExperience is the row shape of the admin experience listing.
type AdminExperience struct {
	Experience
	CategoryLabel string `json:"categoryLabel"`
	DateLabel     string `json:"dateLabel"`
}

// ToAdmin decorates an experience with admin listing labels.
func (e Experience) ToAdmin() AdminExperience {
	return AdminExperience{
		Experience:    e,
		CategoryLabel: e.Category.Label(),
		DateLabel:     e.DateRangeLabel(),
	}
}

// ExperiencePayload is accepted by the admin create/update endpoints and forwarded to the
// backend using its experience-prefixed field names.
type ExperiencePayload struct {
	Name            string   `json:"name" form:"name" validate:"required,max=150"`
	Description     string   `json:"description" form:"description" validate:"max=5000"`
	Category        string   `json:"category" form:"category" validate:"required"`
	Capacity        int      `json:"capacity" form:"capacity" validate:"gte=0"`
	StartDate       string   `json:"startDate" form:"startDate"`
	EndDate         string   `json:"endDate" form:"endDate"`
	Price           *float64 `json:"price" form:"price" validate:"omitempty,gte=0"`
	WeekDays        []string `json:"weekDays" form:"weekDays"`
	DurationMinutes *int     `json:"durationMinutes" form:"durationMinutes" validate:"omitempty,gte=0"`
	TrailDifficulty string   `json:"trailDifficulty" form:"trailDifficulty"`
	TrailLength     string   `json:"trailLength" form:"trailLength"`
}

// BackendFields renders the payload as the backend's multipart fields.
func (p ExperiencePayload) BackendFields() map[string][]string {
	fields := map[string][]string{
		"experienceName":        {p.Name},
		"experienceDescription": {p.Description},
		"experienceCategory":    {NormalizeCategory(p.Category).BackendValue()},
		"experienceCapacity":    {formatInt(p.Capacity)},
	}
	if p.StartDate != "" {
		fields["experienceStartDate"] = []string{p.StartDate}
	}
	if p.EndDate != "" {
		fields["experienceEndDate"] = []string{p.EndDate}
	}
	if p.Price != nil {
		fields["experiencePrice"] = []string{formatFloat(*p.Price)}
	}
	if len(p.WeekDays) > 0 {
		fields["experienceWeekDays"] = append([]string{}, p.WeekDays...)
	}
	if p.DurationMinutes != nil {
		fields["trailDurationMinutes"] = []string{formatInt(*p.DurationMinutes)}
	}
	if p.TrailDifficulty != "" {
		fields["trailDifficulty"] = []string{p.TrailDifficulty}
	}
	if p.TrailLength != "" {
		fields["trailLength"] = []string{p.TrailLength}
	}
	return fields
}
