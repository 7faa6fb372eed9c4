package service

import (
	"strings"
	"time"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/query"
)

// filterReservations applies the my-reservations filters the backend does not support.
func filterReservations(groups []dto.ReservationGroup, filters query.Values) []dto.ReservationGroup {
	search, _ := filters["search"].(string)
	search = strings.ToLower(strings.TrimSpace(search))
	status, _ := filters["status"].(string)
	from, hasFrom := filterDay(filters["startDate"])
	to, hasTo := filterDay(filters["endDate"])

	out := make([]dto.ReservationGroup, 0, len(groups))
	for _, group := range groups {
		if status != "" && status != "all" && string(group.ReservationStatus) != status {
			continue
		}
		if search != "" && !groupMatches(group, search) {
			continue
		}
		if hasFrom {
			start, ok := groupDay(group.StartDate)
			if !ok || start.Before(from) {
				continue
			}
		}
		if hasTo {
			end, ok := groupDay(group.EndDate)
			if !ok || end.After(to) {
				continue
			}
		}
		out = append(out, group)
	}
	return out
}

func groupMatches(group dto.ReservationGroup, search string) bool {
	if group.Notes != nil && strings.Contains(strings.ToLower(*group.Notes), search) {
		return true
	}
	for _, reservation := range group.Reservations {
		if strings.Contains(strings.ToLower(reservation.Experience.Name), search) {
			return true
		}
	}
	return false
}

var dayLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDay(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func filterDay(value any) (time.Time, bool) {
	s, ok := value.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	return parseDay(s)
}

func groupDay(value *string) (time.Time, bool) {
	if value == nil {
		return time.Time{}, false
	}
	return parseDay(*value)
}

// paginate slices items into a one-based page. Non-positive inputs fall back to the
// default pagination.
func paginate[T any](items []T, page, limit int) dto.Page[T] {
	if page < 1 {
		page = dto.DefaultPage
	}
	if limit < 1 {
		limit = dto.DefaultLimit
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return dto.NewPage([]T{}, page, limit, len(items))
	}
	end := min(start+limit, len(items))
	return dto.NewPage(items[start:end], page, limit, len(items))
}
