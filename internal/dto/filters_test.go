package dto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promata/reservas-gateway/internal/query"
)

func TestApiDefaultFiltersApplyDefaults(t *testing.T) {
	out, err := query.SafeParseFilters(query.Values{}, ApiDefaultFilters)

	require.NoError(t, err)
	require.Equal(t, "?limit=10&page=1", out)
}

func TestExperienceSearchFiltersZeroBasedPage(t *testing.T) {
	out, err := query.SafeParseFilters(query.Values{"name": "trilha", "sort": "price", "dir": "desc"}, ExperienceSearchFilters)

	require.NoError(t, err)
	require.Equal(t, "?dir=desc&limit=12&name=trilha&page=0&sort=price", out)

	_, err = query.SafeParseFilters(query.Values{"sort": "popularity"}, ExperienceSearchFilters)
	require.Error(t, err)
}

func TestRequestsAdminFiltersRepeatStatus(t *testing.T) {
	out, err := query.SafeParseFilters(query.Values{
		"page":   2,
		"limit":  nil,
		"status": []string{"CREATED", "PAYMENT_SENT"},
	}, RequestsAdminFilters)

	require.NoError(t, err)
	require.Equal(t, "?limit=10&page=2&status=CREATED&status=PAYMENT_SENT", out)

	_, err = query.SafeParseFilters(query.Values{"status": []string{"DONE"}}, RequestsAdminFilters)
	require.Error(t, err)
}

func TestMyReservationsFiltersAcceptAll(t *testing.T) {
	out, err := query.SafeParseFilters(query.Values{"status": "all"}, MyReservationsFilters)
	require.NoError(t, err)
	require.Contains(t, out, "status=all")

	out, err = query.SafeParseFilters(query.Values{"status": "pagamento_pendente"}, MyReservationsFilters)
	require.NoError(t, err)
	require.Contains(t, out, "status=pagamento_pendente")

	_, err = query.SafeParseFilters(query.Values{"status": "PENDING"}, MyReservationsFilters)
	require.Error(t, err)
}

func TestHighlightFiltersHaveNoDefaults(t *testing.T) {
	out, err := query.SafeParseFilters(query.Values{"category": nil}, HighlightFilters)
	require.NoError(t, err)
	require.Equal(t, "", out)

	out, err = query.SafeParseFilters(query.Values{"category": "TRAIL", "page": 0}, HighlightFilters)
	require.NoError(t, err)
	require.Equal(t, "?category=TRAIL&page=0", out)
}

func TestExperienceAdminFiltersInheritDefaults(t *testing.T) {
	_, ok := ExperienceAdminFilters.Field("page")
	require.True(t, ok)

	out, err := query.SafeParseFilters(query.Values{"status": "ACTIVE"}, ExperienceAdminFilters)
	require.NoError(t, err)
	require.Equal(t, "?limit=10&page=1&status=ACTIVE", out)
}

func TestGroupStatusQueryDefaultsToAll(t *testing.T) {
	require.Equal(t, "?status=ALL", query.MustSafeParseFilters(nil, GroupStatusQuery))
	require.Equal(t, "?status=PENDING", query.MustSafeParseFilters(query.Values{"status": string(GroupFilterPending)}, GroupStatusQuery))

	_, err := query.SafeParseFilters(query.Values{"status": "pending"}, GroupStatusQuery)
	require.Error(t, err)
}
