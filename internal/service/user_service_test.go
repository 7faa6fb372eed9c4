package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promata/reservas-gateway/internal/query"
)

func TestUserServiceListAdminReadsMetaEnvelope(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodGet, "/user?limit=20&page=3&userType=PROFESSOR", http.StatusOK, `{
		"items": [{"id":"u1","name":"Prof","email":"p@promata.test","cpf":"12345678900","userType":"PROFESSOR","active":"true","createdAt":"2024-12-01T10:00:00Z"}],
		"meta": {"page": 3, "limit": 20, "total": 41}
	}`)
	qc, _ := newTestQueryCache(t)
	svc := NewUserService(backend.client(t), qc, CacheTTL{List: time.Minute}, testLogger())

	page, err := svc.ListAdmin(withToken("admin"), query.Values{"page": 3, "limit": 20, "userType": "PROFESSOR"})
	require.NoError(t, err)
	require.Equal(t, 3, page.Page)
	require.Equal(t, 20, page.Limit)
	require.Equal(t, 41, page.Total)
	require.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 1)

	user := page.Items[0]
	require.Equal(t, "12345678900", *user.Document)
	require.Equal(t, "PROFESSOR", user.UserType)
	require.True(t, *user.Active)

	_, err = svc.ListAdmin(withToken("admin"), query.Values{"page": 3, "limit": 20, "userType": "PROFESSOR"})
	require.NoError(t, err)
	require.Equal(t, 1, backend.callCount(http.MethodGet, "/user?limit=20&page=3&userType=PROFESSOR"))

	_, err = svc.ListAdmin(withToken("admin"), query.Values{"userType": "ALIEN"})
	require.Error(t, err)
}

func TestUserServiceCurrent(t *testing.T) {
	svc := NewUserService(nil, nil, CacheTTL{}, testLogger())

	user, err := svc.Current(context.Background(), Identity{ID: " 42 ", Name: "Ana", Roles: []string{"admin", " ", "professor"}})
	require.NoError(t, err)
	require.Equal(t, "42", user.ID)
	require.Equal(t, []string{"ADMIN", "PROFESSOR"}, user.Roles)
	require.True(t, user.IsAdmin())

	_, err = svc.Current(context.Background(), Identity{})
	require.ErrorIs(t, err, ErrUnauthenticated)
}
