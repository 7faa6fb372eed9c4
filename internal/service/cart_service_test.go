package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/promata/reservas-gateway/internal/models"
	"github.com/promata/reservas-gateway/internal/repository"
)

func newTestCartService(t *testing.T, backend *fakeBackend) CartService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CartItem{}))

	experiences, _ := newTestExperienceService(t, backend)
	return NewCartService(repository.NewCartRepository(db), experiences, testLogger())
}

func TestCartServiceAddReplacesInPlace(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodGet, "/experience/t1", http.StatusOK, `{"id":"t1","name":"Trilha","category":"TRAIL"}`)
	backend.on(http.MethodGet, "/experience/l1", http.StatusOK, `{"id":"l1","name":"Lab","category":"LAB"}`)
	svc := newTestCartService(t, backend)
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "t1")
	require.NoError(t, err)
	cart, err := svc.Add(ctx, "u1", "l1")
	require.NoError(t, err)
	require.Equal(t, 2, cart.Count)

	cart, err = svc.Add(ctx, "u1", " t1 ")
	require.NoError(t, err)
	require.Equal(t, 2, cart.Count)
	require.Equal(t, "t1", cart.Items[0].ID)
	require.Equal(t, "l1", cart.Items[1].ID)

	other, err := svc.Get(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, other.Items)
	require.NotNil(t, other.Items)
}

func TestCartServiceAddUnknownExperience(t *testing.T) {
	backend := newFakeBackend(t)
	svc := newTestCartService(t, backend)

	_, err := svc.Add(context.Background(), "u1", "ghost")
	require.ErrorIs(t, err, ErrExperienceNotFound)

	_, err = svc.Add(context.Background(), "u1", "  ")
	require.ErrorIs(t, err, ErrCartItemInvalid)
}

func TestCartServiceRemoveAndClear(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodGet, "/experience/t1", http.StatusOK, `{"id":"t1","name":"Trilha","category":"TRAIL"}`)
	backend.on(http.MethodGet, "/experience/l1", http.StatusOK, `{"id":"l1","name":"Lab","category":"LAB"}`)
	svc := newTestCartService(t, backend)
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "t1")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "l1")
	require.NoError(t, err)

	cart, err := svc.Remove(ctx, "u1", "t1")
	require.NoError(t, err)
	require.Equal(t, 1, cart.Count)
	require.Equal(t, "l1", cart.Items[0].ID)

	cart, err = svc.Remove(ctx, "u1", "missing")
	require.NoError(t, err)
	require.Equal(t, 1, cart.Count)

	cart, err = svc.Clear(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, cart.Count)
}

func TestCartServiceOpenFlagIsPerUser(t *testing.T) {
	backend := newFakeBackend(t)
	svc := newTestCartService(t, backend)
	ctx := context.Background()

	cart, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, cart.IsOpen)

	cart, err = svc.Toggle(ctx, "u1")
	require.NoError(t, err)
	require.True(t, cart.IsOpen)

	other, err := svc.Get(ctx, "u2")
	require.NoError(t, err)
	require.False(t, other.IsOpen)

	cart, err = svc.Open(ctx, "u1")
	require.NoError(t, err)
	require.True(t, cart.IsOpen)

	cart, err = svc.Close(ctx, "u1")
	require.NoError(t, err)
	require.False(t, cart.IsOpen)

	cart, err = svc.Toggle(ctx, "u1")
	require.NoError(t, err)
	require.True(t, cart.IsOpen)
}
