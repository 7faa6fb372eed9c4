package handler_test

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/handler"
	"github.com/promata/reservas-gateway/internal/query"
	"github.com/promata/reservas-gateway/internal/service"
)

type mockHighlightService struct {
	grouped     dto.GroupedHighlights
	highlight   dto.Highlight
	lastPayload dto.HighlightPayload
	lastImage   *multipart.FileHeader
	deleted     string
	err         error
}

func (m *mockHighlightService) List(context.Context, query.Values) (dto.Page[dto.Highlight], error) {
	return dto.Page[dto.Highlight]{}, m.err
}

func (m *mockHighlightService) Get(context.Context, string) (dto.Highlight, error) {
	return m.highlight, m.err
}

func (m *mockHighlightService) Grouped(context.Context) (dto.GroupedHighlights, error) {
	return m.grouped, m.err
}

func (m *mockHighlightService) PublicGrouped(context.Context) (dto.GroupedHighlights, error) {
	return m.grouped, m.err
}

func (m *mockHighlightService) Create(_ context.Context, payload dto.HighlightPayload, image *multipart.FileHeader) (dto.Highlight, error) {
	m.lastPayload = payload
	m.lastImage = image
	return m.highlight, m.err
}

func (m *mockHighlightService) Update(_ context.Context, _ string, payload dto.HighlightPayload, image *multipart.FileHeader) (dto.Highlight, error) {
	m.lastPayload = payload
	m.lastImage = image
	return m.highlight, m.err
}

func (m *mockHighlightService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

func newHighlightApp(svc service.HighlightService) *fiber.App {
	app := fiber.New()
	h := handler.NewHighlightHandler(svc, zerolog.New(io.Discard))
	h.Register(app.Group("/highlights"))
	h.RegisterAdmin(app.Group("/admin/highlights", authenticated("admin-1", "token", "admin")))
	return app
}

func TestHighlightHandler_PublicGrouped(t *testing.T) {
	grouped := dto.GroupedHighlights{}
	for _, category := range dto.HighlightCategories {
		grouped[category] = []dto.Highlight{}
	}
	grouped[dto.HighlightCategories[0]] = []dto.Highlight{{ID: "h-1", Title: "Mata", Order: 1}}
	app := newHighlightApp(&mockHighlightService{grouped: grouped})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/highlights/public/grouped", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[map[string][]dto.Highlight]
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, len(dto.HighlightCategories))
	require.Equal(t, "h-1", body.Data[string(dto.HighlightCategories[0])][0].ID)
}

func TestHighlightHandler_CreateWithImage(t *testing.T) {
	svc := &mockHighlightService{highlight: dto.Highlight{ID: "h-2"}}
	app := newHighlightApp(svc)

	req := multipartRequest(t, http.MethodPost, "/admin/highlights",
		map[string]string{"title": "Lago", "category": string(dto.HighlightCategories[0]), "order": "2"},
		"image", "lago.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "Lago", svc.lastPayload.Title)
	require.NotNil(t, svc.lastImage)
}

func TestHighlightHandler_InvalidCategory(t *testing.T) {
	app := newHighlightApp(&mockHighlightService{err: service.ErrInvalidHighlightCategory})

	req := multipartRequest(t, http.MethodPost, "/admin/highlights", map[string]string{"title": "Lago", "category": "NOPE"}, "", "", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHighlightHandler_Delete(t *testing.T) {
	svc := &mockHighlightService{}
	app := newHighlightApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/admin/highlights/h-5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "h-5", svc.deleted)
}
