package handler_test

import (
	"context"
	"errors"
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
	"github.com/promata/reservas-gateway/internal/upstream"
)

type mockExperienceService struct {
	lastFilters query.Values
	lastPayload dto.ExperiencePayload
	lastImage   *multipart.FileHeader
	lastActive  *bool
	page        dto.Page[dto.Experience]
	adminPage   dto.Page[dto.AdminExperience]
	experience  dto.Experience
	err         error
}

func (m *mockExperienceService) ListAdmin(_ context.Context, filters query.Values) (dto.Page[dto.AdminExperience], error) {
	m.lastFilters = filters
	return m.adminPage, m.err
}

func (m *mockExperienceService) Search(_ context.Context, filters query.Values) (dto.Page[dto.Experience], error) {
	m.lastFilters = filters
	return m.page, m.err
}

func (m *mockExperienceService) Get(_ context.Context, _ string) (dto.Experience, error) {
	return m.experience, m.err
}

func (m *mockExperienceService) Create(_ context.Context, payload dto.ExperiencePayload, image *multipart.FileHeader) (dto.Experience, error) {
	m.lastPayload = payload
	m.lastImage = image
	return m.experience, m.err
}

func (m *mockExperienceService) Update(_ context.Context, _ string, payload dto.ExperiencePayload, image *multipart.FileHeader) (dto.Experience, error) {
	m.lastPayload = payload
	m.lastImage = image
	return m.experience, m.err
}

func (m *mockExperienceService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockExperienceService) ToggleStatus(_ context.Context, _ string, active bool) (dto.Experience, error) {
	m.lastActive = &active
	return m.experience, m.err
}

func newExperienceApp(svc service.ExperienceService) *fiber.App {
	app := fiber.New()
	h := handler.NewExperienceHandler(svc, zerolog.New(io.Discard))
	h.Register(app.Group("/experiences"))
	h.RegisterAdmin(app.Group("/admin/experiences", authenticated("admin-1", "token", "admin")))
	return app
}

func TestExperienceHandler_SearchReturnsMeta(t *testing.T) {
	svc := &mockExperienceService{page: dto.Page[dto.Experience]{
		Items: []dto.Experience{{ID: "exp-1", Name: "Trilha"}},
		Page:  0, Limit: 12, Total: 1, TotalPages: 1,
	}}
	app := newExperienceApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/experiences?category=TRAIL&name=trilha&ignored=1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[[]dto.Experience]
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Len(t, body.Data, 1)
	require.JSONEq(t, `{"page":0,"limit":12,"total":1,"totalPages":1}`, string(body.Meta))
	require.Equal(t, query.Values{"category": "TRAIL", "name": "trilha"}, svc.lastFilters)
}

func TestExperienceHandler_SearchRejectsMalformedFilters(t *testing.T) {
	svc := &mockExperienceService{}
	app := newExperienceApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/experiences?page=abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body envelope[any]
	decodeResponse(t, resp, &body)
	require.JSONEq(t, `{"key":"page","reason":"expected integer"}`, string(body.Details))
}

func TestExperienceHandler_EmptyPageSendsEmptyList(t *testing.T) {
	svc := &mockExperienceService{}
	app := newExperienceApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/experiences", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[[]dto.Experience]
	decodeResponse(t, resp, &body)
	require.NotNil(t, body.Data)
	require.Empty(t, body.Data)
}

func TestExperienceHandler_CreateForwardsUpload(t *testing.T) {
	svc := &mockExperienceService{experience: dto.Experience{ID: "exp-9", Name: "Mirante"}}
	app := newExperienceApp(svc)

	req := multipartRequest(t, http.MethodPost, "/admin/experiences",
		map[string]string{"name": "Mirante", "category": "TRAIL", "capacity": "12"},
		"image", "mirante.png", []byte("\x89PNG\r\n\x1a\n"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "Mirante", svc.lastPayload.Name)
	require.Equal(t, 12, svc.lastPayload.Capacity)
	require.NotNil(t, svc.lastImage)
	require.Equal(t, "mirante.png", svc.lastImage.Filename)
}

func TestExperienceHandler_ToggleStatusRequiresFlag(t *testing.T) {
	svc := &mockExperienceService{}
	app := newExperienceApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodPatch, "/admin/experiences/exp-1/status", map[string]any{}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Nil(t, svc.lastActive)

	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/admin/experiences/exp-1/status", map[string]any{"active": false}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.lastActive)
	require.False(t, *svc.lastActive)
}

func TestExperienceHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: service.ErrExperienceNotFound, status: fiber.StatusNotFound},
		{name: "forbidden", err: service.ErrForbidden, status: fiber.StatusForbidden},
		{name: "backend conflict", err: &upstream.APIError{Status: http.StatusConflict, Code: "Conflict", Message: "duplicated"}, status: fiber.StatusConflict},
		{name: "backend outage", err: &upstream.APIError{Status: http.StatusServiceUnavailable, Code: upstream.GenericErrorMessage}, status: fiber.StatusBadGateway},
		{name: "schema", err: &upstream.SchemaError{URL: "http://backend/experience/1", Issues: []string{"/: missing id"}}, status: fiber.StatusBadGateway},
		{name: "timeout", err: context.DeadlineExceeded, status: fiber.StatusGatewayTimeout},
		{name: "generic", err: errors.New("boom"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newExperienceApp(&mockExperienceService{err: tc.err})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/experiences/exp-1", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope[any]
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			require.NotEmpty(t, body.Message)
		})
	}
}

func TestExperienceHandler_BackendClientErrorKeepsMessage(t *testing.T) {
	app := newExperienceApp(&mockExperienceService{err: &upstream.APIError{Status: http.StatusUnprocessableEntity, Code: "Unprocessable Entity", Message: "startDate must be a date"}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/experiences/exp-1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body envelope[any]
	decodeResponse(t, resp, &body)
	require.Equal(t, "startDate must be a date", body.Message)
	require.JSONEq(t, `{"code":"Unprocessable Entity"}`, string(body.Details))
}
