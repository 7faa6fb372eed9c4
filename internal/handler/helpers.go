package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/middleware"
	"github.com/promata/reservas-gateway/internal/query"
	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/upstream"
	"github.com/promata/reservas-gateway/internal/utils"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// backendContext carries the caller's token and correlation id to backend calls.
func backendContext(c *fiber.Ctx) context.Context {
	token, _ := c.Locals(middleware.LocalToken).(string)
	return upstream.WithCredentials(c.UserContext(), token, middleware.GetCorrelationID(c))
}

func userIDFromContext(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.LocalUserID).(string); ok {
		return strings.TrimSpace(id)
	}
	return ""
}

func identityFromContext(c *fiber.Ctx) service.Identity {
	name, _ := c.Locals(middleware.LocalUserName).(string)
	return service.Identity{
		ID:    userIDFromContext(c),
		Name:  name,
		Roles: middleware.UserRoles(c),
	}
}

// queryFilters coerces the request's query string, repeated keys included, to the types
// declared by schema.
func queryFilters(c *fiber.Ctx, schema query.Schema) (query.Values, error) {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return nil, &query.FilterError{Schema: schema.Name, Key: "query", Reason: "malformed query string"}
	}
	return query.FromURLValues(schema, values)
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func validationDetails(err error) []fieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make([]fieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
	}
	return details
}

var notFoundErrors = []error{
	service.ErrExperienceNotFound,
	service.ErrHighlightNotFound,
	service.ErrReservationNotFound,
	service.ErrRequestNotFound,
	service.ErrProfessorRequestNotFound,
	service.ErrAddressNotFound,
}

var badRequestErrors = []error{
	service.ErrInvalidExperienceCategory,
	service.ErrInvalidHighlightCategory,
	service.ErrInvalidCEP,
	service.ErrInvalidCPF,
	service.ErrCartItemInvalid,
	service.ErrUploadRequired,
	service.ErrUploadTypeNotAllowed,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps service, filter and backend failures to the error envelope. Anything
// unrecognised is logged and reported as a 500 carrying fallback.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var filterErr *query.FilterError
	var schemaErr *upstream.SchemaError
	var apiErr *upstream.APIError

	switch {
	case errors.As(err, &filterErr):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid filters", fiber.Map{"key": filterErr.Key, "reason": filterErr.Reason})
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	case matchesAny(err, notFoundErrors):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case matchesAny(err, badRequestErrors):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.As(err, &schemaErr):
		requestLogger(logger, c).Error().Err(err).Str("url", schemaErr.URL).Strs("issues", schemaErr.Issues).Msg("backend response rejected")
		return utils.Fail(c, fiber.StatusBadGateway, "unexpected backend response", fiber.Map{"issues": schemaErr.Issues})
	case errors.As(err, &apiErr):
		if apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
			return utils.Fail(c, apiErr.Status, apiErr.Message, fiber.Map{"code": apiErr.Code})
		}
		requestLogger(logger, c).Error().Err(err).Int("backend_status", apiErr.Status).Msg(fallback)
		return utils.Fail(c, fiber.StatusBadGateway, upstream.GenericErrorMessage, fiber.Map{"code": apiErr.Code})
	case errors.Is(err, context.DeadlineExceeded):
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusGatewayTimeout, "backend timed out")
	default:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

// listResponse sends page items with their position as meta.
func listResponse[T any](c *fiber.Ctx, message string, items []T, meta any) error {
	if items == nil {
		items = []T{}
	}
	return utils.OK(c, items, message, meta)
}
