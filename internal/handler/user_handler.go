package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/utils"
)

// UserHandler exposes the caller's identity and the admin user listing.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs a user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register wires the authenticated user routes.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("", h.me)
}

// RegisterAdmin wires the admin user routes.
func (h *UserHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
}

func (h *UserHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Current(c.UserContext(), identityFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to resolve user")
	}
	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	filters, err := queryFilters(c, dto.UserAdminFilters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list users")
	}

	page, err := h.service.ListAdmin(backendContext(c), filters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list users")
	}
	return listResponse(c, "users retrieved", page.Items, page.Meta())
}
