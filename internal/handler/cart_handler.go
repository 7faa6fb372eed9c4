package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/utils"
)

// CartHandler manages the authenticated user's cart.
type CartHandler struct {
	service   service.CartService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCartHandler constructs a cart handler.
func NewCartHandler(service service.CartService, validate *validator.Validate, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "cart_handler").Logger(),
	}
}

// Register wires cart routes.
func (h *CartHandler) Register(router fiber.Router) {
	router.Get("", h.get)
	router.Delete("", h.clear)
	router.Post("/items", h.add)
	router.Delete("/items/:experienceId", h.remove)
	router.Post("/open", h.open)
	router.Post("/close", h.close)
	router.Post("/toggle", h.toggle)
}

func (h *CartHandler) get(c *fiber.Ctx) error {
	return h.respond(c, "cart retrieved", h.service.Get)
}

func (h *CartHandler) clear(c *fiber.Ctx) error {
	return h.respond(c, "cart cleared", h.service.Clear)
}

func (h *CartHandler) open(c *fiber.Ctx) error {
	return h.respond(c, "cart opened", h.service.Open)
}

func (h *CartHandler) close(c *fiber.Ctx) error {
	return h.respond(c, "cart closed", h.service.Close)
}

func (h *CartHandler) toggle(c *fiber.Ctx) error {
	return h.respond(c, "cart toggled", h.service.Toggle)
}

func (h *CartHandler) add(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.AddCartItemPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err, "failed to add cart item")
	}

	cart, err := h.service.Add(backendContext(c), userID, payload.ExperienceID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add cart item")
	}
	return utils.SendSuccess(c, "cart item added", cart)
}

func (h *CartHandler) remove(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	cart, err := h.service.Remove(backendContext(c), userID, c.Params("experienceId"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to remove cart item")
	}
	return utils.SendSuccess(c, "cart item removed", cart)
}

func (h *CartHandler) respond(c *fiber.Ctx, message string, op func(ctx context.Context, userID string) (dto.Cart, error)) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	cart, err := op(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update cart")
	}
	return utils.SendSuccess(c, message, cart)
}
