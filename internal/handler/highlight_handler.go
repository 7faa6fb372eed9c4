package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/utils"
)

// HighlightHandler serves home page highlights.
type HighlightHandler struct {
	service service.HighlightService
	logger  zerolog.Logger
}

// NewHighlightHandler constructs a highlight handler.
func NewHighlightHandler(service service.HighlightService, logger zerolog.Logger) *HighlightHandler {
	return &HighlightHandler{
		service: service,
		logger:  logger.With().Str("component", "highlight_handler").Logger(),
	}
}

// Register wires the public highlight routes.
func (h *HighlightHandler) Register(router fiber.Router) {
	router.Get("/public/grouped", h.publicGrouped)
}

// RegisterAdmin wires the admin highlight routes.
func (h *HighlightHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/grouped", h.grouped)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *HighlightHandler) publicGrouped(c *fiber.Ctx) error {
	grouped, err := h.service.PublicGrouped(backendContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load highlights")
	}
	return utils.SendSuccess(c, "highlights retrieved", grouped)
}

func (h *HighlightHandler) grouped(c *fiber.Ctx) error {
	grouped, err := h.service.Grouped(backendContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load highlights")
	}
	return utils.SendSuccess(c, "highlights retrieved", grouped)
}

func (h *HighlightHandler) list(c *fiber.Ctx) error {
	filters, err := queryFilters(c, dto.HighlightFilters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list highlights")
	}

	page, err := h.service.List(backendContext(c), filters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list highlights")
	}
	return listResponse(c, "highlights retrieved", page.Items, page.Meta())
}

func (h *HighlightHandler) get(c *fiber.Ctx) error {
	highlight, err := h.service.Get(backendContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch highlight")
	}
	return utils.SendSuccess(c, "highlight retrieved", highlight)
}

func (h *HighlightHandler) create(c *fiber.Ctx) error {
	var payload dto.HighlightPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	highlight, err := h.service.Create(backendContext(c), payload, formFile(c, "image"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create highlight")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "highlight created", highlight)
}

func (h *HighlightHandler) update(c *fiber.Ctx) error {
	var payload dto.HighlightPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	highlight, err := h.service.Update(backendContext(c), c.Params("id"), payload, formFile(c, "image"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update highlight")
	}
	return utils.SendSuccess(c, "highlight updated", highlight)
}

func (h *HighlightHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(backendContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete highlight")
	}
	return utils.SendSuccess(c, "highlight deleted", fiber.Map{"id": id})
}
