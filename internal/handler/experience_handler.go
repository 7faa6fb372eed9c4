package handler

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/utils"
)

// ExperienceHandler serves the public experience catalogue and its admin management.
type ExperienceHandler struct {
	service service.ExperienceService
	logger  zerolog.Logger
}

// NewExperienceHandler constructs an experience handler.
func NewExperienceHandler(service service.ExperienceService, logger zerolog.Logger) *ExperienceHandler {
	return &ExperienceHandler{
		service: service,
		logger:  logger.With().Str("component", "experience_handler").Logger(),
	}
}

// Register wires the public experience routes.
func (h *ExperienceHandler) Register(router fiber.Router) {
	router.Get("", h.search)
	router.Get("/:id", h.get)
}

// RegisterAdmin wires the admin experience routes.
func (h *ExperienceHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.listAdmin)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Patch("/:id/status", h.toggleStatus)
}

func (h *ExperienceHandler) search(c *fiber.Ctx) error {
	filters, err := queryFilters(c, dto.ExperienceSearchFilters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to search experiences")
	}

	page, err := h.service.Search(backendContext(c), filters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to search experiences")
	}
	return listResponse(c, "experiences retrieved", page.Items, page.Meta())
}

func (h *ExperienceHandler) listAdmin(c *fiber.Ctx) error {
	filters, err := queryFilters(c, dto.ExperienceAdminFilters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list experiences")
	}

	page, err := h.service.ListAdmin(backendContext(c), filters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list experiences")
	}
	return listResponse(c, "experiences retrieved", page.Items, page.Meta())
}

func (h *ExperienceHandler) get(c *fiber.Ctx) error {
	experience, err := h.service.Get(backendContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch experience")
	}
	return utils.SendSuccess(c, "experience retrieved", experience)
}

func (h *ExperienceHandler) create(c *fiber.Ctx) error {
	var payload dto.ExperiencePayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	experience, err := h.service.Create(backendContext(c), payload, formFile(c, "image"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create experience")
	}
	requestLogger(h.logger, c).Info().Str("experience_id", experience.ID).Str("user_id", userIDFromContext(c)).Msg("experience created")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "experience created", experience)
}

func (h *ExperienceHandler) update(c *fiber.Ctx) error {
	var payload dto.ExperiencePayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	experience, err := h.service.Update(backendContext(c), c.Params("id"), payload, formFile(c, "image"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update experience")
	}
	return utils.SendSuccess(c, "experience updated", experience)
}

func (h *ExperienceHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(backendContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete experience")
	}
	return utils.SendSuccess(c, "experience deleted", fiber.Map{"id": id})
}

type statusPayload struct {
	Active *bool `json:"active"`
}

func (h *ExperienceHandler) toggleStatus(c *fiber.Ctx) error {
	var payload statusPayload
	if err := c.BodyParser(&payload); err != nil || payload.Active == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "active flag is required")
	}

	experience, err := h.service.ToggleStatus(backendContext(c), c.Params("id"), *payload.Active)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update experience status")
	}
	return utils.SendSuccess(c, "experience status updated", experience)
}

// formFile returns the uploaded file under field, or nil when none was sent.
func formFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}
