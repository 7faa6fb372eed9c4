package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/utils"
)

// RequestHandler exposes the admin request workflow.
type RequestHandler struct {
	service service.RequestService
	logger  zerolog.Logger
}

// NewRequestHandler constructs a request handler.
func NewRequestHandler(service service.RequestService, logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		service: service,
		logger:  logger.With().Str("component", "request_handler").Logger(),
	}
}

// Register wires the reservation request routes.
func (h *RequestHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/reservations/:id", h.reservation)
	router.Post("/reservations/:id/transition", h.transition)
}

// RegisterProfessors wires the professor approval routes.
func (h *RequestHandler) RegisterProfessors(router fiber.Router) {
	router.Get("", h.listProfessors)
	router.Post("/approval", h.reviewProfessor)
}

func (h *RequestHandler) list(c *fiber.Ctx) error {
	filters, err := queryFilters(c, dto.RequestsAdminFilters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list requests")
	}

	page, err := h.service.ListAdmin(backendContext(c), filters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list requests")
	}
	return listResponse(c, "requests retrieved", page.Items, page.Meta())
}

func (h *RequestHandler) reservation(c *fiber.Ctx) error {
	detail, err := h.service.ReservationRequest(backendContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch request")
	}
	return utils.SendSuccess(c, "request retrieved", detail)
}

func (h *RequestHandler) transition(c *fiber.Ctx) error {
	var payload dto.TransitionPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	detail, err := h.service.Transition(backendContext(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update request")
	}
	requestLogger(h.logger, c).Info().Str("group_id", detail.ID).Str("status", string(detail.CurrentStatus())).Str("admin_id", userIDFromContext(c)).Msg("request status changed")
	return utils.SendSuccess(c, "request updated", detail)
}

func (h *RequestHandler) listProfessors(c *fiber.Ctx) error {
	filters, err := queryFilters(c, dto.ProfessorRequestsAdminFilters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list professor requests")
	}

	page, err := h.service.ListProfessorRequests(backendContext(c), filters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list professor requests")
	}
	return listResponse(c, "professor requests retrieved", page.Items, page.Meta())
}

func (h *RequestHandler) reviewProfessor(c *fiber.Ctx) error {
	var payload dto.ProfessorApprovalPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.ReviewProfessor(backendContext(c), payload); err != nil {
		return respondError(c, h.logger, err, "failed to review professor")
	}
	return utils.SendSuccess(c, "professor request reviewed", fiber.Map{"id": payload.ID, "approved": payload.Approved})
}
