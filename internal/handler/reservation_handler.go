package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/utils"
)

// ReservationHandler serves the owner's reservation groups and the admin group views.
type ReservationHandler struct {
	reservations service.ReservationService
	requests     service.RequestService
	logger       zerolog.Logger
}

// NewReservationHandler constructs a reservation handler.
func NewReservationHandler(reservations service.ReservationService, requests service.RequestService, logger zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservations: reservations,
		requests:     requests,
		logger:       logger.With().Str("component", "reservation_handler").Logger(),
	}
}

// RegisterMine wires the owner's read routes, mounted under me/reservations.
func (h *ReservationHandler) RegisterMine(router fiber.Router) {
	router.Get("", h.mine)
	router.Get("/:id", h.view)
}

// Register wires the owner's write routes, mounted under reservations.
func (h *ReservationHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Post("/:id/cancel", h.cancel)
	router.Post("/:id/people", h.addPeople)
	router.Post("/:id/payment", h.paymentProof)
}

// RegisterAdmin wires the admin reservation group routes.
func (h *ReservationHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.listGroups)
	router.Get("/:id", h.adminGroup)
}

func (h *ReservationHandler) mine(c *fiber.Ctx) error {
	filters, err := queryFilters(c, dto.MyReservationsFilters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list reservations")
	}
	status := dto.ParseGroupStatusFilter(c.Query("group"))

	page, err := h.reservations.MyReservations(backendContext(c), status, filters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list reservations")
	}
	return listResponse(c, "reservations retrieved", page.Items, page.Meta())
}

func (h *ReservationHandler) view(c *fiber.Ctx) error {
	group, err := h.reservations.View(backendContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch reservation")
	}
	return utils.SendSuccess(c, "reservation retrieved", group)
}

func (h *ReservationHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateGroupPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	group, err := h.reservations.CreateGroup(backendContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create reservation")
	}
	requestLogger(h.logger, c).Info().Str("group_id", group.ID).Str("user_id", userIDFromContext(c)).Msg("reservation group submitted")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reservation created", group)
}

func (h *ReservationHandler) cancel(c *fiber.Ctx) error {
	group, err := h.reservations.Cancel(backendContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to cancel reservation")
	}
	return utils.SendSuccess(c, "reservation cancellation requested", group)
}

func (h *ReservationHandler) addPeople(c *fiber.Ctx) error {
	var payload dto.AddPeoplePayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	group, err := h.reservations.AddPeople(backendContext(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add people")
	}
	return utils.SendSuccess(c, "people sent", group)
}

func (h *ReservationHandler) paymentProof(c *fiber.Ctx) error {
	group, err := h.reservations.SendPaymentProof(backendContext(c), c.Params("id"), formFile(c, "file"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to send payment proof")
	}
	return utils.SendSuccess(c, "payment proof sent", group)
}

func (h *ReservationHandler) listGroups(c *fiber.Ctx) error {
	filters, err := queryFilters(c, dto.ReservationGroupAdminFilters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list reservation groups")
	}

	page, err := h.requests.ListReservationGroups(backendContext(c), filters)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list reservation groups")
	}
	return listResponse(c, "reservation groups retrieved", page.Items, page.Meta())
}

func (h *ReservationHandler) adminGroup(c *fiber.Ctx) error {
	group, err := h.reservations.AdminGroup(backendContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch reservation group")
	}
	return utils.SendSuccess(c, "reservation group retrieved", group)
}
