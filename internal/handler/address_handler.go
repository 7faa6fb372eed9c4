package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/service"
	"github.com/promata/reservas-gateway/internal/utils"
)

// AddressHandler resolves postal codes for the registration forms.
type AddressHandler struct {
	service service.AddressService
	logger  zerolog.Logger
}

// NewAddressHandler constructs an address handler.
func NewAddressHandler(service service.AddressService, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		logger:  logger.With().Str("component", "address_handler").Logger(),
	}
}

// Register wires the address lookup route.
func (h *AddressHandler) Register(router fiber.Router) {
	router.Get("/:cep", h.lookup)
}

func (h *AddressHandler) lookup(c *fiber.Ctx) error {
	address, err := h.service.Lookup(c.UserContext(), c.Params("cep"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to look up address")
	}
	return utils.SendSuccess(c, "address retrieved", address)
}
