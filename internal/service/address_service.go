package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/promata/reservas-gateway/internal/cache"
	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/query"
)

var (
	// ErrInvalidCEP indicates a postal code without exactly eight digits.
	ErrInvalidCEP = errors.New("cep must have 8 digits")
	// ErrAddressNotFound indicates ViaCEP does not know the postal code.
	ErrAddressNotFound = errors.New("address not found")
)

// AddressLookup resolves a Brazilian postal code. A nil address means unknown.
type AddressLookup interface {
	Lookup(ctx context.Context, cep string) (*dto.Address, error)
}

// AddressService fills address forms from a postal code.
type AddressService interface {
	Lookup(ctx context.Context, cep string) (dto.Address, error)
}

type addressService struct {
	lookup AddressLookup
	cache  *cache.QueryCache
	ttl    time.Duration
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewAddressService constructs the address service.
func NewAddressService(lookup AddressLookup, qc *cache.QueryCache, ttl time.Duration, logger zerolog.Logger) AddressService {
	return &addressService{
		lookup: lookup,
		cache:  qc,
		ttl:    ttl,
		logger: logger.With().Str("component", "address_service").Logger(),
		tracer: otel.Tracer("github.com/promata/reservas-gateway/internal/service/address"),
	}
}

func (s *addressService) Lookup(ctx context.Context, cep string) (dto.Address, error) {
	if !query.IsValidBrazilZip(cep) {
		return dto.Address{}, ErrInvalidCEP
	}
	digits := query.DigitsOnly(cep)

	ctx, span := s.tracer.Start(ctx, "address.lookup", trace.WithAttributes(attribute.String("address.cep", digits)))
	defer span.End()

	key := cache.Key(ResourceAddress, digits)
	return cachedRead(ctx, s.cache, ResourceAddress, key, s.ttl, func(ctx context.Context) (dto.Address, error) {
		address, err := s.lookup.Lookup(ctx, digits)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "viacep lookup failed")
			s.logger.Warn().Err(err).Str("cep", digits).Msg("address lookup failed")
			return dto.Address{}, err
		}
		if address == nil {
			return dto.Address{}, ErrAddressNotFound
		}
		address.CEP = query.MaskCEP(address.CEP)
		return *address, nil
	})
}
