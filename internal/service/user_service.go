package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/promata/reservas-gateway/internal/cache"
	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/query"
	"github.com/promata/reservas-gateway/internal/upstream"
)

// ErrUnauthenticated indicates the caller carries no identity.
var ErrUnauthenticated = errors.New("authentication required")

// Identity is the caller as established by the JWT middleware.
type Identity struct {
	ID    string
	Name  string
	Roles []string
}

// UserService exposes the admin user listing and the caller's own identity.
type UserService interface {
	ListAdmin(ctx context.Context, filters query.Values) (dto.Page[dto.AdminUser], error)
	Current(ctx context.Context, identity Identity) (dto.CurrentUser, error)
}

type userService struct {
	client *upstream.Client
	cache  *cache.QueryCache
	ttl    CacheTTL
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewUserService constructs the user service.
func NewUserService(client *upstream.Client, qc *cache.QueryCache, ttl CacheTTL, logger zerolog.Logger) UserService {
	return &userService{
		client: client,
		cache:  qc,
		ttl:    ttl,
		logger: logger.With().Str("component", "user_service").Logger(),
		tracer: otel.Tracer("github.com/promata/reservas-gateway/internal/service/user"),
	}
}

func (s *userService) ListAdmin(ctx context.Context, filters query.Values) (dto.Page[dto.AdminUser], error) {
	qs, err := query.SafeParseFilters(filters, dto.UserAdminFilters)
	if err != nil {
		return dto.Page[dto.AdminUser]{}, err
	}

	ctx, span := s.tracer.Start(ctx, "user.list_admin", trace.WithAttributes(attribute.String("user.query", qs)))
	defer span.End()

	key := cache.Key(ResourceUser, "admin", qs)
	return cachedRead(ctx, s.cache, ResourceUser, key, s.ttl.List, func(ctx context.Context) (dto.Page[dto.AdminUser], error) {
		payload, err := s.client.SafeGet(ctx, "/user"+qs, upstream.SchemaUserPage, upstream.List(), upstream.Resource(ResourceUser))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend list failed")
			return dto.Page[dto.AdminUser]{}, translate(err, nil)
		}
		return dto.DecodePage(payload, dto.ObjectItem(dto.MapAdminUser)), nil
	})
}

// Current reports the caller from its token claims. Roles are upper-cased to match the
// backend's user types.
func (s *userService) Current(_ context.Context, identity Identity) (dto.CurrentUser, error) {
	id := strings.TrimSpace(identity.ID)
	if id == "" {
		return dto.CurrentUser{}, ErrUnauthenticated
	}
	roles := make([]string, 0, len(identity.Roles))
	for _, role := range identity.Roles {
		if trimmed := strings.TrimSpace(role); trimmed != "" {
			roles = append(roles, strings.ToUpper(trimmed))
		}
	}
	return dto.CurrentUser{ID: id, Name: strings.TrimSpace(identity.Name), Roles: roles}, nil
}
