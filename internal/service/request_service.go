package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
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

var (
	// ErrRequestNotFound indicates the backend does not know the reservation request.
	ErrRequestNotFound = errors.New("reservation request not found")
	// ErrInvalidTransition indicates the target status is not an allowed action from the
	// request's current status.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrProfessorRequestNotFound indicates the professor approval request is unknown.
	ErrProfessorRequestNotFound = errors.New("professor request not found")
)

// RequestService drives the admin request workflow.
type RequestService interface {
	ListAdmin(ctx context.Context, filters query.Values) (dto.Page[dto.RequestAdminItem], error)
	ListReservationGroups(ctx context.Context, filters query.Values) (dto.Page[dto.ReservationGroup], error)
	ListProfessorRequests(ctx context.Context, filters query.Values) (dto.Page[dto.ProfessorRequest], error)
	ReservationRequest(ctx context.Context, id string) (dto.ReservationRequestDetail, error)
	Transition(ctx context.Context, groupID string, payload dto.TransitionPayload) (dto.ReservationRequestDetail, error)
	ReviewProfessor(ctx context.Context, payload dto.ProfessorApprovalPayload) error
}

type requestService struct {
	client    *upstream.Client
	cache     *cache.QueryCache
	events    Invalidator
	resolver  dto.ImageResolver
	validator *validator.Validate
	ttl       CacheTTL
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRequestService constructs the request service.
func NewRequestService(client *upstream.Client, qc *cache.QueryCache, events Invalidator, resolver dto.ImageResolver, validate *validator.Validate, ttl CacheTTL, logger zerolog.Logger) RequestService {
	return &requestService{
		client:    client,
		cache:     qc,
		events:    invalidatorOrNoop(events),
		resolver:  resolver,
		validator: validate,
		ttl:       ttl,
		logger:    logger.With().Str("component", "request_service").Logger(),
		tracer:    otel.Tracer("github.com/promata/reservas-gateway/internal/service/request"),
	}
}

func (s *requestService) ListAdmin(ctx context.Context, filters query.Values) (dto.Page[dto.RequestAdminItem], error) {
	return listPage(ctx, s, filters, listRoute[dto.RequestAdminItem]{
		span:     "request.list_admin",
		path:     "/request",
		scope:    "admin",
		schema:   upstream.SchemaRequestAdminPage,
		filters:  dto.RequestsAdminFilters,
		resource: ResourceRequest,
		mapItem:  dto.MapRequestAdminItem,
	})
}

func (s *requestService) ListReservationGroups(ctx context.Context, filters query.Values) (dto.Page[dto.ReservationGroup], error) {
	return listPage(ctx, s, filters, listRoute[dto.ReservationGroup]{
		span:     "request.list_groups",
		path:     "/reservation/group",
		scope:    "groups",
		schema:   upstream.SchemaReservationGroups,
		filters:  dto.ReservationGroupAdminFilters,
		resource: ResourceReservation,
		mapItem:  func(raw dto.Raw) dto.ReservationGroup { return dto.MapReservationGroup(raw, s.resolver.Resolve) },
	})
}

func (s *requestService) ListProfessorRequests(ctx context.Context, filters query.Values) (dto.Page[dto.ProfessorRequest], error) {
	return listPage(ctx, s, filters, listRoute[dto.ProfessorRequest]{
		span:     "request.list_professors",
		path:     "/professor",
		scope:    "professors",
		schema:   upstream.SchemaListEnvelope,
		filters:  dto.ProfessorRequestsAdminFilters,
		resource: ResourceRequest,
		mapItem:  dto.MapProfessorRequest,
	})
}

type listRoute[T any] struct {
	span     string
	path     string
	scope    string
	schema   string
	filters  query.Schema
	resource string
	mapItem  func(dto.Raw) T
}

// listPage validates filters, then serves the admin listing from cache or the backend.
func listPage[T any](ctx context.Context, s *requestService, filters query.Values, route listRoute[T]) (dto.Page[T], error) {
	qs, err := query.SafeParseFilters(filters, route.filters)
	if err != nil {
		return dto.Page[T]{}, err
	}

	ctx, span := s.tracer.Start(ctx, route.span, trace.WithAttributes(attribute.String("request.query", qs)))
	defer span.End()

	key := cache.Key(route.resource, route.scope, qs)
	return cachedRead(ctx, s.cache, route.resource, key, s.ttl.List, func(ctx context.Context) (dto.Page[T], error) {
		payload, err := s.client.SafeGet(ctx, route.path+qs, route.schema, upstream.List(), upstream.Resource(route.resource))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend list failed")
			return dto.Page[T]{}, translate(err, nil)
		}
		page := dto.DecodePage(payload, dto.ObjectItem(route.mapItem))
		span.SetAttributes(attribute.Int("request.items", len(page.Items)))
		return page, nil
	})
}

func (s *requestService) ReservationRequest(ctx context.Context, id string) (dto.ReservationRequestDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dto.ReservationRequestDetail{}, ErrRequestNotFound
	}

	ctx, span := s.tracer.Start(ctx, "request.reservation", trace.WithAttributes(attribute.String("request.group_id", id)))
	defer span.End()

	payload, err := s.client.SafeGet(ctx, "/requests/reservation/"+url.PathEscape(id), upstream.SchemaReservationGroup, upstream.Resource(ResourceRequest))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend get failed")
		return dto.ReservationRequestDetail{}, translate(err, ErrRequestNotFound)
	}
	raw, _ := payload.(map[string]any)
	return dto.NewReservationRequestDetail(dto.MapReservationGroup(raw, s.resolver.Resolve)), nil
}

// Transition moves a reservation group to payload.Status after checking it against the
// actions allowed from the group's current status.
func (s *requestService) Transition(ctx context.Context, groupID string, payload dto.TransitionPayload) (dto.ReservationRequestDetail, error) {
	ctx, span := s.tracer.Start(ctx, "request.transition", trace.WithAttributes(
		attribute.String("request.group_id", groupID),
		attribute.String("request.target", string(payload.Status)),
	))
	defer span.End()

	target, ok := dto.ParseRequestStatus(string(payload.Status))
	if !ok {
		return dto.ReservationRequestDetail{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, payload.Status)
	}
	payload.Status = target
	payload.Description = sanitizeText(payload.Description)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReservationRequestDetail{}, err
	}

	current, err := s.ReservationRequest(ctx, groupID)
	if err != nil {
		return dto.ReservationRequestDetail{}, err
	}
	from := current.CurrentStatus()
	if !dto.CanTransition(from, target) {
		span.SetStatus(codes.Error, "transition not allowed")
		return dto.ReservationRequestDetail{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, target)
	}

	body := map[string]string{"type": string(target), "description": payload.Description}
	if err := s.client.SendJSON(ctx, http.MethodPost, "/requests/reservation/"+url.PathEscape(groupID), body, nil, upstream.Resource(ResourceRequest)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend transition failed")
		return dto.ReservationRequestDetail{}, translate(err, ErrRequestNotFound)
	}

	s.events.Publish(ctx, ResourceRequest, ResourceReservation)
	s.logger.Info().Str("group_id", groupID).Str("from", string(from)).Str("to", string(target)).Msg("reservation request transitioned")
	return s.ReservationRequest(ctx, groupID)
}

func (s *requestService) ReviewProfessor(ctx context.Context, payload dto.ProfessorApprovalPayload) error {
	ctx, span := s.tracer.Start(ctx, "request.review_professor", trace.WithAttributes(
		attribute.String("request.professor_id", payload.ID),
		attribute.Bool("request.approved", payload.Approved),
	))
	defer span.End()

	payload.ID = strings.TrimSpace(payload.ID)
	payload.Observation = sanitizeText(payload.Observation)
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if err := s.client.SendJSON(ctx, http.MethodPost, "/admin/professor/approval", payload, nil, upstream.Resource(ResourceRequest)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend review failed")
		return translate(err, ErrProfessorRequestNotFound)
	}

	s.events.Publish(ctx, ResourceRequest, ResourceUser)
	s.logger.Info().Str("professor_request_id", payload.ID).Bool("approved", payload.Approved).Msg("professor request reviewed")
	return nil
}
