package service

import (
	"context"
	"errors"
	"mime/multipart"
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
	// ErrReservationNotFound indicates the backend does not know the reservation group.
	ErrReservationNotFound = errors.New("reservation group not found")
	// ErrInvalidCPF indicates a participant CPF with wrong verifier digits.
	ErrInvalidCPF = errors.New("invalid participant cpf")
)

// ReservationService serves the owner's reservation groups and forwards their updates.
type ReservationService interface {
	MyReservations(ctx context.Context, status dto.GroupStatusFilter, filters query.Values) (dto.Page[dto.ReservationGroup], error)
	View(ctx context.Context, id string) (dto.ReservationGroup, error)
	AdminGroup(ctx context.Context, id string) (dto.ReservationGroup, error)
	CreateGroup(ctx context.Context, payload dto.CreateGroupPayload) (dto.ReservationGroup, error)
	Cancel(ctx context.Context, id string) (dto.ReservationGroup, error)
	AddPeople(ctx context.Context, id string, payload dto.AddPeoplePayload) (dto.ReservationGroup, error)
	SendPaymentProof(ctx context.Context, id string, proof *multipart.FileHeader) (dto.ReservationGroup, error)
}

type reservationService struct {
	client    *upstream.Client
	cache     *cache.QueryCache
	events    Invalidator
	resolver  dto.ImageResolver
	validator *validator.Validate
	ttl       CacheTTL
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewReservationService constructs the reservation service.
func NewReservationService(client *upstream.Client, qc *cache.QueryCache, events Invalidator, resolver dto.ImageResolver, validate *validator.Validate, ttl CacheTTL, logger zerolog.Logger) ReservationService {
	return &reservationService{
		client:    client,
		cache:     qc,
		events:    invalidatorOrNoop(events),
		resolver:  resolver,
		validator: validate,
		ttl:       ttl,
		logger:    logger.With().Str("component", "reservation_service").Logger(),
		tracer:    otel.Tracer("github.com/promata/reservas-gateway/internal/service/reservation"),
	}
}

// MyReservations lists the caller's groups. The backend narrows by group status; search,
// reservation status, date window and paging are applied here.
func (s *reservationService) MyReservations(ctx context.Context, status dto.GroupStatusFilter, filters query.Values) (dto.Page[dto.ReservationGroup], error) {
	parsed, err := query.Parse(filters, dto.MyReservationsFilters)
	if err != nil {
		return dto.Page[dto.ReservationGroup]{}, err
	}
	status = dto.ParseGroupStatusFilter(string(status))

	ctx, span := s.tracer.Start(ctx, "reservation.mine", trace.WithAttributes(attribute.String("reservation.status", string(status))))
	defer span.End()

	path := "/reservation/group/user" + query.MustSafeParseFilters(query.Values{"status": string(status)}, dto.GroupStatusQuery)
	payload, err := s.client.SafeGet(ctx, path, upstream.SchemaReservationGroups, upstream.List(), upstream.Resource(ResourceReservation))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend list failed")
		return dto.Page[dto.ReservationGroup]{}, translate(err, nil)
	}

	groups := dto.DecodePage(payload, dto.ObjectItem(s.mapGroup)).Items
	matched := filterReservations(groups, parsed)
	page, _ := parsed["page"].(int)
	limit, _ := parsed["limit"].(int)
	span.SetAttributes(attribute.Int("reservation.matched", len(matched)))
	return paginate(matched, page, limit), nil
}

func (s *reservationService) View(ctx context.Context, id string) (dto.ReservationGroup, error) {
	return s.getGroup(ctx, "reservation.view", "/reservation/group/user/", id)
}

// AdminGroup is shared by every admin, so unlike the owner views it is cached.
func (s *reservationService) AdminGroup(ctx context.Context, id string) (dto.ReservationGroup, error) {
	key := cache.Key(ResourceReservation, "admin", strings.TrimSpace(id))
	return cachedRead(ctx, s.cache, ResourceReservation, key, s.ttl.Detail, func(ctx context.Context) (dto.ReservationGroup, error) {
		return s.getGroup(ctx, "reservation.admin_group", "/reservation/group/search/", id)
	})
}

func (s *reservationService) getGroup(ctx context.Context, spanName, prefix, id string) (dto.ReservationGroup, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dto.ReservationGroup{}, ErrReservationNotFound
	}

	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(attribute.String("reservation.group_id", id)))
	defer span.End()

	payload, err := s.client.SafeGet(ctx, prefix+url.PathEscape(id), upstream.SchemaReservationGroup, upstream.Resource(ResourceReservation))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend get failed")
		return dto.ReservationGroup{}, translate(err, ErrReservationNotFound)
	}
	raw, _ := payload.(map[string]any)
	return s.mapGroup(raw), nil
}

func (s *reservationService) CreateGroup(ctx context.Context, payload dto.CreateGroupPayload) (dto.ReservationGroup, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.create_group", trace.WithAttributes(attribute.Int("reservation.count", len(payload.Reservations))))
	defer span.End()

	payload.Notes = sanitizeText(payload.Notes)
	members, err := cleanParticipants(payload.Members)
	if err != nil {
		return dto.ReservationGroup{}, err
	}
	payload.Members = members
	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.ReservationGroup{}, err
	}
	if payload.Members == nil {
		payload.Members = []dto.ParticipantPayload{}
	}
	for i := range payload.Reservations {
		if payload.Reservations[i].Adjustments == nil {
			payload.Reservations[i].Adjustments = []dto.ReservationAdjustment{}
		}
	}

	var created map[string]any
	if err := s.client.SendJSON(ctx, http.MethodPost, "/reservation/group", payload, &created, upstream.Resource(ResourceReservation)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend create failed")
		return dto.ReservationGroup{}, translate(err, nil)
	}

	s.events.Publish(ctx, ResourceReservation, ResourceRequest)
	group := s.mapGroup(created)
	s.logger.Info().Str("group_id", group.ID).Int("reservations", len(payload.Reservations)).Msg("reservation group created")
	return group, nil
}

func (s *reservationService) Cancel(ctx context.Context, id string) (dto.ReservationGroup, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.cancel", trace.WithAttributes(attribute.String("reservation.group_id", id)))
	defer span.End()

	var updated map[string]any
	if err := s.client.SendJSON(ctx, http.MethodPost, s.groupPath(id, "cancel"), nil, &updated, upstream.Resource(ResourceReservation)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend cancel failed")
		return dto.ReservationGroup{}, translate(err, ErrReservationNotFound)
	}
	return s.afterUpdate(ctx, id, updated)
}

func (s *reservationService) AddPeople(ctx context.Context, id string, payload dto.AddPeoplePayload) (dto.ReservationGroup, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.add_people", trace.WithAttributes(
		attribute.String("reservation.group_id", id),
		attribute.Int("reservation.members", len(payload.Members)),
	))
	defer span.End()

	members, err := cleanParticipants(payload.Members)
	if err != nil {
		return dto.ReservationGroup{}, err
	}
	payload.Members = members
	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.ReservationGroup{}, err
	}

	var updated map[string]any
	if err := s.client.SendJSON(ctx, http.MethodPost, s.groupPath(id, "people"), payload, &updated, upstream.Resource(ResourceReservation)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend add people failed")
		return dto.ReservationGroup{}, translate(err, ErrReservationNotFound)
	}
	return s.afterUpdate(ctx, id, updated)
}

func (s *reservationService) SendPaymentProof(ctx context.Context, id string, proof *multipart.FileHeader) (dto.ReservationGroup, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.payment_proof", trace.WithAttributes(attribute.String("reservation.group_id", id)))
	defer span.End()

	file, err := prepareUpload(proof, "file", DefaultMaxUploadBytes, uploadImage, uploadPDF)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload rejected")
		return dto.ReservationGroup{}, err
	}

	var updated map[string]any
	form := upstream.Multipart{Files: []upstream.File{file}}
	if err := s.client.SendMultipart(ctx, http.MethodPost, s.groupPath(id, "payment"), form, &updated, upstream.Resource(ResourceReservation)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend upload failed")
		return dto.ReservationGroup{}, translate(err, ErrReservationNotFound)
	}
	s.logger.Info().Str("group_id", id).Str("content_type", file.ContentType).Int("bytes", len(file.Data)).Msg("payment proof forwarded")
	return s.afterUpdate(ctx, id, updated)
}

func (s *reservationService) afterUpdate(ctx context.Context, id string, updated map[string]any) (dto.ReservationGroup, error) {
	s.events.Publish(ctx, ResourceReservation, ResourceRequest)
	if len(updated) == 0 {
		return s.View(ctx, id)
	}
	return s.mapGroup(updated), nil
}

func (s *reservationService) groupPath(id, action string) string {
	return "/reservation/group/" + url.PathEscape(strings.TrimSpace(id)) + "/" + action
}

func (s *reservationService) mapGroup(raw dto.Raw) dto.ReservationGroup {
	return dto.MapReservationGroup(raw, s.resolver.Resolve)
}

// cleanParticipants strips markup from names and masks documents to digits. A CPF that is
// present must carry valid verifier digits.
func cleanParticipants(members []dto.ParticipantPayload) ([]dto.ParticipantPayload, error) {
	if members == nil {
		return nil, nil
	}
	out := make([]dto.ParticipantPayload, 0, len(members))
	for _, member := range members {
		member.Name = sanitizeText(member.Name)
		member.Phone = query.DigitsOnly(member.Phone)
		if strings.TrimSpace(member.CPF) != "" {
			if !query.IsValidCPF(member.CPF) {
				return nil, ErrInvalidCPF
			}
			member.CPF = query.DigitsOnly(member.CPF)
		}
		member.Document = strings.TrimSpace(member.Document)
		out = append(out, member)
	}
	return out, nil
}
