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
	// ErrExperienceNotFound indicates the backend does not know the experience.
	ErrExperienceNotFound = errors.New("experience not found")
	// ErrInvalidExperienceCategory indicates a payload category outside the known set.
	ErrInvalidExperienceCategory = errors.New("invalid experience category")
)

// ExperienceService exposes normalized experience reads and forwards admin mutations.
type ExperienceService interface {
	ListAdmin(ctx context.Context, filters query.Values) (dto.Page[dto.AdminExperience], error)
	Search(ctx context.Context, filters query.Values) (dto.Page[dto.Experience], error)
	Get(ctx context.Context, id string) (dto.Experience, error)
	Create(ctx context.Context, payload dto.ExperiencePayload, image *multipart.FileHeader) (dto.Experience, error)
	Update(ctx context.Context, id string, payload dto.ExperiencePayload, image *multipart.FileHeader) (dto.Experience, error)
	Delete(ctx context.Context, id string) error
	ToggleStatus(ctx context.Context, id string, active bool) (dto.Experience, error)
}

type experienceService struct {
	client    *upstream.Client
	cache     *cache.QueryCache
	events    Invalidator
	resolver  dto.ImageResolver
	validator *validator.Validate
	ttl       CacheTTL
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewExperienceService constructs the experience service.
func NewExperienceService(client *upstream.Client, qc *cache.QueryCache, events Invalidator, resolver dto.ImageResolver, validate *validator.Validate, ttl CacheTTL, logger zerolog.Logger) ExperienceService {
	return &experienceService{
		client:    client,
		cache:     qc,
		events:    invalidatorOrNoop(events),
		resolver:  resolver,
		validator: validate,
		ttl:       ttl,
		logger:    logger.With().Str("component", "experience_service").Logger(),
		tracer:    otel.Tracer("github.com/promata/reservas-gateway/internal/service/experience"),
	}
}

func (s *experienceService) ListAdmin(ctx context.Context, filters query.Values) (dto.Page[dto.AdminExperience], error) {
	qs, err := query.SafeParseFilters(normalizeCategoryFilter(filters), dto.ExperienceAdminFilters)
	if err != nil {
		return dto.Page[dto.AdminExperience]{}, err
	}

	ctx, span := s.tracer.Start(ctx, "experience.list_admin", trace.WithAttributes(attribute.String("experience.query", qs)))
	defer span.End()

	key := cache.Key(ResourceExperience, "admin", qs)
	return cachedRead(ctx, s.cache, ResourceExperience, key, s.ttl.List, func(ctx context.Context) (dto.Page[dto.AdminExperience], error) {
		payload, err := s.client.SafeGet(ctx, "/experience"+qs, upstream.SchemaExperiencePage, upstream.List(), upstream.Resource(ResourceExperience))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend list failed")
			return dto.Page[dto.AdminExperience]{}, err
		}
		page := dto.DecodePage(payload, dto.ObjectItem(s.mapExperience))
		span.SetAttributes(attribute.Int("experience.items", len(page.Items)))
		return dto.MapPage(page, dto.Experience.ToAdmin), nil
	})
}

func (s *experienceService) Search(ctx context.Context, filters query.Values) (dto.Page[dto.Experience], error) {
	normalized := normalizeCategoryFilter(filters)
	parsed, err := query.Parse(normalized, dto.ExperienceSearchFilters)
	if err != nil {
		return dto.Page[dto.Experience]{}, err
	}
	qs := query.BuildQueryParams(query.OmitNil(parsed))

	ctx, span := s.tracer.Start(ctx, "experience.search", trace.WithAttributes(attribute.String("experience.query", qs)))
	defer span.End()

	key := cache.Key(ResourceExperience, "search", qs)
	return cachedRead(ctx, s.cache, ResourceExperience, key, s.ttl.List, func(ctx context.Context) (dto.Page[dto.Experience], error) {
		payload, err := s.client.SafeGet(ctx, "/experience/search"+qs, upstream.SchemaExperiencePage, upstream.List(), upstream.Resource(ResourceExperience))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend search failed")
			return dto.Page[dto.Experience]{}, err
		}
		page := dto.DecodePage(payload, dto.ObjectItem(s.mapExperience))
		return requestedPosition(page, payload, parsed), nil
	})
}

func (s *experienceService) Get(ctx context.Context, id string) (dto.Experience, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dto.Experience{}, ErrExperienceNotFound
	}

	ctx, span := s.tracer.Start(ctx, "experience.get", trace.WithAttributes(attribute.String("experience.id", id)))
	defer span.End()

	key := cache.Key(ResourceExperience, "detail", id)
	return cachedRead(ctx, s.cache, ResourceExperience, key, s.ttl.Detail, func(ctx context.Context) (dto.Experience, error) {
		return s.fetch(ctx, id)
	})
}

func (s *experienceService) fetch(ctx context.Context, id string) (dto.Experience, error) {
	payload, err := s.client.SafeGet(ctx, "/experience/"+url.PathEscape(id), upstream.SchemaExperience, upstream.Resource(ResourceExperience))
	if err != nil {
		return dto.Experience{}, translate(err, ErrExperienceNotFound)
	}
	raw, _ := payload.(map[string]any)
	return s.mapExperience(raw), nil
}

func (s *experienceService) Create(ctx context.Context, payload dto.ExperiencePayload, image *multipart.FileHeader) (dto.Experience, error) {
	ctx, span := s.tracer.Start(ctx, "experience.create")
	defer span.End()

	form, err := s.buildForm(payload, image, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.Experience{}, err
	}

	var created map[string]any
	if err := s.client.SendMultipart(ctx, http.MethodPost, "/experience", form, &created, upstream.Resource(ResourceExperience)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend create failed")
		return dto.Experience{}, translate(err, nil)
	}

	s.events.Publish(ctx, ResourceExperience)
	experience := s.mapExperience(created)
	s.logger.Info().Str("experience_id", experience.ID).Msg("experience created")
	return experience, nil
}

func (s *experienceService) Update(ctx context.Context, id string, payload dto.ExperiencePayload, image *multipart.FileHeader) (dto.Experience, error) {
	ctx, span := s.tracer.Start(ctx, "experience.update", trace.WithAttributes(attribute.String("experience.id", id)))
	defer span.End()

	form, err := s.buildForm(payload, image, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.Experience{}, err
	}

	var updated map[string]any
	if err := s.client.SendMultipart(ctx, http.MethodPatch, "/experience/"+url.PathEscape(id), form, &updated, upstream.Resource(ResourceExperience)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend update failed")
		return dto.Experience{}, translate(err, ErrExperienceNotFound)
	}

	s.events.Publish(ctx, ResourceExperience)
	if len(updated) == 0 {
		return s.fetch(ctx, id)
	}
	return s.mapExperience(updated), nil
}

func (s *experienceService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "experience.delete", trace.WithAttributes(attribute.String("experience.id", id)))
	defer span.End()

	if err := s.client.Delete(ctx, "/experience/"+url.PathEscape(id), upstream.Resource(ResourceExperience)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend delete failed")
		return translate(err, ErrExperienceNotFound)
	}

	s.events.Publish(ctx, ResourceExperience)
	s.logger.Info().Str("experience_id", id).Msg("experience deleted")
	return nil
}

func (s *experienceService) ToggleStatus(ctx context.Context, id string, active bool) (dto.Experience, error) {
	ctx, span := s.tracer.Start(ctx, "experience.toggle_status", trace.WithAttributes(
		attribute.String("experience.id", id),
		attribute.Bool("experience.active", active),
	))
	defer span.End()

	var updated map[string]any
	body := map[string]bool{"active": active}
	if err := s.client.SendJSON(ctx, http.MethodPatch, "/experience/"+url.PathEscape(id)+"/status", body, &updated, upstream.Resource(ResourceExperience)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend toggle failed")
		return dto.Experience{}, translate(err, ErrExperienceNotFound)
	}

	s.events.Publish(ctx, ResourceExperience)
	if len(updated) == 0 {
		return s.fetch(ctx, id)
	}
	return s.mapExperience(updated), nil
}

func (s *experienceService) buildForm(payload dto.ExperiencePayload, image *multipart.FileHeader, imageRequired bool) (upstream.Multipart, error) {
	payload.Name = sanitizeText(payload.Name)
	payload.Description = sanitizeText(payload.Description)
	payload.TrailDifficulty = sanitizeText(payload.TrailDifficulty)
	if err := s.validator.Struct(payload); err != nil {
		return upstream.Multipart{}, err
	}
	if _, ok := dto.ParseCategory(payload.Category); !ok {
		return upstream.Multipart{}, ErrInvalidExperienceCategory
	}

	form := upstream.Multipart{Fields: payload.BackendFields()}
	if image == nil && !imageRequired {
		return form, nil
	}
	file, err := prepareUpload(image, "experienceImage", DefaultMaxUploadBytes, uploadImage)
	if err != nil {
		return upstream.Multipart{}, err
	}
	form.Files = append(form.Files, file)
	return form, nil
}

func (s *experienceService) mapExperience(raw dto.Raw) dto.Experience {
	return dto.MapExperienceWith(raw, s.resolver.Resolve)
}
