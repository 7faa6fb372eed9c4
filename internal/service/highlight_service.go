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
	// ErrHighlightNotFound indicates the backend does not know the highlight.
	ErrHighlightNotFound = errors.New("highlight not found")
	// ErrInvalidHighlightCategory indicates a payload category outside the highlight slots.
	ErrInvalidHighlightCategory = errors.New("invalid highlight category")
)

// HighlightService exposes the portal highlights and forwards admin edits.
type HighlightService interface {
	List(ctx context.Context, filters query.Values) (dto.Page[dto.Highlight], error)
	Get(ctx context.Context, id string) (dto.Highlight, error)
	Grouped(ctx context.Context) (dto.GroupedHighlights, error)
	PublicGrouped(ctx context.Context) (dto.GroupedHighlights, error)
	Create(ctx context.Context, payload dto.HighlightPayload, image *multipart.FileHeader) (dto.Highlight, error)
	Update(ctx context.Context, id string, payload dto.HighlightPayload, image *multipart.FileHeader) (dto.Highlight, error)
	Delete(ctx context.Context, id string) error
}

type highlightService struct {
	client    *upstream.Client
	cache     *cache.QueryCache
	events    Invalidator
	resolver  dto.ImageResolver
	validator *validator.Validate
	ttl       CacheTTL
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewHighlightService constructs the highlight service.
func NewHighlightService(client *upstream.Client, qc *cache.QueryCache, events Invalidator, resolver dto.ImageResolver, validate *validator.Validate, ttl CacheTTL, logger zerolog.Logger) HighlightService {
	return &highlightService{
		client:    client,
		cache:     qc,
		events:    invalidatorOrNoop(events),
		resolver:  resolver,
		validator: validate,
		ttl:       ttl,
		logger:    logger.With().Str("component", "highlight_service").Logger(),
		tracer:    otel.Tracer("github.com/promata/reservas-gateway/internal/service/highlight"),
	}
}

func (s *highlightService) List(ctx context.Context, filters query.Values) (dto.Page[dto.Highlight], error) {
	qs, err := query.SafeParseFilters(filters, dto.HighlightFilters)
	if err != nil {
		return dto.Page[dto.Highlight]{}, err
	}

	ctx, span := s.tracer.Start(ctx, "highlight.list", trace.WithAttributes(attribute.String("highlight.query", qs)))
	defer span.End()

	key := cache.Key(ResourceHighlight, "list", qs)
	return cachedRead(ctx, s.cache, ResourceHighlight, key, s.ttl.List, func(ctx context.Context) (dto.Page[dto.Highlight], error) {
		payload, err := s.client.SafeGet(ctx, "/highlights"+qs, upstream.SchemaHighlightPage, upstream.List(), upstream.Resource(ResourceHighlight))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend list failed")
			return dto.Page[dto.Highlight]{}, translate(err, nil)
		}
		return dto.DecodePage(payload, dto.ObjectItem(s.mapHighlight)), nil
	})
}

func (s *highlightService) Get(ctx context.Context, id string) (dto.Highlight, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dto.Highlight{}, ErrHighlightNotFound
	}

	ctx, span := s.tracer.Start(ctx, "highlight.get", trace.WithAttributes(attribute.String("highlight.id", id)))
	defer span.End()

	key := cache.Key(ResourceHighlight, "detail", id)
	return cachedRead(ctx, s.cache, ResourceHighlight, key, s.ttl.Detail, func(ctx context.Context) (dto.Highlight, error) {
		return s.fetch(ctx, id)
	})
}

func (s *highlightService) fetch(ctx context.Context, id string) (dto.Highlight, error) {
	payload, err := s.client.SafeGet(ctx, "/highlights/"+url.PathEscape(id), upstream.SchemaHighlight, upstream.Resource(ResourceHighlight))
	if err != nil {
		return dto.Highlight{}, translate(err, ErrHighlightNotFound)
	}
	raw, _ := payload.(map[string]any)
	return s.mapHighlight(raw), nil
}

func (s *highlightService) Grouped(ctx context.Context) (dto.GroupedHighlights, error) {
	return s.grouped(ctx, "/highlights/grouped", "grouped")
}

func (s *highlightService) PublicGrouped(ctx context.Context) (dto.GroupedHighlights, error) {
	return s.grouped(ctx, "/highlights/public/grouped", "public")
}

func (s *highlightService) grouped(ctx context.Context, path, scope string) (dto.GroupedHighlights, error) {
	ctx, span := s.tracer.Start(ctx, "highlight.grouped", trace.WithAttributes(attribute.String("highlight.scope", scope)))
	defer span.End()

	key := cache.Key(ResourceHighlight, "grouped", scope)
	return cachedRead(ctx, s.cache, ResourceHighlight, key, s.ttl.List, func(ctx context.Context) (dto.GroupedHighlights, error) {
		payload, err := s.client.SafeGet(ctx, path, upstream.SchemaHighlightsGrouped, upstream.List(), upstream.Resource(ResourceHighlight))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend grouped failed")
			return nil, translate(err, nil)
		}
		raw, _ := payload.(map[string]any)
		return dto.MapGroupedHighlights(raw, s.resolver.Resolve), nil
	})
}

func (s *highlightService) Create(ctx context.Context, payload dto.HighlightPayload, image *multipart.FileHeader) (dto.Highlight, error) {
	ctx, span := s.tracer.Start(ctx, "highlight.create")
	defer span.End()

	if _, ok := dto.ParseHighlightCategory(payload.Category); !ok {
		return dto.Highlight{}, ErrInvalidHighlightCategory
	}
	form, err := s.buildForm(payload, image, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.Highlight{}, err
	}

	var created map[string]any
	if err := s.client.SendMultipart(ctx, http.MethodPost, "/highlights", form, &created, upstream.Resource(ResourceHighlight)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend create failed")
		return dto.Highlight{}, translate(err, nil)
	}

	s.events.Publish(ctx, ResourceHighlight)
	highlight := s.mapHighlight(created)
	s.logger.Info().Str("highlight_id", highlight.ID).Str("category", string(highlight.Category)).Msg("highlight created")
	return highlight, nil
}

func (s *highlightService) Update(ctx context.Context, id string, payload dto.HighlightPayload, image *multipart.FileHeader) (dto.Highlight, error) {
	ctx, span := s.tracer.Start(ctx, "highlight.update", trace.WithAttributes(attribute.String("highlight.id", id)))
	defer span.End()

	if payload.Category != "" {
		if _, ok := dto.ParseHighlightCategory(payload.Category); !ok {
			return dto.Highlight{}, ErrInvalidHighlightCategory
		}
	}
	form, err := s.buildForm(payload, image, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.Highlight{}, err
	}

	var updated map[string]any
	if err := s.client.SendMultipart(ctx, http.MethodPut, "/highlights/"+url.PathEscape(id), form, &updated, upstream.Resource(ResourceHighlight)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend update failed")
		return dto.Highlight{}, translate(err, ErrHighlightNotFound)
	}

	s.events.Publish(ctx, ResourceHighlight)
	if len(updated) == 0 {
		return s.fetch(ctx, id)
	}
	return s.mapHighlight(updated), nil
}

func (s *highlightService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "highlight.delete", trace.WithAttributes(attribute.String("highlight.id", id)))
	defer span.End()

	if err := s.client.Delete(ctx, "/highlights/"+url.PathEscape(id), upstream.Resource(ResourceHighlight)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend delete failed")
		return translate(err, ErrHighlightNotFound)
	}

	s.events.Publish(ctx, ResourceHighlight)
	s.logger.Info().Str("highlight_id", id).Msg("highlight deleted")
	return nil
}

func (s *highlightService) buildForm(payload dto.HighlightPayload, image *multipart.FileHeader, imageRequired bool) (upstream.Multipart, error) {
	if payload.Category != "" {
		category, _ := dto.ParseHighlightCategory(payload.Category)
		payload.Category = string(category)
	}
	payload.Title = sanitizeText(payload.Title)
	payload.Description = sanitizeOptional(payload.Description)
	if err := s.validator.Struct(payload); err != nil {
		return upstream.Multipart{}, err
	}

	form := upstream.Multipart{Fields: payload.BackendFields()}
	if image == nil && !imageRequired {
		return form, nil
	}
	file, err := prepareUpload(image, "image", DefaultMaxUploadBytes, uploadImage)
	if err != nil {
		return upstream.Multipart{}, err
	}
	form.Files = append(form.Files, file)
	return form, nil
}

func (s *highlightService) mapHighlight(raw dto.Raw) dto.Highlight {
	return dto.MapHighlight(raw, s.resolver.Resolve)
}
