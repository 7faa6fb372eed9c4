package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/models"
	"github.com/promata/reservas-gateway/internal/repository"
)

// ErrCartItemInvalid indicates an add without an experience id.
var ErrCartItemInvalid = errors.New("cart item requires an experience id")

// CartService manages the caller's experience cart. Items are persisted; the open flag lives
// in memory and starts closed.
type CartService interface {
	Get(ctx context.Context, userID string) (dto.Cart, error)
	Add(ctx context.Context, userID, experienceID string) (dto.Cart, error)
	Remove(ctx context.Context, userID, experienceID string) (dto.Cart, error)
	Clear(ctx context.Context, userID string) (dto.Cart, error)
	Open(ctx context.Context, userID string) (dto.Cart, error)
	Close(ctx context.Context, userID string) (dto.Cart, error)
	Toggle(ctx context.Context, userID string) (dto.Cart, error)
}

type cartService struct {
	repo        repository.CartRepository
	experiences ExperienceService
	logger      zerolog.Logger

	mu   sync.Mutex
	open map[string]bool
}

// NewCartService constructs the cart service.
func NewCartService(repo repository.CartRepository, experiences ExperienceService, logger zerolog.Logger) CartService {
	return &cartService{
		repo:        repo,
		experiences: experiences,
		logger:      logger.With().Str("component", "cart_service").Logger(),
		open:        map[string]bool{},
	}
}

func (s *cartService) Get(ctx context.Context, userID string) (dto.Cart, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return dto.Cart{}, err
	}

	experiences := make([]dto.Experience, 0, len(items))
	for _, item := range items {
		var experience dto.Experience
		if err := json.Unmarshal(item.Snapshot, &experience); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Str("experience_id", item.ExperienceID).Msg("skipping unreadable cart item")
			continue
		}
		experiences = append(experiences, experience)
	}
	return dto.NewCart(experiences, s.isOpen(userID)), nil
}

// Add stores the current view of the experience. Adding an experience already in the cart
// replaces it in place.
func (s *cartService) Add(ctx context.Context, userID, experienceID string) (dto.Cart, error) {
	experienceID = strings.TrimSpace(experienceID)
	if experienceID == "" {
		return dto.Cart{}, ErrCartItemInvalid
	}

	experience, err := s.experiences.Get(ctx, experienceID)
	if err != nil {
		return dto.Cart{}, err
	}
	snapshot, err := json.Marshal(experience)
	if err != nil {
		return dto.Cart{}, err
	}

	item := &models.CartItem{UserID: userID, ExperienceID: experience.ID, Snapshot: datatypes.JSON(snapshot)}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return dto.Cart{}, err
	}
	s.logger.Debug().Str("user_id", userID).Str("experience_id", experience.ID).Int("position", item.Position).Msg("cart item stored")
	return s.Get(ctx, userID)
}

func (s *cartService) Remove(ctx context.Context, userID, experienceID string) (dto.Cart, error) {
	if _, err := s.repo.Remove(ctx, userID, strings.TrimSpace(experienceID)); err != nil {
		return dto.Cart{}, err
	}
	return s.Get(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID string) (dto.Cart, error) {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return dto.Cart{}, err
	}
	return s.Get(ctx, userID)
}

func (s *cartService) Open(ctx context.Context, userID string) (dto.Cart, error) {
	s.setOpen(userID, func(bool) bool { return true })
	return s.Get(ctx, userID)
}

func (s *cartService) Close(ctx context.Context, userID string) (dto.Cart, error) {
	s.setOpen(userID, func(bool) bool { return false })
	return s.Get(ctx, userID)
}

func (s *cartService) Toggle(ctx context.Context, userID string) (dto.Cart, error) {
	s.setOpen(userID, func(open bool) bool { return !open })
	return s.Get(ctx, userID)
}

func (s *cartService) isOpen(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[userID]
}

func (s *cartService) setOpen(userID string, next func(bool) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next(s.open[userID]) {
		s.open[userID] = true
		return
	}
	delete(s.open, userID)
}
