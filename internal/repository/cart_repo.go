package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/promata/reservas-gateway/internal/models"
)

// CartRepository persists cart items per user.
type CartRepository interface {
	List(ctx context.Context, userID string) ([]models.CartItem, error)
	Upsert(ctx context.Context, item *models.CartItem) error
	Remove(ctx context.Context, userID, experienceID string) (bool, error)
	Clear(ctx context.Context, userID string) error
}

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository constructs a cart repository backed by GORM.
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert replaces the snapshot of an item already in the cart, keeping its position, or
// appends it at the end.
func (r *cartRepository) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CartItem
		err := tx.Where("user_id = ? AND experience_id = ?", item.UserID, item.ExperienceID).First(&existing).Error
		switch {
		case err == nil:
			item.ID = existing.ID
			item.Position = existing.Position
			item.CreatedAt = existing.CreatedAt
			return tx.Model(&existing).Update("snapshot", item.Snapshot).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var maxPosition int
		if err := tx.Model(&models.CartItem{}).
			Where("user_id = ?", item.UserID).
			Select("COALESCE(MAX(position), -1)").
			Row().
			Scan(&maxPosition); err != nil {
			return err
		}
		item.Position = maxPosition + 1
		return tx.Create(item).Error
	})
}

func (r *cartRepository) Remove(ctx context.Context, userID, experienceID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND experience_id = ?", userID, experienceID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
