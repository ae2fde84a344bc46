package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hide-seek-bot/models"
)

// GormHiddenSet keeps single-claim items as rows; the DELETE is the atomic remove-if-present.
type GormHiddenSet struct {
	db *gorm.DB
}

func NewGormHiddenSet(db *gorm.DB) *GormHiddenSet {
	return &GormHiddenSet{db: db}
}

func (s *GormHiddenSet) RemoveIfPresent(ctx context.Context, itemID string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.HiddenEntry{}, "item_id = ?", itemID)
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove hidden item %s: %w", itemID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormHiddenSet) Add(ctx context.Context, itemID string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.HiddenEntry{ItemID: itemID}).Error
	if err != nil {
		return fmt.Errorf("failed to add hidden item %s: %w", itemID, err)
	}
	return nil
}

func (s *GormHiddenSet) List(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.HiddenEntry{}).Order("item_id ASC").Pluck("item_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list hidden items: %w", err)
	}
	return ids, nil
}
