// store/ledger.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hide-seek-bot/models"
)

// GormLedger keeps items, finds and scores in a SQL database.
// Every mutating method is one statement; none of them opens a transaction.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// DecrementRemaining takes one find from the item's budget if any is left.
// It returns nil when no item with remaining > 0 exists. Unlimited items keep their budget.
func (r *GormLedger) DecrementRemaining(ctx context.Context, itemID string) (*models.Item, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND remaining > 0", itemID).
		Updates(map[string]interface{}{
			"remaining":  gorm.Expr("CASE WHEN remaining >= ? THEN remaining ELSE remaining - 1 END", models.UnlimitedFinds),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to decrement item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	// points and bonus never change after registration, so reading back is safe
	item, err := r.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ItemExists reports whether the item is registered at all.
func (r *GormLedger) ItemExists(ctx context.Context, itemID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check item %s: %w", itemID, err)
	}
	return count > 0, nil
}

// InsertFind records the (user, item) find unless it already exists.
func (r *GormLedger) InsertFind(ctx context.Context, userID, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Find{UserID: userID, ItemID: itemID})
	if res.Error != nil {
		return false, fmt.Errorf("failed to record find %s/%s: %w", userID, itemID, res.Error)
	}
	return res.RowsAffected == 0, nil
}

// IncrementScore adds to the user's totals, creating the row on first find.
func (r *GormLedger) IncrementScore(ctx context.Context, userID string, points, bonus int64) (*models.UserScore, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":      gorm.Expr("user_scores.points + ?", points),
				"bonus_count": gorm.Expr("user_scores.bonus_count + ?", bonus),
				"updated_at":  time.Now(),
			}),
		}).
		Create(&models.UserScore{UserID: userID, Points: points, BonusCount: bonus})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to increment score for %s: %w", userID, res.Error)
	}

	score, err := r.GetScore(ctx, userID)
	if err != nil {
		return nil, err
	}
	if score == nil {
		return nil, fmt.Errorf("score for %s missing after increment", userID)
	}
	return score, nil
}

// CreateItem inserts the item unless one with the same id exists.
func (r *GormLedger) CreateItem(ctx context.Context, item *models.Item) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(item)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create item %s: %w", item.ID, res.Error)
	}
	return res.RowsAffected == 0, nil
}

// DeleteItem removes the item. Finds are kept so the gate survives a re-register.
func (r *GormLedger) DeleteItem(ctx context.Context, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", itemID)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete item %s: %w", itemID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetItem returns nil when the item does not exist.
func (r *GormLedger) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load item %s: %w", itemID, err)
	}
	return &item, nil
}

func (r *GormLedger) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// GetScore returns nil when the user has never found anything.
func (r *GormLedger) GetScore(ctx context.Context, userID string) (*models.UserScore, error) {
	var score models.UserScore
	if err := r.db.WithContext(ctx).First(&score, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load score for %s: %w", userID, err)
	}
	return &score, nil
}

// Leaderboard orders by points, ties by user id. A negative limit returns everything from offset.
func (r *GormLedger) Leaderboard(ctx context.Context, offset, limit int) ([]models.UserScore, error) {
	var scores []models.UserScore
	err := r.db.WithContext(ctx).
		Order("points DESC, user_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return scores, nil
}

// FindCounts returns the number of finds per user.
func (r *GormLedger) FindCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		UserID string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Find{}).
		Select("user_id, count(*) AS total").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count finds: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Total
	}
	return counts, nil
}
