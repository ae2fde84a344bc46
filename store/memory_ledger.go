package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"hide-seek-bot/models"
)

type findKey struct {
	userID string
	itemID string
}

// MemoryLedger is a process-local ledger for development and tests.
// The mutex makes each method one atomic step, matching what the SQL statements give GormLedger.
type MemoryLedger struct {
	mu     sync.Mutex
	items  map[string]models.Item
	finds  map[findKey]time.Time
	scores map[string]models.UserScore
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		items:  make(map[string]models.Item),
		finds:  make(map[findKey]time.Time),
		scores: make(map[string]models.UserScore),
	}
}

func (m *MemoryLedger) DecrementRemaining(_ context.Context, itemID string) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok || item.Remaining <= 0 {
		return nil, nil
	}
	if !item.Unlimited() {
		item.Remaining--
	}
	item.UpdatedAt = time.Now()
	m.items[itemID] = item
	return &item, nil
}

func (m *MemoryLedger) ItemExists(_ context.Context, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[itemID]
	return ok, nil
}

func (m *MemoryLedger) InsertFind(_ context.Context, userID, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := findKey{userID: userID, itemID: itemID}
	if _, ok := m.finds[key]; ok {
		return true, nil
	}
	m.finds[key] = time.Now()
	return false, nil
}

func (m *MemoryLedger) IncrementScore(_ context.Context, userID string, points, bonus int64) (*models.UserScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	score := m.scores[userID]
	score.UserID = userID
	score.Points += points
	score.BonusCount += bonus
	score.UpdatedAt = time.Now()
	m.scores[userID] = score
	return &score, nil
}

func (m *MemoryLedger) CreateItem(_ context.Context, item *models.Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; ok {
		return true, nil
	}
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	m.items[item.ID] = *item
	return false, nil
}

func (m *MemoryLedger) DeleteItem(_ context.Context, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[itemID]; !ok {
		return false, nil
	}
	delete(m.items, itemID)
	return true, nil
}

func (m *MemoryLedger) GetItem(_ context.Context, itemID string) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *MemoryLedger) ListItems(_ context.Context) ([]models.Item, error) {
	m.mu.Lock()
	items := make([]models.Item, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	m.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (m *MemoryLedger) GetScore(_ context.Context, userID string) (*models.UserScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	score, ok := m.scores[userID]
	if !ok {
		return nil, nil
	}
	return &score, nil
}

func (m *MemoryLedger) Leaderboard(_ context.Context, offset, limit int) ([]models.UserScore, error) {
	m.mu.Lock()
	scores := make([]models.UserScore, 0, len(m.scores))
	for _, s := range m.scores {
		scores = append(scores, s)
	}
	m.mu.Unlock()

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Points != scores[j].Points {
			return scores[i].Points > scores[j].Points
		}
		return scores[i].UserID < scores[j].UserID
	})

	if offset >= len(scores) {
		return []models.UserScore{}, nil
	}
	end := offset + limit
	if limit < 0 || end > len(scores) {
		end = len(scores)
	}
	return scores[offset:end], nil
}

func (m *MemoryLedger) FindCounts(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int64)
	for key := range m.finds {
		counts[key.userID]++
	}
	return counts, nil
}
