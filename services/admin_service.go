// services/admin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"hide-seek-bot/models"
)

var ErrArchiveDisabled = errors.New("dump archive is not configured")

type AdminService struct {
	ledger   AdminLedger
	ids      *IDValidator
	audit    *AuditLog
	archiver Archiver
	pageSize int
}

// NewAdminService builds the registration and reporting service. archiver may be nil.
func NewAdminService(ledger AdminLedger, ids *IDValidator, audit *AuditLog, archiver Archiver, pageSize int) *AdminService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &AdminService{ledger: ledger, ids: ids, audit: audit, archiver: archiver, pageSize: pageSize}
}

func (s *AdminService) PageSize() int { return s.pageSize }

// RegisterItem inserts an item if absent. An existing item is left untouched.
func (s *AdminService) RegisterItem(ctx context.Context, itemID string, points, remaining int, bonus bool) (bool, error) {
	if err := s.ids.Validate("message", itemID); err != nil {
		return false, err
	}
	if points < 0 {
		return false, invalidf("points must be >= 0, got %d", points)
	}
	if remaining < 0 {
		return false, invalidf("remaining must be >= 0, got %d", remaining)
	}

	item := &models.Item{ID: itemID, Points: points, Remaining: remaining, Bonus: bonus}
	existed, err := s.ledger.CreateItem(ctx, item)
	if err != nil {
		return false, storeErr(err)
	}
	if existed {
		return true, nil
	}

	log.Printf("✅ [ADMIN] Registered %s", DescribeItem(*item))
	s.audit.Post(ctx, Message{Content: fmt.Sprintf("message `%s` added: %s per find, %s remaining, %s show modal on find",
		item.ID, Plural(int64(item.Points), "point"), Plural(int64(item.Remaining), "find"), willOrWont(item.Bonus))})
	return false, nil
}

// RegisterPreset registers an item with one of the named presets.
func (s *AdminService) RegisterPreset(ctx context.Context, preset, itemID string) (bool, error) {
	p, ok := models.LookupPreset(preset)
	if !ok {
		return false, invalidf("unknown preset %q, expected one of %s", preset, strings.Join(models.PresetNames(), ", "))
	}
	return s.RegisterItem(ctx, itemID, p.Points, p.Remaining, p.Bonus)
}

// UnregisterItem deletes an item. Finds already recorded against it stay.
func (s *AdminService) UnregisterItem(ctx context.Context, itemID string) (bool, error) {
	if err := s.ids.Validate("message", itemID); err != nil {
		return false, err
	}
	existed, err := s.ledger.DeleteItem(ctx, itemID)
	if err != nil {
		return false, storeErr(err)
	}
	if existed {
		log.Printf("🗑️ [ADMIN] Unregistered %s", itemID)
		s.audit.Post(ctx, Message{Content: fmt.Sprintf("message `%s` removed from database", itemID)})
	}
	return existed, nil
}

// Item returns nil when the id is not registered.
func (s *AdminService) Item(ctx context.Context, itemID string) (*models.Item, error) {
	if err := s.ids.Validate("message", itemID); err != nil {
		return nil, err
	}
	item, err := s.ledger.GetItem(ctx, itemID)
	if err != nil {
		return nil, storeErr(err)
	}
	return item, nil
}

func (s *AdminService) Items(ctx context.Context) ([]models.Item, error) {
	items, err := s.ledger.ListItems(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// QueryScore returns 0 for users that never found anything.
func (s *AdminService) QueryScore(ctx context.Context, userID string) (int64, error) {
	if err := s.ids.Validate("user", userID); err != nil {
		return 0, err
	}
	score, err := s.ledger.GetScore(ctx, userID)
	if err != nil {
		return 0, storeErr(err)
	}
	if score == nil {
		return 0, nil
	}
	return score.Points, nil
}

func (s *AdminService) QueryLeaderboard(ctx context.Context, offset, limit int) ([]models.UserScore, error) {
	if offset < 0 {
		return nil, invalidf("offset must be >= 0, got %d", offset)
	}
	if limit <= 0 {
		return nil, invalidf("limit must be > 0, got %d", limit)
	}
	scores, err := s.ledger.Leaderboard(ctx, offset, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return scores, nil
}

// LeaderboardPage returns a 1-based page of the leaderboard.
func (s *AdminService) LeaderboardPage(ctx context.Context, page int) ([]models.UserScore, error) {
	if page < 1 {
		return nil, invalidf("page must be >= 1, got %d", page)
	}
	if page-1 > math.MaxInt32/s.pageSize {
		return []models.UserScore{}, nil
	}
	return s.QueryLeaderboard(ctx, (page-1)*s.pageSize, s.pageSize)
}

// Dump renders one line per user, highest score first.
func (s *AdminService) Dump(ctx context.Context) (string, error) {
	scores, err := s.ledger.Leaderboard(ctx, 0, -1)
	if err != nil {
		return "", storeErr(err)
	}
	counts, err := s.ledger.FindCounts(ctx)
	if err != nil {
		return "", storeErr(err)
	}

	var b strings.Builder
	for _, score := range scores {
		fmt.Fprintf(&b, "%s: %s, %s, %s total\n",
			score.UserID,
			Plural(score.Points, "point"),
			Plural(score.BonusCount, "modal"),
			Plural(counts[score.UserID], "find"))
	}
	return b.String(), nil
}

// ArchiveDump uploads the current dump and returns its public URL.
func (s *AdminService) ArchiveDump(ctx context.Context) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveDisabled
	}
	report, err := s.Dump(ctx)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("dumps/%s.txt", time.Now().UTC().Format("20060102T150405Z"))
	url, err := s.archiver.Upload(ctx, key, []byte(report), "text/plain; charset=utf-8")
	if err != nil {
		return "", fmt.Errorf("failed to archive dump: %w", err)
	}
	log.Printf("📦 [ADMIN] Archived dump to %s", url)
	return url, nil
}
