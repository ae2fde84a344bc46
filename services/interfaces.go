package services

import (
	"context"

	"hide-seek-bot/models"
)

// FindLedger is the set of atomic primitives a find attempt is built from.
type FindLedger interface {
	DecrementRemaining(ctx context.Context, itemID string) (*models.Item, error)
	ItemExists(ctx context.Context, itemID string) (bool, error)
	InsertFind(ctx context.Context, userID, itemID string) (existed bool, err error)
	IncrementScore(ctx context.Context, userID string, points, bonus int64) (*models.UserScore, error)
}

// AdminLedger covers registration and read-only reporting.
type AdminLedger interface {
	CreateItem(ctx context.Context, item *models.Item) (existed bool, err error)
	DeleteItem(ctx context.Context, itemID string) (existed bool, err error)
	GetItem(ctx context.Context, itemID string) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	GetScore(ctx context.Context, userID string) (*models.UserScore, error)
	Leaderboard(ctx context.Context, offset, limit int) ([]models.UserScore, error)
	FindCounts(ctx context.Context) (map[string]int64, error)
}

// HiddenSet backs single-claim mode. RemoveIfPresent must be atomic per id.
type HiddenSet interface {
	RemoveIfPresent(ctx context.Context, itemID string) (bool, error)
	Add(ctx context.Context, itemID string) error
	List(ctx context.Context) ([]string, error)
}

// SubmissionStarter opens the private submission workflow for a finder.
type SubmissionStarter interface {
	Open(ctx context.Context, req OpenRequest) (*models.SubmissionSession, error)
}

// Archiver stores report files and returns where they can be fetched.
type Archiver interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
