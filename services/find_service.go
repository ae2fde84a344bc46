// services/find_service.go
package services

import (
	"context"
	"fmt"
	"log"

	"hide-seek-bot/models"
)

type FindStatus string

const (
	FindAwarded        FindStatus = "awarded"
	FindAlreadyClaimed FindStatus = "already_claimed"
	FindExhausted      FindStatus = "exhausted"
	FindNotRegistered  FindStatus = "not_registered"
)

// FindOutcome is the result of one claim attempt. Item and Score are only set when Status is FindAwarded.
type FindOutcome struct {
	Status FindStatus
	Points int
	Bonus  bool
	Item   *models.Item
	Score  *models.UserScore
}

type FindService struct {
	ledger      FindLedger
	submissions SubmissionStarter
	audit       *AuditLog
}

// NewFindService wires the coordinator. submissions may be nil, in which case bonus awards only score.
func NewFindService(ledger FindLedger, submissions SubmissionStarter, audit *AuditLog) *FindService {
	return &FindService{ledger: ledger, submissions: submissions, audit: audit}
}

// AttemptFind runs decrement, gate and increment strictly in that order. Each step is one atomic
// store call; any failure aborts with ErrStoreUnavailable and nothing is compensated.
// Budget consumed by a duplicate claim is not refunded.
func (s *FindService) AttemptFind(ctx context.Context, itemID, userID string) (FindOutcome, error) {
	item, err := s.ledger.DecrementRemaining(ctx, itemID)
	if err != nil {
		return FindOutcome{}, storeErr(err)
	}
	if item == nil {
		exists, err := s.ledger.ItemExists(ctx, itemID)
		if err != nil {
			return FindOutcome{}, storeErr(err)
		}
		if exists {
			return FindOutcome{Status: FindExhausted}, nil
		}
		return FindOutcome{Status: FindNotRegistered}, nil
	}

	existed, err := s.ledger.InsertFind(ctx, userID, itemID)
	if err != nil {
		return FindOutcome{}, storeErr(err)
	}
	if existed {
		return FindOutcome{Status: FindAlreadyClaimed}, nil
	}

	var bonus int64
	if item.Bonus {
		bonus = 1
	}
	score, err := s.ledger.IncrementScore(ctx, userID, int64(item.Points), bonus)
	if err != nil {
		return FindOutcome{}, storeErr(err)
	}

	return FindOutcome{
		Status: FindAwarded,
		Points: item.Points,
		Bonus:  item.Bonus,
		Item:   item,
		Score:  score,
	}, nil
}

// HandleClaimAttempt is the dispatcher entry point for a reaction on a possible item.
// Non-award outcomes are declined silently.
func (s *FindService) HandleClaimAttempt(ctx context.Context, ev ClaimAttempted) error {
	outcome, err := s.AttemptFind(ctx, ev.ItemID, ev.UserID)
	if err != nil {
		return fmt.Errorf("claim on %s by %s dropped: %w", ev.ItemID, ev.UserID, err)
	}
	if outcome.Status != FindAwarded {
		return nil
	}

	log.Printf("🎯 [FIND] %s found %s (+%d, total %d)", ev.UserID, ev.ItemID, outcome.Points, outcome.Score.Points)

	shown := "was not"
	if outcome.Bonus && s.submissions != nil {
		shown = "was"
	}
	s.audit.Post(ctx, Message{
		MentionUserID: ev.UserID,
		Content: fmt.Sprintf("found `%s`, gaining %s (now at %d); modal %s shown",
			ev.ItemID, Plural(int64(outcome.Points), "point"), outcome.Score.Points, shown),
	})

	if !outcome.Bonus || s.submissions == nil {
		return nil
	}
	if _, err := s.submissions.Open(ctx, OpenRequest{
		UserID:   ev.UserID,
		UserName: ev.UserName,
		ItemID:   ev.ItemID,
	}); err != nil {
		return fmt.Errorf("failed to open submission for %s on %s: %w", ev.UserID, ev.ItemID, err)
	}
	return nil
}
