// services/single_claim_service.go
package services

import (
	"context"
	"fmt"
	"log"
)

// SingleClaimService is the unscored mode: the first user to remove an id from the hidden set wins it.
type SingleClaimService struct {
	set         HiddenSet
	submissions SubmissionStarter
	announcer   *AuditLog
	ids         *IDValidator
}

// NewSingleClaimService builds the variant. announcer posts "X was just found" lines and may be nil.
func NewSingleClaimService(set HiddenSet, submissions SubmissionStarter, announcer *AuditLog, ids *IDValidator) *SingleClaimService {
	return &SingleClaimService{set: set, submissions: submissions, announcer: announcer, ids: ids}
}

// Claim reports whether this call won the id. Later claimants are ignored without error.
func (s *SingleClaimService) Claim(ctx context.Context, ev ClaimAttempted) (bool, error) {
	removed, err := s.set.RemoveIfPresent(ctx, ev.ItemID)
	if err != nil {
		return false, storeErr(err)
	}
	if !removed {
		return false, nil
	}
	log.Printf("🎯 [SINGLE] %s claimed %s", ev.UserID, ev.ItemID)

	var openErr error
	if s.submissions != nil {
		if _, err := s.submissions.Open(ctx, OpenRequest{UserID: ev.UserID, UserName: ev.UserName, ItemID: ev.ItemID}); err != nil {
			openErr = fmt.Errorf("failed to open submission for %s on %s: %w", ev.UserID, ev.ItemID, err)
		}
	}

	link := ev.ItemURL
	if link == "" {
		link = "`" + ev.ItemID + "`"
	}
	finder := ev.UserName
	if finder == "" {
		finder = ev.UserID
	}
	s.announcer.Post(ctx, Message{Content: fmt.Sprintf("%s was just found by %s!", link, finder)})
	return true, openErr
}

func (s *SingleClaimService) HandleClaimAttempt(ctx context.Context, ev ClaimAttempted) error {
	_, err := s.Claim(ctx, ev)
	return err
}

func (s *SingleClaimService) Hide(ctx context.Context, itemID string) error {
	if err := s.ids.Validate("message", itemID); err != nil {
		return err
	}
	if err := s.set.Add(ctx, itemID); err != nil {
		return storeErr(err)
	}
	log.Printf("🙈 [SINGLE] Hid %s", itemID)
	return nil
}

// Unhide removes an id without awarding it.
func (s *SingleClaimService) Unhide(ctx context.Context, itemID string) (bool, error) {
	if err := s.ids.Validate("message", itemID); err != nil {
		return false, err
	}
	removed, err := s.set.RemoveIfPresent(ctx, itemID)
	if err != nil {
		return false, storeErr(err)
	}
	return removed, nil
}

func (s *SingleClaimService) Hidden(ctx context.Context) ([]string, error) {
	ids, err := s.set.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return ids, nil
}
