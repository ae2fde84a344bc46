// services/submission_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"

	"hide-seek-bot/models"
)

// OpenRequest identifies the finder a submission surface is opened for.
type OpenRequest struct {
	UserID   string
	UserName string
	ItemID   string
}

type SubmissionConfig struct {
	ModerationSurface string
	CloseDelay        time.Duration
	MaxLength         int
}

type submissionEntry struct {
	session  models.SubmissionSession
	teardown Task
}

// SubmissionService drives sessions through Created -> AwaitingInput -> Submitted -> Closed.
// Sessions live in memory; a restart forgets them but leaves their surfaces behind.
type SubmissionService struct {
	gateway   Gateway
	scheduler Scheduler
	cfg       SubmissionConfig

	// OnTransition, if set, observes every state change in order.
	OnTransition func(models.SubmissionSession)
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*submissionEntry
}

func NewSubmissionService(gateway Gateway, scheduler Scheduler, cfg SubmissionConfig) *SubmissionService {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 1024
	}
	return &SubmissionService{
		gateway:   gateway,
		scheduler: scheduler,
		cfg:       cfg,
		now:       time.Now,
		sessions:  make(map[string]*submissionEntry),
	}
}

// Open provisions the private surface, posts the prompt and leaves the session awaiting input.
func (s *SubmissionService) Open(ctx context.Context, req OpenRequest) (*models.SubmissionSession, error) {
	surfaceID, err := s.gateway.CreateScopedSurface(ctx, SurfaceRequest{
		Name:  surfaceName(req),
		Grant: []string{req.UserID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission surface: %w", err)
	}

	entry := &submissionEntry{session: models.SubmissionSession{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		UserName:  req.UserName,
		ItemID:    req.ItemID,
		SurfaceID: surfaceID,
		State:     models.SubmissionCreated,
		CreatedAt: s.now(),
	}}
	s.mu.Lock()
	s.sessions[entry.session.ID] = entry
	created := entry.session
	s.mu.Unlock()
	s.notify(created)

	err = s.gateway.SendMessage(ctx, surfaceID, Message{
		MentionUserID: req.UserID,
		Title:         "You found a special item!",
		Description:   "Press the button below to submit your change request. Only one submission is accepted.",
		Action:        &Action{ID: ActionID(created.ID), Label: "Open Modal"},
	})
	if err != nil {
		s.abort(ctx, created.ID)
		return nil, fmt.Errorf("failed to send submission prompt: %w", err)
	}

	s.mu.Lock()
	if err := entry.session.Advance(models.SubmissionAwaitingInput, s.now()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	awaiting := entry.session
	s.mu.Unlock()
	s.notify(awaiting)

	log.Printf("📨 [SUBMISSION] Opened session %s for %s on %s", awaiting.ID, req.UserID, req.ItemID)
	return &awaiting, nil
}

// Activate presents the text form to the session owner.
func (s *SubmissionService) Activate(ctx context.Context, ev ActionActivated) error {
	session, err := s.lookup(ev.SessionID, ev.UserID)
	if err != nil {
		return err
	}
	if session.State != models.SubmissionAwaitingInput {
		return ErrSessionClosed
	}
	return ev.Interaction.PresentForm(ctx, Form{
		ID:    FormID(session.ID),
		Title: "Submit Change Request",
		Field: FormField{
			ID:          "input",
			Label:       "Change Request",
			Placeholder: "Submit your change request here.",
			MaxLength:   s.cfg.MaxLength,
			Required:    true,
		},
	})
}

// Submit accepts exactly one text per session, forwards it to moderation and schedules teardown.
func (s *SubmissionService) Submit(ctx context.Context, ev FormSubmitted) error {
	ev.Text = norm.NFC.String(ev.Text)
	if strings.TrimSpace(ev.Text) == "" {
		return invalidf("submission text is required")
	}
	if utf8.RuneCountInString(ev.Text) > s.cfg.MaxLength {
		return invalidf("submission exceeds %d characters", s.cfg.MaxLength)
	}

	s.mu.Lock()
	entry, ok := s.sessions[ev.SessionID]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	if entry.session.UserID != ev.UserID {
		s.mu.Unlock()
		return ErrNotSessionOwner
	}
	if entry.session.State != models.SubmissionAwaitingInput {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if err := entry.session.Advance(models.SubmissionSubmitted, s.now()); err != nil {
		s.mu.Unlock()
		return err
	}
	submitted := entry.session
	s.mu.Unlock()
	s.notify(submitted)

	userName := ev.UserName
	if userName == "" {
		userName = submitted.UserName
	}
	forwardErr := s.gateway.SendMessage(ctx, s.cfg.ModerationSurface, Message{
		Title:         "New Change Request",
		Description:   ev.Text,
		AuthorName:    userName,
		AuthorIconURL: ev.AvatarURL,
		Footer:        fmt.Sprintf("%s · item %s", submitted.UserID, submitted.ItemID),
	})
	if forwardErr == nil {
		ackErr := ev.Interaction.Acknowledge(ctx, Message{
			Title: "Request Submitted!",
			Description: fmt.Sprintf("Your request has been submitted. Thank you for participating! This channel will be deleted in %s.",
				s.cfg.CloseDelay),
		})
		if ackErr != nil {
			log.Printf("⚠️ [SUBMISSION] Failed to acknowledge session %s: %v", submitted.ID, ackErr)
		}
	}

	s.scheduleClose(submitted.ID)

	if forwardErr != nil {
		return fmt.Errorf("failed to forward submission %s: %w", submitted.ID, forwardErr)
	}
	log.Printf("✅ [SUBMISSION] Session %s submitted by %s", submitted.ID, submitted.UserID)
	return nil
}

func (s *SubmissionService) scheduleClose(sessionID string) {
	task, err := s.scheduler.After(s.cfg.CloseDelay, func() {
		if err := s.Close(context.Background(), sessionID); err != nil {
			log.Printf("❌ [SUBMISSION] Scheduled close of %s failed: %v", sessionID, err)
		}
	})
	if err != nil {
		log.Printf("⚠️ [SUBMISSION] Could not schedule close of %s, closing now: %v", sessionID, err)
		_ = s.Close(context.Background(), sessionID)
		return
	}
	s.mu.Lock()
	if entry, ok := s.sessions[sessionID]; ok {
		entry.teardown = task
	}
	s.mu.Unlock()
}

// Close tears down a submitted session's surface. Closing a closed or unknown session is a no-op.
func (s *SubmissionService) Close(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if !ok || entry.session.State != models.SubmissionSubmitted {
		s.mu.Unlock()
		return nil
	}
	if err := entry.session.Advance(models.SubmissionClosed, s.now()); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.sessions, sessionID)
	closed := entry.session
	s.mu.Unlock()

	if err := s.gateway.DeleteSurface(ctx, closed.SurfaceID); err != nil {
		log.Printf("⚠️ [SUBMISSION] Ignoring surface delete error for %s: %v", closed.SurfaceID, err)
	}
	s.notify(closed)
	log.Printf("🧹 [SUBMISSION] Closed session %s", closed.ID)
	return nil
}

// Shutdown closes every submitted session right away instead of waiting for its timer.
func (s *SubmissionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	var pending []string
	for id, entry := range s.sessions {
		if entry.session.State != models.SubmissionSubmitted {
			continue
		}
		if entry.teardown != nil {
			if err := entry.teardown.Cancel(); err != nil {
				log.Printf("[SUBMISSION] Cancel teardown %s: %v", id, err)
			}
		}
		pending = append(pending, id)
	}
	s.mu.Unlock()

	for _, id := range pending {
		if err := s.Close(ctx, id); err != nil {
			log.Printf("❌ [SUBMISSION] Close on shutdown %s: %v", id, err)
		}
	}
}

// Session returns a snapshot of a live session.
func (s *SubmissionService) Session(sessionID string) (models.SubmissionSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return models.SubmissionSession{}, false
	}
	return entry.session, true
}

// AwaitingInput counts sessions still holding a surface open without a submission.
func (s *SubmissionService) AwaitingInput() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entry := range s.sessions {
		if entry.session.State == models.SubmissionAwaitingInput {
			n++
		}
	}
	return n
}

func (s *SubmissionService) lookup(sessionID, userID string) (models.SubmissionSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return models.SubmissionSession{}, ErrSessionNotFound
	}
	if entry.session.UserID != userID {
		return models.SubmissionSession{}, ErrNotSessionOwner
	}
	return entry.session, nil
}

// abort drops a session that never reached AwaitingInput.
func (s *SubmissionService) abort(ctx context.Context, sessionID string) {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.gateway.DeleteSurface(ctx, entry.session.SurfaceID); err != nil {
		log.Printf("⚠️ [SUBMISSION] Ignoring surface delete error for %s: %v", entry.session.SurfaceID, err)
	}
}

func (s *SubmissionService) notify(session models.SubmissionSession) {
	if s.OnTransition != nil {
		s.OnTransition(session)
	}
}

func surfaceName(req OpenRequest) string {
	if name := slug.Make(req.UserName); name != "" {
		return name
	}
	return "find-" + req.UserID
}
