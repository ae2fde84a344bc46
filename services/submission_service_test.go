package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"hide-seek-bot/models"
)

type transitionLog struct {
	mu     sync.Mutex
	states map[string][]models.SubmissionState
}

func (l *transitionLog) record(s models.SubmissionSession) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states == nil {
		l.states = make(map[string][]models.SubmissionState)
	}
	l.states[s.ID] = append(l.states[s.ID], s.State)
}

func (l *transitionLog) of(id string) []models.SubmissionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.SubmissionState(nil), l.states[id]...)
}

func newTestSubmissions(t *testing.T) (*SubmissionService, *fakeGateway, *manualScheduler, *transitionLog) {
	t.Helper()
	gw := newFakeGateway()
	sched := &manualScheduler{}
	svc := NewSubmissionService(gw, sched, SubmissionConfig{
		ModerationSurface: "moderation",
		CloseDelay:        10 * time.Second,
		MaxLength:         16,
	})
	log := &transitionLog{}
	svc.OnTransition = log.record
	return svc, gw, sched, log
}

func openSession(t *testing.T, svc *SubmissionService) *models.SubmissionSession {
	t.Helper()
	session, err := svc.Open(context.Background(), OpenRequest{UserID: "D", UserName: "Dee Dee", ItemID: "beta"})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	return session
}

func TestSubmissionLifecycleInOrder(t *testing.T) {
	svc, gw, sched, log := newTestSubmissions(t)
	ctx := context.Background()
	session := openSession(t, svc)

	if session.State != models.SubmissionAwaitingInput {
		t.Fatalf("state after Open = %s", session.State)
	}
	req := gw.surfaces[session.SurfaceID]
	if req.Name != "dee-dee" || len(req.Grant) != 1 || req.Grant[0] != "D" {
		t.Fatalf("surface request = %+v", req)
	}
	prompt := gw.sent(session.SurfaceID)
	if len(prompt) != 1 || prompt[0].Action == nil || prompt[0].Action.ID != ActionID(session.ID) {
		t.Fatalf("prompt = %+v", prompt)
	}

	ix := &fakeInteraction{}
	if err := svc.Activate(ctx, ActionActivated{SessionID: session.ID, UserID: "D", Interaction: ix}); err != nil {
		t.Fatalf("Activate error: %v", err)
	}
	if len(ix.forms) != 1 || ix.forms[0].ID != FormID(session.ID) || ix.forms[0].Field.MaxLength != 16 || !ix.forms[0].Field.Required {
		t.Fatalf("forms = %+v", ix.forms)
	}

	if err := svc.Submit(ctx, FormSubmitted{SessionID: session.ID, UserID: "D", Text: "hello", Interaction: ix}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if len(ix.acks) != 1 || !strings.Contains(ix.acks[0].Description, "10s") {
		t.Fatalf("acks = %+v", ix.acks)
	}
	tasks := sched.pending()
	if len(tasks) != 1 || tasks[0].delay != 10*time.Second {
		t.Fatalf("scheduled teardown = %+v", tasks)
	}
	if !gw.surfaceExists(session.SurfaceID) {
		t.Fatal("surface removed before the delay elapsed")
	}

	sched.fire()
	if gw.surfaceExists(session.SurfaceID) {
		t.Fatal("surface still exists after teardown")
	}
	if _, ok := svc.Session(session.ID); ok {
		t.Fatal("closed session still tracked")
	}

	want := []models.SubmissionState{
		models.SubmissionCreated,
		models.SubmissionAwaitingInput,
		models.SubmissionSubmitted,
		models.SubmissionClosed,
	}
	got := log.of(session.ID)
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
	}
}

func TestSubmissionAcceptsExactlyOne(t *testing.T) {
	svc, gw, _, _ := newTestSubmissions(t)
	session := openSession(t, svc)

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Submit(context.Background(), FormSubmitted{
				SessionID: session.ID, UserID: "D", Text: "hello", Interaction: &fakeInteraction{},
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case !errors.Is(err, ErrSessionClosed):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted = %d, want 1", accepted)
	}
	if n := len(gw.sent("moderation")); n != 1 {
		t.Fatalf("forwarded = %d, want 1", n)
	}

	err := svc.Activate(context.Background(), ActionActivated{SessionID: session.ID, UserID: "D", Interaction: &fakeInteraction{}})
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Activate after submit err = %v, want ErrSessionClosed", err)
	}
}

func TestSubmissionRejectsBadInput(t *testing.T) {
	svc, gw, _, _ := newTestSubmissions(t)
	session := openSession(t, svc)
	ctx := context.Background()

	tests := []struct {
		name string
		ev   FormSubmitted
		want error
	}{
		{"empty", FormSubmitted{SessionID: session.ID, UserID: "D", Text: "   "}, ErrInvalidInput},
		{"too long", FormSubmitted{SessionID: session.ID, UserID: "D", Text: strings.Repeat("é", 17)}, ErrInvalidInput},
		{"other user", FormSubmitted{SessionID: session.ID, UserID: "E", Text: "hi"}, ErrNotSessionOwner},
		{"unknown session", FormSubmitted{SessionID: "nope", UserID: "D", Text: "hi"}, ErrSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ev.Interaction = &fakeInteraction{}
			if err := svc.Submit(ctx, tt.ev); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	got, _ := svc.Session(session.ID)
	if got.State != models.SubmissionAwaitingInput {
		t.Fatalf("state = %s, want awaiting_input", got.State)
	}
	if n := len(gw.sent("moderation")); n != 0 {
		t.Fatalf("forwarded = %d, want 0", n)
	}

	// Exactly at the limit is fine.
	err := svc.Submit(ctx, FormSubmitted{SessionID: session.ID, UserID: "D", Text: strings.Repeat("é", 16), Interaction: &fakeInteraction{}})
	if err != nil {
		t.Fatalf("Submit at limit error: %v", err)
	}
}

func TestSubmissionCloseIsIdempotent(t *testing.T) {
	svc, gw, sched, log := newTestSubmissions(t)
	ctx := context.Background()
	session := openSession(t, svc)
	if err := svc.Submit(ctx, FormSubmitted{SessionID: session.ID, UserID: "D", Text: "hello", Interaction: &fakeInteraction{}}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if err := svc.Close(ctx, session.ID); err != nil {
		t.Fatalf("first Close error: %v", err)
	}
	if err := svc.Close(ctx, session.ID); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	sched.fire()
	if err := svc.Close(ctx, "never-existed"); err != nil {
		t.Fatalf("Close of unknown session error: %v", err)
	}

	if len(gw.deleted) != 1 {
		t.Fatalf("surface deletes = %v, want one", gw.deleted)
	}
	states := log.of(session.ID)
	if states[len(states)-1] != models.SubmissionClosed || len(states) != 4 {
		t.Fatalf("transitions = %v", states)
	}
}

func TestSubmissionCloseIgnoresDeleteErrors(t *testing.T) {
	svc, gw, _, _ := newTestSubmissions(t)
	ctx := context.Background()
	session := openSession(t, svc)
	if err := svc.Submit(ctx, FormSubmitted{SessionID: session.ID, UserID: "D", Text: "hello", Interaction: &fakeInteraction{}}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	// The surface disappears out of band.
	gw.mu.Lock()
	delete(gw.surfaces, session.SurfaceID)
	gw.mu.Unlock()

	if err := svc.Close(ctx, session.ID); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestSubmissionOpenCleansUpWhenPromptFails(t *testing.T) {
	svc, gw, _, _ := newTestSubmissions(t)
	gw.failSend("surface-1", errors.New("missing access"))

	if _, err := svc.Open(context.Background(), OpenRequest{UserID: "D", ItemID: "beta"}); err == nil {
		t.Fatal("Open succeeded with a failing prompt")
	}
	if gw.surfaceCount() != 0 {
		t.Fatal("surface left behind after failed prompt")
	}
	if svc.AwaitingInput() != 0 {
		t.Fatal("session left behind after failed prompt")
	}
}

func TestSubmissionForwardFailureStillTearsDown(t *testing.T) {
	svc, gw, sched, _ := newTestSubmissions(t)
	gw.failSend("moderation", errors.New("missing access"))
	session := openSession(t, svc)

	ix := &fakeInteraction{}
	if err := svc.Submit(context.Background(), FormSubmitted{SessionID: session.ID, UserID: "D", Text: "hello", Interaction: ix}); err == nil {
		t.Fatal("Submit succeeded with a failing moderation surface")
	}
	if len(ix.acks) != 0 {
		t.Fatal("acknowledged a submission that was not forwarded")
	}
	sched.fire()
	if gw.surfaceExists(session.SurfaceID) {
		t.Fatal("surface not torn down after failed forward")
	}
}

func TestSubmissionShutdownClosesPending(t *testing.T) {
	svc, gw, sched, _ := newTestSubmissions(t)
	ctx := context.Background()
	submitted := openSession(t, svc)
	waiting := openSession(t, svc)
	if err := svc.Submit(ctx, FormSubmitted{SessionID: submitted.ID, UserID: "D", Text: "hello", Interaction: &fakeInteraction{}}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	svc.Shutdown(ctx)

	if gw.surfaceExists(submitted.SurfaceID) {
		t.Fatal("submitted surface not closed on shutdown")
	}
	if !gw.surfaceExists(waiting.SurfaceID) {
		t.Fatal("awaiting surface closed on shutdown")
	}
	for _, task := range sched.pending() {
		if !task.cancelled {
			t.Fatal("teardown task not cancelled")
		}
	}
	if svc.AwaitingInput() != 1 {
		t.Fatalf("AwaitingInput = %d, want 1", svc.AwaitingInput())
	}
}

func TestSubmissionClosesWithinDelay(t *testing.T) {
	gw := newFakeGateway()
	sched, err := NewCronScheduler()
	if err != nil {
		t.Fatalf("NewCronScheduler error: %v", err)
	}
	defer sched.Shutdown()

	const delay = 200 * time.Millisecond
	svc := NewSubmissionService(gw, sched, SubmissionConfig{ModerationSurface: "moderation", CloseDelay: delay})
	session := openSession(t, svc)

	start := time.Now()
	if err := svc.Submit(context.Background(), FormSubmitted{SessionID: session.ID, UserID: "D", Text: "hello", Interaction: &fakeInteraction{}}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	for gw.surfaceExists(session.SurfaceID) {
		if time.Since(start) > delay+3*time.Second {
			t.Fatal("surface not closed after delay")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if elapsed := time.Since(start); elapsed < delay-20*time.Millisecond {
		t.Fatalf("closed after %s, before the %s delay", elapsed, delay)
	}
}

func TestCustomIDRoundTrip(t *testing.T) {
	if id, ok := ParseActionID(ActionID("abc")); !ok || id != "abc" {
		t.Fatalf("ParseActionID = %q, %v", id, ok)
	}
	if id, ok := ParseFormID(FormID("abc")); !ok || id != "abc" {
		t.Fatalf("ParseFormID = %q, %v", id, ok)
	}
	if _, ok := ParseFormID(ActionID("abc")); ok {
		t.Fatal("action id parsed as form id")
	}
	if _, ok := ParseActionID("initiate:"); ok {
		t.Fatal("empty session id accepted")
	}
}

func TestSubmissionNormalizesText(t *testing.T) {
	svc, gw, _, _ := newTestSubmissions(t)
	session := openSession(t, svc)

	// 32 runes as sent, 16 after composition, so it fits the limit.
	decomposed := strings.Repeat("e\u0301", 16)
	if err := svc.Submit(context.Background(), FormSubmitted{SessionID: session.ID, UserID: "D", Text: decomposed, Interaction: &fakeInteraction{}}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	forwarded := gw.sent("moderation")
	if len(forwarded) != 1 || forwarded[0].Description != strings.Repeat("\u00e9", 16) {
		t.Fatalf("forwarded = %+v", forwarded)
	}
}
