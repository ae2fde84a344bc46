package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hide-seek-bot/models"
)

type fakeGateway struct {
	mu       sync.Mutex
	next     int
	surfaces map[string]SurfaceRequest
	messages map[string][]Message
	deleted  []string

	sendErr   map[string]error
	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		surfaces: make(map[string]SurfaceRequest),
		messages: make(map[string][]Message),
		sendErr:  make(map[string]error),
	}
}

func (g *fakeGateway) CreateScopedSurface(_ context.Context, req SurfaceRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return "", g.createErr
	}
	g.next++
	id := fmt.Sprintf("surface-%d", g.next)
	g.surfaces[id] = req
	return id, nil
}

func (g *fakeGateway) SendMessage(_ context.Context, surfaceID string, msg Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sendErr[surfaceID]; err != nil {
		return err
	}
	g.messages[surfaceID] = append(g.messages[surfaceID], msg)
	return nil
}

func (g *fakeGateway) DeleteSurface(_ context.Context, surfaceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, surfaceID)
	if _, ok := g.surfaces[surfaceID]; !ok {
		return errors.New("unknown channel")
	}
	delete(g.surfaces, surfaceID)
	return nil
}

func (g *fakeGateway) failSend(surfaceID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendErr[surfaceID] = err
}

func (g *fakeGateway) sent(surfaceID string) []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Message(nil), g.messages[surfaceID]...)
}

func (g *fakeGateway) surfaceExists(surfaceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.surfaces[surfaceID]
	return ok
}

func (g *fakeGateway) surfaceCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.surfaces)
}

type fakeInteraction struct {
	mu    sync.Mutex
	forms []Form
	acks  []Message
}

func (i *fakeInteraction) PresentForm(_ context.Context, form Form) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.forms = append(i.forms, form)
	return nil
}

func (i *fakeInteraction) Acknowledge(_ context.Context, msg Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.acks = append(i.acks, msg)
	return nil
}

// manualScheduler holds tasks until fire is called.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	delay     time.Duration
	fn        func()
	cancelled bool
}

func (t *manualTask) Cancel() error {
	t.cancelled = true
	return nil
}

func (s *manualScheduler) After(delay time.Duration, fn func()) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{delay: delay, fn: fn}
	s.tasks = append(s.tasks, task)
	return task, nil
}

func (s *manualScheduler) fire() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, t := range tasks {
		if !t.cancelled {
			t.fn()
		}
	}
}

func (s *manualScheduler) pending() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*manualTask(nil), s.tasks...)
}

// failingLedger fails the named step and counts calls to every step.
type failingLedger struct {
	FindLedger
	failOn string

	mu    sync.Mutex
	calls map[string]int
}

func (l *failingLedger) step(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[name]++
	if name == l.failOn {
		return errors.New("connection refused")
	}
	return nil
}

func (l *failingLedger) called(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[name]
}

func (l *failingLedger) DecrementRemaining(ctx context.Context, itemID string) (*models.Item, error) {
	if err := l.step("decrement"); err != nil {
		return nil, err
	}
	return l.FindLedger.DecrementRemaining(ctx, itemID)
}

func (l *failingLedger) ItemExists(ctx context.Context, itemID string) (bool, error) {
	if err := l.step("exists"); err != nil {
		return false, err
	}
	return l.FindLedger.ItemExists(ctx, itemID)
}

func (l *failingLedger) InsertFind(ctx context.Context, userID, itemID string) (bool, error) {
	if err := l.step("insert"); err != nil {
		return false, err
	}
	return l.FindLedger.InsertFind(ctx, userID, itemID)
}

func (l *failingLedger) IncrementScore(ctx context.Context, userID string, points, bonus int64) (*models.UserScore, error) {
	if err := l.step("increment"); err != nil {
		return nil, err
	}
	return l.FindLedger.IncrementScore(ctx, userID, points, bonus)
}

type fakeArchiver struct {
	key  string
	body string
	err  error
}

func (a *fakeArchiver) Upload(_ context.Context, key string, body []byte, _ string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.key = key
	a.body = string(body)
	return "https://cdn.example.com/" + key, nil
}
