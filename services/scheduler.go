// services/scheduler.go
package services

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// Task is a scheduled unit of work that has not necessarily run yet.
type Task interface {
	Cancel() error
}

// Scheduler runs deferred work off the caller's goroutine.
type Scheduler interface {
	After(delay time.Duration, fn func()) (Task, error)
}

// CronScheduler is the gocron-backed Scheduler.
type CronScheduler struct {
	sched gocron.Scheduler
}

func NewCronScheduler() (*CronScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	sched.Start()
	return &CronScheduler{sched: sched}, nil
}

// After runs fn once, delay from now.
func (c *CronScheduler) After(delay time.Duration, fn func()) (Task, error) {
	start := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(delay))
	}
	job, err := c.sched.NewJob(gocron.OneTimeJob(start), gocron.NewTask(fn))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule one-time job: %w", err)
	}
	return &cronTask{sched: c.sched, id: job.ID()}, nil
}

// Every runs fn on a fixed interval until shutdown.
func (c *CronScheduler) Every(interval time.Duration, fn func()) error {
	_, err := c.sched.NewJob(gocron.DurationJob(interval), gocron.NewTask(fn))
	if err != nil {
		return fmt.Errorf("failed to schedule periodic job: %w", err)
	}
	return nil
}

func (c *CronScheduler) Shutdown() {
	if err := c.sched.Shutdown(); err != nil {
		log.Printf("[Scheduler] Shutdown error: %v", err)
	}
}

type cronTask struct {
	sched gocron.Scheduler
	id    uuid.UUID
}

func (t *cronTask) Cancel() error {
	return t.sched.RemoveJob(t.id)
}
