// workers/dispatcher.go
package workers

import (
	"context"
	"log"
	"sync"
)

// Event is anything the platform pushes at us.
type Event interface {
	Kind() string
}

// Handler processes one event. Returned errors are logged; the event is not retried.
type Handler func(ctx context.Context, ev Event) error

// Dispatcher fans a single inbound event stream out to subscribed handlers.
// Each delivery runs on its own goroutine so events on unrelated items interleave freely.
type Dispatcher struct {
	events chan Event

	mu       sync.RWMutex
	handlers map[string][]Handler

	inflight sync.WaitGroup
	done     chan struct{}
}

func NewDispatcher(buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		events:   make(chan Event, buffer),
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
}

func (d *Dispatcher) Subscribe(kind string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Publish enqueues ev without blocking. It reports false when the buffer is full and the event was dropped.
func (d *Dispatcher) Publish(ev Event) bool {
	select {
	case d.events <- ev:
		return true
	default:
		log.Printf("⚠️ [DISPATCH] Queue full, dropping %s event", ev.Kind())
		return false
	}
}

// Start consumes events until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	log.Println("🔁 Starting event dispatcher…")
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Event dispatcher stopped")
			return
		case ev := <-d.events:
			d.dispatch(ctx, ev)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev Event) {
	d.mu.RLock()
	handlers := d.handlers[ev.Kind()]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		log.Printf("[DISPATCH] No handler for %s", ev.Kind())
		return
	}
	for _, h := range handlers {
		d.inflight.Add(1)
		go func(h Handler) {
			defer d.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("❌ [DISPATCH] Handler for %s panicked: %v", ev.Kind(), r)
				}
			}()
			if err := h(context.WithoutCancel(ctx), ev); err != nil {
				log.Printf("❌ [DISPATCH] %s: %v", ev.Kind(), err)
			}
		}(h)
	}
}

// Wait blocks until the consumer loop has exited and every in-flight handler returned.
func (d *Dispatcher) Wait() {
	<-d.done
	d.inflight.Wait()
}
