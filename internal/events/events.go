// Package events delivers vault notifications to registered handlers, one at a time.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Paintersrp/metamatter/internal/logger"
)

// ErrClosed is returned when publishing to a closed bus.
var ErrClosed = errors.New("event bus closed")

type Kind int

const (
	// NoteChanged is published when a note is created or modified.
	NoteChanged Kind = iota + 1
	// NoteRemoved is published when a note is deleted or moved away.
	NoteRemoved
	// LayoutReady is published once the vault has been scanned and watched.
	LayoutReady
)

func (k Kind) String() string {
	switch k {
	case NoteChanged:
		return "note-changed"
	case NoteRemoved:
		return "note-removed"
	case LayoutReady:
		return "layout-ready"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event carries a vault-relative path. LayoutReady events have no path.
type Event struct {
	Kind Kind
	Path string
}

type Handler func(ctx context.Context, ev Event) error

// Bus queues events and runs their handlers sequentially on the goroutine
// that calls Run.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler

	queue     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewBus(buffer int) *Bus {
	if buffer < 0 {
		buffer = 0
	}
	return &Bus{
		handlers: make(map[Kind][]Handler),
		queue:    make(chan Event, buffer),
		done:     make(chan struct{}),
	}
}

// On registers h for events of the given kind. Handlers run in registration order.
func (b *Bus) On(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish queues ev, blocking while the queue is full.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}

	select {
	case b.queue <- ev:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches queued events until ctx is cancelled or the bus is closed.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		case ev := <-b.queue:
			b.Dispatch(ctx, ev)
		}
	}
}

// Dispatch runs every handler registered for ev.Kind. Handler errors and
// panics are logged and do not stop the remaining handlers.
func (b *Bus) Dispatch(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[ev.Kind]...)
	b.mu.RUnlock()

	log := logger.G(ctx).WithField("event", ev.Kind.String())
	if ev.Path != "" {
		log = log.WithField("path", ev.Path)
	}

	for _, h := range handlers {
		if err := safeCall(ctx, h, ev); err != nil {
			log.WithError(err).Error("event handler failed")
		}
	}
}

func safeCall(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, ev)
}

// Close stops Run and rejects further events. It is safe to call more than once.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}
