package event

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
)

// ErrBusClosed is returned when publishing on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// Publisher is the side of the bus the editor depends on.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe removes the subscription. Safe to call more than once.
	Unsubscribe()
}

// BusConfig configures bus behavior.
type BusConfig struct {
	// BufferSize is the channel buffer size per subscription.
	// Default: 256
	BufferSize int

	// NonBlocking makes Publish drop events for full subscribers instead of
	// waiting. Editors use this so a slow renderer never stalls an edit.
	NonBlocking bool

	// OnDrop is called when an event is dropped (non-blocking mode).
	OnDrop func(evt Event, subscriberID string)

	// OnError is called when a handler returns an error.
	OnError func(evt Event, subscriberID string, err error)
}

// DefaultBusConfig provides reasonable defaults.
var DefaultBusConfig = BusConfig{
	BufferSize:  256,
	NonBlocking: true,
}

// LocalBus is an in-memory fan-out bus. Each subscription has its own
// goroutine, so delivery order is preserved per subscriber.
type LocalBus struct {
	config BusConfig

	mu     sync.RWMutex
	byType map[string]map[string]*subscription
	all    map[string]*subscription

	nextID  atomic.Int64
	closed  atomic.Bool
	closeCh chan struct{}
}

// NewBus creates a new local event bus.
func NewBus(config BusConfig) *LocalBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBusConfig.BufferSize
	}
	return &LocalBus{
		config:  config,
		byType:  make(map[string]map[string]*subscription),
		all:     make(map[string]*subscription),
		closeCh: make(chan struct{}),
	}
}

type subscription struct {
	id      string
	types   []string
	handler Handler
	events  chan Event
	done    chan struct{}
	once    sync.Once
	bus     *LocalBus
}

// Publish delivers evt to every matching subscriber.
func (b *LocalBus) Publish(ctx context.Context, evt Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.all)+len(b.byType[evt.Type]))
	for _, sub := range b.byType[evt.Type] {
		subs = append(subs, sub)
	}
	for _, sub := range b.all {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if b.config.NonBlocking {
			select {
			case sub.events <- evt:
			default:
				if b.config.OnDrop != nil {
					b.config.OnDrop(evt, sub.id)
				}
			}
			continue
		}
		select {
		case sub.events <- evt:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closeCh:
			return ErrBusClosed
		}
	}
	return nil
}

// Subscribe registers handler for the given event types.
// It returns nil once the bus is closed.
func (b *LocalBus) Subscribe(types []string, handler Handler) Subscription {
	if len(types) == 0 {
		return nil
	}
	return b.subscribe(types, handler)
}

// SubscribeAll registers handler for every event type.
func (b *LocalBus) SubscribeAll(handler Handler) Subscription {
	return b.subscribe(nil, handler)
}

func (b *LocalBus) subscribe(types []string, handler Handler) Subscription {
	if b.closed.Load() {
		return nil
	}

	sub := &subscription{
		id:      strconv.FormatInt(b.nextID.Add(1), 10),
		types:   types,
		handler: handler,
		events:  make(chan Event, b.config.BufferSize),
		done:    make(chan struct{}),
		bus:     b,
	}

	b.mu.Lock()
	if len(types) == 0 {
		b.all[sub.id] = sub
	}
	for _, t := range types {
		if b.byType[t] == nil {
			b.byType[t] = make(map[string]*subscription)
		}
		b.byType[t][sub.id] = sub
	}
	b.mu.Unlock()

	go sub.process()
	return sub
}

// Close stops every subscription. Pending events are discarded.
func (b *LocalBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.closeCh)

	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.all))
	for _, sub := range b.all {
		subs = append(subs, sub)
	}
	for _, typed := range b.byType {
		for _, sub := range typed {
			subs = append(subs, sub)
		}
	}
	b.all = map[string]*subscription{}
	b.byType = map[string]map[string]*subscription{}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

func (s *subscription) process() {
	for {
		select {
		case evt := <-s.events:
			if err := s.handler.Handle(evt); err != nil && s.bus.config.OnError != nil {
				s.bus.config.OnError(evt, s.id, err)
			}
		case <-s.done:
			return
		}
	}
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Unsubscribe removes the subscription.
func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	delete(s.bus.all, s.id)
	for _, t := range s.types {
		delete(s.bus.byType[t], s.id)
	}
	s.bus.mu.Unlock()
	s.stop()
}

// Recorder is a Handler that keeps every event it receives. Useful for
// tests and for replaying an editing session.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Handle implements Handler.
func (r *Recorder) Handle(evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in arrival order.
func (r *Recorder) Types() []string {
	evts := r.Events()
	out := make([]string, len(evts))
	for i, e := range evts {
		out[i] = e.Type
	}
	return out
}
