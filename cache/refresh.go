package cache

import (
	"context"
	"time"

	"github.com/nimbusfs/core/cmn"
	"go.uber.org/zap"
)

// EventKind names what kind of record an Event's id refers to.
type EventKind uint8

const (
	EventResourceChanged EventKind = iota
	EventUserChanged
	EventAccessKeyChanged
	EventPubKeyChanged
	EventRuleChanged
	EventBindingChanged
	EventBundleChanged
	EventEndpointChanged
)

// Event is one entry on the notification bus published by the middle
// layer's "(persist; update cache; publish event)" step (spec.md §4.D).
// Seq is a monotonically increasing, bus-wide sequence number.
type Event struct {
	Seq  int64
	Kind EventKind
	ID   cmn.ID
}

// Source is the notification bus the refresh loop consumes from.
type Source interface {
	Events() <-chan Event
}

// Refresher re-reads one affected id of the given kind from the source
// of truth and installs it into the Store. The catalog package supplies
// the concrete implementation; cache only drives the loop.
type Refresher interface {
	Refresh(kind EventKind, id cmn.ID) error
	// FullResync reloads every record from the source of truth. Called
	// when the refresh loop observes a sequence gap.
	FullResync() error
}

// Run consumes events from src until ctx is cancelled, applying each to
// the cache via ref. On any event whose Seq is more than one past the
// locally applied high-water mark, it performs a full re-sync instead
// of trusting the single event (spec.md §4.D "Refresh path").
//
// Grounded on the teacher's cluster.Smap listener/version-compare
// pattern (cluster/map.go Smap.Compare): a version gap there triggers a
// full Smap re-fetch rather than an incremental patch, the same shape
// used here for the cache's event stream.
func (s *Store) Run(ctx context.Context, src Source, ref Refresher, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src.Events():
			if !ok {
				return
			}
			s.applyEvent(ctx, ev, ref, log)
		}
	}
}

func (s *Store) applyEvent(ctx context.Context, ev Event, ref Refresher, log *zap.Logger) {
	s.mu.RLock()
	hwm := s.hwm
	s.mu.RUnlock()

	if ev.Seq > hwm+1 {
		log.Warn("cache: sequence gap, performing full resync",
			zap.Int64("have", hwm), zap.Int64("event_seq", ev.Seq))
		if err := ref.FullResync(); err != nil {
			log.Error("cache: full resync failed", zap.Error(err))
			return
		}
		s.mu.Lock()
		s.hwm = ev.Seq
		s.mu.Unlock()
		return
	}
	if ev.Seq <= hwm {
		return // already applied, or stale — readers must see a prefix of history, never go backwards
	}

	if err := ref.Refresh(ev.Kind, ev.ID); err != nil {
		log.Error("cache: refresh failed", zap.Int64("seq", ev.Seq), zap.Error(err))
		return
	}
	s.mu.Lock()
	s.hwm = ev.Seq
	s.mu.Unlock()
}

// memBus is a simple in-process Source, used by tests and by
// single-process deployments where the middle layer and cache share an
// address space.
type memBus struct {
	ch chan Event
}

func NewMemBus(buffer int) *memBus {
	return &memBus{ch: make(chan Event, buffer)}
}

func (b *memBus) Events() <-chan Event { return b.ch }

// Publish enqueues ev, blocking if the buffer is full rather than
// dropping — readers must never observe a gap the publisher didn't
// intend.
func (b *memBus) Publish(ev Event) { b.ch <- ev }

// PublishTimeout is Publish with a bound, for callers that would rather
// fail the request than block indefinitely under backpressure.
func (b *memBus) PublishTimeout(ev Event, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case b.ch <- ev:
		return true
	case <-t.C:
		return false
	}
}
