package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.NewStore(nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetResourceAndPathIndex(t *testing.T) {
	s := newTestStore(t)
	id := cmn.NewID()
	r := &graph.Resource{ID: id, DisplayName: "proj"}
	s.PutResource(r, "proj/")

	got, prefix, ok := s.GetResource(id)
	if !ok || got.ID != id || prefix != "proj/" {
		t.Fatalf("GetResource returned %v %q %v", got, prefix, ok)
	}

	resolved, ok := s.ResolvePath("proj/")
	if !ok || resolved != id {
		t.Fatalf("ResolvePath: got %v %v, want %v", resolved, ok, id)
	}
}

func TestListPathPrefix(t *testing.T) {
	s := newTestStore(t)
	a := cmn.NewID()
	b := cmn.NewID()
	other := cmn.NewID()
	s.PutResource(&graph.Resource{ID: a}, "proj/coll/a")
	s.PutResource(&graph.Resource{ID: b}, "proj/coll/b")
	s.PutResource(&graph.Resource{ID: other}, "proj/other")

	got := s.ListPathPrefix("proj/coll/")
	if len(got) != 2 {
		t.Fatalf("ListPathPrefix: got %v, want 2 entries", got)
	}
}

func TestRemoveResource(t *testing.T) {
	s := newTestStore(t)
	id := cmn.NewID()
	s.PutResource(&graph.Resource{ID: id}, "p/")
	s.RemoveResource(id)

	if _, _, ok := s.GetResource(id); ok {
		t.Fatal("expected resource to be removed")
	}
	if _, ok := s.ResolvePath("p/"); ok {
		t.Fatal("expected path index entry to be removed")
	}
}

func TestBindingsForCascade(t *testing.T) {
	s := newTestStore(t)
	proj, coll := cmn.NewID(), cmn.NewID()

	s.PutBinding(&cache.RuleBinding{ID: cmn.NewID(), RuleID: cmn.NewID(), Target: proj, Cascade: true})
	s.PutBinding(&cache.RuleBinding{ID: cmn.NewID(), RuleID: cmn.NewID(), Target: coll, Cascade: false})

	// chain: coll (self, index 0) then proj (ancestor, index 1).
	got := s.BindingsFor([]cmn.ID{coll, proj})
	if len(got) != 2 {
		t.Fatalf("BindingsFor: got %d bindings, want 2 (own + cascaded)", len(got))
	}

	// A binding on an ancestor that isn't cascading must not apply
	// when that ancestor is not the direct target.
	s.PutBinding(&cache.RuleBinding{ID: cmn.NewID(), RuleID: cmn.NewID(), Target: proj, Cascade: false})
	got2 := s.BindingsFor([]cmn.ID{coll, proj})
	if len(got2) != 2 {
		t.Fatalf("BindingsFor: non-cascading ancestor binding leaked in, got %d", len(got2))
	}
}

type fakeRefresher struct {
	refreshed  []cmn.ID
	resyncs    int
	refreshErr error
}

func (f *fakeRefresher) Refresh(kind cache.EventKind, id cmn.ID) error {
	f.refreshed = append(f.refreshed, id)
	return f.refreshErr
}

func (f *fakeRefresher) FullResync() error {
	f.resyncs++
	return nil
}

func TestRunAppliesSequentialEvents(t *testing.T) {
	s := newTestStore(t)
	bus := cache.NewMemBus(4)
	ref := &fakeRefresher{}
	log := zap.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, bus, ref, log)
		close(done)
	}()

	id1, id2 := cmn.NewID(), cmn.NewID()
	bus.Publish(cache.Event{Seq: 1, Kind: cache.EventResourceChanged, ID: id1})
	bus.Publish(cache.Event{Seq: 2, Kind: cache.EventResourceChanged, ID: id2})

	waitForHWM(t, s, 2)
	if len(ref.refreshed) != 2 {
		t.Fatalf("expected 2 incremental refreshes, got %d", len(ref.refreshed))
	}
	if ref.resyncs != 0 {
		t.Fatalf("expected no resync for sequential events, got %d", ref.resyncs)
	}

	cancel()
	<-done
}

func TestRunFullResyncsOnSequenceGap(t *testing.T) {
	s := newTestStore(t)
	bus := cache.NewMemBus(4)
	ref := &fakeRefresher{}
	log := zap.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, bus, ref, log)
		close(done)
	}()

	// Jump straight to seq 5: a gap from hwm=0.
	bus.Publish(cache.Event{Seq: 5, Kind: cache.EventResourceChanged, ID: cmn.NewID()})

	waitForHWM(t, s, 5)
	if ref.resyncs != 1 {
		t.Fatalf("expected exactly one full resync, got %d", ref.resyncs)
	}

	cancel()
	<-done
}

func waitForHWM(t *testing.T, s *cache.Store, want int64) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if s.HighWaterMark() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("high-water mark never reached %d, got %d", want, s.HighWaterMark())
}
