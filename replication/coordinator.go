// Package replication implements the per-(endpoint, resource)
// replication state machine (spec.md §4.H): replicate_full,
// replicate_partial, delete_replication, and the retry/reconciliation
// loop that demotes stalled transfers to Error.
//
// Grounded on the teacher's reb package (rebalance/resilvering
// coordinator): a small state enum driving a per-subject record,
// advanced by external callbacks rather than by the coordinator doing
// the byte copy itself, with a staleness check that demotes a stalled
// transfer. Generalized from reb's single cluster-wide rebalance run to
// many independent per-(endpoint, resource) records, since this
// system's replication targets are data-proxy endpoints rather than
// storage targets within one cluster.
package replication

import (
	"sync"
	"time"

	"github.com/nimbusfs/core/cmn"
)

// Key identifies one replication record.
type Key struct {
	EndpointID cmn.ID
	ResourceID cmn.ID
}

// Record is the state of one (endpoint, resource) replication pair.
type Record struct {
	Key          Key
	Status       cmn.ReplicationStatus
	Type         cmn.ReplicationType
	LastProgress time.Time
}

// StaleAfter is how long a Running record may go without progress
// before the coordinator demotes it to Error (spec.md §4.H "Retry /
// failure").
const StaleAfter = 5 * time.Minute

// Coordinator holds every in-flight replication record. A single
// RWMutex guards the map; the spec's "multiple readers, single writer
// per (endpoint, resource)" is satisfied because all writes go through
// Coordinator's own methods, which take the write lock for the whole
// map — simple and correct at the scale a single catalog process
// handles; a sharded-lock map would only be worth it under contention
// this system doesn't see (§5 "Cache entries use per-shard
// read/write locks" is about the resource cache, not this coordinator).
type Coordinator struct {
	mu      sync.RWMutex
	records map[Key]*Record
}

func NewCoordinator() *Coordinator {
	return &Coordinator{records: make(map[Key]*Record)}
}

// ReplicateFull idempotently inserts Waiting/FullSync bindings for
// project and every one of its descendants (spec.md §4.H
// "replicate_full"). Re-running it for ids already tracked at endpoint
// is a no-op for those ids.
func (c *Coordinator) ReplicateFull(endpoint cmn.ID, resourceIDs []cmn.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rid := range resourceIDs {
		k := Key{EndpointID: endpoint, ResourceID: rid}
		if _, exists := c.records[k]; exists {
			continue
		}
		c.records[k] = &Record{Key: k, Status: cmn.ReplWaiting, Type: cmn.ReplicationFull, LastProgress: time.Now()}
	}
}

// ReplicatePartial inserts a single Waiting/PartialSync binding for
// resource (spec.md §4.H "replicate_partial") — unlike ReplicateFull,
// descendants are never implied.
func (c *Coordinator) ReplicatePartial(endpoint, resource cmn.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := Key{EndpointID: endpoint, ResourceID: resource}
	if _, exists := c.records[k]; exists {
		return
	}
	c.records[k] = &Record{Key: k, Status: cmn.ReplWaiting, Type: cmn.ReplicationPartial, LastProgress: time.Now()}
}

// DeleteReplication removes the binding (spec.md §4.H
// "delete_replication"); the caller is responsible for checking whether
// resource remains available anywhere else before serving subsequent
// reads.
func (c *Coordinator) DeleteReplication(endpoint, resource cmn.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, Key{EndpointID: endpoint, ResourceID: resource})
}

// Get returns the current record, if any.
func (c *Coordinator) Get(endpoint, resource cmn.ID) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[Key{EndpointID: endpoint, ResourceID: resource}]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// WaitingFor returns every record still Waiting at endpoint, for the
// endpoint to poll and advance (spec.md §4.H "the target endpoint polls
// Waiting records").
func (c *Coordinator) WaitingFor(endpoint cmn.ID) []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Record
	for k, r := range c.records {
		if k.EndpointID == endpoint && r.Status == cmn.ReplWaiting {
			out = append(out, *r)
		}
	}
	return out
}

// UpdateStatus applies an `update_replication_status` callback
// (spec.md §4.H). The caller must have already verified the presented
// token carries a valid proxy intent for endpoint — this method does
// not re-check authorization.
func (c *Coordinator) UpdateStatus(endpoint, resource cmn.ID, status cmn.ReplicationStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := Key{EndpointID: endpoint, ResourceID: resource}
	r, ok := c.records[k]
	if !ok {
		return cmn.ErrNotFound
	}
	r.Status = status
	r.LastProgress = time.Now()
	return nil
}

// Lags returns, per endpoint, how long its most-stalled Running record
// has gone without progress as of now. Endpoints with no Running record
// are omitted. Used to feed the replication-lag gauge (stats.Registry).
func (c *Coordinator) Lags(now time.Time) map[cmn.ID]time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[cmn.ID]time.Duration)
	for _, r := range c.records {
		if r.Status != cmn.ReplRunning {
			continue
		}
		lag := now.Sub(r.LastProgress)
		if cur, ok := out[r.Key.EndpointID]; !ok || lag > cur {
			out[r.Key.EndpointID] = lag
		}
	}
	return out
}

// Reconcile demotes every Running record that hasn't progressed within
// StaleAfter to Error, and re-queues every Error record back to
// Waiting so it is retried. Called on a reconciliation tick and
// opportunistically from an external request (spec.md §4.H "Retry /
// failure").
func (c *Coordinator) Reconcile(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.Status == cmn.ReplRunning && now.Sub(r.LastProgress) > StaleAfter {
			r.Status = cmn.ReplError
			continue
		}
		if r.Status == cmn.ReplError {
			r.Status = cmn.ReplWaiting
			r.LastProgress = now
		}
	}
}
