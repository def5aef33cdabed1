package catalog

import (
	"strings"
	"sync"
	"time"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/credential"
	"github.com/nimbusfs/core/graph"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/replication"
	"github.com/nimbusfs/core/rules"
	"github.com/nimbusfs/core/stats"
	"github.com/nimbusfs/core/token"
	"go.uber.org/zap"
)

// Bus is the subset of cache.memBus's exported surface the middle layer
// needs to publish notification events (spec.md §4.D coherence
// contract). cache.NewMemBus satisfies it.
type Bus interface {
	Publish(cache.Event)
}

// Catalog wires the resource graph, the authoritative Store, the
// process-wide cache, the permission resolver, the rule engine, the
// replication coordinator, and the token signer into the single object
// every middle-layer handler method hangs off of.
//
// Grounded on the teacher's daemon context (ais/daemon.go's single
// global holding every subsystem) generalized from a package-level
// global to an explicit, constructor-built value — this module has no
// single global *Catalog, matching spec.md §9's "constructed at startup
// and destroyed at shutdown through a single owning handle" scoped to
// just the cache and pubkey ring, not the whole daemon.
type Catalog struct {
	Graph   *graph.Store
	Store   *Store
	Cache   *cache.Store
	Perms   *permission.Resolver
	Rules   *rules.Engine
	Repl    *replication.Coordinator
	Signer  *token.Signer
	Bus     Bus
	Log     *zap.Logger

	// Stats is optional: nil in tests that don't care about metrics.
	// When set, handlers record their outcome through it (see track()).
	Stats *stats.Registry

	// CredentialDialer resolves the credential.CredentialService client
	// for a catalogued endpoint (spec.md §4.I steps 2-3); nil in tests
	// that don't exercise GetS3Credentials.
	CredentialDialer func(*Endpoint) credential.CredentialService

	seqMu sync.Mutex
	seq   int64
}

func New(g *graph.Store, st *Store, ch *cache.Store, perms *permission.Resolver, re *rules.Engine, repl *replication.Coordinator, signer *token.Signer, bus Bus, log *zap.Logger) *Catalog {
	return &Catalog{Graph: g, Store: st, Cache: ch, Perms: perms, Rules: re, Repl: repl, Signer: signer, Bus: bus, Log: log}
}

// track records one handler invocation's outcome and latency through
// Stats, the way ais/prxtxn.go's handlers fold a stat bump into their
// own return path; a no-op when Stats is nil (e.g. in tests that don't
// construct a Registry).
func (c *Catalog) track(handler stats.Handler, start time.Time, err error) {
	if c.Stats == nil {
		return
	}
	kind := ""
	if err != nil {
		kind = cmn.KindOf(err).String()
	}
	c.Stats.Observe(handler, start, kind)
}

func (c *Catalog) nextSeq() int64 {
	c.seqMu.Lock()
	defer c.seqMu.Unlock()
	c.seq++
	return c.seq
}

// publish implements the "publish event" leg of spec.md §4.D's
// "(persist; update cache; publish event)" coherence contract.
func (c *Catalog) publish(kind cache.EventKind, id cmn.ID) {
	c.Bus.Publish(cache.Event{Seq: c.nextSeq(), Kind: kind, ID: id})
}

// pathPrefix joins the display names from root Project down to r,
// separated by "/", with a trailing "/" — the shape cache.Store indexes
// resources under (spec.md §4.D "path -> resource-id map").
func (c *Catalog) pathPrefix(r *graph.Resource) string {
	chain := c.Graph.Ancestors(r.ID) // self first, root last
	names := make([]string, len(chain))
	for i, id := range chain {
		if res, ok := c.Graph.Get(id); ok {
			names[len(chain)-1-i] = res.DisplayName
		}
	}
	return strings.Join(names, "/") + "/"
}

// syncResource pushes r's current graph state into the cache, the
// second leg of the coherence contract.
func (c *Catalog) syncResource(r *graph.Resource) {
	c.Cache.PutResource(r, c.pathPrefix(r))
}

// LoadResource implements cache.ResourceLoader by reading straight
// through to graph.Store, which is itself the authoritative resource
// record (spec.md §1 treats the real persistence engine as external;
// graph.Store stands in for it here).
func (c *Catalog) LoadResource(id cmn.ID) (*graph.Resource, string, error) {
	r, ok := c.Graph.Get(id)
	if !ok {
		return nil, "", cmn.ErrNotFound
	}
	return r, c.pathPrefix(r), nil
}

// Refresh implements cache.Refresher: re-read one affected resource,
// user, or endpoint record from its source of truth and reinstall it.
// Events of any other kind are ignored.
func (c *Catalog) Refresh(kind cache.EventKind, id cmn.ID) error {
	switch kind {
	case cache.EventResourceChanged:
		r, prefix, err := c.LoadResource(id)
		if err != nil {
			c.Cache.RemoveResource(id)
			return nil
		}
		c.Cache.PutResource(r, prefix)
	case cache.EventUserChanged:
		u, ok := c.Store.getUser(id)
		if !ok {
			c.Cache.DeleteUser(id)
			return nil
		}
		c.Cache.PutUser(toUserRecord(u))
	case cache.EventEndpointChanged:
		e, ok := c.Store.getEndpoint(id)
		if !ok {
			c.Cache.RemoveEndpoint(id)
			return nil
		}
		c.Cache.PutEndpoint(toEndpointRecord(e))
	}
	return nil
}

// FullResync reloads every resource, user, and endpoint from the
// authoritative stores, used when the refresh loop observes a sequence
// gap (spec.md §4.D "On sequence gap, the cache performs a full
// re-sync"). Other cached record kinds are not reloaded.
func (c *Catalog) FullResync() error {
	for _, id := range c.Graph.AllIDs() {
		if r, ok := c.Graph.Get(id); ok {
			c.syncResource(r)
		}
	}
	for _, u := range c.Store.allUsers() {
		c.Cache.PutUser(toUserRecord(u))
	}
	for _, e := range c.Store.listEndpoints() {
		c.Cache.PutEndpoint(toEndpointRecord(e))
	}
	return nil
}

func toUserRecord(u *User) *cache.UserRecord {
	return &cache.UserRecord{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Email:          u.Email,
		ServiceAccount: u.ServiceAccount,
		IsAdmin:        u.IsGlobalAdmin,
		ResourcePerms:  u.Perms,
	}
}

func toEndpointRecord(e *Endpoint) *cache.EndpointRecord {
	hosts := make([]cache.HostConfig, len(e.Hosts))
	for i, h := range e.Hosts {
		hosts[i] = cache.HostConfig{Feature: h.Feature, URL: h.URL, TLS: h.TLS, Primary: h.Primary}
	}
	return &cache.EndpointRecord{ID: e.ID, DisplayName: e.DisplayName, Variant: e.Variant, Hosts: hosts}
}

// Reconcile runs the replication coordinator's staleness sweep; the
// daemon entrypoint drives it from a ticker (spec.md §4.H "an explicit
// reconciliation tick"). When Stats is set, it also samples the
// replication lag per endpoint and the cache's applied high-water mark.
func (c *Catalog) Reconcile(now time.Time) {
	c.Repl.Reconcile(now)
	if c.Stats == nil {
		return
	}
	for endpoint, lag := range c.Repl.Lags(now) {
		c.Stats.SetReplicationLag(endpoint.String(), lag)
	}
	c.Stats.SetCacheHighWater(c.Cache.HighWaterMark())
}
