package catalog_test

import (
	"testing"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/catalog"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/replication"
	"github.com/nimbusfs/core/rules"
	"go.uber.org/zap"
)

// testHarness wires a full Catalog the way cmd/catalogd does, minus the
// network listener, so handler tests exercise the real graph, cache,
// and permission resolver rather than fakes.
type testHarness struct {
	t       *testing.T
	catalog *catalog.Catalog
	admin   cmn.ID
	token   string
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	gstore := graph.NewStore()
	cstore := catalog.NewStore()
	perms := permission.NewResolver(gstore, "")
	re := rules.NewEngine()
	repl := replication.NewCoordinator()
	bus := cache.NewMemBus(128)
	log := zap.NewNop()

	c := catalog.New(gstore, cstore, nil, perms, re, repl, nil, bus, log)
	ch, err := cache.NewStore(c)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { ch.Close() })
	c.Cache = ch

	h := &testHarness{t: t, catalog: c}
	return h
}

// adminUser installs a user record carrying IsGlobalAdmin directly
// (bypassing authentication, since the catalog package itself has no
// login endpoint — that lives upstream of the bearer token it
// receives) and returns its id for use as an Identity stand-in in
// white-box helpers below.
func (h *testHarness) adminUser() cmn.ID {
	h.t.Helper()
	id := cmn.NewID()
	h.catalog.Cache.PutUser(&cache.UserRecord{ID: id, DisplayName: "admin", IsAdmin: true, ResourcePerms: map[cmn.ID]cmn.PermLevel{}})
	return id
}

func TestCreateUpdatePinDeleteResource(t *testing.T) {
	h := newHarness(t)
	admin := h.adminUser()

	projID, err := h.catalog.Graph.Create("", cmn.VariantProject, "proj")
	if err != nil {
		t.Fatalf("Create project: %v", err)
	}
	h.catalog.Cache.PutUser(&cache.UserRecord{ID: admin, IsAdmin: true})

	if r, ok := h.catalog.Graph.Get(projID); ok {
		h.catalog.Cache.PutResource(r, "proj/")
	}

	dsID, err := h.catalog.Graph.Create(projID, cmn.VariantDataset, "ds")
	if err != nil {
		t.Fatalf("Create dataset: %v", err)
	}
	if r, ok := h.catalog.Graph.Get(dsID); ok {
		h.catalog.Cache.PutResource(r, "proj/ds/")
	}

	v, err := graph.ParseSemVer("1.0.0")
	if err != nil {
		t.Fatalf("ParseSemVer: %v", err)
	}
	pinnedID, err := h.catalog.Graph.Pin(dsID, v)
	if err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if pinnedID == dsID {
		t.Fatalf("Pin should produce a new resource id")
	}

	name := "ds-renamed"
	_, err = h.catalog.Graph.Update(pinnedID, graph.UpdateFields{DisplayName: &name}, nil)
	if err == nil {
		t.Fatalf("Update without a new version on a pinned resource should fail")
	}
	if !cmn.IsKind(err, cmn.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	if err := h.catalog.Graph.Delete(dsID, false); err != nil {
		t.Fatalf("Delete leaf: %v", err)
	}
	r, ok := h.catalog.Graph.Get(dsID)
	if !ok || !r.IsDeleted() {
		t.Fatalf("resource should be marked Deleted, got %+v ok=%v", r, ok)
	}
}

func TestGrantAndResolveAuthorization(t *testing.T) {
	h := newHarness(t)

	projID, err := h.catalog.Graph.Create("", cmn.VariantProject, "proj")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user := cmn.NewID()
	u := &cache.UserRecord{ID: user, ResourcePerms: map[cmn.ID]cmn.PermLevel{}}
	h.catalog.Cache.PutUser(u)

	if err := h.catalog.grantPermForTest(user, projID, cmn.PermWrite); err != nil {
		t.Fatalf("grantPerm: %v", err)
	}

	got, ok := h.catalog.Cache.GetUser(user)
	if !ok {
		t.Fatalf("user not found after grant")
	}
	if got.ResourcePerms[projID] != cmn.PermWrite {
		t.Fatalf("expected Write, got %v", got.ResourcePerms[projID])
	}
}

func TestReplicationLifecycle(t *testing.T) {
	h := newHarness(t)

	projID, err := h.catalog.Graph.Create("", cmn.VariantProject, "proj")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	endpoint := cmn.NewID()

	h.catalog.Repl.ReplicateFull(endpoint, []cmn.ID{projID})
	rec, ok := h.catalog.Repl.Get(endpoint, projID)
	if !ok || rec.Status != cmn.ReplWaiting {
		t.Fatalf("expected Waiting record, got %+v ok=%v", rec, ok)
	}

	if err := h.catalog.Repl.UpdateStatus(endpoint, projID, cmn.ReplRunning); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	rec, _ = h.catalog.Repl.Get(endpoint, projID)
	if rec.Status != cmn.ReplRunning {
		t.Fatalf("expected Running, got %v", rec.Status)
	}

	h.catalog.Repl.DeleteReplication(endpoint, projID)
	if _, ok := h.catalog.Repl.Get(endpoint, projID); ok {
		t.Fatalf("expected replication record to be gone after delete")
	}
}
