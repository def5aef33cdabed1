package replication_test

import (
	"testing"
	"time"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/replication"
)

func TestReplicateFullIsIdempotent(t *testing.T) {
	c := replication.NewCoordinator()
	ep := cmn.NewID()
	proj, child := cmn.NewID(), cmn.NewID()

	c.ReplicateFull(ep, []cmn.ID{proj, child})
	rec, ok := c.Get(ep, proj)
	if !ok || rec.Status != cmn.ReplWaiting || rec.Type != cmn.ReplicationFull {
		t.Fatalf("unexpected record after first ReplicateFull: %+v ok=%v", rec, ok)
	}

	// Advance it, then re-run ReplicateFull: must not reset progress.
	if err := c.UpdateStatus(ep, proj, cmn.ReplRunning); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	c.ReplicateFull(ep, []cmn.ID{proj, child})
	rec2, _ := c.Get(ep, proj)
	if rec2.Status != cmn.ReplRunning {
		t.Fatalf("ReplicateFull re-run clobbered in-flight state: %+v", rec2)
	}
}

func TestReplicatePartialDoesNotTouchDescendants(t *testing.T) {
	c := replication.NewCoordinator()
	ep, resource := cmn.NewID(), cmn.NewID()
	c.ReplicatePartial(ep, resource)

	rec, ok := c.Get(ep, resource)
	if !ok || rec.Type != cmn.ReplicationPartial {
		t.Fatalf("expected a PartialSync record, got %+v ok=%v", rec, ok)
	}
}

func TestDeleteReplicationRemovesRecord(t *testing.T) {
	c := replication.NewCoordinator()
	ep, resource := cmn.NewID(), cmn.NewID()
	c.ReplicatePartial(ep, resource)
	c.DeleteReplication(ep, resource)

	if _, ok := c.Get(ep, resource); ok {
		t.Fatal("expected record to be gone after DeleteReplication")
	}
}

func TestUpdateStatusOnUnknownRecordIsNotFound(t *testing.T) {
	c := replication.NewCoordinator()
	err := c.UpdateStatus(cmn.NewID(), cmn.NewID(), cmn.ReplFinished)
	if !cmn.IsKind(err, cmn.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestWaitingForOnlyReturnsThatEndpointsWaitingRecords(t *testing.T) {
	c := replication.NewCoordinator()
	epA, epB := cmn.NewID(), cmn.NewID()
	r1, r2 := cmn.NewID(), cmn.NewID()
	c.ReplicatePartial(epA, r1)
	c.ReplicatePartial(epB, r2)

	waiting := c.WaitingFor(epA)
	if len(waiting) != 1 || waiting[0].Key.ResourceID != r1 {
		t.Fatalf("WaitingFor(epA) = %+v, want just r1", waiting)
	}
}

func TestReconcileDemotesStaleRunningRecords(t *testing.T) {
	c := replication.NewCoordinator()
	ep, resource := cmn.NewID(), cmn.NewID()
	c.ReplicatePartial(ep, resource)
	_ = c.UpdateStatus(ep, resource, cmn.ReplRunning)

	future := time.Now().Add(replication.StaleAfter + time.Second)
	c.Reconcile(future)

	rec, _ := c.Get(ep, resource)
	if rec.Status != cmn.ReplError {
		t.Fatalf("expected stale Running record demoted to Error, got %v", rec.Status)
	}
}

func TestReconcileRequeuesErrorRecords(t *testing.T) {
	c := replication.NewCoordinator()
	ep, resource := cmn.NewID(), cmn.NewID()
	c.ReplicatePartial(ep, resource)
	_ = c.UpdateStatus(ep, resource, cmn.ReplRunning)
	c.Reconcile(time.Now().Add(replication.StaleAfter + time.Second))

	c.Reconcile(time.Now())
	rec, _ := c.Get(ep, resource)
	if rec.Status != cmn.ReplWaiting {
		t.Fatalf("expected Error record requeued to Waiting, got %v", rec.Status)
	}
}
