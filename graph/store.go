package graph

import (
	"sync"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/cmn/debug"
)

// Store holds the authoritative resource graph. It is the in-process
// stand-in for "a relational store" (spec.md §1 treats the on-disk
// persistence engine as an external, transactional key/row store); the
// mutating operations below are what a real backing store's
// transaction boundary would wrap.
//
// Grounded on cluster/map.go's pattern of a single RWMutex-guarded map
// plus small typed accessor methods, generalized from a flat node map
// to a parent-indexed resource graph.
type Store struct {
	mu        sync.RWMutex
	resources map[cmn.ID]*Resource
	// children indexes belongs_to edges for fast descendant walks.
	children map[cmn.ID][]cmn.ID
	// revisions maps a shared-revision-id to the ids of every resource
	// sharing it, ordered by RevisionNumber.
	revisions map[cmn.ID][]cmn.ID
}

func NewStore() *Store {
	return &Store{
		resources: make(map[cmn.ID]*Resource),
		children:  make(map[cmn.ID][]cmn.ID),
		revisions: make(map[cmn.ID][]cmn.ID),
	}
}

// AllIDs returns every resource id currently tracked, for a full
// cache resync (spec.md §4.D "On sequence gap, the cache performs a
// full re-sync").
func (s *Store) AllIDs() []cmn.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]cmn.ID, 0, len(s.resources))
	for id := range s.resources {
		out = append(out, id)
	}
	return out
}

func (s *Store) Get(id cmn.ID) (*Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	return r, ok
}

// Children returns the ids directly belongs_to the given parent.
func (s *Store) Children(parent cmn.ID) []cmn.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]cmn.ID, len(s.children[parent]))
	copy(out, s.children[parent])
	return out
}

// Ancestors walks belongs_to edges from id up to (and including) the
// root Project, used by the permission resolver (spec.md §4.C step 1).
func (s *Store) Ancestors(id cmn.ID) []cmn.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []cmn.ID{id}
	cur := id
	for {
		r, ok := s.resources[cur]
		if !ok {
			break
		}
		var parent cmn.ID
		found := false
		for _, rel := range r.Relations.OutboundBelongsTo {
			parent = rel.Target
			found = true
			break
		}
		if !found {
			break
		}
		out = append(out, parent)
		cur = parent
	}
	return out
}

// RevisionGroup returns every resource sharing a shared-revision-id,
// ordered by RevisionNumber ascending.
func (s *Store) RevisionGroup(sharedRevisionID cmn.ID) []*Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.revisions[sharedRevisionID]
	out := make([]*Resource, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.resources[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) latestRevisionLocked(sharedRevisionID cmn.ID) *Resource {
	var latest *Resource
	for _, id := range s.revisions[sharedRevisionID] {
		r, ok := s.resources[id]
		if !ok {
			continue
		}
		if latest == nil || r.RevisionNumber > latest.RevisionNumber {
			latest = r
		}
	}
	return latest
}

func (s *Store) insertLocked(r *Resource) {
	debug.Assert(!r.ID.Empty(), "graph: inserting resource with empty id")
	s.resources[r.ID] = r
	for _, rel := range r.Relations.OutboundBelongsTo {
		s.children[rel.Target] = append(s.children[rel.Target], r.ID)
	}
	if !r.SharedRevisionID.Empty() {
		s.revisions[r.SharedRevisionID] = append(s.revisions[r.SharedRevisionID], r.ID)
	}
}
