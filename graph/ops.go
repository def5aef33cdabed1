package graph

import (
	"time"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/cmn/debug"
)

// Create places a new resource in Initializing and, unless it's the
// root Project, inserts a belongs_to edge from parent (spec.md §4.B
// "create").
func (s *Store) Create(parent cmn.ID, variant cmn.ResourceVariant, displayName string) (cmn.ID, error) {
	if displayName == "" {
		return "", cmn.NewError(cmn.KindInvalidArgument, "display name must not be empty")
	}
	id := cmn.NewID()
	r := &Resource{
		ID:          id,
		Variant:     variant,
		DisplayName: displayName,
		DataClass:   cmn.ClassPrivate,
		Status:      cmn.StatusInitializing,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if variant != cmn.VariantProject {
		if parent.Empty() {
			return "", cmn.NewError(cmn.KindInvalidArgument, "non-project resources require a parent")
		}
		p, ok := s.resources[parent]
		if !ok {
			return "", cmn.NewErrorf(cmn.KindNotFound, "parent %s not found", parent)
		}
		relID := cmn.NewID()
		rel := Relation{ID: relID, Target: parent, Name: cmn.RelBelongsTo}
		r.Relations.OutboundBelongsTo = append(r.Relations.OutboundBelongsTo, rel)
		p.Relations.InboundBelongsTo = append(p.Relations.InboundBelongsTo, Relation{ID: relID, Target: id, Name: cmn.RelBelongsTo})
	}
	s.insertLocked(r)
	return id, nil
}

// UpdateFields is the set of mutable surface fields on a resource
// (spec.md §4.B "update").
type UpdateFields struct {
	DisplayName *string
	Description *string
	DataClass   *cmn.DataClass
	Status      *cmn.Status
	AddKVs      []KV
	// RemoveKVKeys requests removal of non-static KVs by key; attempts
	// to remove a StaticLabel are rejected (spec.md §3 invariant).
	RemoveKVKeys []string
}

// Update mutates id in place when unpinned, or — when pinned — requires
// a strictly greater version and produces a sibling clone sharing
// SharedRevisionID with RevisionNumber = latest+1 (spec.md §4.B
// "update"). newVersion is ignored for unpinned resources.
func (s *Store) Update(id cmn.ID, fields UpdateFields, newVersion *SemVer) (cmn.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return "", cmn.NewErrorf(cmn.KindNotFound, "resource %s not found", id)
	}
	if r.IsDeleted() {
		return "", cmn.NewError(cmn.KindNotFound, "resource is deleted")
	}

	if err := validateStaticLabelRemoval(r, fields.RemoveKVKeys); err != nil {
		return "", err
	}

	if !r.Pinned {
		applyFields(r, fields)
		r.UpdatedAt = time.Now()
		return id, nil
	}

	// Pinned: caller must supply a strictly greater version.
	if newVersion == nil {
		return "", cmn.NewError(cmn.KindInvalidArgument, "pinned resource requires a new version")
	}
	latest := s.latestRevisionLocked(r.SharedRevisionID)
	if latest == nil {
		latest = r
	}
	if latest.Version == nil || !newVersion.GreaterThan(*latest.Version) {
		return "", cmn.NewErrorf(cmn.KindConflict, "version %s is not greater than latest %v", newVersion, latest.Version)
	}

	clone := r.Clone()
	clone.ID = cmn.NewID()
	clone.RevisionNumber = latest.RevisionNumber + 1
	clone.Version = newVersion
	clone.Pinned = true
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = time.Now()
	regenerateRelationIDs(clone)
	applyFields(clone, fields)
	s.insertLocked(clone)
	return clone.ID, nil
}

// Pin clones id into a new, independently-addressable resource with a
// strictly greater version than the latest in its shared-revision group
// (spec.md §4.B "pin"). The original resource remains addressable.
func (s *Store) Pin(id cmn.ID, version SemVer) (cmn.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return "", cmn.NewErrorf(cmn.KindNotFound, "resource %s not found", id)
	}
	if r.IsDeleted() {
		return "", cmn.NewError(cmn.KindNotFound, "resource is deleted")
	}

	sharedRevisionID := r.SharedRevisionID
	if sharedRevisionID.Empty() {
		sharedRevisionID = cmn.NewID()
		r.SharedRevisionID = sharedRevisionID
		r.RevisionNumber = 0
		if !r.Pinned {
			r.Pinned = true
			v := SemVer{}
			r.Version = &v
		}
		s.revisions[sharedRevisionID] = append(s.revisions[sharedRevisionID], r.ID)
	}

	latest := s.latestRevisionLocked(sharedRevisionID)
	if latest == nil {
		latest = r
	}
	if latest.Version != nil && !version.GreaterThan(*latest.Version) {
		return "", cmn.NewErrorf(cmn.KindConflict, "version %s is not greater than latest %v", version, latest.Version)
	}

	clone := r.Clone()
	clone.ID = cmn.NewID()
	clone.SharedRevisionID = sharedRevisionID
	clone.RevisionNumber = latest.RevisionNumber + 1
	clone.Version = &version
	clone.Pinned = true
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = time.Now()
	regenerateRelationIDs(clone)
	debug.Assertf(clone.RevisionNumber > latest.RevisionNumber, "pin: revision_number %d did not increase past %d", clone.RevisionNumber, latest.RevisionNumber)
	s.insertLocked(clone)
	return clone.ID, nil
}

// ModifyRelations validates and applies relation additions/removals
// (spec.md §4.B "modify_relations").
func (s *Store) ModifyRelations(id cmn.ID, add []Relation, remove []cmn.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return cmn.NewErrorf(cmn.KindNotFound, "resource %s not found", id)
	}

	removeSet := make(map[cmn.ID]bool, len(remove))
	for _, relID := range remove {
		removeSet[relID] = true
	}
	for _, rel := range r.Relations.Outbound {
		if removeSet[rel.ID] && rel.Name == cmn.RelVersion {
			return cmn.NewError(cmn.KindInvalidArgument, "version relations cannot be removed")
		}
	}
	for _, rel := range r.Relations.OutboundBelongsTo {
		if removeSet[rel.ID] {
			return cmn.NewError(cmn.KindInvalidArgument, "belongs_to relations cannot be removed directly")
		}
	}

	for _, rel := range add {
		if rel.Name.IsCustom() && rel.Name.CustomSuffix() == "" {
			return cmn.NewError(cmn.KindInvalidArgument, "custom relation requires a name")
		}
		if rel.Name == cmn.RelBelongsTo {
			if s.wouldCreateCycleLocked(id, rel.Target) {
				return cmn.NewError(cmn.KindConflict, "relation would create a belongs_to cycle")
			}
			debug.Assert(id != rel.Target, "belongs_to self-edge slipped past the cycle check")
		}
	}

	kept := r.Relations.Outbound[:0:0]
	for _, rel := range r.Relations.Outbound {
		if !removeSet[rel.ID] {
			kept = append(kept, rel)
		}
	}
	for _, rel := range add {
		rel.ID = cmn.NewID()
		if rel.Name == cmn.RelBelongsTo {
			r.Relations.OutboundBelongsTo = append(r.Relations.OutboundBelongsTo, rel)
			if target, ok := s.resources[rel.Target]; ok {
				target.Relations.InboundBelongsTo = append(target.Relations.InboundBelongsTo, Relation{ID: rel.ID, Target: id, Name: cmn.RelBelongsTo})
			}
			s.children[rel.Target] = append(s.children[rel.Target], id)
			continue
		}
		kept = append(kept, rel)
		if target, ok := s.resources[rel.Target]; ok {
			target.Relations.Inbound = append(target.Relations.Inbound, Relation{ID: rel.ID, Target: id, Name: rel.Name})
		}
	}
	r.Relations.Outbound = kept
	r.UpdatedAt = time.Now()
	return nil
}

// wouldCreateCycleLocked reports whether adding a belongs_to edge
// id -> target would create a cycle, i.e. target already descends from
// id (spec.md §8 "Belongs_to acyclicity").
func (s *Store) wouldCreateCycleLocked(id, target cmn.ID) bool {
	if id == target {
		return true
	}
	visited := map[cmn.ID]bool{}
	var walk func(cmn.ID) bool
	walk = func(cur cmn.ID) bool {
		if cur == target {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for _, child := range s.children[cur] {
			if walk(child) {
				return true
			}
		}
		return false
	}
	return walk(id)
}

// Delete marks id (and, with cascade, every belongs_to descendant) as
// Deleted per the sentinel protocol in spec.md §3. Without cascade, a
// resource with any belongs_to child is not deletable; borrowed
// children are not told apart from owned ones.
func (s *Store) Delete(id cmn.ID, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return cmn.NewErrorf(cmn.KindNotFound, "resource %s not found", id)
	}
	if r.IsDeleted() {
		return nil // idempotent delete (spec.md §8 property 7)
	}

	children := s.children[id]
	if !cascade && len(children) > 0 {
		return cmn.NewError(cmn.KindInvalidArgument, "resource has children; cascade required")
	}

	if cascade {
		for _, child := range children {
			if err := s.deleteLocked(child, true); err != nil {
				return err
			}
		}
	}
	return s.deleteLocked(id, false)
}

func (s *Store) deleteLocked(id cmn.ID, viaCascade bool) error {
	r, ok := s.resources[id]
	if !ok || r.IsDeleted() {
		return nil
	}
	if viaCascade {
		for _, child := range s.children[id] {
			if err := s.deleteLocked(child, true); err != nil {
				return err
			}
		}
	}
	r.DisplayName = cmn.DeletedName
	r.Status = cmn.StatusDeleted
	r.KVs = nil
	r.Relations.Outbound = nil
	r.Relations.OutboundBelongsTo = nil
	r.UpdatedAt = time.Now()

	if !r.SharedRevisionID.Empty() {
		remaining := 0
		for _, sibID := range s.revisions[r.SharedRevisionID] {
			if sib, ok := s.resources[sibID]; ok && !sib.IsDeleted() {
				remaining++
			}
		}
		if remaining == 0 {
			delete(s.revisions, r.SharedRevisionID)
		}
	}
	return nil
}

func applyFields(r *Resource, f UpdateFields) {
	if f.DisplayName != nil {
		r.DisplayName = *f.DisplayName
	}
	if f.Description != nil {
		r.Description = *f.Description
	}
	if f.DataClass != nil {
		r.DataClass = *f.DataClass
	}
	if f.Status != nil {
		r.Status = *f.Status
	}
	if len(f.RemoveKVKeys) > 0 {
		remove := make(map[string]bool, len(f.RemoveKVKeys))
		for _, k := range f.RemoveKVKeys {
			remove[k] = true
		}
		kept := r.KVs[:0:0]
		for _, kv := range r.KVs {
			if !remove[kv.Key] {
				kept = append(kept, kv)
			}
		}
		r.KVs = kept
	}
	r.KVs = append(r.KVs, f.AddKVs...)
}

func validateStaticLabelRemoval(r *Resource, removeKeys []string) error {
	for _, k := range removeKeys {
		if r.HasStaticLabel(k) {
			return cmn.NewErrorf(cmn.KindInvalidArgument, "static label %q cannot be removed", k)
		}
	}
	return nil
}

func regenerateRelationIDs(r *Resource) {
	for i := range r.Relations.Inbound {
		r.Relations.Inbound[i].ID = cmn.NewID()
	}
	for i := range r.Relations.InboundBelongsTo {
		r.Relations.InboundBelongsTo[i].ID = cmn.NewID()
	}
	for i := range r.Relations.Outbound {
		r.Relations.Outbound[i].ID = cmn.NewID()
	}
	for i := range r.Relations.OutboundBelongsTo {
		r.Relations.OutboundBelongsTo[i].ID = cmn.NewID()
	}
}
