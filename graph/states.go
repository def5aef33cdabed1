package graph

import (
	"github.com/nimbusfs/core/cmn"
)

// PathComponent is one (path-segment, display-name) pair from a parsed
// S3 key, in hierarchy order (spec.md §4.B "Resource-state builder").
type PathComponent struct {
	Segment     string
	DisplayName string
}

// ResourceStates holds at most one resource of each variant resolved
// from an ordered path prefix, plus where the prefix went missing.
type ResourceStates struct {
	Project    *Resource
	Collection *Resource
	Dataset    *Resource
	Object     *Resource
	// MissingAtIndex is the index into the original component slice
	// where resolution first failed to find a match, or -1 if the
	// whole prefix resolved.
	MissingAtIndex int
}

func (rs *ResourceStates) byVariant(v cmn.ResourceVariant) *Resource {
	switch v {
	case cmn.VariantProject:
		return rs.Project
	case cmn.VariantCollection:
		return rs.Collection
	case cmn.VariantDataset:
		return rs.Dataset
	case cmn.VariantObject:
		return rs.Object
	default:
		return nil
	}
}

func (rs *ResourceStates) setVariant(v cmn.ResourceVariant, r *Resource) {
	switch v {
	case cmn.VariantProject:
		rs.Project = r
	case cmn.VariantCollection:
		rs.Collection = r
	case cmn.VariantDataset:
		rs.Dataset = r
	case cmn.VariantObject:
		rs.Object = r
	}
}

// Deepest returns the most specific resource present, or nil.
func (rs *ResourceStates) Deepest() *Resource {
	for _, r := range []*Resource{rs.Object, rs.Dataset, rs.Collection, rs.Project} {
		if r != nil {
			return r
		}
	}
	return nil
}

// BuildResourceStates resolves an ordered prefix of path components into
// a ResourceStates, walking belongs_to children by display name at each
// level (spec.md §4.B). The bucket component (index 0) is always a
// Project; each subsequent key segment is resolved against the S3
// split rule (spec.md §4.F): the first may be Collection, Dataset, or
// Object, the second Dataset or Object, the third must be Object — a
// resource's own Variant (not its position) determines which field of
// ResourceStates it occupies, since a path may skip intermediate levels
// (e.g. an Object directly belongs_to a Project).
func (s *Store) BuildResourceStates(components []PathComponent) *ResourceStates {
	rs := &ResourceStates{MissingAtIndex: -1}
	if len(components) == 0 {
		return rs
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var parent cmn.ID
	haveParent := false
	for i, comp := range components {
		allowed := allowedVariants(i)
		if allowed == nil {
			rs.MissingAtIndex = i
			return rs
		}
		var candidates []cmn.ID
		if haveParent {
			candidates = s.children[parent]
		} else {
			for id, r := range s.resources {
				if r.Variant == cmn.VariantProject {
					candidates = append(candidates, id)
				}
			}
		}
		var found *Resource
		for _, id := range candidates {
			r, ok := s.resources[id]
			if !ok || r.IsDeleted() || !variantAllowed(allowed, r.Variant) {
				continue
			}
			if r.DisplayName == comp.DisplayName {
				found = r
				break
			}
		}
		if found == nil {
			rs.MissingAtIndex = i
			return rs
		}
		rs.setVariant(found.Variant, found)
		parent = found.ID
		haveParent = true
	}
	return rs
}

// allowedVariants returns the resource variants permitted at component
// index i, or nil if i is past the maximum depth (Project + 3 key
// segments).
func allowedVariants(i int) []cmn.ResourceVariant {
	switch i {
	case 0:
		return []cmn.ResourceVariant{cmn.VariantProject}
	case 1:
		return []cmn.ResourceVariant{cmn.VariantCollection, cmn.VariantDataset, cmn.VariantObject}
	case 2:
		return []cmn.ResourceVariant{cmn.VariantDataset, cmn.VariantObject}
	case 3:
		return []cmn.ResourceVariant{cmn.VariantObject}
	default:
		return nil
	}
}

func variantAllowed(allowed []cmn.ResourceVariant, v cmn.ResourceVariant) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

// Validate enforces spec.md §4.B's builder invariants: at least a
// Project present; components in belongs_to order; no gap except the
// tail when allowCreate.
func (rs *ResourceStates) Validate(allowCreate bool) error {
	if rs.Project == nil {
		if rs.MissingAtIndex == 0 && allowCreate {
			return nil // creating the Project itself
		}
		return cmn.NewError(cmn.KindNotFound, "no project in resource prefix")
	}
	if rs.MissingAtIndex >= 0 {
		// A gap is only tolerated at the very tail, and only when the
		// caller is allowed to create the missing component.
		if !allowCreate {
			return cmn.NewError(cmn.KindNotFound, "resource prefix incomplete")
		}
	}
	return nil
}
