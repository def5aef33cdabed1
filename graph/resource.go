// Package graph implements the resource-graph state machine: typed
// resources, internal/external relations, versioned pinning, and the
// resource-state builder (spec.md §4.B). Rule bindings are not kept
// here; the cache and catalog packages hold them.
//
// Grounded on the teacher's cluster/map.go (versioned metadata struct,
// RWMutex-guarded in-process map, "listeners" notification shape) —
// generalized here from a flat node map to a hierarchical resource
// graph, since the teacher's Smap/BMD have no containment hierarchy to
// model.
package graph

import (
	"time"

	"github.com/nimbusfs/core/cmn"
)

// KV is one (key, value, variant) tuple. Kept as an ordered slice on
// Resource, never a map: order and duplicates matter for hook triggers
// (spec.md §9 "Dynamic key-values").
type KV struct {
	Key     string
	Value   string
	Variant cmn.KVVariant
}

// Relation is an internal (origin, target, name) edge (spec.md §3
// "Internal relation"). Origin is implicit (the owning Resource);
// Target and Name are stored per edge.
type Relation struct {
	ID     cmn.ID
	Target cmn.ID
	Name   cmn.RelationName
}

// ExternalRelation is an unowned, free-form edge to something outside
// the graph (spec.md §3 "External relation").
type ExternalRelation struct {
	Identifier string
	Variant    string
	URL        string
}

// EndpointBinding ties a resource to a replication target (spec.md §3
// "Endpoint binding").
type EndpointBinding struct {
	EndpointID cmn.ID
	Type       cmn.ReplicationType
	Status     cmn.ReplicationStatus
}

// ContentHash is one (algorithm, value) pair; Objects may carry several
// (spec.md §3 "content hashes (Objects only, multi-algorithm)").
type ContentHash struct {
	Algorithm string
	Value     string
}

// Relations bags carried by a resource, split by direction and whether
// the edge is a belongs_to edge, per spec.md §9's "adjacency bags per
// resource rather than global edge tables" design note.
type RelationBags struct {
	Inbound           []Relation
	InboundBelongsTo  []Relation
	Outbound          []Relation
	OutboundBelongsTo []Relation
}

// Resource is one node of the Project -> Collection -> Dataset -> Object
// hierarchy (spec.md §3).
type Resource struct {
	ID          cmn.ID
	Variant     cmn.ResourceVariant // immutable once created
	DisplayName string
	Description string
	DataClass   cmn.DataClass
	Status      cmn.Status

	ContentLength int64         // Objects only
	ContentHashes []ContentHash // Objects only

	KVs       []KV
	Endpoints []EndpointBinding
	External  []ExternalRelation
	Relations RelationBags

	// Versioned pinning (spec.md §3 "Invariants (resources)").
	SharedRevisionID cmn.ID
	RevisionNumber   int
	Version          *SemVer // nil if the resource was never pinned
	Pinned           bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Resource) IsDeleted() bool { return r.Status == cmn.StatusDeleted }

// HasStaticLabel reports whether key carries a StaticLabel KV.
func (r *Resource) HasStaticLabel(key string) bool {
	for _, kv := range r.KVs {
		if kv.Variant == cmn.KVStaticLabel && kv.Key == key {
			return true
		}
	}
	return false
}

// Clone performs a shallow struct copy with freshly allocated slices,
// used by pin/update-with-new-version to produce a deep-enough clone
// (spec.md §9 "avoid deep pointer graphs ... copying the surface fields
// and regenerating identifiers for every relation edge").
func (r *Resource) Clone() *Resource {
	c := *r
	c.KVs = append([]KV(nil), r.KVs...)
	c.ContentHashes = append([]ContentHash(nil), r.ContentHashes...)
	c.Endpoints = append([]EndpointBinding(nil), r.Endpoints...)
	c.External = append([]ExternalRelation(nil), r.External...)
	c.Relations = RelationBags{
		Inbound:           cloneRelations(r.Relations.Inbound),
		InboundBelongsTo:  cloneRelations(r.Relations.InboundBelongsTo),
		Outbound:          cloneRelations(r.Relations.Outbound),
		OutboundBelongsTo: cloneRelations(r.Relations.OutboundBelongsTo),
	}
	if r.Version != nil {
		v := *r.Version
		c.Version = &v
	}
	return &c
}

func cloneRelations(rs []Relation) []Relation {
	out := make([]Relation, len(rs))
	copy(out, rs)
	return out
}
