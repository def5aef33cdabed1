// Package cache holds the process-wide, read-mostly view of catalog
// state: users, resources, the path index, access keys, public keys,
// rules, and bundles. It is one of only two process-wide singletons
// (the other is the pubkey ring) and is constructed once at startup and
// torn down once at shutdown through a single owning handle.
package cache

import (
	"time"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
)

// UserRecord is a cached user attribute bag: the data the permission
// resolver and middle-layer handlers need without a database round trip.
type UserRecord struct {
	ID             cmn.ID
	DisplayName    string
	Email          string
	ServiceAccount bool
	IsAdmin        bool
	ResourcePerms  map[cmn.ID]cmn.PermLevel
}

// AccessKeyRecord maps an S3-style access key to the identity and
// permission set it was issued under.
type AccessKeyRecord struct {
	AccessKey  string
	SecretKey  string
	UserID     cmn.ID
	EndpointID cmn.ID
	Perms      map[cmn.ID]cmn.PermLevel
}

// PubKeyRecord is a cached copy of a signing key, keyed by serial. It
// is kept apart from token.Ring: token verification resolves keys
// through its own Ring, not through this table.
type PubKeyRecord struct {
	Serial int32
	Key    []byte // ed25519.PublicKey bytes
	Owner  string
}

// RuleRecord is a compiled-and-cacheable rule's persisted source, keyed
// by (id, revision); the rule engine keeps its own compiled-expression
// cache keyed the same way.
type RuleRecord struct {
	ID       cmn.ID
	Revision int64
	Name     string
	Source   string
}

// RuleBinding attaches a RuleRecord to a resource, with the cascade flag
// that determines whether it also applies to descendants.
type RuleBinding struct {
	ID       cmn.ID
	RuleID   cmn.ID
	Revision int64
	Target   cmn.ID
	Cascade  bool
}

// Bundle is an ephemeral, named packaging of object ids exposed through
// the "bundles/" pseudo-bucket.
type Bundle struct {
	ID        cmn.ID
	Owner     cmn.ID
	ObjectIDs []cmn.ID
	ExpiresAt time.Time
}

// HostConfig is one (URL, feature) advertisement an endpoint carries
// (spec.md §3 "Endpoint" host configs).
type HostConfig struct {
	Feature cmn.HostFeature
	URL     string
	TLS     bool
	Primary bool
}

// EndpointRecord is a cached data-proxy endpoint: its catalogued
// identity and the host configs get_or_create_credentials resolves
// against (spec.md §3 "Endpoint", §4.I).
type EndpointRecord struct {
	ID          cmn.ID
	DisplayName string
	Variant     cmn.EndpointVariant
	Hosts       []HostConfig
}

// resourceEntry pairs a graph.Resource with its precomputed parent-chain
// prefix, so path resolution never has to walk the graph at request
// time.
type resourceEntry struct {
	resource *graph.Resource
	prefix   string // e.g. "projA/collB/dsC/"
}
