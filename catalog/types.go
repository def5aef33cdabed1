// Package catalog implements the middle layer (spec.md §4.E): one
// handler per RPC-surface operation, each of which extracts the bearer
// token, authorizes against permission.Resolver with a handler-composed
// Context list, validates request invariants, performs the mutation
// against the authoritative Store within a single handler-scoped
// "transaction", and then updates cache.Store and publishes a
// notification event — the "(persist; update cache; publish event)"
// coherence contract from spec.md §4.D.
//
// Grounded on the teacher's ais/proxy.go (one handler per verb,
// request metadata validated up front) and ais/transaction.go /
// ais/prxtxn.go (the handler boundary is the transaction boundary);
// generalized from AIStore's two-phase bucket-metadata transactions
// to this system's simpler single-process mutation, since spec.md §1
// treats the real persistence engine as an external, already
// transactional key/row store that graph.Store stands in for.
package catalog

import (
	"time"

	"github.com/nimbusfs/core/cmn"
)

// OidcMapping is one (provider, subject) pair in a User's OIDC set
// (spec.md §3 "User").
type OidcMapping struct {
	Provider string
	Subject  string
}

// TokenMeta is the persisted metadata for one issued API token; token
// bytes themselves are never stored, only the signed claims' shadow
// (spec.md §3 "Token").
type TokenMeta struct {
	ID         cmn.ID
	Name       string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	KeySerial  int32
	ResourceID cmn.ID        // zero if personal (unscoped)
	Level      cmn.PermLevel // meaningful only if ResourceID is set
}

// TrustedEndpoint is one entry of a user's trusted-endpoint flag set
// (spec.md §3 "User" attributes bag).
type TrustedEndpoint struct {
	EndpointID cmn.ID
	Flags      []string
}

// User is the full, authoritative record (spec.md §3 "User") — the
// middle layer's persisted shape, as opposed to cache.UserRecord which
// is the trimmed read-mostly projection the resolver needs.
type User struct {
	ID             cmn.ID
	DisplayName    string
	Email          string
	Active         bool
	ServiceAccount bool
	IsGlobalAdmin  bool

	Oidc      []OidcMapping
	Trusted   []TrustedEndpoint
	Perms     map[cmn.ID]cmn.PermLevel
	Custom    map[string]map[string]string // proxy-id -> key -> value
	Tokens    map[cmn.ID]*TokenMeta
	Pubkeys   [][]byte // hook-callback verification keys

	CreatedAt time.Time
	UpdatedAt time.Time
}

func newUser(id cmn.ID, displayName, email string, serviceAccount bool) *User {
	now := time.Now()
	return &User{
		ID:             id,
		DisplayName:    displayName,
		Email:          email,
		Active:         true,
		ServiceAccount: serviceAccount,
		Perms:          make(map[cmn.ID]cmn.PermLevel),
		Custom:         make(map[string]map[string]string),
		Tokens:         make(map[cmn.ID]*TokenMeta),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Rule is the authoritative record behind cache.RuleRecord (spec.md §3
// "Rule").
type Rule struct {
	ID       cmn.ID
	Owner    cmn.ID
	Public   bool
	Source   string
	Revision int64
	Context  cmn.ResourceVariant // evaluation context, stored as a resource variant (not a RuleContext)
}

// RuleContext enumerates spec.md §3's recognized rule contexts; kept
// distinct from cmn.ResourceVariant because Bundle/Package have no
// corresponding resource variant.
type RuleContext uint8

const (
	ContextRoot RuleContext = iota
	ContextBucketObject
	ContextPackageObject
	ContextBundle
)

// RuleBinding is the authoritative record behind cache.RuleBinding.
type RuleBinding struct {
	ID      cmn.ID
	RuleID  cmn.ID
	Target  cmn.ID
	Cascade bool
}

// HookTrigger enumerates spec.md §3 "Hook" trigger kinds.
type HookTrigger uint8

const (
	HookResourceCreated HookTrigger = iota
	HookLabelAdded
	HookStaticLabelAdded
	HookHookAdded
	HookHookStatusChanged
	HookObjectFinished
)

// HookAction is either an external callback or an internal mutation
// (spec.md §3 "Hook").
type HookAction struct {
	ExternalURL    string // non-empty selects the external HTTP POST/PUT action
	ExternalMethod string
	InternalKVs    []struct {
		Key, Value string
		Variant    cmn.KVVariant
	}
	InternalRelation *struct {
		Target cmn.ID
		Name   cmn.RelationName
	}
}

// Hook is a trigger+filter+action bound to a resource.
type Hook struct {
	ID      cmn.ID
	Target  cmn.ID
	Trigger HookTrigger
	Filters map[string]string
	Action  HookAction
}

// Endpoint is the authoritative record behind cache.EndpointRecord plus
// its status and signing-key serial (spec.md §3 "Endpoint").
type Endpoint struct {
	ID          cmn.ID
	DisplayName string
	Variant     cmn.EndpointVariant
	Hosts       []HostConfig
	Status      cmn.Status
	PubKeySerial int32
}

type HostConfig struct {
	Feature cmn.HostFeature
	URL     string
	TLS     bool
	Primary bool
}

// License is the minimal record behind the §6 License surface.
type License struct {
	ID      cmn.ID
	Owner   cmn.ID
	Tier    string
	Expires time.Time
}
