// Package permission implements §4.C's resolver: mapping (user,
// resource) to an effective permission level, honoring ancestor
// inheritance, service-account rules, and the global-admin escape
// hatch.
//
// Grounded on the original ArunaServer auth.rs's resource-states +
// access-key-permissions checks (permission is looked up by walking
// ancestors and taking the max level) and on the teacher's layered
// cluster-then-bucket ACL check in authn/utils.go's CheckPermissions
// (the same "broader scope OR narrower scope satisfies" shape, here
// generalized from a two-level cluster/bucket check to an arbitrary
// ancestor chain).
package permission

import (
	"net/http"

	"github.com/nimbusfs/core/cmn"
)

// Context is one acceptable way for a handler to authorize a request
// (spec.md §4.E step 2 "Context list"). A handler composes a list of
// Contexts; the request is authorized if any one of them is satisfied.
type Context struct {
	Kind ContextKind

	// Resource kind fields.
	ResourceID          cmn.ID
	RequiredLevel       cmn.PermLevel
	AllowServiceAccount bool

	// SelfUser kind: the subject must equal this user id.
	SelfUserID cmn.ID
}

type ContextKind uint8

const (
	CtxAdmin ContextKind = iota
	CtxSelfUser
	CtxRegistered
	CtxResource
	CtxProxy
)

func Admin() Context      { return Context{Kind: CtxAdmin} }
func Registered() Context { return Context{Kind: CtxRegistered} }
func Proxy() Context      { return Context{Kind: CtxProxy} }
func SelfUser(id cmn.ID) Context {
	return Context{Kind: CtxSelfUser, SelfUserID: id}
}
func Resource(id cmn.ID, level cmn.PermLevel, allowServiceAccount bool) Context {
	return Context{Kind: CtxResource, ResourceID: id, RequiredLevel: level, AllowServiceAccount: allowServiceAccount}
}

// LevelForMethod maps an HTTP method to the permission level it
// requires by default (spec.md §4.C "Inputs"): GET/HEAD -> Read,
// POST/PUT -> Write, DELETE -> Admin. The method alone decides the
// level: a PUT that creates an object also maps to Write, not Append.
func LevelForMethod(method string) cmn.PermLevel {
	switch method {
	case http.MethodGet, http.MethodHead:
		return cmn.PermRead
	case http.MethodDelete:
		return cmn.PermAdmin
	case http.MethodPost, http.MethodPut:
		return cmn.PermWrite
	default:
		return cmn.PermAdmin
	}
}
