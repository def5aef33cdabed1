package permission

import (
	"github.com/nimbusfs/core/cmn"
)

// AncestorLister supplies the belongs_to ancestor chain of a resource
// (self included), step 1 of the algorithm. Implemented by graph.Store;
// kept as an interface so permission has no import-time dependency on
// graph.
type AncestorLister interface {
	Ancestors(id cmn.ID) []cmn.ID
}

// User is the subset of a user's attribute bag the resolver needs
// (spec.md §3 "User" attributes bag).
type User struct {
	ID             cmn.ID
	ServiceAccount bool
	ResourcePerms  map[cmn.ID]cmn.PermLevel
}

// TargetInfo carries the resource attributes the resolver needs beyond
// its id: whether it's an Object and its DataClass, for the
// public-object-read bypass (step 4).
type TargetInfo struct {
	ResourceID cmn.ID
	IsObject   bool
	DataClass  cmn.DataClass
}

// Resolver implements spec.md §4.C's algorithm.
type Resolver struct {
	ancestors AncestorLister
	// GlobalProjectID is the root Project whose Admin level grants any
	// level anywhere (spec.md §4.C step 5).
	GlobalProjectID cmn.ID
}

func NewResolver(ancestors AncestorLister, globalProjectID cmn.ID) *Resolver {
	return &Resolver{ancestors: ancestors, GlobalProjectID: globalProjectID}
}

// Resolve returns the effective permission level of user at target,
// i.e. the maximum level granted at target or any of its ancestors
// (steps 1-2).
func (r *Resolver) Resolve(user *User, target cmn.ID) cmn.PermLevel {
	if user == nil {
		return cmn.PermNone
	}
	best := cmn.PermNone
	for _, anc := range r.ancestors.Ancestors(target) {
		if lvl, ok := user.ResourcePerms[anc]; ok && lvl > best {
			best = lvl
		}
	}
	if !r.GlobalProjectID.Empty() {
		if lvl, ok := user.ResourcePerms[r.GlobalProjectID]; ok && lvl >= cmn.PermAdmin && best < lvl {
			best = lvl
		}
	}
	return best
}

// Check runs the full algorithm (spec.md §4.C steps 1-6) for a single
// Context of kind CtxResource. allowServiceAccount comes from the
// calling context, not the user: a service account satisfies a check
// only when the context explicitly allows it.
func (r *Resolver) Check(user *User, target TargetInfo, required cmn.PermLevel, allowServiceAccount bool) error {
	// Step 4: public object reads never require a user.
	if target.IsObject && target.DataClass == cmn.ClassPublic && required == cmn.PermRead {
		return nil
	}
	if user == nil {
		return cmn.ErrUnauthenticated
	}
	if user.ServiceAccount && !allowServiceAccount {
		return cmn.NewError(cmn.KindPermissionDenied, "service accounts may not call this operation")
	}
	level := r.Resolve(user, target.ResourceID)
	if level < required {
		return cmn.ErrPermissionDenied
	}
	return nil
}

// CheckContexts authorizes against a list of Contexts composed by a
// handler (spec.md §4.E step 2): the request succeeds if any Context is
// satisfied.
func (r *Resolver) CheckContexts(user *User, isGlobalAdmin bool, contexts []Context) error {
	var lastErr error = cmn.ErrPermissionDenied
	for _, c := range contexts {
		switch c.Kind {
		case CtxAdmin:
			if isGlobalAdmin {
				return nil
			}
			lastErr = cmn.ErrPermissionDenied
		case CtxRegistered:
			if user != nil {
				return nil
			}
			lastErr = cmn.ErrUnauthenticated
		case CtxSelfUser:
			if user != nil && user.ID == c.SelfUserID {
				return nil
			}
			lastErr = cmn.ErrPermissionDenied
		case CtxProxy:
			// Proxy contexts are satisfied upstream by the token's
			// intent/audience check (token.CheckPermissions); reaching
			// here at all means that check already passed.
			return nil
		case CtxResource:
			if err := r.Check(user, TargetInfo{ResourceID: c.ResourceID}, c.RequiredLevel, c.AllowServiceAccount); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}
	}
	return lastErr
}
