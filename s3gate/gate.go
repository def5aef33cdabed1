package s3gate

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/replication"
	"github.com/nimbusfs/core/rules"
)

// Credentials is a resolved SigV4 access key, or nil for an anonymous
// request.
type Credentials struct {
	AccessKey string
}

// Request is check_access's input (spec.md §4.F "check_access(credentials?,
// method, path, headers)").
type Request struct {
	Credentials *Credentials
	Method      string
	Path        Path
	Headers     map[string]string
	Origin      string
	EndpointID  cmn.ID
}

// Gate wires the cache, resource graph, permission resolver, rule
// engine, and replication coordinator into the single check_access
// entry point.
type Gate struct {
	Cache        *cache.Store
	Graph        *graph.Store
	Permissions  *permission.Resolver
	Rules        *rules.Engine
	Replication  *replication.Coordinator
	GlobalAdmins map[cmn.ID]bool
}

// resolveUser maps credentials to a UserState via the cache's
// access-key index.
func (g *Gate) resolveUser(creds *Credentials) UserState {
	if creds == nil {
		return UserState{Kind: UserAnonymous}
	}
	rec, ok := g.Cache.GetAccessKey(creds.AccessKey)
	if !ok {
		return UserState{Kind: UserAnonymous}
	}
	return UserState{Kind: UserRegistered, UserID: rec.UserID, Permissions: rec.Perms}
}

func (g *Gate) permUser(us UserState) *permission.User {
	if us.Kind == UserAnonymous {
		return nil
	}
	rec, _ := g.Cache.GetUser(us.UserID)
	svcAcct := rec != nil && rec.ServiceAccount
	return &permission.User{ID: us.UserID, ServiceAccount: svcAcct, ResourcePerms: us.Permissions}
}

// CheckAccess implements spec.md §4.F's full dispatch.
func (g *Gate) CheckAccess(ctx context.Context, req Request) (*Decision, error) {
	us := g.resolveUser(req.Credentials)

	switch req.Path.Kind {
	case PathRoot:
		return &Decision{User: us}, nil
	case PathBucket:
		return g.checkBucket(req, us)
	case PathObject:
		switch req.Path.Bucket {
		case BucketObjects:
			return g.checkPackage(ctx, req, us)
		case BucketBundles:
			return g.checkBundle(ctx, req, us)
		default:
			return g.checkObject(ctx, req, us)
		}
	}
	return nil, cmn.NewError(cmn.KindInvalidArgument, "unrecognized path")
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func (g *Gate) checkBucket(req Request, us UserState) (*Decision, error) {
	id, ok := g.Cache.ResolvePath(req.Path.Bucket + "/")
	if !ok {
		return nil, cmn.ErrNoSuchKey
	}
	r, _, ok := g.Cache.GetResource(id)
	if !ok || r.IsDeleted() {
		return nil, cmn.ErrNoSuchKey
	}
	states := &graph.ResourceStates{Project: r, MissingAtIndex: -1}
	return &Decision{States: states, User: us, CORS: g.corsFor(states, req.Method, req.Origin)}, nil
}

// checkPackage implements the "objects/<object-id>/<subpath>" pseudo-bucket
// (spec.md §4.F step 1).
func (g *Gate) checkPackage(ctx context.Context, req Request, us UserState) (*Decision, error) {
	if !isReadOnly(req.Method) {
		return nil, cmn.NewError(cmn.KindInvalidArgument, "objects/ pseudo-bucket is read-only")
	}
	segs := SplitKey(req.Path.Key)
	if len(segs) == 0 {
		return nil, cmn.ErrNoSuchKey
	}
	objID := cmn.ID(segs[0])

	r, _, ok := g.Cache.GetResource(objID)
	if !ok || r.IsDeleted() || r.Status != cmn.StatusAvailable || r.Variant != cmn.VariantObject {
		return nil, cmn.ErrNoSuchKey
	}

	chain := g.Graph.Ancestors(objID)
	states := &graph.ResourceStates{Object: r, MissingAtIndex: -1}
	if len(chain) > 1 {
		if parent, _, ok := g.Cache.GetResource(chain[1]); ok {
			states.Project = parent
		}
	}

	if r.DataClass != cmn.ClassPublic {
		if err := g.Permissions.Check(g.permUser(us), permission.TargetInfo{ResourceID: objID, IsObject: true, DataClass: r.DataClass}, cmn.PermRead, false); err != nil {
			return nil, err
		}
	}

	ancestors := make([]map[string]interface{}, 0, len(chain)-1)
	for _, aid := range chain[1:] {
		if ar, _, ok := g.Cache.GetResource(aid); ok && ar.Variant == cmn.VariantProject {
			ancestors = append(ancestors, map[string]interface{}{"id": string(ar.ID), "display_name": ar.DisplayName})
		}
	}
	if err := g.Rules.CheckPackage(ctx, ruleSourceAdapter{g.Cache}, chain, rules.PackageInput{
		Object:    map[string]interface{}{"id": string(r.ID), "display_name": r.DisplayName},
		Ancestors: ancestors,
		Method:    req.Method,
		Headers:   req.Headers,
	}); err != nil {
		return nil, err
	}

	return &Decision{States: states, User: us}, nil
}

func (g *Gate) checkBundle(ctx context.Context, req Request, us UserState) (*Decision, error) {
	if !isReadOnly(req.Method) {
		return nil, cmn.NewError(cmn.KindInvalidArgument, "bundles/ pseudo-bucket is read-only")
	}
	segs := SplitKey(req.Path.Key)
	if len(segs) == 0 {
		return nil, cmn.ErrNoSuchKey
	}
	b, ok := g.Cache.GetBundle(cmn.ID(segs[0]))
	if !ok {
		return nil, cmn.ErrNoSuchKey
	}
	if err := g.Rules.CheckBundle(ctx, ruleSourceAdapter{g.Cache}, []cmn.ID{b.ID}, rules.BundleInput{
		Bundle:  map[string]interface{}{"id": string(b.ID), "owner": string(b.Owner)},
		Method:  req.Method,
		Headers: req.Headers,
	}); err != nil {
		return nil, err
	}
	return &Decision{User: us}, nil
}

// checkObject implements the ordinary bucket/key path (spec.md §4.F
// step 3): bucket is Project; up to three key segments resolve
// Collection/Dataset/Object in belongs_to order.
func (g *Gate) checkObject(ctx context.Context, req Request, us UserState) (*Decision, error) {
	segs := SplitKey(req.Path.Key)
	if len(segs) > 3 {
		return nil, cmn.NewError(cmn.KindInvalidArgument, "key has too many path segments")
	}

	components := make([]graph.PathComponent, 0, len(segs)+1)
	components = append(components, graph.PathComponent{DisplayName: req.Path.Bucket})
	for _, s := range segs {
		components = append(components, graph.PathComponent{DisplayName: s})
	}

	states := g.Graph.BuildResourceStates(components)

	allowCreate := !isReadOnly(req.Method)
	if err := states.Validate(allowCreate); err != nil {
		return nil, err
	}

	target := states.Deepest()
	if isReadOnly(req.Method) && target == nil {
		return nil, cmn.ErrNoSuchKey
	}

	if target != nil && target.Variant == cmn.VariantObject {
		if binding, ok := g.objectBinding(target, req.EndpointID); ok {
			if binding.Type == cmn.ReplicationPartial && binding.Status != cmn.ReplFinished {
				return nil, cmn.NewErrorf(cmn.KindNotFound, "object not yet synced to this endpoint")
			}
		}

		if target.DataClass != cmn.ClassPublic || !isReadOnly(req.Method) {
			if err := g.Permissions.Check(g.permUser(us), permission.TargetInfo{ResourceID: target.ID, IsObject: true, DataClass: target.DataClass}, permission.LevelForMethod(req.Method), false); err != nil {
				return nil, err
			}
		}
	} else if target != nil {
		if err := g.Permissions.Check(g.permUser(us), permission.TargetInfo{ResourceID: target.ID}, permission.LevelForMethod(req.Method), false); err != nil {
			return nil, err
		}
	}

	if target != nil {
		chain := g.Graph.Ancestors(target.ID)
		if err := g.Rules.CheckObject(ctx, ruleSourceAdapter{g.Cache}, chain, rules.ObjectInput{
			RootInput: rules.RootInput{UserID: us.UserID, Permissions: us.Permissions, Method: req.Method, Headers: req.Headers},
			States:    toStateView(states),
		}); err != nil {
			return nil, err
		}
	}

	return &Decision{States: states, User: us, CORS: g.corsFor(states, req.Method, req.Origin)}, nil
}

func (g *Gate) objectBinding(r *graph.Resource, endpoint cmn.ID) (graph.EndpointBinding, bool) {
	for _, b := range r.Endpoints {
		if b.EndpointID == endpoint {
			return b, true
		}
	}
	return graph.EndpointBinding{}, false
}

func toStateView(rs *graph.ResourceStates) rules.ResourceStateView {
	var v rules.ResourceStateView
	if rs.Project != nil {
		v.Project = map[string]interface{}{"id": string(rs.Project.ID), "display_name": rs.Project.DisplayName}
	}
	if rs.Collection != nil {
		v.Collection = map[string]interface{}{"id": string(rs.Collection.ID), "display_name": rs.Collection.DisplayName}
	}
	if rs.Dataset != nil {
		v.Dataset = map[string]interface{}{"id": string(rs.Dataset.ID), "display_name": rs.Dataset.DisplayName}
	}
	if rs.Object != nil {
		v.Object = map[string]interface{}{"id": string(rs.Object.ID), "display_name": rs.Object.DisplayName}
	}
	return v
}

// corsFor populates Access-Control-Allow-* headers only when Origin
// matches the Project's allow-list regex (spec.md §4.F "CORS").
func (g *Gate) corsFor(states *graph.ResourceStates, method, origin string) *CORSHeaders {
	if states == nil || states.Project == nil || origin == "" {
		return nil
	}
	pattern, methods := corsConfig(states.Project)
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil || !re.MatchString(origin) {
		return nil
	}
	return &CORSHeaders{
		AllowOrigin:  origin,
		AllowMethods: strings.Join(methods, ", "),
		AllowHeaders: "*",
	}
}

// corsConfig reads the Project's CORS allow-list regex and method list
// out of its StaticLabel key-values (KVOrigin / KVMethods), the same
// KV-as-attribute-bag pattern spec.md §9 mandates for dynamic key-values.
func corsConfig(project *graph.Resource) (pattern string, methods []string) {
	for _, kv := range project.KVs {
		switch kv.Key {
		case "cors:origin":
			pattern = kv.Value
		case "cors:methods":
			methods = append(methods, kv.Value)
		}
	}
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodHead}
	}
	return pattern, methods
}

// ruleSourceAdapter adapts *cache.Store to rules.RuleSource.
type ruleSourceAdapter struct{ s *cache.Store }

func (a ruleSourceAdapter) BindingsFor(chain []cmn.ID) []*cache.RuleBinding { return a.s.BindingsFor(chain) }
func (a ruleSourceAdapter) GetRule(id cmn.ID) (*cache.RuleRecord, bool)     { return a.s.GetRule(id) }
