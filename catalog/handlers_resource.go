package catalog

import (
	"time"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"github.com/nimbusfs/core/permission"
)

// CreateResourceRequest is shared by Create{Project,Collection,Dataset,
// Object} (spec.md §6 "Resource" RPC surface): the variant is fixed per
// call site, everything else is common.
type CreateResourceRequest struct {
	AuthHeader  string
	ParentID    string // empty for Project
	Variant     cmn.ResourceVariant
	DisplayName string
}

// CreateResource implements spec.md §4.B "create": authorizes Append at
// the parent for an Object, Write at the parent for a Collection or
// Dataset, and global Admin for a Project; then inserts the belongs_to
// edge, persists, caches, and publishes.
func (c *Catalog) CreateResource(req CreateResourceRequest) (rid cmn.ID, err error) {
	defer func(start time.Time) { c.track("CreateResource", start, err) }(time.Now())

	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	if err := requireNonEmpty("display_name", req.DisplayName); err != nil {
		return "", err
	}

	var parent cmn.ID
	if req.Variant != cmn.VariantProject {
		parent, err = requireID(req.ParentID)
		if err != nil {
			return "", err
		}
		required := cmn.PermWrite
		if req.Variant == cmn.VariantObject {
			required = cmn.PermAppend
		}
		if err := c.authorize(id, []permission.Context{
			permission.Admin(),
			permission.Resource(parent, required, false),
		}); err != nil {
			return "", err
		}
	} else if err := c.authorize(id, []permission.Context{permission.Admin()}); err != nil {
		return "", err
	}

	rid, err = c.Graph.Create(parent, req.Variant, req.DisplayName)
	if err != nil {
		return "", err
	}
	r, _ := c.Graph.Get(rid)
	c.syncResource(r)
	c.publish(cache.EventResourceChanged, rid)
	c.runHooks(parent, HookResourceCreated, map[string]string{"id": rid.String()})
	return rid, nil
}

type UpdateResourceRequest struct {
	AuthHeader string
	ID         string
	Fields     graph.UpdateFields
	NewVersion string // empty unless the target is pinned
}

// UpdateResource implements spec.md §4.B "update": unpinned resources
// mutate in place under Write; pinned resources require a strictly
// greater version and produce a sibling clone.
func (c *Catalog) UpdateResource(req UpdateResourceRequest) (cmn.ID, error) {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	rid, err := requireID(req.ID)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(rid, cmn.PermWrite, false),
	}); err != nil {
		return "", err
	}

	var newVersion *graph.SemVer
	if req.NewVersion != "" {
		v, err := graph.ParseSemVer(req.NewVersion)
		if err != nil {
			return "", cmn.NewErrorf(cmn.KindInvalidArgument, "%v", err)
		}
		newVersion = &v
	}

	newID, err := c.Graph.Update(rid, req.Fields, newVersion)
	if err != nil {
		return "", err
	}
	if r, ok := c.Graph.Get(newID); ok {
		c.syncResource(r)
	}
	if newID != rid {
		if r, ok := c.Graph.Get(rid); ok {
			c.syncResource(r)
		}
	}
	c.publish(cache.EventResourceChanged, newID)
	for _, kv := range req.Fields.AddKVs {
		if kv.Variant == cmn.KVStaticLabel {
			c.runHooks(newID, HookStaticLabelAdded, map[string]string{"key": kv.Key, "value": kv.Value})
		} else if kv.Variant == cmn.KVLabel {
			c.runHooks(newID, HookLabelAdded, map[string]string{"key": kv.Key, "value": kv.Value})
		} else if kv.Variant == cmn.KVHook {
			c.runHooks(newID, HookHookAdded, map[string]string{"key": kv.Key, "value": kv.Value})
		} else if kv.Variant == cmn.KVHookStatus {
			c.runHooks(newID, HookHookStatusChanged, map[string]string{"key": kv.Key, "value": kv.Value})
		}
	}
	if req.Fields.Status != nil && *req.Fields.Status == cmn.StatusAvailable {
		c.runHooks(newID, HookObjectFinished, nil)
	}
	return newID, nil
}

type PinResourceRequest struct {
	AuthHeader string
	ID         string
	Version    string
}

// PinResource implements spec.md §4.B "pin".
func (c *Catalog) PinResource(req PinResourceRequest) (cmn.ID, error) {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	rid, err := requireID(req.ID)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(rid, cmn.PermWrite, false),
	}); err != nil {
		return "", err
	}
	v, err := graph.ParseSemVer(req.Version)
	if err != nil {
		return "", cmn.NewErrorf(cmn.KindInvalidArgument, "%v", err)
	}
	newID, err := c.Graph.Pin(rid, v)
	if err != nil {
		return "", err
	}
	if r, ok := c.Graph.Get(newID); ok {
		c.syncResource(r)
	}
	c.publish(cache.EventResourceChanged, newID)
	return newID, nil
}

// GetResource implements spec.md §6 "Get{...}": Read-authorized lookup
// through the cache, falling back to the graph on a miss (spec.md §7
// "Stale cache reads fall back to a direct store query").
func (c *Catalog) GetResource(authHeader, idStr string) (*graph.Resource, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	rid, err := requireID(idStr)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(rid, cmn.PermRead, false),
	}); err != nil {
		return nil, err
	}
	if r, _, ok := c.Cache.GetResource(rid); ok {
		return r, nil
	}
	r, ok := c.Graph.Get(rid)
	if !ok {
		return nil, cmn.ErrNotFound
	}
	return r, nil
}

type ModifyRelationsRequest struct {
	AuthHeader string
	ID         string
	Add        []graph.Relation
	Remove     []string
}

// ModifyRelations implements spec.md §4.B "modify_relations".
func (c *Catalog) ModifyRelations(req ModifyRelationsRequest) error {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return err
	}
	rid, err := requireID(req.ID)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(rid, cmn.PermWrite, false),
	}); err != nil {
		return err
	}
	removeIDs := make([]cmn.ID, 0, len(req.Remove))
	for _, s := range req.Remove {
		rmID, err := requireID(s)
		if err != nil {
			return err
		}
		removeIDs = append(removeIDs, rmID)
	}
	if err := c.Graph.ModifyRelations(rid, req.Add, removeIDs); err != nil {
		return err
	}
	if r, ok := c.Graph.Get(rid); ok {
		c.syncResource(r)
	}
	c.publish(cache.EventResourceChanged, rid)
	return nil
}

type DeleteResourceRequest struct {
	AuthHeader string
	ID         string
	Cascade    bool // always explicit (spec.md §9 Open Question: "expose it explicitly on every delete")
}

// DeleteResource implements spec.md §4.B "delete".
func (c *Catalog) DeleteResource(req DeleteResourceRequest) error {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return err
	}
	rid, err := requireID(req.ID)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(rid, cmn.PermAdmin, false),
	}); err != nil {
		return err
	}
	if err := c.Graph.Delete(rid, req.Cascade); err != nil {
		return err
	}
	if r, ok := c.Graph.Get(rid); ok {
		c.syncResource(r)
	}
	c.publish(cache.EventResourceChanged, rid)
	return nil
}

// ClaimWorkspaceRequest implements the spec.md §6 "ClaimWorkspace"
// operation: an authenticated user claims a Workspace-data-class
// resource by being granted Admin on it directly, bypassing the usual
// parent-Append requirement since a workspace has no pre-existing owner
// to grant the permission. Grants already held by other users are left
// in place, so the claim is not exclusive.
type ClaimWorkspaceRequest struct {
	AuthHeader string
	ID         string
}

func (c *Catalog) ClaimWorkspace(req ClaimWorkspaceRequest) error {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return err
	}
	rid, err := requireID(req.ID)
	if err != nil {
		return err
	}
	r, ok := c.Graph.Get(rid)
	if !ok {
		return cmn.ErrNotFound
	}
	if r.DataClass != cmn.ClassWorkspace {
		return cmn.NewError(cmn.KindInvalidArgument, "ClaimWorkspace requires a Workspace-data-class resource")
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return err
	}
	return c.grantPerm(id.UserID, rid, cmn.PermAdmin)
}
