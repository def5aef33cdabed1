package catalog

import (
	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"
)

// grantPerm records that user holds level at resource, persists the
// user record, refreshes the cache, and publishes the change — the
// mutation every authorization-granting path funnels through.
func (c *Catalog) grantPerm(user, resource cmn.ID, level cmn.PermLevel) error {
	u, ok := c.Store.getUser(user)
	if !ok {
		return cmn.ErrNotFound
	}
	u.Perms[resource] = level
	c.Store.putUser(u)
	c.Cache.PutUser(toUserRecord(u))
	c.publish(cache.EventUserChanged, user)
	return nil
}

func (c *Catalog) revokePerm(user, resource cmn.ID) error {
	u, ok := c.Store.getUser(user)
	if !ok {
		return cmn.ErrNotFound
	}
	delete(u.Perms, resource)
	c.Store.putUser(u)
	c.Cache.PutUser(toUserRecord(u))
	c.publish(cache.EventUserChanged, user)
	return nil
}

// CreateAuthorizationRequest implements spec.md §6 "Authorization"
// create: the caller must hold Admin on the resource being granted
// (spec.md §4.C "granting a level you don't yourself hold is refused").
type CreateAuthorizationRequest struct {
	AuthHeader string
	UserID     string
	ResourceID string
	Level      cmn.PermLevel
}

func (c *Catalog) CreateAuthorization(req CreateAuthorizationRequest) error {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return err
	}
	resource, err := requireID(req.ResourceID)
	if err != nil {
		return err
	}
	grantee, err := requireID(req.UserID)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(resource, cmn.PermAdmin, false),
	}); err != nil {
		return err
	}
	if id.perm != nil {
		granterLevel := c.Perms.Resolve(id.perm, resource)
		if !id.IsGlobalAdmin && granterLevel < req.Level {
			return cmn.ErrPermissionDenied
		}
	}
	return c.grantPerm(grantee, resource, req.Level)
}

// GetAuthorization implements spec.md §6 "Authorization" get.
func (c *Catalog) GetAuthorization(authHeader, userIDStr, resourceIDStr string) (cmn.PermLevel, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return cmn.PermNone, err
	}
	resource, err := requireID(resourceIDStr)
	if err != nil {
		return cmn.PermNone, err
	}
	user, err := requireID(userIDStr)
	if err != nil {
		return cmn.PermNone, err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.SelfUser(user),
		permission.Resource(resource, cmn.PermAdmin, false),
	}); err != nil {
		return cmn.PermNone, err
	}
	u, ok := c.Store.getUser(user)
	if !ok {
		return cmn.PermNone, cmn.ErrNotFound
	}
	return u.Perms[resource], nil
}

// UpdateAuthorization implements spec.md §6 "Authorization" update.
func (c *Catalog) UpdateAuthorization(req CreateAuthorizationRequest) error {
	return c.CreateAuthorization(req)
}

// DeleteAuthorization implements spec.md §6 "Authorization" delete.
func (c *Catalog) DeleteAuthorization(authHeader, userIDStr, resourceIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	resource, err := requireID(resourceIDStr)
	if err != nil {
		return err
	}
	grantee, err := requireID(userIDStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(resource, cmn.PermAdmin, false),
	}); err != nil {
		return err
	}
	return c.revokePerm(grantee, resource)
}
