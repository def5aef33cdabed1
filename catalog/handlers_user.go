package catalog

import (
	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"
)

// RegisterUserRequest implements spec.md §6 "User" register: called
// once an OIDC-authenticated caller has no existing User record yet.
type RegisterUserRequest struct {
	DisplayName string
	Email       string
	Oidc        OidcMapping
}

func (c *Catalog) RegisterUser(req RegisterUserRequest) (cmn.ID, error) {
	if err := requireNonEmpty("display_name", req.DisplayName); err != nil {
		return "", err
	}
	u := newUser(cmn.NewID(), req.DisplayName, req.Email, false)
	u.Oidc = append(u.Oidc, req.Oidc)
	c.Store.putUser(u)
	c.Cache.PutUser(toUserRecord(u))
	c.publish(cache.EventUserChanged, u.ID)
	return u.ID, nil
}

// GetUser implements spec.md §6 "User" get: self or Admin only.
func (c *Catalog) GetUser(authHeader, userIDStr string) (*User, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	target, err := requireID(userIDStr)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin(), permission.SelfUser(target)}); err != nil {
		return nil, err
	}
	u, ok := c.Store.getUser(target)
	if !ok {
		return nil, cmn.ErrNotFound
	}
	return u, nil
}

func (c *Catalog) setActive(authHeader, userIDStr string, active bool) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	target, err := requireID(userIDStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin()}); err != nil {
		return err
	}
	u, ok := c.Store.getUser(target)
	if !ok {
		return cmn.ErrNotFound
	}
	u.Active = active
	c.Store.putUser(u)
	c.Cache.PutUser(toUserRecord(u))
	c.publish(cache.EventUserChanged, target)
	return nil
}

// ActivateUser implements spec.md §6 "User" activate.
func (c *Catalog) ActivateUser(authHeader, userIDStr string) error {
	return c.setActive(authHeader, userIDStr, true)
}

// DeactivateUser implements spec.md §6 "User" deactivate.
func (c *Catalog) DeactivateUser(authHeader, userIDStr string) error {
	return c.setActive(authHeader, userIDStr, false)
}

// mutateSelfOrAdmin loads the target user after checking the caller is
// either that user or a global admin, the shape shared by every
// self-service profile-editing handler below.
func (c *Catalog) mutateSelfOrAdmin(authHeader, userIDStr string, fn func(*User)) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	target, err := requireID(userIDStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin(), permission.SelfUser(target)}); err != nil {
		return err
	}
	u, ok := c.Store.getUser(target)
	if !ok {
		return cmn.ErrNotFound
	}
	fn(u)
	c.Store.putUser(u)
	c.Cache.PutUser(toUserRecord(u))
	c.publish(cache.EventUserChanged, target)
	return nil
}

func (c *Catalog) UpdateDisplayName(authHeader, userIDStr, name string) error {
	if err := requireNonEmpty("display_name", name); err != nil {
		return err
	}
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) { u.DisplayName = name })
}

func (c *Catalog) UpdateEmail(authHeader, userIDStr, email string) error {
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) { u.Email = email })
}

func (c *Catalog) AddOidcProvider(authHeader, userIDStr string, m OidcMapping) error {
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) { u.Oidc = append(u.Oidc, m) })
}

func (c *Catalog) RemoveOidcProvider(authHeader, userIDStr, provider string) error {
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) {
		kept := u.Oidc[:0:0]
		for _, m := range u.Oidc {
			if m.Provider != provider {
				kept = append(kept, m)
			}
		}
		u.Oidc = kept
	})
}

func (c *Catalog) AddPubkey(authHeader, userIDStr string, key []byte) error {
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) { u.Pubkeys = append(u.Pubkeys, key) })
}

func (c *Catalog) AddTrustedEndpoints(authHeader, userIDStr string, eps []TrustedEndpoint) error {
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) { u.Trusted = append(u.Trusted, eps...) })
}

func (c *Catalog) RemoveTrustedEndpoints(authHeader, userIDStr string, endpointIDs []cmn.ID) error {
	remove := make(map[cmn.ID]bool, len(endpointIDs))
	for _, id := range endpointIDs {
		remove[id] = true
	}
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) {
		kept := u.Trusted[:0:0]
		for _, t := range u.Trusted {
			if !remove[t.EndpointID] {
				kept = append(kept, t)
			}
		}
		u.Trusted = kept
	})
}

// AddDataProxyAttribute implements spec.md §6 "User" add/remove
// data-proxy-custom-attribute: per-endpoint opaque key/value pairs an
// endpoint stores about a user (spec.md §3 "User" Custom bag).
func (c *Catalog) AddDataProxyAttribute(authHeader, userIDStr, proxyID, key, value string) error {
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) {
		if u.Custom[proxyID] == nil {
			u.Custom[proxyID] = make(map[string]string)
		}
		u.Custom[proxyID][key] = value
	})
}

func (c *Catalog) RemoveDataProxyAttribute(authHeader, userIDStr, proxyID, key string) error {
	return c.mutateSelfOrAdmin(authHeader, userIDStr, func(u *User) {
		delete(u.Custom[proxyID], key)
	})
}
