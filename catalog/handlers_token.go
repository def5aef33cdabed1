package catalog

import (
	"time"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/token"
)

// PersonalTokenTTL is how long a user-minted API token is valid before
// it must be recreated (spec.md §3 "Token" has no server-enforced
// renewal, so this is simply a long, fixed lifetime).
const PersonalTokenTTL = 365 * 24 * time.Hour

// CreateApiTokenRequest implements spec.md §6 "Token" create. An empty
// ResourceID mints an unscoped (personal) token; a set ResourceID scopes
// the token to at most Level at that resource, never more than the
// issuing user already holds there.
type CreateApiTokenRequest struct {
	AuthHeader string
	Name       string
	ResourceID string
	Level      cmn.PermLevel
}

func (c *Catalog) CreateApiToken(req CreateApiTokenRequest) (string, error) {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return "", err
	}
	u, ok := c.Store.getUser(id.UserID)
	if !ok {
		return "", cmn.ErrNotFound
	}

	meta := &TokenMeta{
		ID:        cmn.NewID(),
		Name:      req.Name,
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(PersonalTokenTTL),
	}
	if req.ResourceID != "" {
		resource, err := requireID(req.ResourceID)
		if err != nil {
			return "", err
		}
		if id.perm != nil && c.Perms.Resolve(id.perm, resource) < req.Level {
			return "", cmn.ErrPermissionDenied
		}
		meta.ResourceID = resource
		meta.Level = req.Level
	}
	u.Tokens[meta.ID] = meta
	c.Store.putUser(u)

	raw, err := c.Signer.Sign(token.Claims{
		Issuer:    "root",
		Subject:   u.ID,
		Aud:       token.AudRoot,
		ExpiresAt: meta.ExpiresAt.Unix(),
		TokenID:   meta.ID.String(),
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// GetApiToken implements spec.md §6 "Token" get.
func (c *Catalog) GetApiToken(authHeader, userIDStr, tokenIDStr string) (*TokenMeta, error) {
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
	tokenID, err := requireID(tokenIDStr)
	if err != nil {
		return nil, err
	}
	meta, ok := u.Tokens[tokenID]
	if !ok {
		return nil, cmn.ErrNotFound
	}
	return meta, nil
}

// GetAllApiTokens implements spec.md §6 "Token" get_all.
func (c *Catalog) GetAllApiTokens(authHeader, userIDStr string) ([]*TokenMeta, error) {
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
	out := make([]*TokenMeta, 0, len(u.Tokens))
	for _, m := range u.Tokens {
		out = append(out, m)
	}
	return out, nil
}

// DeleteApiToken implements spec.md §6 "Token" delete.
func (c *Catalog) DeleteApiToken(authHeader, userIDStr, tokenIDStr string) error {
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
	tokenID, err := requireID(tokenIDStr)
	if err != nil {
		return err
	}
	delete(u.Tokens, tokenID)
	c.Store.putUser(u)
	return nil
}

// DeleteAllApiTokens implements spec.md §6 "Token" delete_all.
func (c *Catalog) DeleteAllApiTokens(authHeader, userIDStr string) error {
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
	u.Tokens = make(map[cmn.ID]*TokenMeta)
	c.Store.putUser(u)
	return nil
}
