package catalog

import (
	"context"
	"time"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/credential"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/token"
)

// CreateServiceAccountRequest implements spec.md §6 "ServiceAccount"
// create: a service account is scoped to exactly one resource at
// creation (spec.md §3 "User" "ServiceAccount flag"), and the creating
// user must already hold at least that level there.
type CreateServiceAccountRequest struct {
	AuthHeader string
	Name       string
	ResourceID string
	Level      cmn.PermLevel
}

func (c *Catalog) CreateServiceAccount(req CreateServiceAccountRequest) (cmn.ID, error) {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	resource, err := requireID(req.ResourceID)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(resource, req.Level, false),
	}); err != nil {
		return "", err
	}
	sa := newUser(cmn.NewID(), req.Name, "", true)
	sa.Perms[resource] = req.Level
	c.Store.putUser(sa)
	c.Cache.PutUser(toUserRecord(sa))
	c.publish(cache.EventUserChanged, sa.ID)
	return sa.ID, nil
}

// CreateServiceAccountToken implements spec.md §6 "ServiceAccount"
// create_token: identical shape to a personal token, scoped to the
// service account instead of the calling user.
func (c *Catalog) CreateServiceAccountToken(authHeader, serviceAccountIDStr, name string) (string, error) {
	return c.createTokenFor(authHeader, serviceAccountIDStr, name)
}

func (c *Catalog) createTokenFor(authHeader, userIDStr, name string) (string, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return "", err
	}
	target, err := requireID(userIDStr)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin(), permission.SelfUser(target)}); err != nil {
		return "", err
	}
	u, ok := c.Store.getUser(target)
	if !ok {
		return "", cmn.ErrNotFound
	}
	meta := &TokenMeta{ID: cmn.NewID(), Name: name, IssuedAt: time.Now(), ExpiresAt: time.Now().Add(PersonalTokenTTL)}
	u.Tokens[meta.ID] = meta
	c.Store.putUser(u)
	return c.Signer.Sign(token.Claims{
		Issuer:    "root",
		Subject:   u.ID,
		Aud:       token.AudRoot,
		ExpiresAt: meta.ExpiresAt.Unix(),
		TokenID:   meta.ID.String(),
	})
}

// GetServiceAccount implements spec.md §6 "ServiceAccount" get.
func (c *Catalog) GetServiceAccount(authHeader, serviceAccountIDStr string) (*User, error) {
	return c.GetUser(authHeader, serviceAccountIDStr)
}

// GetAllServiceAccounts implements spec.md §6 "ServiceAccount" get_all:
// every service account holding a permission at resource.
func (c *Catalog) GetAllServiceAccounts(authHeader, resourceIDStr string) ([]*User, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	resource, err := requireID(resourceIDStr)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(resource, cmn.PermAdmin, false),
	}); err != nil {
		return nil, err
	}
	var out []*User
	for _, u := range c.Store.allUsers() {
		if !u.ServiceAccount {
			continue
		}
		if _, ok := u.Perms[resource]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// DeleteServiceAccount implements spec.md §6 "ServiceAccount" delete.
func (c *Catalog) DeleteServiceAccount(authHeader, serviceAccountIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	target, err := requireID(serviceAccountIDStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin(), permission.SelfUser(target)}); err != nil {
		return err
	}
	c.Store.deleteUser(target)
	c.Cache.DeleteUser(target)
	c.publish(cache.EventUserChanged, target)
	return nil
}

// GetS3Credentials implements spec.md §4.I's get_or_create_credentials
// RPC surface: exchange an intent token with the target endpoint for
// this service account's S3 access key pair, creating it on first use.
func (c *Catalog) GetS3Credentials(ctx context.Context, authHeader, serviceAccountIDStr, endpointIDStr string, allowCreate bool) (credential.Result, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return credential.Result{}, err
	}
	target, err := requireID(serviceAccountIDStr)
	if err != nil {
		return credential.Result{}, err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin(), permission.SelfUser(target)}); err != nil {
		return credential.Result{}, err
	}
	endpointID, err := requireID(endpointIDStr)
	if err != nil {
		return credential.Result{}, err
	}
	ep, ok := c.Store.getEndpoint(endpointID)
	if !ok {
		return credential.Result{}, cmn.ErrNotFound
	}
	if c.CredentialDialer == nil {
		return credential.Result{}, cmn.NewError(cmn.KindInternal, "no credential service configured for this catalog")
	}
	svc := c.CredentialDialer(ep)
	hosts := make([]credential.HostConfig, len(ep.Hosts))
	for i, h := range ep.Hosts {
		hosts[i] = credential.HostConfig{Feature: h.Feature, URL: h.URL, TLS: h.TLS, Primary: h.Primary}
	}
	return credential.GetOrCreateCredentials(ctx, c.Signer, svc, target, credential.Endpoint{ID: ep.ID, Hosts: hosts}, allowCreate)
}

// CreateDataproxyToken implements spec.md §6 "ServiceAccount"
// create_dataproxy_token: a short-lived proxy-audience token the caller
// hands directly to a data proxy for its own S3-authenticated calls.
func (c *Catalog) CreateDataproxyToken(authHeader, endpointIDStr string) (string, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return "", err
	}
	endpoint, err := requireID(endpointIDStr)
	if err != nil {
		return "", err
	}
	return c.Signer.SignCreateSecrets(id.UserID, endpoint, credential.ExchangeTTL)
}
