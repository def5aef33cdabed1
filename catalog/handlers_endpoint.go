package catalog

import (
	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"
)

// CreateEndpointRequest implements spec.md §6 "Endpoint" create.
type CreateEndpointRequest struct {
	AuthHeader  string
	DisplayName string
	Variant     cmn.EndpointVariant
	Hosts       []HostConfig
	PubKey      []byte
	PubKeySerial int32
}

func (c *Catalog) CreateEndpoint(req CreateEndpointRequest) (cmn.ID, error) {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin()}); err != nil {
		return "", err
	}
	if err := requireNonEmpty("display_name", req.DisplayName); err != nil {
		return "", err
	}
	ep := &Endpoint{
		ID:           cmn.NewID(),
		DisplayName:  req.DisplayName,
		Variant:      req.Variant,
		Hosts:        req.Hosts,
		Status:       cmn.StatusAvailable,
		PubKeySerial: req.PubKeySerial,
	}
	c.Store.putEndpoint(ep)
	c.Cache.PutEndpoint(toEndpointRecord(ep))
	c.Cache.PutPubKey(&cache.PubKeyRecord{Serial: req.PubKeySerial, Key: req.PubKey, Owner: ep.ID.String()})
	c.publish(cache.EventEndpointChanged, ep.ID)
	return ep.ID, nil
}

// GetEndpoint implements spec.md §6 "Endpoint" get. Any registered user
// may look up an endpoint's advertised hosts.
func (c *Catalog) GetEndpoint(authHeader, endpointIDStr string) (*Endpoint, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return nil, err
	}
	endpointID, err := requireID(endpointIDStr)
	if err != nil {
		return nil, err
	}
	e, ok := c.Store.getEndpoint(endpointID)
	if !ok {
		return nil, cmn.ErrNotFound
	}
	return e, nil
}

// ListEndpoints implements spec.md §6 "Endpoint" list.
func (c *Catalog) ListEndpoints(authHeader string) ([]*Endpoint, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return nil, err
	}
	return c.Store.listEndpoints(), nil
}

// GetDefaultEndpoint implements spec.md §6 "Endpoint"
// get_default_endpoint: the first persistent, Available endpoint found,
// a stand-in for a configured default (spec.md §9 Open Question:
// deterministic but arbitrary absent explicit configuration).
func (c *Catalog) GetDefaultEndpoint(authHeader string) (*Endpoint, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return nil, err
	}
	for _, e := range c.Store.listEndpoints() {
		if e.Variant == cmn.EndpointPersistent && e.Status == cmn.StatusAvailable {
			return e, nil
		}
	}
	return nil, cmn.ErrNotFound
}

// DeleteEndpoint implements spec.md §6 "Endpoint" delete.
func (c *Catalog) DeleteEndpoint(authHeader, endpointIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin()}); err != nil {
		return err
	}
	endpointID, err := requireID(endpointIDStr)
	if err != nil {
		return err
	}
	c.Store.deleteEndpoint(endpointID)
	c.Cache.RemoveEndpoint(endpointID)
	c.publish(cache.EventEndpointChanged, endpointID)
	return nil
}

// FullSync implements spec.md §6 "Endpoint" full_sync: the endpoint
// itself asks to be caught up with everything replicated to it so far.
func (c *Catalog) FullSync(authHeader, endpointIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{permission.Proxy()}); err != nil {
		return err
	}
	endpoint, err := requireID(endpointIDStr)
	if err != nil {
		return err
	}
	c.Repl.ReplicateFull(endpoint, c.Graph.AllIDs())
	return nil
}
