package catalog

import (
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/replication"
)

// ReplicateProjectData implements spec.md §6 "replicate_project_data":
// queues Waiting/FullSync bindings for a Project and every descendant
// already in the graph (spec.md §4.H "replicate_full").
func (c *Catalog) ReplicateProjectData(authHeader, projectIDStr, endpointIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	project, err := requireID(projectIDStr)
	if err != nil {
		return err
	}
	endpoint, err := requireID(endpointIDStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(project, cmn.PermAdmin, false),
	}); err != nil {
		return err
	}
	ids := c.descendants(project)
	c.Repl.ReplicateFull(endpoint, ids)
	return nil
}

// descendants returns id plus every belongs_to descendant currently in
// the graph.
func (c *Catalog) descendants(id cmn.ID) []cmn.ID {
	out := []cmn.ID{id}
	for _, child := range c.Graph.Children(id) {
		out = append(out, c.descendants(child)...)
	}
	return out
}

// PartialReplicateData implements spec.md §6
// "partial_replicate_data" (spec.md §4.H "replicate_partial").
func (c *Catalog) PartialReplicateData(authHeader, resourceIDStr, endpointIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	resource, err := requireID(resourceIDStr)
	if err != nil {
		return err
	}
	endpoint, err := requireID(endpointIDStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(resource, cmn.PermAdmin, false),
	}); err != nil {
		return err
	}
	c.Repl.ReplicatePartial(endpoint, resource)
	return nil
}

// GetReplicationStatus implements spec.md §6 "get_replication_status".
func (c *Catalog) GetReplicationStatus(authHeader, resourceIDStr, endpointIDStr string) (replication.Record, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return replication.Record{}, err
	}
	resource, err := requireID(resourceIDStr)
	if err != nil {
		return replication.Record{}, err
	}
	endpoint, err := requireID(endpointIDStr)
	if err != nil {
		return replication.Record{}, err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(resource, cmn.PermRead, false),
	}); err != nil {
		return replication.Record{}, err
	}
	rec, ok := c.Repl.Get(endpoint, resource)
	if !ok {
		return replication.Record{}, cmn.ErrNotFound
	}
	return rec, nil
}

// UpdateReplicationStatus implements spec.md §6
// "update_replication_status": called by a data-proxy endpoint itself,
// authorized through a CtxProxy context (spec.md §4.H "the target
// endpoint... reports back").
func (c *Catalog) UpdateReplicationStatus(authHeader, resourceIDStr, endpointIDStr string, status cmn.ReplicationStatus) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{permission.Proxy()}); err != nil {
		return err
	}
	resource, err := requireID(resourceIDStr)
	if err != nil {
		return err
	}
	endpoint, err := requireID(endpointIDStr)
	if err != nil {
		return err
	}
	return c.Repl.UpdateStatus(endpoint, resource, status)
}

// DeleteReplication implements spec.md §6 "delete_replication".
func (c *Catalog) DeleteReplication(authHeader, resourceIDStr, endpointIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	resource, err := requireID(resourceIDStr)
	if err != nil {
		return err
	}
	endpoint, err := requireID(endpointIDStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(resource, cmn.PermAdmin, false),
	}); err != nil {
		return err
	}
	c.Repl.DeleteReplication(endpoint, resource)
	return nil
}
