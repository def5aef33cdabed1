package catalog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"github.com/nimbusfs/core/permission"
	"go.uber.org/zap"
)

var hookHTTPClient = &http.Client{Timeout: 10 * time.Second}

// CreateHookRequest implements spec.md §6 "Hook" create.
type CreateHookRequest struct {
	AuthHeader string
	Target     string
	Trigger    HookTrigger
	Filters    map[string]string
	Action     HookAction
}

func (c *Catalog) CreateHook(req CreateHookRequest) (cmn.ID, error) {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	target, err := requireID(req.Target)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(target, cmn.PermAdmin, false),
	}); err != nil {
		return "", err
	}
	h := &Hook{ID: cmn.NewID(), Target: target, Trigger: req.Trigger, Filters: req.Filters, Action: req.Action}
	c.Store.addHook(h)
	return h.ID, nil
}

// ListHooks implements spec.md §6 "Hook" list.
func (c *Catalog) ListHooks(authHeader, targetStr string) ([]*Hook, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	target, err := requireID(targetStr)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(target, cmn.PermRead, false),
	}); err != nil {
		return nil, err
	}
	return c.Store.hooksFor(target), nil
}

// DeleteHook implements spec.md §6 "Hook" delete.
func (c *Catalog) DeleteHook(authHeader, targetStr, hookIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	target, err := requireID(targetStr)
	if err != nil {
		return err
	}
	hookID, err := requireID(hookIDStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(target, cmn.PermAdmin, false),
	}); err != nil {
		return err
	}
	c.Store.deleteHook(target, hookID)
	return nil
}

// runHooks fires every hook bound to target whose trigger matches,
// applying the hook's filters as an exact-match subset test against
// data (spec.md §3 "Hook" filters). External actions are POSTed
// asynchronously; internal actions mutate the graph inline, same as any
// other handler-driven write, so they go through the usual
// persist/cache/publish sequence.
func (c *Catalog) runHooks(target cmn.ID, trigger HookTrigger, data map[string]string) {
	if target.Empty() {
		return
	}
	for _, h := range c.Store.hooksFor(target) {
		if h.Trigger != trigger || !filtersMatch(h.Filters, data) {
			continue
		}
		h := h
		if h.Action.ExternalURL != "" {
			go c.fireExternalHook(h, data)
			continue
		}
		c.applyInternalHook(h)
	}
}

func filtersMatch(filters, data map[string]string) bool {
	for k, v := range filters {
		if data[k] != v {
			return false
		}
	}
	return true
}

func (c *Catalog) fireExternalHook(h *Hook, data map[string]string) {
	method := h.Action.ExternalMethod
	if method == "" {
		method = http.MethodPost
	}
	body, _ := json.Marshal(data)
	req, err := http.NewRequest(method, h.Action.ExternalURL, bytes.NewReader(body))
	if err != nil {
		c.Log.Warn("hook: build request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := hookHTTPClient.Do(req)
	if err != nil {
		c.Log.Warn("hook: delivery failed", zap.Error(err))
		return
	}
	resp.Body.Close()
}

func (c *Catalog) applyInternalHook(h *Hook) {
	if len(h.Action.InternalKVs) > 0 {
		fields := graph.UpdateFields{}
		for _, kv := range h.Action.InternalKVs {
			fields.AddKVs = append(fields.AddKVs, graph.KV{Key: kv.Key, Value: kv.Value, Variant: kv.Variant})
		}
		if _, err := c.Graph.Update(h.Target, fields, nil); err != nil {
			c.Log.Warn("hook: internal kv update failed", zap.Error(err))
			return
		}
	}
	if h.Action.InternalRelation != nil {
		rel := graph.Relation{Target: h.Action.InternalRelation.Target, Name: h.Action.InternalRelation.Name}
		if err := c.Graph.ModifyRelations(h.Target, []graph.Relation{rel}, nil); err != nil {
			c.Log.Warn("hook: internal relation failed", zap.Error(err))
			return
		}
	}
	if r, ok := c.Graph.Get(h.Target); ok {
		c.syncResource(r)
	}
	c.publish(cache.EventResourceChanged, h.Target)
}
