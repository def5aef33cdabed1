package catalog

import (
	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"
)

// CreateRuleRequest implements spec.md §6 "Rule" create.
type CreateRuleRequest struct {
	AuthHeader string
	Public     bool
	Source     string
	Context    cmn.ResourceVariant
}

func (c *Catalog) CreateRule(req CreateRuleRequest) (cmn.ID, error) {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return "", err
	}
	if err := requireNonEmpty("source", req.Source); err != nil {
		return "", err
	}
	r := &Rule{ID: cmn.NewID(), Owner: id.UserID, Public: req.Public, Source: req.Source, Revision: 1, Context: req.Context}
	c.Store.putRule(r)
	c.Cache.PutRule(&cache.RuleRecord{ID: r.ID, Revision: r.Revision, Source: r.Source})
	return r.ID, nil
}

// GetRule implements spec.md §6 "Rule" get.
func (c *Catalog) GetRule(authHeader, ruleIDStr string) (*Rule, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return nil, err
	}
	ruleID, err := requireID(ruleIDStr)
	if err != nil {
		return nil, err
	}
	r, ok := c.Store.getRule(ruleID)
	if !ok {
		return nil, cmn.ErrNotFound
	}
	if !r.Public && r.Owner != id.UserID && !id.IsGlobalAdmin {
		return nil, cmn.ErrPermissionDenied
	}
	return r, nil
}

// ListRules implements spec.md §6 "Rule" list: every rule owned by the
// caller plus every public rule.
func (c *Catalog) ListRules(authHeader string) ([]*Rule, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return nil, err
	}
	return c.Store.listRules(id.UserID, true), nil
}

// UpdateRuleRequest implements spec.md §6 "Rule" update: bumps the
// revision so every cached (rule-id, revision) compiled program stays
// valid for the old source (spec.md §9 "compile once per rule-revision").
type UpdateRuleRequest struct {
	AuthHeader string
	RuleID     string
	Source     string
}

func (c *Catalog) UpdateRule(req UpdateRuleRequest) error {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return err
	}
	ruleID, err := requireID(req.RuleID)
	if err != nil {
		return err
	}
	r, ok := c.Store.getRule(ruleID)
	if !ok {
		return cmn.ErrNotFound
	}
	if r.Owner != id.UserID && !id.IsGlobalAdmin {
		return cmn.ErrPermissionDenied
	}
	if err := requireNonEmpty("source", req.Source); err != nil {
		return err
	}
	r.Source = req.Source
	r.Revision++
	c.Store.putRule(r)
	c.Cache.PutRule(&cache.RuleRecord{ID: r.ID, Revision: r.Revision, Source: r.Source})
	return nil
}

// DeleteRule implements spec.md §6 "Rule" delete.
func (c *Catalog) DeleteRule(authHeader, ruleIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	ruleID, err := requireID(ruleIDStr)
	if err != nil {
		return err
	}
	r, ok := c.Store.getRule(ruleID)
	if !ok {
		return cmn.ErrNotFound
	}
	if r.Owner != id.UserID && !id.IsGlobalAdmin {
		return cmn.ErrPermissionDenied
	}
	c.Store.deleteRule(ruleID)
	c.Cache.RemoveRule(ruleID)
	return nil
}

// CreateRuleBindingRequest implements spec.md §6 "RuleBinding" create:
// binds an existing rule to a resource, requiring Admin there (spec.md
// §4.G "binding a rule to a resource requires Admin").
type CreateRuleBindingRequest struct {
	AuthHeader string
	RuleID     string
	Target     string
	Cascade    bool
}

func (c *Catalog) CreateRuleBinding(req CreateRuleBindingRequest) (cmn.ID, error) {
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
	ruleID, err := requireID(req.RuleID)
	if err != nil {
		return "", err
	}
	rule, ok := c.Store.getRule(ruleID)
	if !ok {
		return "", cmn.ErrNotFound
	}
	b := &RuleBinding{ID: cmn.NewID(), RuleID: ruleID, Target: target, Cascade: req.Cascade}
	c.Store.putBinding(b)
	c.Cache.PutBinding(&cache.RuleBinding{ID: b.ID, RuleID: b.RuleID, Revision: rule.Revision, Target: b.Target, Cascade: b.Cascade})
	return b.ID, nil
}

// DeleteRuleBinding implements spec.md §6 "RuleBinding" delete.
func (c *Catalog) DeleteRuleBinding(authHeader, targetStr, bindingIDStr string) error {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return err
	}
	target, err := requireID(targetStr)
	if err != nil {
		return err
	}
	if err := c.authorize(id, []permission.Context{
		permission.Admin(),
		permission.Resource(target, cmn.PermAdmin, false),
	}); err != nil {
		return err
	}
	bindingID, err := requireID(bindingIDStr)
	if err != nil {
		return err
	}
	c.Store.deleteBinding(bindingID)
	c.Cache.RemoveBinding(target, bindingID)
	return nil
}
