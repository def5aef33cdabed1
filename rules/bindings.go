package rules

import (
	"context"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
)

// RuleSource supplies the rule records and bindings in scope for a
// target; backed by cache.Store in production, faked in tests.
type RuleSource interface {
	BindingsFor(chain []cmn.ID) []*cache.RuleBinding
	GetRule(id cmn.ID) (*cache.RuleRecord, bool)
}

// CheckObject evaluates every rule bound directly to chain[0] or
// cascading from any ancestor in chain (spec.md §4.G "Binding
// resolution order"). All bound rules must return true; any single
// false, compile failure, or runtime failure is a denial. A
// MalformedRule compile failure propagates to the caller distinctly
// from a runtime/evaluated-false AccessDenied, per spec.md §7.
func (e *Engine) CheckObject(ctx context.Context, src RuleSource, chain []cmn.ID, in ObjectInput) error {
	for _, b := range src.BindingsFor(chain) {
		rec, ok := src.GetRule(b.RuleID)
		if !ok {
			continue
		}
		ok, err := e.EvalObject(ctx, rec.ID, rec.Revision, rec.Source, in)
		if err != nil {
			return err
		}
		if !ok {
			return cmn.ErrAccessDenied
		}
	}
	return nil
}

func (e *Engine) CheckRoot(ctx context.Context, src RuleSource, chain []cmn.ID, in RootInput) error {
	for _, b := range src.BindingsFor(chain) {
		rec, ok := src.GetRule(b.RuleID)
		if !ok {
			continue
		}
		ok, err := e.EvalRoot(ctx, rec.ID, rec.Revision, rec.Source, in)
		if err != nil {
			return err
		}
		if !ok {
			return cmn.ErrAccessDenied
		}
	}
	return nil
}

func (e *Engine) CheckPackage(ctx context.Context, src RuleSource, chain []cmn.ID, in PackageInput) error {
	for _, b := range src.BindingsFor(chain) {
		rec, ok := src.GetRule(b.RuleID)
		if !ok {
			continue
		}
		ok, err := e.EvalPackage(ctx, rec.ID, rec.Revision, rec.Source, in)
		if err != nil {
			return err
		}
		if !ok {
			return cmn.ErrAccessDenied
		}
	}
	return nil
}

func (e *Engine) CheckBundle(ctx context.Context, src RuleSource, chain []cmn.ID, in BundleInput) error {
	for _, b := range src.BindingsFor(chain) {
		rec, ok := src.GetRule(b.RuleID)
		if !ok {
			continue
		}
		ok, err := e.EvalBundle(ctx, rec.ID, rec.Revision, rec.Source, in)
		if err != nil {
			return err
		}
		if !ok {
			return cmn.ErrAccessDenied
		}
	}
	return nil
}
