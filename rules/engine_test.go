package rules_test

import (
	"context"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/rules"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeSource struct {
	bindings []*cache.RuleBinding
	recs     map[cmn.ID]*cache.RuleRecord
}

func (f *fakeSource) BindingsFor(chain []cmn.ID) []*cache.RuleBinding { return f.bindings }
func (f *fakeSource) GetRule(id cmn.ID) (*cache.RuleRecord, bool) {
	r, ok := f.recs[id]
	return r, ok
}

var _ = Describe("Engine", func() {
	var e *rules.Engine

	BeforeEach(func() {
		e = rules.NewEngine()
	})

	It("evaluates a true expression over injected root input", func() {
		ok, err := e.EvalRoot(context.Background(), cmn.NewID(), 1, `headers['X-Purpose'] === 'research'`,
			rules.RootInput{Headers: map[string]string{"X-Purpose": "research"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("evaluates false when the condition isn't met", func() {
		ok, err := e.EvalRoot(context.Background(), cmn.NewID(), 1, `headers['X-Purpose'] === 'research'`,
			rules.RootInput{Headers: map[string]string{}})
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("returns MalformedRule on a compile error", func() {
		_, err := e.EvalRoot(context.Background(), cmn.NewID(), 1, `this is not valid javascript (((`, rules.RootInput{})
		Expect(err).To(HaveOccurred())
		Expect(cmn.IsKind(err, cmn.KindMalformedRule)).To(BeTrue())
	})

	It("evaluates a second call with the same rule id and revision", func() {
		id := cmn.NewID()
		_, err := e.EvalRoot(context.Background(), id, 3, `true`, rules.RootInput{})
		Expect(err).NotTo(HaveOccurred())
		ok, err := e.EvalRoot(context.Background(), id, 3, `true`, rules.RootInput{})
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	Describe("CheckObject (conjunctive binding resolution)", func() {
		It("denies when any one bound rule evaluates false", func() {
			ruleA := cmn.NewID()
			ruleB := cmn.NewID()
			src := &fakeSource{
				bindings: []*cache.RuleBinding{
					{ID: cmn.NewID(), RuleID: ruleA, Target: cmn.NewID()},
					{ID: cmn.NewID(), RuleID: ruleB, Target: cmn.NewID()},
				},
				recs: map[cmn.ID]*cache.RuleRecord{
					ruleA: {ID: ruleA, Revision: 1, Source: `true`},
					ruleB: {ID: ruleB, Revision: 1, Source: `false`},
				},
			}
			err := e.CheckObject(context.Background(), src, []cmn.ID{cmn.NewID()}, rules.ObjectInput{})
			Expect(err).To(HaveOccurred())
			Expect(cmn.IsKind(err, cmn.KindPermissionDenied)).To(BeTrue())
		})

		It("succeeds when every bound rule evaluates true", func() {
			ruleA := cmn.NewID()
			src := &fakeSource{
				bindings: []*cache.RuleBinding{{ID: cmn.NewID(), RuleID: ruleA, Target: cmn.NewID()}},
				recs:     map[cmn.ID]*cache.RuleRecord{ruleA: {ID: ruleA, Revision: 1, Source: `method === 'GET'`}},
			}
			err := e.CheckObject(context.Background(), src, []cmn.ID{cmn.NewID()}, rules.ObjectInput{RootInput: rules.RootInput{Method: "GET"}})
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
