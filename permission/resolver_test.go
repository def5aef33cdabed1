package permission_test

import (
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeAncestors map[cmn.ID][]cmn.ID

func (f fakeAncestors) Ancestors(id cmn.ID) []cmn.ID {
	chain := []cmn.ID{id}
	return append(chain, f[id]...)
}

var _ = Describe("Resolver", func() {
	var (
		proj, coll, obj cmn.ID
		ancestors       fakeAncestors
		r               *permission.Resolver
	)

	BeforeEach(func() {
		proj, coll, obj = cmn.NewID(), cmn.NewID(), cmn.NewID()
		ancestors = fakeAncestors{
			coll: {proj},
			obj:  {coll, proj},
		}
		r = permission.NewResolver(ancestors, "")
	})

	It("inherits the parent's permission level down the chain", func() {
		u := &permission.User{ID: cmn.NewID(), ResourcePerms: map[cmn.ID]cmn.PermLevel{proj: cmn.PermWrite}}
		Expect(r.Resolve(u, obj)).To(Equal(cmn.PermWrite))
	})

	It("takes the max level across ancestors, not the nearest", func() {
		u := &permission.User{ID: cmn.NewID(), ResourcePerms: map[cmn.ID]cmn.PermLevel{
			proj: cmn.PermRead,
			coll: cmn.PermAdmin,
		}}
		Expect(r.Resolve(u, obj)).To(Equal(cmn.PermAdmin))
	})

	It("denies a nil user", func() {
		Expect(r.Resolve(nil, obj)).To(Equal(cmn.PermNone))
	})

	Describe("Check", func() {
		It("bypasses auth for a public object read", func() {
			err := r.Check(nil, permission.TargetInfo{ResourceID: obj, IsObject: true, DataClass: cmn.ClassPublic}, cmn.PermRead, false)
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires a user for a public object write", func() {
			err := r.Check(nil, permission.TargetInfo{ResourceID: obj, IsObject: true, DataClass: cmn.ClassPublic}, cmn.PermWrite, false)
			Expect(err).To(HaveOccurred())
			Expect(cmn.IsKind(err, cmn.KindUnauthenticated)).To(BeTrue())
		})

		It("rejects a service account unless the context allows it", func() {
			u := &permission.User{ID: cmn.NewID(), ServiceAccount: true, ResourcePerms: map[cmn.ID]cmn.PermLevel{proj: cmn.PermAdmin}}
			err := r.Check(u, permission.TargetInfo{ResourceID: obj}, cmn.PermRead, false)
			Expect(err).To(HaveOccurred())
			Expect(cmn.IsKind(err, cmn.KindPermissionDenied)).To(BeTrue())

			err = r.Check(u, permission.TargetInfo{ResourceID: obj}, cmn.PermRead, true)
			Expect(err).NotTo(HaveOccurred())
		})

		It("denies when the resolved level is below what's required", func() {
			u := &permission.User{ID: cmn.NewID(), ResourcePerms: map[cmn.ID]cmn.PermLevel{proj: cmn.PermRead}}
			err := r.Check(u, permission.TargetInfo{ResourceID: obj}, cmn.PermWrite, false)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("global admin escape hatch", func() {
		It("grants every level anywhere once Admin is held on the global project", func() {
			global := cmn.NewID()
			r := permission.NewResolver(ancestors, global)
			u := &permission.User{ID: cmn.NewID(), ResourcePerms: map[cmn.ID]cmn.PermLevel{global: cmn.PermAdmin}}
			Expect(r.Resolve(u, obj)).To(Equal(cmn.PermAdmin))
		})
	})

	Describe("CheckContexts", func() {
		It("succeeds if any context in the list is satisfied", func() {
			u := &permission.User{ID: cmn.NewID(), ResourcePerms: map[cmn.ID]cmn.PermLevel{proj: cmn.PermRead}}
			contexts := []permission.Context{
				permission.Resource(obj, cmn.PermAdmin, false),
				permission.SelfUser(u.ID),
			}
			Expect(r.CheckContexts(u, false, contexts)).To(Succeed())
		})

		It("fails when no context is satisfied", func() {
			u := &permission.User{ID: cmn.NewID()}
			contexts := []permission.Context{
				permission.Resource(obj, cmn.PermAdmin, false),
				permission.SelfUser(cmn.NewID()),
			}
			Expect(r.CheckContexts(u, false, contexts)).To(HaveOccurred())
		})

		It("honors the global-admin context", func() {
			Expect(r.CheckContexts(nil, true, []permission.Context{permission.Admin()})).To(Succeed())
		})
	})
})
