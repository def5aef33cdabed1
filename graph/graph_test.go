package graph_test

import (
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var s *graph.Store

	BeforeEach(func() {
		s = graph.NewStore()
	})

	Describe("Create", func() {
		It("rejects a non-project resource without a parent", func() {
			_, err := s.Create("", cmn.VariantCollection, "coll")
			Expect(err).To(HaveOccurred())
		})

		It("links a collection to its project via belongs_to", func() {
			projID, err := s.Create("", cmn.VariantProject, "proj")
			Expect(err).NotTo(HaveOccurred())

			collID, err := s.Create(projID, cmn.VariantCollection, "coll")
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Children(projID)).To(ContainElement(collID))
			ancestors := s.Ancestors(collID)
			Expect(ancestors).To(ContainElement(projID))
		})
	})

	Describe("pin + update (spec.md S3 scenario)", func() {
		It("produces a fresh id on each pin/update and rejects version regressions", func() {
			projID, _ := s.Create("", cmn.VariantProject, "proj")
			collID, _ := s.Create(projID, cmn.VariantCollection, "C")

			v1 := graph.SemVer{Major: 1}
			c1, err := s.Pin(collID, v1)
			Expect(err).NotTo(HaveOccurred())

			v2 := graph.SemVer{Major: 2}
			c2, err := s.Pin(c1, v2)
			Expect(err).NotTo(HaveOccurred())
			Expect(c2).NotTo(Equal(c1))

			r1, _ := s.Get(c1)
			r2, _ := s.Get(c2)
			Expect(r1.SharedRevisionID).To(Equal(r2.SharedRevisionID))

			// Update(c1, ..., 1.0.0) must conflict: not greater than latest (2.0.0).
			desc := "new description"
			_, err = s.Update(c1, graph.UpdateFields{Description: &desc}, &graph.SemVer{Major: 1})
			Expect(err).To(HaveOccurred())
			Expect(cmn.IsKind(err, cmn.KindConflict)).To(BeTrue())

			// Update(c2, ..., 2.0.1) succeeds and keeps the shared revision id.
			v201 := graph.SemVer{Major: 2, Patch: 1}
			c3, err := s.Update(c2, graph.UpdateFields{Description: &desc}, &v201)
			Expect(err).NotTo(HaveOccurred())
			r3, _ := s.Get(c3)
			Expect(r3.SharedRevisionID).To(Equal(r1.SharedRevisionID))
		})
	})

	Describe("ModifyRelations", func() {
		It("rejects additions that would create a belongs_to cycle", func() {
			projID, _ := s.Create("", cmn.VariantProject, "proj")
			collID, _ := s.Create(projID, cmn.VariantCollection, "C")

			err := s.ModifyRelations(projID, []graph.Relation{{Target: collID, Name: cmn.RelBelongsTo}}, nil)
			Expect(err).To(HaveOccurred())
			Expect(cmn.IsKind(err, cmn.KindConflict)).To(BeTrue())
		})

		It("rejects removing a version relation", func() {
			projID, _ := s.Create("", cmn.VariantProject, "proj")
			r, _ := s.Get(projID)
			relID := cmn.NewID()
			r.Relations.Outbound = append(r.Relations.Outbound, graph.Relation{ID: relID, Target: projID, Name: cmn.RelVersion})

			err := s.ModifyRelations(projID, nil, []cmn.ID{relID})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("is idempotent", func() {
			projID, _ := s.Create("", cmn.VariantProject, "proj")
			Expect(s.Delete(projID, false)).To(Succeed())
			Expect(s.Delete(projID, false)).To(Succeed())
			r, _ := s.Get(projID)
			Expect(r.DisplayName).To(Equal(cmn.DeletedName))
		})

		It("refuses to delete a parent with children unless cascade is set", func() {
			projID, _ := s.Create("", cmn.VariantProject, "proj")
			s.Create(projID, cmn.VariantCollection, "C")

			err := s.Delete(projID, false)
			Expect(err).To(HaveOccurred())

			Expect(s.Delete(projID, true)).To(Succeed())
		})
	})
})
