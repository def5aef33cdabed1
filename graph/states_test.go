package graph_test

import (
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildResourceStates", func() {
	var s *graph.Store

	BeforeEach(func() {
		s = graph.NewStore()
	})

	It("resolves an Object that belongs_to a Project directly, skipping Collection/Dataset", func() {
		proj, _ := s.Create("", cmn.VariantProject, "A")
		obj, _ := s.Create(proj, cmn.VariantObject, "readme.txt")

		rs := s.BuildResourceStates([]graph.PathComponent{
			{DisplayName: "A"},
			{DisplayName: "readme.txt"},
		})
		Expect(rs.MissingAtIndex).To(Equal(-1))
		Expect(rs.Project.ID).To(Equal(proj))
		Expect(rs.Collection).To(BeNil())
		Expect(rs.Object.ID).To(Equal(obj))
	})

	It("resolves a full Project/Collection/Dataset/Object chain", func() {
		proj, _ := s.Create("", cmn.VariantProject, "A")
		coll, _ := s.Create(proj, cmn.VariantCollection, "C")
		ds, _ := s.Create(coll, cmn.VariantDataset, "D")
		obj, _ := s.Create(ds, cmn.VariantObject, "o")

		rs := s.BuildResourceStates([]graph.PathComponent{
			{DisplayName: "A"}, {DisplayName: "C"}, {DisplayName: "D"}, {DisplayName: "o"},
		})
		Expect(rs.MissingAtIndex).To(Equal(-1))
		Expect(rs.Collection.ID).To(Equal(coll))
		Expect(rs.Dataset.ID).To(Equal(ds))
		Expect(rs.Object.ID).To(Equal(obj))
	})

	It("reports MissingAtIndex when a segment has no matching child", func() {
		proj, _ := s.Create("", cmn.VariantProject, "A")
		_ = proj

		rs := s.BuildResourceStates([]graph.PathComponent{
			{DisplayName: "A"}, {DisplayName: "nope"},
		})
		Expect(rs.MissingAtIndex).To(Equal(1))
	})

	It("never accepts a fourth key segment (beyond Project+3)", func() {
		proj, _ := s.Create("", cmn.VariantProject, "A")
		coll, _ := s.Create(proj, cmn.VariantCollection, "C")
		ds, _ := s.Create(coll, cmn.VariantDataset, "D")
		s.Create(ds, cmn.VariantObject, "o")

		rs := s.BuildResourceStates([]graph.PathComponent{
			{DisplayName: "A"}, {DisplayName: "C"}, {DisplayName: "D"}, {DisplayName: "o"}, {DisplayName: "extra"},
		})
		Expect(rs.MissingAtIndex).To(Equal(4))
	})
})
