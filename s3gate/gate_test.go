package s3gate_test

import (
	"context"
	"net/http"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/replication"
	"github.com/nimbusfs/core/rules"
	"github.com/nimbusfs/core/s3gate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustCache() *cache.Store {
	s, err := cache.NewStore(nil)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Gate.CheckAccess", func() {
	var (
		g     *s3gate.Gate
		gs    *graph.Store
		cs    *cache.Store
		proj  cmn.ID
		obj   cmn.ID
		endID cmn.ID
	)

	BeforeEach(func() {
		gs = graph.NewStore()
		cs = mustCache()
		endID = cmn.NewID()

		g = &s3gate.Gate{
			Cache:       cs,
			Graph:       gs,
			Permissions: permission.NewResolver(gs, ""),
			Rules:       rules.NewEngine(),
			Replication: replication.NewCoordinator(),
		}

		var err error
		proj, err = gs.Create("", cmn.VariantProject, "A")
		Expect(err).NotTo(HaveOccurred())
		obj, err = gs.Create(proj, cmn.VariantObject, "readme.txt")
		Expect(err).NotTo(HaveOccurred())

		pr, _ := gs.Get(proj)
		cs.PutResource(pr, "A/")
		or, _ := gs.Get(obj)
		or.Status = cmn.StatusAvailable
		cs.PutResource(or, "A/readme.txt")
	})

	It("S1: allows a Read-permissioned user to GET a Private object", func() {
		user := cmn.NewID()
		cs.PutUser(&cache.UserRecord{ID: user, ResourcePerms: map[cmn.ID]cmn.PermLevel{proj: cmn.PermRead}})
		cs.PutAccessKey(&cache.AccessKeyRecord{AccessKey: "AK", UserID: user, Perms: map[cmn.ID]cmn.PermLevel{proj: cmn.PermRead}})

		dec, err := g.CheckAccess(context.Background(), s3gate.Request{
			Credentials: &s3gate.Credentials{AccessKey: "AK"},
			Method:      http.MethodGet,
			Path:        s3gate.ParsePath("/A/readme.txt"),
			EndpointID:  endID,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(dec.States.Object).NotTo(BeNil())
		Expect(dec.States.Object.ID).To(Equal(obj))
	})

	It("denies a GET from a user with no permission on the project", func() {
		user := cmn.NewID()
		cs.PutUser(&cache.UserRecord{ID: user})
		cs.PutAccessKey(&cache.AccessKeyRecord{AccessKey: "AK2", UserID: user})

		_, err := g.CheckAccess(context.Background(), s3gate.Request{
			Credentials: &s3gate.Credentials{AccessKey: "AK2"},
			Method:      http.MethodGet,
			Path:        s3gate.ParsePath("/A/readme.txt"),
			EndpointID:  endID,
		})
		Expect(err).To(HaveOccurred())
	})

	It("S2: rejects a read when the object's PartialSync binding at this endpoint isn't Finished", func() {
		or, _ := gs.Get(obj)
		or.Endpoints = append(or.Endpoints, graph.EndpointBinding{
			EndpointID: endID, Type: cmn.ReplicationPartial, Status: cmn.ReplWaiting,
		})
		cs.PutResource(or, "A/readme.txt")

		user := cmn.NewID()
		cs.PutAccessKey(&cache.AccessKeyRecord{AccessKey: "AK3", UserID: user, Perms: map[cmn.ID]cmn.PermLevel{proj: cmn.PermAdmin}})
		cs.PutUser(&cache.UserRecord{ID: user, ResourcePerms: map[cmn.ID]cmn.PermLevel{proj: cmn.PermAdmin}})

		_, err := g.CheckAccess(context.Background(), s3gate.Request{
			Credentials: &s3gate.Credentials{AccessKey: "AK3"},
			Method:      http.MethodGet,
			Path:        s3gate.ParsePath("/A/readme.txt"),
			EndpointID:  endID,
		})
		Expect(err).To(HaveOccurred())
		Expect(cmn.IsKind(err, cmn.KindNotFound)).To(BeTrue())
	})

	It("allows an anonymous read of a Public object without credentials", func() {
		or, _ := gs.Get(obj)
		or.DataClass = cmn.ClassPublic
		cs.PutResource(or, "A/readme.txt")

		dec, err := g.CheckAccess(context.Background(), s3gate.Request{
			Method:     http.MethodGet,
			Path:       s3gate.ParsePath("/A/readme.txt"),
			EndpointID: endID,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(dec.User.Kind).To(Equal(s3gate.UserAnonymous))
	})

	It("resolves the objects/ pseudo-bucket by object id", func() {
		or, _ := gs.Get(obj)
		or.DataClass = cmn.ClassPublic
		cs.PutResource(or, "A/readme.txt")

		dec, err := g.CheckAccess(context.Background(), s3gate.Request{
			Method: http.MethodGet,
			Path:   s3gate.ParsePath("/objects/" + string(obj) + "/sub/path"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(dec.States.Object.ID).To(Equal(obj))
	})

	It("rejects a key with more than three path segments", func() {
		_, err := g.CheckAccess(context.Background(), s3gate.Request{
			Method: http.MethodGet,
			Path:   s3gate.ParsePath("/A/b/c/d/e"),
		})
		Expect(err).To(HaveOccurred())
		Expect(cmn.IsKind(err, cmn.KindInvalidArgument)).To(BeTrue())
	})
})
