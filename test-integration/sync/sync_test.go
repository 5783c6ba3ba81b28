package integration

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/merge"
	"github.com/benthic/benthic/internal/search"
	"github.com/benthic/benthic/internal/status"
	"github.com/benthic/benthic/internal/store"
	"github.com/benthic/benthic/test-integration/sync/helpers"
)

var _ = Describe("benthic sync", Label("sync"), func() {
	var (
		site *helpers.Site
		ws   *workspace
	)

	BeforeEach(func() {
		site = helpers.NewSite()
		DeferCleanup(site.Close)

		site.PutStream(helpers.Stream{ID: "mill", Name: "Mill Brook", Town: "Hartland", Updated: 100})
		site.PutStream(helpers.Stream{ID: "bog", Name: "Bog Creek", Updated: 200})
		site.PutInvertebrate(helpers.Invertebrate{
			ID: "mayfly", CommonName: "Mayfly", Order: "Ephemeroptera", Sensitivity: 3,
			Images: []string{"mayfly.jpg"},
		})
		site.PutInvertebrate(helpers.Invertebrate{
			ID: "stonefly", CommonName: "Stonefly", Order: "Plecoptera", Sensitivity: 1,
			Images: []string{"stonefly.png", "mayfly.jpg"},
		})
		site.PutInvertebrate(helpers.Invertebrate{ID: "leech", CommonName: "Leech", Sensitivity: 8})
		site.PutImage("mayfly.jpg", []byte("mayfly-bytes"))
		site.PutImage("stonefly.png", []byte("stonefly-bytes"))

		ws = newWorkspace(site.URL())
	})

	// openStore reopens the local database after the CLI has released it
	openStore := func() *store.BoltPersister {
		p, err := store.NewBoltPersister(ws.dataDir, site.URL())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(p.Close)
		return p
	}

	Context("against a reachable site", func() {
		It("stores every record and image", func() {
			out, err := ws.run("sync", "--plain")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Sync succeeded"))
			Expect(out).To(ContainSubstring("Images: 2 of 2 downloaded"))

			p := openStore()
			streams, err := p.LoadStreams()
			Expect(err).NotTo(HaveOccurred())
			Expect(streams).To(HaveLen(2))

			invertebrates, err := p.LoadInvertebrates()
			Expect(err).NotTo(HaveOccurred())
			Expect(invertebrates).To(HaveLen(3))
			for _, inv := range invertebrates {
				Expect(inv.HasLocalImage).To(Equal(inv.ID != "leech"), inv.ID)
			}

			_, ok := p.LastUpdate()
			Expect(ok).To(BeTrue())
			about, ok := p.LoadAbout()
			Expect(ok).To(BeTrue())
			Expect(about).To(ContainSubstring("Volunteer stream monitoring."))

			Expect(ws.storedImages()).To(ConsistOf(merge.LocalName("mayfly.jpg"), merge.LocalName("stonefly.png")))
			data, err := os.ReadFile(filepath.Join(ws.imageDir, merge.LocalName("stonefly.png")))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("stonefly-bytes"))

			st, err := status.NewFileStore(ws.dataDir).Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Phase).To(Equal(status.PhaseSucceeded))
			Expect(st.ImagesDownloaded).To(Equal(2))
		})

		It("reconciles removals on the next run and keeps local flags", func() {
			_, err := ws.run("sync", "--plain")
			Expect(err).NotTo(HaveOccurred())

			p := openStore()
			streams, err := p.LoadStreams()
			Expect(err).NotTo(HaveOccurred())
			for i := range streams {
				streams[i].Favorite = streams[i].ID == "bog"
			}
			Expect(p.SaveStreams(streams)).To(Succeed())
			Expect(p.Close()).To(Succeed())

			site.RemoveStream("mill")
			site.PutStream(helpers.Stream{ID: "cold", Name: "Cold River", Updated: 300})

			_, err = ws.run("sync", "--plain")
			Expect(err).NotTo(HaveOccurred())

			out, err := ws.run("list", "streams", "--format", "json")
			Expect(err).NotTo(HaveOccurred())
			var items []search.Item
			Expect(json.Unmarshal([]byte(out), &items)).To(Succeed())
			ids := make([]string, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			Expect(ids).To(ConsistOf("bog", "cold"))

			out, err = ws.run("show", "stream", "bog")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Favorite:  yes"))
		})

		It("downloads nothing the second time", func() {
			_, err := ws.run("sync", "--plain")
			Expect(err).NotTo(HaveOccurred())

			out, err := ws.run("sync", "--plain")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Images: 0 of 0 downloaded"))
			Expect(ws.storedImages()).To(HaveLen(2))
		})
	})

	Context("when the site goes offline", func() {
		It("fails with a network status and keeps the previous data", func() {
			_, err := ws.run("sync", "--plain")
			Expect(err).NotTo(HaveOccurred())

			site.SetOffline(true)
			out, err := ws.run("sync", "--plain")
			Expect(err).To(HaveOccurred())
			Expect(out).To(ContainSubstring(domain.ExitFailedNetwork.String()))

			p := openStore()
			streams, err := p.LoadStreams()
			Expect(err).NotTo(HaveOccurred())
			Expect(streams).To(HaveLen(2))

			st, err := status.NewFileStore(ws.dataDir).Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Phase).To(Equal(status.PhaseFailed))
			Expect(st.AttemptCount).To(Equal(1))
			Expect(st.LastSuccess).NotTo(BeNil())
		})
	})

	Context("when the sync mode does not allow the trigger", func() {
		It("skips without contacting the site", func() {
			out, err := ws.run("sync", "--plain", "--trigger", "startup")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Sync skipped"))
			Expect(site.Requests()).To(BeZero())
		})
	})
})
